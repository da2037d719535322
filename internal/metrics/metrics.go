// Package metrics wires the store facade's observable counters and
// histograms through github.com/prometheus/client_golang, grounded on
// the per-concern promauto.NewCounterVec/NewHistogramVec style of
// rpcpool-yellowstone-faithful's metrics package. That package
// registers into the global default registry, which is right for a
// single long-running server binary; an embeddable library instead
// gets its own *prometheus.Registry per Metrics value so that two
// Stores opened in the same process (as the facade's tests do) don't
// collide registering the same collector names twice.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the store facade updates while
// importing, merging and querying.
type Metrics struct {
	Registry *prometheus.Registry

	// GamesImported/PositionsImported/GamesSkipped are labeled by
	// level (spec §4.6 per-level Stats).
	GamesImported     *prometheus.CounterVec
	PositionsImported *prometheus.CounterVec
	GamesSkipped      *prometheus.CounterVec

	// QueryDuration observes how long Engine.Execute takes per call.
	QueryDuration prometheus.Histogram

	// MergeDuration observes how long one mergeAll pass takes (spec
	// §4.4.1), labeled by whether it ran in-place or replicated
	// (spec §4.4.3).
	MergeDuration *prometheus.HistogramVec

	// OpenPartitions counts how many partitions a Store currently has
	// open (9 for db_alpha, 1 otherwise).
	OpenPartitions prometheus.Gauge
}

// New builds a Metrics value with its own private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		GamesImported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chessposdb_games_imported_total",
			Help: "Games successfully imported, by level.",
		}, []string{"level"}),
		PositionsImported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chessposdb_positions_imported_total",
			Help: "Positions tallied into the store, by level.",
		}, []string{"level"}),
		GamesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chessposdb_games_skipped_total",
			Help: "Games skipped for missing/unparseable result tags, by level.",
		}, []string{"level"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chessposdb_query_duration_seconds",
			Help:    "Engine.Execute wall time.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		MergeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chessposdb_merge_duration_seconds",
			Help:    "mergeAll wall time, by mode.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"mode"}),
		OpenPartitions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chessposdb_open_partitions",
			Help: "Number of partitions currently open.",
		}),
	}

	reg.MustRegister(
		m.GamesImported, m.PositionsImported, m.GamesSkipped,
		m.QueryDuration, m.MergeDuration, m.OpenPartitions,
	)
	return m
}
