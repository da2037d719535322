package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersEveryCollector(t *testing.T) {
	m := New()
	m.GamesImported.WithLabelValues("human").Inc()
	m.OpenPartitions.Set(9)

	if got := testutil.ToFloat64(m.GamesImported.WithLabelValues("human")); got != 1 {
		t.Fatalf("expected games imported counter of 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.OpenPartitions); got != 9 {
		t.Fatalf("expected open partitions gauge of 9, got %v", got)
	}

	count, err := testutil.GatherAndCount(m.Registry)
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count == 0 {
		t.Fatalf("expected at least one registered sample")
	}
}

func TestTwoMetricsDoNotCollide(t *testing.T) {
	a := New()
	b := New()
	a.GamesImported.WithLabelValues("human").Inc()
	b.GamesImported.WithLabelValues("human").Inc()

	if got := testutil.ToFloat64(a.GamesImported.WithLabelValues("human")); got != 1 {
		t.Fatalf("expected a's counter to be independent of b's, got %v", got)
	}
}
