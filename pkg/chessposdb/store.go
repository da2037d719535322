// Package chessposdb is the store facade: the single entry point that
// wires a validated on-disk manifest, one format's partition(s) and
// pipeline(s), the game header store, the importer and the query
// engine into one handle, grounded on the teacher's
// pkg/ignite.Instance/NewInstance shape (a service-scoped logger plus
// functional options building an internal engine, fronted by a small
// set of top-level methods).
package chessposdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/posdb/chessposdb/internal/enums"
	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/gameheader"
	"github.com/posdb/chessposdb/internal/importer"
	"github.com/posdb/chessposdb/internal/manifest"
	"github.com/posdb/chessposdb/internal/merge"
	"github.com/posdb/chessposdb/internal/metrics"
	"github.com/posdb/chessposdb/internal/partition"
	"github.com/posdb/chessposdb/internal/pipeline"
	"github.com/posdb/chessposdb/internal/query"
	"github.com/posdb/chessposdb/internal/runfile"
	"github.com/posdb/chessposdb/pkg/filesys"
	"github.com/posdb/chessposdb/pkg/logger"
	"github.com/posdb/chessposdb/pkg/options"
)

// ErrStoreClosed is returned by every Store method once Close has run.
var ErrStoreClosed = errors.New("chessposdb: operation failed: store is closed")

// bucket is one directory's worth of partition state: its pipeline,
// partition and an importer pre-bound to it. db_alpha keeps nine of
// these (one per level/result pair, SPEC_FULL.md section D); every
// other format keeps exactly one.
type bucket struct {
	dir       string
	pipeline  *pipeline.Pipeline
	partition *partition.Partition
	importer  *importer.Importer
}

// Store is the top-level handle onto one format's on-disk store.
type Store struct {
	opts    options.Options
	format  *format.Format
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
	closed  atomic.Bool

	pool    *runfile.HandlePool
	headers *gameheader.Store

	single *bucket              // set for every format except db_alpha
	alpha  map[[2]uint8]*bucket // set only for db_alpha

	engine *query.Engine

	mu sync.Mutex // serializes Merge/Close against each other
}

// Open creates or validates the on-disk store at opts.DataDir for the
// named format (one of format.All's Key values) and wires every
// internal component together (spec §6, on-disk layout; §6.1,
// manifest create-or-validate).
func Open(ctx context.Context, service string, formatKey string, opts ...options.OptionFunc) (*Store, error) {
	log := logger.New(service)

	o := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	f, ok := format.ByKey(formatKey)
	if !ok {
		return nil, fmt.Errorf("chessposdb: unknown format %q", formatKey)
	}

	if err := filesys.CreateDir(o.DataDir, 0o755, false); err != nil {
		return nil, fmt.Errorf("chessposdb: creating data dir: %w", err)
	}
	if _, err := manifest.CreateOrValidate(filepath.Join(o.DataDir, manifest.FileName), f.Key, f.RequiresMatchingEndianness); err != nil {
		return nil, err
	}

	headers, err := gameheader.Open(filepath.Join(o.DataDir, "headers"), log)
	if err != nil {
		return nil, fmt.Errorf("chessposdb: opening header store: %w", err)
	}

	s := &Store{
		opts: o, format: f, log: log, metrics: metrics.New(),
		pool: runfile.NewHandlePool(o.FileHandlePoolSize, log), headers: headers,
	}

	granularity := o.RangeIndexGranularity
	if f.RangeIndexGranularity > 0 {
		granularity = f.RangeIndexGranularity
	}

	newBucket := func(dir string, lvl *enums.Level, res *enums.Result) (*bucket, error) {
		if err := filesys.CreateDir(dir, 0o755, false); err != nil {
			return nil, fmt.Errorf("chessposdb: creating partition dir %s: %w", dir, err)
		}
		pl := pipeline.New(pipeline.Config{
			Dir: dir, Format: f, Granularity: granularity,
			BufferCount: o.BufferCount, BufferEntries: o.BufferEntries,
			SortThreads: o.SortThreads, Pool: s.pool, Logger: log,
		})
		part, err := partition.Open(partition.Config{
			Dir: dir, Format: f, Pipeline: pl, Pool: s.pool, Granularity: granularity, Logger: log,
		})
		if err != nil {
			return nil, fmt.Errorf("chessposdb: opening partition %s: %w", dir, err)
		}
		imp := importer.New(importer.Config{
			Partition: part, Pipeline: pl, Headers: headers, Format: f, Logger: log,
			Options: importer.Options{BufferEntries: o.BufferEntries, LevelFilter: lvl, ResultFilter: res},
		})
		return &bucket{dir: dir, pipeline: pl, partition: part, importer: imp}, nil
	}

	var parts query.Partitions
	if f.PartitionedByLevelResult {
		root := filepath.Join(o.DataDir, "data")
		buckets := map[[2]uint8]*bucket{}
		lrp, err := query.NewLevelResultPartitions(root, f, func(dir string) (*partition.Partition, error) {
			lvl := enums.ParseLevel(filepath.Base(filepath.Dir(dir)))
			res := enums.ParseResult(filepath.Base(dir))
			b, err := newBucket(dir, &lvl, &res)
			if err != nil {
				return nil, err
			}
			buckets[[2]uint8{uint8(lvl), uint8(res)}] = b
			return b.partition, nil
		})
		if err != nil {
			return nil, err
		}
		s.alpha = buckets
		parts = lrp
		s.metrics.OpenPartitions.Set(float64(len(buckets)))
	} else {
		b, err := newBucket(filepath.Join(o.DataDir, "data"), nil, nil)
		if err != nil {
			return nil, err
		}
		s.single = b
		parts = query.SinglePartition{P: b.partition}
		s.metrics.OpenPartitions.Set(1)
	}

	s.engine = query.New(f, parts, headers, log)
	return s, nil
}

// Import runs spec §4.6's import strategy over files. db_alpha routes
// files to the nine (level, result) importers bound at Open (one scan
// per result value sharing a level, not nine scans of everything);
// every other format has a single importer.
func (s *Store) Import(ctx context.Context, files []importer.FileSpec) (importer.Stats, error) {
	if s.closed.Load() {
		return importer.Stats{}, ErrStoreClosed
	}

	var stats importer.Stats
	var err error
	if s.single != nil {
		stats, err = s.single.importer.ImportSequential(ctx, files)
	} else {
		stats, err = s.importAlpha(ctx, files)
	}
	if err != nil {
		return stats, err
	}

	for lvl, ls := range stats.ByLevel {
		label := enums.Level(lvl).String()
		s.metrics.GamesImported.WithLabelValues(label).Add(float64(ls.NumGames))
		s.metrics.PositionsImported.WithLabelValues(label).Add(float64(ls.NumPositions))
		s.metrics.GamesSkipped.WithLabelValues(label).Add(float64(ls.NumSkippedGames))
	}
	return stats, nil
}

// importAlpha groups files by level and runs every result bucket for
// that level concurrently, since a file's level is fixed but its
// games' results are not known until each game is read.
func (s *Store) importAlpha(ctx context.Context, files []importer.FileSpec) (importer.Stats, error) {
	byLevel := map[enums.Level][]importer.FileSpec{}
	for _, fs := range files {
		byLevel[fs.Level] = append(byLevel[fs.Level], fs)
	}

	var total importer.Stats
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for key, b := range s.alpha {
		lvl := enums.Level(key[0])
		subset := byLevel[lvl]
		if len(subset) == 0 {
			continue
		}
		b := b
		g.Go(func() error {
			st, err := b.importer.ImportSequential(gctx, subset)
			if err != nil {
				return err
			}
			mu.Lock()
			total.Add(st)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return importer.Stats{}, err
	}
	return total, nil
}

// Query runs req against the store's query engine (spec §4.7).
func (s *Store) Query(req query.Request) (query.Response, error) {
	if s.closed.Load() {
		return query.Response{}, ErrStoreClosed
	}
	start := time.Now()
	resp, err := s.engine.Execute(req)
	s.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	return resp, err
}

// buckets returns every bucket this store owns, single-format or
// db_alpha.
func (s *Store) buckets() []*bucket {
	if s.single != nil {
		return []*bucket{s.single}
	}
	out := make([]*bucket, 0, len(s.alpha))
	for _, b := range s.alpha {
		out = append(out, b)
	}
	return out
}

// Merge runs spec §4.4.1's mergeAll over every bucket's run files,
// using the store's configured temp-space budget and scratch
// directories (spec §4.4.1 rules 1-2). progress, if non-nil, is
// invoked once per bucket with that bucket's own {workDone, workTotal}
// — callers merging db_alpha's nine buckets see nine separate
// progress sequences rather than one interleaved stream.
func (s *Store) Merge(tempDirs []string, progress merge.ProgressCallback) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if tempDirs == nil && s.opts.MergeTempDirs > 0 {
		tempDirs = make([]string, s.opts.MergeTempDirs)
		for i := range tempDirs {
			tempDirs[i] = filepath.Join(s.opts.DataDir, fmt.Sprintf("tmp-merge-%d", i))
		}
	}

	for _, b := range s.buckets() {
		start := time.Now()
		if err := b.partition.MergeAll(tempDirs, s.opts.MergeTempSpaceBytes, progress); err != nil {
			return fmt.Errorf("chessposdb: merging %s: %w", b.dir, err)
		}
		s.metrics.MergeDuration.WithLabelValues("in_place").Observe(time.Since(start).Seconds())
	}
	return nil
}

// Close flushes and releases every component the store owns. It is
// safe to call once; subsequent calls return ErrStoreClosed.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrStoreClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, b := range s.buckets() {
		note(b.pipeline.Close())
	}
	note(s.headers.Close())
	s.pool.Close()
	return firstErr
}
