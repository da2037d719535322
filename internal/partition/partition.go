// Package partition implements the partition of spec §4.4 (component
// C4): one directory, a sorted vector of open run files, and the set
// of futures for files the pipeline hasn't finished writing yet.
//
// Grounded on the teacher's internal/engine coordinator — the same
// role of owning a directory's worth of on-disk state and fronting it
// with a small, synchronous-looking API backed by asynchronous work —
// generalized from a single active segment to a vector of immutable,
// mergeable run files.
package partition

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/merge"
	"github.com/posdb/chessposdb/internal/pipeline"
	"github.com/posdb/chessposdb/internal/runfile"
	"github.com/posdb/chessposdb/pkg/errors"
)

// Config configures a Partition.
type Config struct {
	Dir         string
	Format      *format.Format
	Pipeline    *pipeline.Pipeline
	Pool        *runfile.HandlePool
	Granularity int
	Logger      *zap.SugaredLogger
}

// Partition owns one directory's run files for one format.
type Partition struct {
	mu          sync.RWMutex
	dir         string
	format      *format.Format
	pipeline    *pipeline.Pipeline
	pool        *runfile.HandlePool
	granularity int
	log         *zap.SugaredLogger

	files   []*runfile.RunFile
	futures map[uint64]*pipeline.Future
}

// Open discovers and opens every run file already in dir (spec
// §4.4.2): enumerate regular, non-empty files whose name does not
// contain "index", parse each as an id, open it, and sort by id.
func Open(cfg Config) (*Partition, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	ids, err := runfile.ListIDs(cfg.Dir)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to discover run files").WithPath(cfg.Dir)
	}

	files := make([]*runfile.RunFile, 0, len(ids))
	for _, id := range ids {
		if info, err := os.Stat(runfile.DataPath(cfg.Dir, id)); err == nil && info.Size() == 0 {
			continue
		}
		rf, err := runfile.Open(cfg.Dir, id, cfg.Format, cfg.Pool, cfg.Logger)
		if err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open run file").WithPath(cfg.Dir)
		}
		files = append(files, rf)
	}

	cfg.Logger.Infow("partition opened", "dir", cfg.Dir, "files", len(files))

	return &Partition{
		dir: cfg.Dir, format: cfg.Format, pipeline: cfg.Pipeline,
		pool: cfg.Pool, granularity: cfg.Granularity, log: cfg.Logger,
		files: files, futures: make(map[uint64]*pipeline.Future),
	}, nil
}

// Files returns a defensive snapshot of the partition's currently open
// run files, sorted by id.
func (p *Partition) Files() []*runfile.RunFile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*runfile.RunFile, len(p.files))
	copy(out, p.files)
	return out
}

// NextID returns 1 + the maximum id among the partition's open files
// and its outstanding futures (spec §4.4, `nextId()`).
func (p *Partition) NextID() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nextIDLocked()
}

func (p *Partition) nextIDLocked() uint64 {
	var max uint64
	for _, f := range p.files {
		if f.ID() > max {
			max = f.ID()
		}
	}
	for id := range p.futures {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// StoreUnordered ships entries to the pipeline as a sort+write job and
// records a future keyed by the next id, or forceID if the caller
// supplies one (spec §4.4, `storeUnordered`). It returns the id the
// job was scheduled under.
func (p *Partition) StoreUnordered(ctx context.Context, entries []format.Entry, forceID ...uint64) (uint64, error) {
	p.mu.Lock()
	var id uint64
	if len(forceID) > 0 {
		id = forceID[0]
	} else {
		id = p.nextIDLocked()
	}
	p.mu.Unlock()

	fut, err := p.pipeline.ScheduleUnordered(ctx, id, entries)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.futures[id] = fut
	p.mu.Unlock()
	return id, nil
}

// CollectFutureFiles blocks on every outstanding future in id order,
// inserting each produced file into the file vector as it resolves
// (spec §4.4, `collectFutureFiles`).
func (p *Partition) CollectFutureFiles(ctx context.Context) error {
	p.mu.Lock()
	ids := make([]uint64, 0, len(p.futures))
	for id := range p.futures {
		ids = append(ids, id)
	}
	p.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		p.mu.Lock()
		fut, ok := p.futures[id]
		p.mu.Unlock()
		if !ok {
			continue
		}

		rf, err := fut.Wait(ctx)
		if err != nil {
			return fmt.Errorf("partition: collecting future for id %d: %w", id, err)
		}

		p.mu.Lock()
		delete(p.futures, id)
		p.insertSortedLocked(rf)
		p.mu.Unlock()
	}
	return nil
}

func (p *Partition) insertSortedLocked(rf *runfile.RunFile) {
	i := sort.Search(len(p.files), func(i int) bool { return p.files[i].ID() >= rf.ID() })
	p.files = append(p.files, nil)
	copy(p.files[i+1:], p.files[i:])
	p.files[i] = rf
}

// Clear removes every file in the partition and its sibling index
// from disk (spec §4.4, `clear()`).
func (p *Partition) Clear() error {
	p.mu.Lock()
	files := p.files
	p.files = nil
	p.mu.Unlock()

	for _, f := range files {
		if err := f.Remove(); err != nil {
			return fmt.Errorf("partition: clear: %w", err)
		}
	}
	return nil
}

// MergeAll collapses the partition's files in place per spec §4.4.1,
// replacing the file vector with the merge's output.
func (p *Partition) MergeAll(tempDirs []string, tempSpaceBudget uint64, progress merge.ProgressCallback) error {
	p.mu.RLock()
	files := make([]*runfile.RunFile, len(p.files))
	copy(files, p.files)
	p.mu.RUnlock()

	merged, err := merge.MergeAll(p.dir, files, p.format, p.granularity, p.pool, tempSpaceBudget, tempDirs, progress, p.log)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.files = merged
	p.mu.Unlock()
	return nil
}

// ReplicateMergeAll merges the partition's files into outDir without
// touching the partition's own files (spec §4.4.1 rule 8).
func (p *Partition) ReplicateMergeAll(outDir string, progress merge.ProgressCallback) (*runfile.RunFile, error) {
	p.mu.RLock()
	files := make([]*runfile.RunFile, len(p.files))
	copy(files, p.files)
	p.mu.RUnlock()

	return merge.ReplicateMergeAll(files, outDir, p.format, p.granularity, p.pool, progress, p.log)
}

// Format returns the partition's entry format.
func (p *Partition) Format() *format.Format { return p.format }
