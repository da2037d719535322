// Package pipeline implements the async store pipeline of spec §4.5
// (component C5): a fixed pool of entry-buffers circulates between a
// sort stage and a single writer stage, producing new immutable run
// files without ever blocking a producer on disk I/O directly.
//
// The original design describes the three stages as queues guarded by
// one mutex and three condition variables (buffer-available,
// sort-queue, write-queue). This implementation uses Go channels for
// the same three queues — a channel is the idiomatic Go stand-in for a
// mutex-guarded condition-variable queue — and golang.org/x/sync's
// errgroup to own the sort-thread pool and the writer goroutine's
// lifecycle instead of hand-rolled WaitGroups.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/runfile"
)

var errClosed = fmt.Errorf("pipeline: operation on a closed pipeline")

// job is one producer's submission as it moves from the sort queue to
// the write queue.
type job struct {
	id      uint64
	entries []format.Entry
	promise *Future
}

// Config configures a Pipeline.
type Config struct {
	Dir           string
	Format        *format.Format
	Granularity   int
	BufferCount   int
	BufferEntries int
	SortThreads   int
	Pool          *runfile.HandlePool
	Logger        *zap.SugaredLogger
}

// Pipeline is the async store pipeline: producers hand it unordered
// entry buffers, it returns futures of the run files it writes.
type Pipeline struct {
	dir         string
	format      *format.Format
	granularity int
	pool        *runfile.HandlePool
	log         *zap.SugaredLogger

	bufferCh chan []format.Entry
	sortCh   chan *job
	writeCh  chan *job

	sortGroup  *errgroup.Group
	writeGroup *errgroup.Group
	closed     atomic.Bool
}

// New starts a Pipeline's sort-thread pool and writer goroutine and
// returns it ready to accept work.
func New(cfg Config) *Pipeline {
	if cfg.SortThreads <= 0 {
		cfg.SortThreads = 1
	}
	if cfg.BufferCount <= 0 {
		cfg.BufferCount = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	p := &Pipeline{
		dir:         cfg.Dir,
		format:      cfg.Format,
		granularity: cfg.Granularity,
		pool:        cfg.Pool,
		log:         cfg.Logger,
		bufferCh:    make(chan []format.Entry, cfg.BufferCount),
		sortCh:      make(chan *job, cfg.BufferCount),
		writeCh:     make(chan *job, cfg.BufferCount),
		sortGroup:   &errgroup.Group{},
		writeGroup:  &errgroup.Group{},
	}

	for i := 0; i < cfg.BufferCount; i++ {
		p.bufferCh <- make([]format.Entry, 0, cfg.BufferEntries)
	}

	for i := 0; i < cfg.SortThreads; i++ {
		p.sortGroup.Go(p.sortLoop)
	}
	p.writeGroup.Go(p.writeLoop)

	p.log.Infow(
		"pipeline started",
		"dir", cfg.Dir, "bufferCount", cfg.BufferCount,
		"bufferEntries", cfg.BufferEntries, "sortThreads", cfg.SortThreads,
	)
	return p
}

// GetEmptyBuffer blocks until an empty entry buffer is available,
// matching the original's back-pressure contract: producers stall
// here once every buffer is in flight.
func (p *Pipeline) GetEmptyBuffer(ctx context.Context) ([]format.Entry, error) {
	select {
	case buf := <-p.bufferCh:
		return buf[:0], nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ScheduleUnordered submits a filled buffer for sort-then-write,
// returning a Future of the resulting run file. id is the file id the
// writer will use; the partition layer picks it, either its own next
// id or one the caller forces (the parallel importer's preassigned
// per-block ids).
func (p *Pipeline) ScheduleUnordered(ctx context.Context, id uint64, entries []format.Entry) (*Future, error) {
	if p.closed.Load() {
		return nil, errClosed
	}

	fut := newFuture()
	j := &job{id: id, entries: entries, promise: fut}

	select {
	case p.sortCh <- j:
		return fut, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pipeline) sortLoop() error {
	for j := range p.sortCh {
		j.entries = sortAndCombine(j.entries)
		p.writeCh <- j
	}
	return nil
}

func (p *Pipeline) writeLoop() error {
	for j := range p.writeCh {
		rf, err := runfile.Write(p.dir, j.id, p.format, j.entries, p.granularity, p.pool, p.log)
		if err != nil {
			p.log.Errorw("pipeline write failed", "id", j.id, "error", err)
		}
		j.promise.resolve(rf, err)

		buf := j.entries[:0]
		select {
		case p.bufferCh <- buf:
		default:
			// The pool is oversubscribed (shouldn't happen: every
			// buffer handed out is returned exactly once), drop it
			// rather than block the writer forever.
		}
	}
	return nil
}

// WaitForCompletion signals the sort threads to stop taking new jobs,
// joins them, then does the same for the writer — mirroring the
// original's two-phase shutdown (sort threads drain into the write
// queue before the writer is told to stop). Safe to call more than
// once; only the first call does anything.
func (p *Pipeline) WaitForCompletion() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(p.sortCh)
	if err := p.sortGroup.Wait(); err != nil {
		return err
	}

	close(p.writeCh)
	return p.writeGroup.Wait()
}

// Close is an alias for WaitForCompletion, for callers that prefer an
// io.Closer-shaped API.
func (p *Pipeline) Close() error {
	return p.WaitForCompletion()
}
