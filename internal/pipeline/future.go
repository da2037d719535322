package pipeline

import (
	"context"

	"github.com/posdb/chessposdb/internal/runfile"
)

// Future is the promise of a run file a producer gets back from
// ScheduleUnordered, resolved once the writer thread finishes building
// the file's index and writing both its files to disk.
type Future struct {
	done chan struct{}
	file *runfile.RunFile
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(rf *runfile.RunFile, err error) {
	f.file = rf
	f.err = err
	close(f.done)
}

// Wait blocks until the run file is ready, or ctx is done first.
func (f *Future) Wait(ctx context.Context) (*runfile.RunFile, error) {
	select {
	case <-f.done:
		return f.file, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
