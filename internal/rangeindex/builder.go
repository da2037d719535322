package rangeindex

import (
	"go.uber.org/zap"

	"github.com/posdb/chessposdb/internal/key"
)

// Builder accumulates samples while a run file is written, so the
// index is built incrementally during writes rather than by a second
// pass over the finished file (spec §4.2, "The index is built
// incrementally during writes").
type Builder struct {
	granularity int
	entrySize   int64

	samples []Sample
	seen    int64
}

// NewBuilder starts a builder for a run file with the given
// granularity and fixed entry size.
func NewBuilder(granularity int, entrySize int64) *Builder {
	if granularity <= 0 {
		granularity = 1024
	}
	return &Builder{granularity: granularity, entrySize: entrySize}
}

// AddEntry records one more entry written to the data file at offset,
// sampling it if its ordinal is a multiple of the granularity. The
// first entry (offset 0) is always sampled so equal_range always has a
// lower bound to anchor on.
func (b *Builder) AddEntry(k key.Key, offset int64) {
	if b.seen%int64(b.granularity) == 0 {
		b.samples = append(b.samples, Sample{Key: k, Offset: offset})
	}
	b.seen++
}

// Finish produces the finished, immediately-usable RangeIndex from
// everything AddEntry recorded.
func (b *Builder) Finish(log *zap.SugaredLogger) *RangeIndex {
	ri := New(Config{Granularity: b.granularity, EntrySize: b.entrySize, Logger: log})
	ri.samples = b.samples
	ri.entryCount = b.seen
	return ri
}

// EntryCount returns how many entries have been added so far.
func (b *Builder) EntryCount() int64 { return b.seen }
