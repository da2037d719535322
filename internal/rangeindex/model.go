// Package rangeindex implements the sparse range index of spec §4.2
// (component C2): given a sorted run of entries and a granularity G,
// it samples every G-th key together with its byte offset, then
// answers equal_range(k) by binary-searching the samples and scanning
// at most G entries in the data file. It is adapted from the teacher's
// internal/index package — that package kept one RecordPointer per
// key in a dense in-memory hash map (a Bitcask-style full index); this
// one keeps one Sample per G keys, trading exact lookup for the
// memory budget a position database at this scale requires (spec §4.2
// is explicit that the index is "sparse").
package rangeindex

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/posdb/chessposdb/internal/key"
)

// Sample is one sparse index entry: a key together with the byte
// offset in the run file's data section where the entry with that key
// (or, during a scan, the first entry at-or-after it) begins.
type Sample struct {
	Key    key.Key
	Offset int64
}

// RangeIndex is the sparse sorted (key, offset) sample array for one
// run file, loaded into memory on open (spec §4.3, "Indices are loaded
// on open").
type RangeIndex struct {
	granularity int
	entrySize   int64

	mu      sync.RWMutex
	samples []Sample
	// entryCount is the total number of logical entries in the data
	// file this index describes, needed to bound equal_range's upper
	// end when the match is the last sample.
	entryCount int64

	log    *zap.SugaredLogger
	closed atomic.Bool
}

// Config configures a new RangeIndex.
type Config struct {
	// Granularity is G: every G-th key is sampled (spec §4.2, default
	// 1024, overridable per format).
	Granularity int

	// EntrySize is the fixed physical record size of the run file this
	// index describes, used to translate entry ordinals into byte
	// offsets.
	EntrySize int64

	Logger *zap.SugaredLogger
}
