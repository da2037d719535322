package rangeindex

import (
	stdErrors "errors"
	"sort"

	"go.uber.org/zap"

	"github.com/posdb/chessposdb/internal/key"
)

// ErrClosed is returned by any operation against a closed RangeIndex.
var ErrClosed = stdErrors.New("rangeindex: operation on closed index")

// EntryReader lets EqualRange's bounded linear scan consult the
// underlying run file for the key at a given entry offset, without
// this package needing to know how run files are laid out on disk.
type EntryReader interface {
	KeyAt(offset int64) (key.Key, error)
}

// New creates an empty RangeIndex ready to be filled by a Builder, or
// populated wholesale via Load.
func New(cfg Config) *RangeIndex {
	if cfg.Granularity <= 0 {
		cfg.Granularity = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	return &RangeIndex{
		granularity: cfg.Granularity,
		entrySize:   cfg.EntrySize,
		log:         cfg.Logger,
	}
}

// Granularity returns G.
func (ri *RangeIndex) Granularity() int { return ri.granularity }

// Len returns how many samples the index currently holds.
func (ri *RangeIndex) Len() int {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return len(ri.samples)
}

// EntryCount returns the total number of logical entries the index
// describes.
func (ri *RangeIndex) EntryCount() int64 {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return ri.entryCount
}

// Close releases the index's in-memory sample array.
func (ri *RangeIndex) Close() error {
	if !ri.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.samples = nil
	return nil
}

// bracket returns the [loSampleOffset, hiSampleOffset) byte-offset
// window samples bracket target's without-reverse-move position: the
// widest range guaranteed to contain every entry equal to target under
// CompareWithoutReverseMove (spec §4.2, "equal_range compares with the
// without-reverse-move order").
func (ri *RangeIndex) bracket(target key.Key) (loOffset, hiOffset int64, found bool) {
	ri.mu.RLock()
	defer ri.mu.RUnlock()

	if len(ri.samples) == 0 {
		return 0, ri.entryCount * ri.entrySize, true
	}

	// idx is the first sample whose key is >= target under the
	// without-reverse-move order.
	idx := sort.Search(len(ri.samples), func(i int) bool {
		return ri.samples[i].Key.CompareWithoutReverseMove(target) >= 0
	})

	var lo int64
	if idx > 0 {
		lo = ri.samples[idx-1].Offset
	}

	hi := ri.entryCount * ri.entrySize
	if idx < len(ri.samples) {
		if ri.samples[idx].Key.CompareWithoutReverseMove(target) == 0 {
			// The matching run may span several samples when many
			// distinct reverse-move/level/result variants share a
			// hash; walk forward to the first sample past the run.
			j := idx
			for j+1 < len(ri.samples) && ri.samples[j+1].Key.CompareWithoutReverseMove(target) == 0 {
				j++
			}
			if j+1 < len(ri.samples) {
				hi = ri.samples[j+1].Offset
			}
		} else {
			hi = ri.samples[idx].Offset
		}
	}

	return lo, hi, true
}

// EqualRange returns the [lo, hi) byte-offset range of entries whose
// key equals target under the without-reverse-move order, bracketing
// via binary search over the sparse samples and then narrowing with a
// bounded linear scan through reader (spec §4.2).
func (ri *RangeIndex) EqualRange(target key.Key, reader EntryReader) (lo, hi int64, err error) {
	if ri.closed.Load() {
		return 0, 0, ErrClosed
	}

	bracketLo, bracketHi, _ := ri.bracket(target)
	if bracketLo >= bracketHi {
		return bracketLo, bracketLo, nil
	}

	// Narrow the lower bound: advance past every entry strictly less
	// than target.
	lo = bracketLo
	for lo < bracketHi {
		k, rerr := reader.KeyAt(lo)
		if rerr != nil {
			return 0, 0, rerr
		}
		if k.CompareWithoutReverseMove(target) >= 0 {
			break
		}
		lo += ri.entrySize
	}

	// Narrow the upper bound: advance past every entry equal to
	// target.
	hi = lo
	for hi < bracketHi {
		k, rerr := reader.KeyAt(hi)
		if rerr != nil {
			return 0, 0, rerr
		}
		if k.CompareWithoutReverseMove(target) != 0 {
			break
		}
		hi += ri.entrySize
	}

	return lo, hi, nil
}

// samplesSnapshot returns a defensive copy of the current samples, for
// Persist.
func (ri *RangeIndex) samplesSnapshot() ([]Sample, int64) {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	out := make([]Sample, len(ri.samples))
	copy(out, ri.samples)
	return out, ri.entryCount
}
