package runfile

import "github.com/posdb/chessposdb/internal/format"

// Iterator streams a run file's entries in on-disk order, for
// sequential consumers like the merge algorithm that never need
// random access (spec §4.4.1, "classic tournament/heap merge").
type Iterator struct {
	rf     *RunFile
	offset int64
	stride int64
	total  int64
	done   bool
}

// Iterator returns a fresh sequential iterator over rf.
func (rf *RunFile) Iterator() *Iterator {
	return &Iterator{rf: rf, stride: EntryStride(rf.fmt), total: rf.Index.EntryCount()}
}

// Next returns the next entry, or ok=false once the file is exhausted.
func (it *Iterator) Next() (format.Entry, bool, error) {
	if it.done || it.offset >= it.total*it.stride {
		return format.Entry{}, false, nil
	}

	var e format.Entry
	var err error
	if it.rf.fmt.Smeared {
		e, err = it.rf.ReadSmearedEntry(it.offset)
	} else {
		e, err = it.rf.ReadEntry(it.offset)
	}
	if err != nil {
		it.done = true
		return format.Entry{}, false, err
	}

	it.offset += it.stride
	return e, true, nil
}
