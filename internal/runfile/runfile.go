package runfile

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/key"
	"github.com/posdb/chessposdb/internal/rangeindex"
)

// RunFile is an immutable (data, index) pair: one entry-buffer's worth
// of sorted, de-duplicated entries written once by the pipeline and
// never mutated thereafter (spec §3 "Ownership and lifecycle", §4.3).
type RunFile struct {
	id   uint64
	dir  string
	fmt  *format.Format
	pool *HandlePool

	Index *rangeindex.RangeIndex

	log *zap.SugaredLogger
}

// ID returns the run file's id, parsed from its filename.
func (rf *RunFile) ID() uint64 { return rf.id }

// DataPath returns the run file's data file path.
func (rf *RunFile) DataPath() string { return DataPath(rf.dir, rf.id) }

// IndexPath returns the run file's sibling range-index path.
func (rf *RunFile) IndexPath() string { return IndexPath(rf.dir, rf.id) }

// Less orders run files by id, the order spec §4.1 calls `operator<`.
func (rf *RunFile) Less(other *RunFile) bool { return rf.id < other.id }

// Open loads an existing run file's index (spec §4.3, "Indices are
// loaded on open") without eagerly opening its data file — the data
// file is opened lazily, through pool, on first read.
func Open(dir string, id uint64, f *format.Format, pool *HandlePool, log *zap.SugaredLogger) (*RunFile, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	idx, err := rangeindex.Load(IndexPath(dir, id), log)
	if err != nil {
		return nil, fmt.Errorf("runfile: load index for id %d: %w", id, err)
	}

	return &RunFile{id: id, dir: dir, fmt: f, pool: pool, Index: idx, log: log}, nil
}

// Adopt wraps an already-built index (freshly produced by the pipeline
// writer, spec §4.5) into a RunFile without re-reading it from disk.
func Adopt(dir string, id uint64, f *format.Format, idx *rangeindex.RangeIndex, pool *HandlePool, log *zap.SugaredLogger) *RunFile {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RunFile{id: id, dir: dir, fmt: f, pool: pool, Index: idx, log: log}
}

// physicalRecordSize is the byte width of one physical record on disk;
// for smeared formats this is the format's EntrySize, same as any
// other physical record — a logical entry just spans several of them.
func (rf *RunFile) physicalRecordSize() int64 { return int64(rf.fmt.EntrySize) }

// EntryStride is how many bytes one logical entry of format f occupies
// on disk: its EntrySize for ordinary formats, or 3x that for smeared
// formats (spec §3, db_delta_smeared). The range index samples by
// entry ordinal, so this is also the stride rangeindex.Builder needs.
func EntryStride(f *format.Format) int64 {
	if f.Smeared {
		return int64(f.EntrySize) * 3
	}
	return int64(f.EntrySize)
}

func (rf *RunFile) readAt(offset int64, buf []byte) error {
	f, err := rf.pool.Get(rf.DataPath())
	if err != nil {
		return fmt.Errorf("runfile: open data file for id %d: %w", rf.id, err)
	}
	_, err = f.ReadAt(buf, offset)
	return err
}

// KeyAt implements rangeindex.EntryReader: it reads the single
// physical record at offset and returns its key. For smeared formats
// this returns the first physical record's key, which equal_range's
// search only needs for key comparison, not full entry reconstruction.
func (rf *RunFile) KeyAt(offset int64) (key.Key, error) {
	buf := make([]byte, rf.physicalRecordSize())
	if err := rf.readAt(offset, buf); err != nil {
		return key.Key{}, err
	}
	if rf.fmt.Smeared {
		// The key occupies the same first 12 bytes in every physical
		// record of a smeared format; IsFirstSmearRecord's flag bit is
		// masked out so every record of one logical entry compares
		// equal.
		e, err := format.UnmarshalSmearedPartial(rf.fmt, buf)
		if err != nil {
			return key.Key{}, err
		}
		return e, nil
	}
	e, err := format.Unmarshal(rf.fmt, buf)
	if err != nil {
		return key.Key{}, err
	}
	return e.Key, nil
}

// ReadEntry reads and decodes one non-smeared entry at offset.
func (rf *RunFile) ReadEntry(offset int64) (format.Entry, error) {
	buf := make([]byte, rf.physicalRecordSize())
	if err := rf.readAt(offset, buf); err != nil {
		return format.Entry{}, err
	}
	return format.Unmarshal(rf.fmt, buf)
}

// ReadSmearedEntry reads the 3 consecutive physical records starting
// at offset (which must be the first record of their logical entry)
// and reconstructs the logical entry (spec §3, db_delta_smeared).
func (rf *RunFile) ReadSmearedEntry(offset int64) (format.Entry, error) {
	recSize := rf.physicalRecordSize()
	raw := make([]byte, recSize*3)
	if err := rf.readAt(offset, raw); err != nil {
		return format.Entry{}, err
	}
	records := [][]byte{raw[0:recSize], raw[recSize : 2*recSize], raw[2*recSize : 3*recSize]}
	return format.UnmarshalSmeared(rf.fmt, records)
}

// Read reads count consecutive entries starting at the physical
// record offset start (spec §4.3, `read(buffer, start, count)`). For
// non-smeared formats each entry is one physical record; for smeared
// formats each logical entry consumes 3.
func (rf *RunFile) Read(start int64, count int) ([]format.Entry, error) {
	entries := make([]format.Entry, 0, count)
	recSize := rf.physicalRecordSize()
	stride := recSize
	if rf.fmt.Smeared {
		stride = recSize * 3
	}

	offset := start
	for i := 0; i < count; i++ {
		var e format.Entry
		var err error
		if rf.fmt.Smeared {
			e, err = rf.ReadSmearedEntry(offset)
		} else {
			e, err = rf.ReadEntry(offset)
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
		offset += stride
	}
	return entries, nil
}

// Size returns the data file's size in bytes, used by merge grouping
// to estimate a group's temporary-space cost (spec §4.4.1 rule 1).
func (rf *RunFile) Size() (int64, error) {
	info, err := os.Stat(rf.DataPath())
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Remove deletes the run file's data and index files, evicting any
// pooled handle first (spec §4.4, "A run file ... is deleted only by a
// merge that has produced a successor, or by an explicit clear").
func (rf *RunFile) Remove() error {
	rf.pool.Evict(rf.DataPath())
	if err := rf.Index.Close(); err != nil && err != rangeindex.ErrClosed {
		rf.log.Warnw("failed to close range index before removal", "id", rf.id, "error", err)
	}
	if err := os.Remove(rf.DataPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("runfile: remove data file for id %d: %w", rf.id, err)
	}
	if err := os.Remove(rf.IndexPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("runfile: remove index file for id %d: %w", rf.id, err)
	}
	return nil
}
