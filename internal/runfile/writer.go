package runfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/rangeindex"
	"github.com/posdb/chessposdb/pkg/errors"
)

// Write creates a brand-new run file at dir/id from a sorted,
// de-duplicated slice of entries (spec §4.5, the pipeline's writer
// thread: "index build + file write"). granularity is the range
// index's G (spec §4.2).
func Write(dir string, id uint64, f *format.Format, entries []format.Entry, granularity int, pool *HandlePool, log *zap.SugaredLogger) (*RunFile, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	dataPath := DataPath(dir, id)
	out, err := os.OpenFile(dataPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, dataPath, filepath.Base(dataPath))
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	builder := rangeindex.NewBuilder(granularity, EntryStride(f))

	var offset int64
	for _, e := range entries {
		if f.Smeared {
			records, err := format.MarshalSmeared(f, e)
			if err != nil {
				return nil, err
			}
			builder.AddEntry(e.Key, offset)
			for _, rec := range records {
				if _, err := w.Write(rec); err != nil {
					return nil, fmt.Errorf("runfile: write id %d: %w", id, err)
				}
				offset += int64(f.EntrySize)
			}
			continue
		}

		buf, err := e.Marshal(f)
		if err != nil {
			return nil, err
		}
		builder.AddEntry(e.Key, offset)
		if _, err := w.Write(buf); err != nil {
			return nil, fmt.Errorf("runfile: write id %d: %w", id, err)
		}
		offset += int64(f.EntrySize)
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("runfile: flush id %d: %w", id, err)
	}
	if err := out.Sync(); err != nil {
		return nil, errors.ClassifySyncError(err, filepath.Base(dataPath), dataPath, int(offset))
	}

	idx := builder.Finish(log)
	if err := rangeindex.Persist(IndexPath(dir, id), idx); err != nil {
		return nil, fmt.Errorf("runfile: persist index for id %d: %w", id, err)
	}

	return &RunFile{id: id, dir: dir, fmt: f, pool: pool, log: log, Index: idx}, nil
}
