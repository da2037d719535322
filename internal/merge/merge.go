package merge

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/posdb/chessposdb/internal/format"
	mformat "github.com/posdb/chessposdb/internal/rangeindex"
	"github.com/posdb/chessposdb/internal/runfile"
	"github.com/posdb/chessposdb/pkg/filesys"
)

// ProgressCallback receives {workDone, workTotal} as a merge
// progresses (spec §4.4.1 rule 7).
type ProgressCallback func(workDone, workTotal int64)

// MergeGroup merges one Group's files into a single new run file,
// staged per plan and named by the first input's id (spec §4.4.1 rules
// 4-6). When deleteInputs is set, the old inputs are removed before
// the staging file is promoted, since the promotion's destination
// path can coincide with one of them; ReplicateMergeAll passes false
// to leave the inputs untouched.
func MergeGroup(group Group, plan Plan, f *format.Format, granularity int, pool *runfile.HandlePool, log *zap.SugaredLogger, onBytes func(int64), deleteInputs bool) (*runfile.RunFile, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if len(group.Files) == 0 {
		return nil, fmt.Errorf("merge: empty group")
	}

	suffix := uuid.NewString()
	stagingData := runfile.TransientDataPath(plan.StagingDir, suffix)
	stagingIndex := runfile.TransientIndexPath(plan.StagingDir, suffix)

	out, err := os.OpenFile(stagingData, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("merge: create staging file: %w", err)
	}
	w := bufio.NewWriter(out)

	builder := mformat.NewBuilder(granularity, runfile.EntryStride(f))
	var offset int64

	iters := make([]*runfile.Iterator, len(group.Files))
	for i, rf := range group.Files {
		iters[i] = rf.Iterator()
	}

	emit := func(e format.Entry) error {
		builder.AddEntry(e.Key, offset)
		if f.Smeared {
			records, err := format.MarshalSmeared(f, e)
			if err != nil {
				return err
			}
			for _, rec := range records {
				if _, err := w.Write(rec); err != nil {
					return err
				}
			}
		} else {
			buf, err := e.Marshal(f)
			if err != nil {
				return err
			}
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
		offset += runfile.EntryStride(f)
		return nil
	}

	mergeErr := mergeStreams(iters, f, emit, onBytes)
	flushErr := w.Flush()
	syncErr := out.Sync()
	closeErr := out.Close()
	if mergeErr != nil {
		os.Remove(stagingData)
		return nil, fmt.Errorf("merge: %w", mergeErr)
	}
	if flushErr != nil || syncErr != nil || closeErr != nil {
		os.Remove(stagingData)
		return nil, fmt.Errorf("merge: flush/sync/close staging file: %v/%v/%v", flushErr, syncErr, closeErr)
	}

	idx := builder.Finish(log)
	if err := mformat.Persist(stagingIndex, idx); err != nil {
		os.Remove(stagingData)
		return nil, fmt.Errorf("merge: persist staging index: %w", err)
	}

	finalID := group.Files[0].ID()
	finalData := runfile.DataPath(plan.OutputDir, finalID)
	finalIndex := runfile.IndexPath(plan.OutputDir, finalID)

	// The old inputs (including, in the common case, the very file at
	// finalID) must be gone before we promote the staging file into
	// place, since the rename's destination can be the same path as
	// one of the inputs (spec §4.4.1 rule 6: "renamed ... after the
	// old inputs and their indices are removed").
	if deleteInputs {
		for _, old := range group.Files {
			if err := old.Remove(); err != nil {
				os.Remove(stagingData)
				os.Remove(stagingIndex)
				return nil, fmt.Errorf("merge: remove superseded file id %d: %w", old.ID(), err)
			}
		}
	}

	if err := promote(stagingData, finalData); err != nil {
		return nil, fmt.Errorf("merge: promote data file: %w", err)
	}
	if err := promote(stagingIndex, finalIndex); err != nil {
		return nil, fmt.Errorf("merge: promote index file: %w", err)
	}

	return runfile.Adopt(plan.OutputDir, finalID, f, idx, pool, log), nil
}

// promote moves a staging file into its final path atomically (spec
// §4.4.1 rule 6: "The rename is atomic at the filesystem level"). When
// the staging and final paths are in the same directory,
// filesys.AtomicRename is a plain atomic rename; across directories it
// falls back to copy-then-remove, since an atomic rename cannot cross
// filesystems.
func promote(stagingPath, finalPath string) error {
	if filepath.Dir(stagingPath) == filepath.Dir(finalPath) {
		return filesys.AtomicRename(stagingPath, finalPath)
	}
	if err := filesys.CopyFile(stagingPath, finalPath); err != nil {
		return err
	}
	return os.Remove(stagingPath)
}

// MergeAll collapses every file in files into as few files as
// tempSpaceBudget allows (0 = one output file), deleting the old
// inputs after each group's merge succeeds (spec §4.4, `mergeAll`).
// files must already be sorted by id.
func MergeAll(dir string, files []*runfile.RunFile, f *format.Format, granularity int, pool *runfile.HandlePool, tempSpaceBudget uint64, tempDirs []string, progress ProgressCallback, log *zap.SugaredLogger) ([]*runfile.RunFile, error) {
	groups, err := GroupByTempSpace(files, tempSpaceBudget)
	if err != nil {
		return nil, err
	}

	workTotal := AssessWork(groups)
	var workDone int64
	report := func(delta int64) {
		workDone += delta
		if progress != nil {
			progress(workDone, workTotal)
		}
	}

	plan := PlanDirectories(dir, tempDirs)

	results := make([]*runfile.RunFile, 0, len(groups))
	for _, g := range groups {
		if len(g.Files) == 1 {
			report(g.TotalBytes)
			results = append(results, g.Files[0])
			continue
		}

		merged, err := MergeGroup(g, plan, f, granularity, pool, log, report, true)
		if err != nil {
			return nil, err
		}

		results = append(results, merged)
	}

	return results, nil
}

// ReplicateMergeAll performs the same merge as MergeAll but writes
// into outDir without deleting the inputs; a one-file input set
// degenerates to a file copy (spec §4.4.1 rule 8).
func ReplicateMergeAll(files []*runfile.RunFile, outDir string, f *format.Format, granularity int, pool *runfile.HandlePool, progress ProgressCallback, log *zap.SugaredLogger) (*runfile.RunFile, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("merge: replicateMergeAll with no input files")
	}

	if len(files) == 1 {
		src := files[0]
		id := src.ID()
		destData := runfile.DataPath(outDir, id)
		destIndex := runfile.IndexPath(outDir, id)
		if err := filesys.CopyFile(src.DataPath(), destData); err != nil {
			return nil, fmt.Errorf("merge: replicate copy data: %w", err)
		}
		if err := filesys.CopyFile(src.IndexPath(), destIndex); err != nil {
			return nil, fmt.Errorf("merge: replicate copy index: %w", err)
		}
		if progress != nil {
			size, _ := src.Size()
			progress(size, size)
		}
		return runfile.Adopt(outDir, id, f, src.Index, pool, log), nil
	}

	group := Group{Files: files}
	for _, rf := range files {
		size, err := rf.Size()
		if err != nil {
			return nil, err
		}
		group.TotalBytes += size
	}

	workTotal := group.TotalBytes
	var workDone int64
	report := func(delta int64) {
		workDone += delta
		if progress != nil {
			progress(workDone, workTotal)
		}
	}

	plan := Plan{StagingDir: outDir, OutputDir: outDir}
	return MergeGroup(group, plan, f, granularity, pool, log, report, false)
}
