package filesys

import (
	"bytes"
	"os"

	natomic "github.com/natefinch/atomic"
)

// AtomicWriteFile writes contents to path such that a concurrent reader
// never observes a partially written file: the data lands in a temp
// file in the same directory and is renamed into place. Used for the
// manifest (spec §6) and for range-index files; the merge algorithm's
// final data/index rename goes through AtomicRename instead.
func AtomicWriteFile(path string, contents []byte, _ os.FileMode) error {
	return natomic.WriteFile(path, bytes.NewReader(contents))
}

// AtomicRename moves oldPath to newPath atomically, replacing any
// existing file at newPath. This is what the merge algorithm uses to
// promote a `merge_tmp-<uuid>` staging file to its final `<id>` name
// only after the old inputs and their indices have been removed.
func AtomicRename(oldPath, newPath string) error {
	return natomic.ReplaceFile(oldPath, newPath)
}
