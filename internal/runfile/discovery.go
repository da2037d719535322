// Package runfile implements the run file of spec §4.3 (component C3):
// an immutable (data, index) pair identified by a numeric id parsed
// from its filename. Discovery and id parsing are adapted from the
// teacher's pkg/seginfo, which discovers segment files named
// `prefix_NNNNN_timestamp.seg` by globbing and lexicographic sort; run
// files drop the prefix/timestamp (their id alone is both identity and
// sort key, per spec §4.1, "operator< by id") and are named with the
// plain decimal id, with a sibling `<id>_index` holding the range
// index (spec §4.2).
package runfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// IndexSuffix is appended to a run file's id to name its sibling range
// index file (spec §4.2, "<id>_index").
const IndexSuffix = "_index"

// TransientPrefix is the name a merge writes its output under before
// promoting it to its final id (spec §4.4.1 rule 6, "merge_tmp").
const TransientPrefix = "merge_tmp"

// IsDataFile reports whether name (a bare filename, not a path) is a
// run file's data file — a plain non-negative decimal integer with no
// suffix.
func IsDataFile(name string) bool {
	if name == "" || strings.Contains(name, "_") || strings.Contains(name, ".") {
		return false
	}
	_, err := strconv.ParseUint(name, 10, 64)
	return err == nil
}

// ParseID parses a run file's bare filename into its id.
func ParseID(name string) (uint64, error) {
	id, err := strconv.ParseUint(name, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("runfile: %q is not a valid run file id: %w", name, err)
	}
	return id, nil
}

// DataPath returns the data file path for id within dir.
func DataPath(dir string, id uint64) string {
	return filepath.Join(dir, strconv.FormatUint(id, 10))
}

// IndexPath returns the sibling range-index path for id within dir.
func IndexPath(dir string, id uint64) string {
	return DataPath(dir, id) + IndexSuffix
}

// ListIDs scans dir for run file data files and returns their ids in
// ascending order (spec §4.1 invariant, "file ids are unique and
// monotone").
func ListIDs(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("runfile: read dir %s: %w", dir, err)
	}

	var ids []uint64
	for _, e := range entries {
		if e.IsDir() || !IsDataFile(e.Name()) {
			continue
		}
		id, err := ParseID(e.Name())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// NextID returns 1 + the maximum id among the run files present in dir
// (spec §4.4, `nextId()`).
func NextID(dir string) (uint64, error) {
	ids, err := ListIDs(dir)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 1, nil
	}
	return ids[len(ids)-1] + 1, nil
}

// TransientDataPath returns a unique transient data path for a merge's
// output, before it is promoted to its final id (spec §4.4.1 rule 6).
// suffix is typically a random id (e.g. a uuid) so concurrent merges
// never collide.
func TransientDataPath(dir, suffix string) string {
	return filepath.Join(dir, TransientPrefix+"-"+suffix)
}

// TransientIndexPath mirrors TransientDataPath for the sibling index.
func TransientIndexPath(dir, suffix string) string {
	return TransientDataPath(dir, suffix) + IndexSuffix
}
