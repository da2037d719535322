// Package merge implements the external k-way merge of spec §4.4.1
// (component C4.4.1): collapsing N run files into one, summing counts
// and combining first/last game refs on full-equal runs.
package merge

import (
	"github.com/posdb/chessposdb/internal/runfile"
)

// Group is a consecutive id-run of files that will be merged into one
// output file together (spec §4.4.1 rule 1).
type Group struct {
	Files      []*runfile.RunFile
	TotalBytes int64
}

// GroupByTempSpace partitions files (already sorted by id) into groups
// whose combined bytes fit within budgetBytes, each a consecutive
// id-run (spec §4.4.1 rule 1, "files are grouped into consecutive
// id-runs whose combined bytes fit"). budgetBytes == 0 means
// unbounded: everything merges in one group/pass.
func GroupByTempSpace(files []*runfile.RunFile, budgetBytes uint64) ([]Group, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if budgetBytes == 0 {
		total, err := sumSizes(files)
		if err != nil {
			return nil, err
		}
		return []Group{{Files: files, TotalBytes: total}}, nil
	}

	var groups []Group
	var current Group
	for _, f := range files {
		size, err := f.Size()
		if err != nil {
			return nil, err
		}

		if len(current.Files) > 0 && current.TotalBytes+size > int64(budgetBytes) {
			groups = append(groups, current)
			current = Group{}
		}

		current.Files = append(current.Files, f)
		current.TotalBytes += size
	}
	if len(current.Files) > 0 {
		groups = append(groups, current)
	}
	return groups, nil
}

func sumSizes(files []*runfile.RunFile) (int64, error) {
	var total int64
	for _, f := range files {
		size, err := f.Size()
		if err != nil {
			return 0, err
		}
		total += size
	}
	return total, nil
}

// AssessWork precomputes the total bytes a set of groups will process,
// for the progress callback's workTotal (spec §4.4.1 rule 7,
// "merge_assess_work over all groups").
func AssessWork(groups []Group) int64 {
	var total int64
	for _, g := range groups {
		total += g.TotalBytes
	}
	return total
}
