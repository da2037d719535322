package pipeline

import (
	"sort"

	"github.com/posdb/chessposdb/internal/format"
)

// sortAndCombine sorts entries by the full key order and combines
// adjacent full-equal runs in place (spec §4.5, the sort thread's job:
// "sort the buffer by the full order, then combine adjacent full-equal
// entries in place"). The returned slice aliases entries' backing
// array, truncated to the de-duplicated length.
func sortAndCombine(entries []format.Entry) []format.Entry {
	if len(entries) == 0 {
		return entries
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.Compare(entries[j].Key) < 0
	})

	w := 0
	for r := 1; r < len(entries); r++ {
		if entries[w].Key.EqualFull(entries[r].Key) {
			entries[w] = entries[w].Combine(entries[r])
		} else {
			w++
			entries[w] = entries[r]
		}
	}

	return entries[:w+1]
}
