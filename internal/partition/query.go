package partition

import (
	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/key"
	"github.com/posdb/chessposdb/internal/runfile"
)

// ExecuteQuery fans a read over every file in the partition for every
// key in keys (spec §4.4, `executeQuery`): for each file and each key,
// `index.equal_range(key)` is read and every resulting entry is handed
// to visit tagged with the key's index, so the caller (the query
// engine, C7) can attribute it to the right (select, level, result)
// slot without this package needing to know those semantics.
func (p *Partition) ExecuteQuery(keys []key.Key, visit func(queryIndex int, e format.Entry) error) error {
	files := p.Files()
	stride := runfile.EntryStride(p.format)

	for _, rf := range files {
		for qi, k := range keys {
			if err := scanRange(rf, k, stride, func(e format.Entry) error {
				return visit(qi, e)
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// QueryRetractions fans a read over every file for root's
// without-reverse-move key, yielding every entry recording an inbound
// move into root — i.e. every predecessor position (spec §4.4,
// `queryRetractions`). Entries with no recorded reverse move are
// excluded, since they describe root itself rather than a retraction.
func (p *Partition) QueryRetractions(root key.Key, visit func(e format.Entry) error) error {
	files := p.Files()
	stride := runfile.EntryStride(p.format)

	for _, rf := range files {
		if err := scanRange(rf, root, stride, func(e format.Entry) error {
			if !e.Key.HasReverseMove() {
				return nil
			}
			return visit(e)
		}); err != nil {
			return err
		}
	}
	return nil
}

func scanRange(rf *runfile.RunFile, target key.Key, stride int64, visit func(format.Entry) error) error {
	lo, hi, err := rf.Index.EqualRange(target, rf)
	if err != nil {
		return err
	}
	if lo >= hi {
		return nil
	}

	count := int((hi - lo) / stride)
	entries, err := rf.Read(lo, count)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := visit(e); err != nil {
			return err
		}
	}
	return nil
}
