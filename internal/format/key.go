package format

import "github.com/posdb/chessposdb/internal/key"

// BuildKey constructs the sort key for one position under f's layout
// rules (SPEC_FULL.md section D / spec §9 design note (a)): formats
// with a reverse move pack it, plus level and result, into Word2;
// formats without one either rely on the partition directory to carry
// level/result (PartitionedByLevelResult) or fold them into Hash's low
// 4 bits (FoldLevelResultIntoHash), recovering one bit of the
// otherwise-discarded fingerprint into Word2's high bit.
func (f *Format) BuildKey(hash uint64, reverseMove uint32, level, result uint8) key.Key {
	if f.Capabilities.HasReverseMove {
		return key.New(hash, false, reverseMove, level, result)
	}
	if f.FoldLevelResultIntoHash {
		recoveredBit := (hash>>3)&1 == 1
		rawHash := (hash &^ 0xF) | uint64(level)<<2 | uint64(result)
		return key.New(rawHash, recoveredBit, key.NullReverseMove, 0, 0)
	}
	return key.New(hash, false, key.NullReverseMove, 0, 0)
}
