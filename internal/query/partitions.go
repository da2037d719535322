package query

import (
	"path/filepath"

	"github.com/posdb/chessposdb/internal/enums"
	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/partition"
)

// SinglePartition adapts one shared *partition.Partition to the
// Partitions interface, for every format except db_alpha: level and
// result live in the key (or are folded into the hash), not in the
// directory layout, so the same partition answers every (level,
// result) pair (spec §6, on-disk layout "data/ Partition directory
// (single-partition formats)").
type SinglePartition struct {
	P *partition.Partition
}

func (s SinglePartition) Partition(enums.Level, enums.Result) (partitionReader, bool) {
	if s.P == nil {
		return nil, false
	}
	return s.P, true
}

// LevelResultPartitions adapts db_alpha's per-(level,result) directory
// layout (spec §6, "data/<level>/<result>/") to the Partitions
// interface. A level/result pair is reported absent only when the open
// callback given to NewLevelResultPartitions returned no partition for
// it.
type LevelResultPartitions struct {
	byPair map[[2]uint8]*partition.Partition
}

// NewLevelResultPartitions calls open for every (level, result) pair's
// subdirectory root/<level>/<result>, whether or not it exists on disk
// yet, and keeps each non-nil partition open returns.
// pkg/chessposdb's callback creates the directory and opens all nine.
func NewLevelResultPartitions(root string, f *format.Format, open func(dir string) (*partition.Partition, error)) (*LevelResultPartitions, error) {
	lrp := &LevelResultPartitions{byPair: map[[2]uint8]*partition.Partition{}}
	for _, lvl := range enums.AllLevels {
		for _, res := range enums.AllResults {
			dir := filepath.Join(root, lvl.String(), res.String())
			p, err := open(dir)
			if err != nil {
				return nil, err
			}
			if p == nil {
				continue
			}
			lrp.byPair[[2]uint8{uint8(lvl), uint8(res)}] = p
		}
	}
	return lrp, nil
}

func (lrp *LevelResultPartitions) Partition(level enums.Level, result enums.Result) (partitionReader, bool) {
	p, ok := lrp.byPair[[2]uint8{uint8(level), uint8(result)}]
	if !ok {
		return nil, false
	}
	return p, true
}
