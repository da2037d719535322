package importer

import "github.com/posdb/chessposdb/internal/enums"

// LevelStats are the three per-level tallies spec §4.6 names:
// `numGames`, `numPositions`, `numSkippedGames`.
type LevelStats struct {
	NumGames        uint64
	NumPositions    uint64
	NumSkippedGames uint64
}

// Stats aggregates LevelStats across the three game levels.
type Stats struct {
	ByLevel [3]LevelStats
}

func (s *Stats) at(level enums.Level) *LevelStats { return &s.ByLevel[level] }

// Add merges other's tallies into s, level by level.
func (s *Stats) Add(other Stats) {
	for l := range s.ByLevel {
		s.ByLevel[l].NumGames += other.ByLevel[l].NumGames
		s.ByLevel[l].NumPositions += other.ByLevel[l].NumPositions
		s.ByLevel[l].NumSkippedGames += other.ByLevel[l].NumSkippedGames
	}
}

// Total sums tallies across every level.
func (s *Stats) Total() LevelStats {
	var t LevelStats
	for _, l := range s.ByLevel {
		t.NumGames += l.NumGames
		t.NumPositions += l.NumPositions
		t.NumSkippedGames += l.NumSkippedGames
	}
	return t
}
