package format

// Alpha is db_alpha: per-level/result partitions, count plus
// first/last game index, PGN only (spec §6.2).
var Alpha = &Format{
	Key:                      "db_alpha",
	EntrySize:                20,
	PartitionedByLevelResult: true,
	FirstGameRefKind:         GameRefIndex,
	LastGameRefKind:          GameRefIndex,
	ImportableFileTypes:      []FileType{FileTypePGN},
	Bounds: Bounds{
		MaxGames:                     1 << 32,
		MaxPositions:                 1 << 48,
		MaxInstancesOfSinglePosition: 1 << 58,
	},
	Capabilities: Capabilities{
		AllowsFilteringTranspositions: true,
		HasFirstGame:                  true,
		HasLastGame:                   true,
	},
}

// Beta is db_beta: one partition, count plus a packed first-game
// offset, PGN only (spec §6.2).
var Beta = &Format{
	Key:                      "db_beta",
	EntrySize:                16,
	FoldLevelResultIntoHash:  true,
	FirstGameRefKind:         GameRefOffset,
	LastGameRefKind:          GameRefNone,
	ImportableFileTypes:      []FileType{FileTypePGN},
	Bounds: Bounds{
		MaxGames:                     1 << 32,
		MaxPositions:                 1 << 48,
		MaxInstancesOfSinglePosition: 1 << 58,
	},
	Capabilities: Capabilities{
		AllowsFilteringTranspositions: true,
		HasFirstGame:                  true,
	},
}

// Delta is db_delta: count plus first/last game index plus Elo diff,
// PGN only, 32-byte entries with a reverse move (spec §6.2).
var Delta = &Format{
	Key:                 "db_delta",
	EntrySize:           32,
	FirstGameRefKind:    GameRefIndex,
	LastGameRefKind:     GameRefIndex,
	ImportableFileTypes: []FileType{FileTypePGN},
	Bounds: Bounds{
		MaxGames:                     1 << 32,
		MaxPositions:                 1 << 48,
		MaxInstancesOfSinglePosition: 1 << 40,
		MaxAbsEloDiff:                1 << 24,
		MinElo:                       0,
		MaxElo:                       1 << 14,
	},
	Capabilities: Capabilities{
		AllowsFilteringTranspositions: true,
		HasReverseMove:                true,
		HasFirstGame:                  true,
		HasLastGame:                   true,
		HasEloDiff:                    true,
	},
}

// DeltaSmeared is db_delta_smeared: the same statistics as db_delta
// plus a 64-bit total Elo and 64-bit count, stored as smeared 20-byte
// records; PGN and BCGN (spec §6.2).
var DeltaSmeared = &Format{
	Key:                 "db_delta_smeared",
	EntrySize:           20,
	Smeared:             true,
	FirstGameRefKind:    GameRefIndex,
	LastGameRefKind:     GameRefIndex,
	ImportableFileTypes: []FileType{FileTypePGN, FileTypeBCGN},
	Bounds: Bounds{
		MaxGames:                     1 << 32,
		MaxPositions:                 1 << 48,
		MaxInstancesOfSinglePosition: 1 << 63,
		MaxAbsEloDiff:                1 << 40,
		MinElo:                       0,
		MaxElo:                       1 << 14,
	},
	Capabilities: Capabilities{
		AllowsFilteringTranspositions: true,
		HasReverseMove:                true,
		HasFirstGame:                  true,
		HasLastGame:                   true,
		HasEloDiff:                    true,
	},
}

// Epsilon is db_epsilon: count only, PGN and BCGN, 16-byte entries
// (spec §6.2).
var Epsilon = &Format{
	Key:                     "db_epsilon",
	EntrySize:               16,
	FoldLevelResultIntoHash: true,
	FirstGameRefKind:        GameRefNone,
	LastGameRefKind:         GameRefNone,
	ImportableFileTypes:     []FileType{FileTypePGN, FileTypeBCGN},
	Bounds: Bounds{
		MaxGames:                     1 << 32,
		MaxPositions:                 1 << 48,
		MaxInstancesOfSinglePosition: 1 << 62,
	},
	Capabilities: Capabilities{
		AllowsFilteringTranspositions: true,
	},
}

// All enumerates the five built-in formats in the order spec §6.2
// lists them.
var All = []*Format{Alpha, Beta, Delta, DeltaSmeared, Epsilon}
