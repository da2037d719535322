// Package format describes the five position-database formats spec.md
// §6.2 recognizes (db_alpha, db_beta, db_delta, db_delta_smeared,
// db_epsilon) as data, not as five generated Go types. Every other
// internal package (key, rangeindex, runfile, partition, merge,
// pipeline, importer, query) takes a *Format and branches on its
// fields instead of being specialized per format — the reading of
// spec §9 design note (a) this implementation settled on (see
// SPEC_FULL.md section D).
package format

// FileType is an importable source file kind (spec §4.6, the
// importer's `{path, level, type∈{PGN,BCGN}}` input).
type FileType uint8

const (
	FileTypePGN FileType = iota
	FileTypeBCGN
)

func (t FileType) String() string {
	if t == FileTypeBCGN {
		return "bcgn"
	}
	return "pgn"
}

// GameRefKind says how (or whether) a format carries a one-way
// reference to a game (spec §3, "either a 32-bit index into the header
// store or a 64-bit byte offset — never both").
type GameRefKind uint8

const (
	GameRefNone GameRefKind = iota
	GameRefIndex
	GameRefOffset
)

// Bounds are the format-level limits a manifest declares (spec §6.2,
// "maxGames, maxPositions, maxInstancesOfSinglePosition, maxAbsEloDiff,
// minElo, maxElo").
type Bounds struct {
	MaxGames                     uint64
	MaxPositions                 uint64
	MaxInstancesOfSinglePosition uint64
	MaxAbsEloDiff                int32
	MinElo                       int32
	MaxElo                       int32
}

// Capabilities are the format-level feature flags of spec §6.2
// ("allowsFilteringTranspositions, hasReverseMove, hasFirstGame,
// hasLastGame, ...").
type Capabilities struct {
	AllowsFilteringTranspositions bool
	HasReverseMove                bool
	HasFirstGame                  bool
	HasLastGame                   bool
	HasEloDiff                    bool
}

// Format is a complete descriptor for one of the five on-disk schemas.
type Format struct {
	// Key is the format's manifest name (spec §6.1, e.g. "db_alpha").
	Key string

	// EntrySize is the format's fixed physical record size in bytes
	// (spec §4.1, "tested sizes: 16, 20, 24, 32 bytes").
	EntrySize int

	// PartitionedByLevelResult is true only for db_alpha: level/result
	// live in the partition's directory path (data/<level>/<result>/)
	// rather than in the key (SPEC_FULL.md section D).
	PartitionedByLevelResult bool

	// FoldLevelResultIntoHash is true for formats that have no reverse
	// move and are not partitioned by level/result (db_beta,
	// db_epsilon): level and result occupy Hash's low 4 bits instead
	// (SPEC_FULL.md section D).
	FoldLevelResultIntoHash bool

	FirstGameRefKind GameRefKind
	LastGameRefKind  GameRefKind

	// Smeared is true only for db_delta_smeared: one logical entry is
	// split across several physical records sharing a key (spec §3).
	Smeared bool

	// RequiresMatchingEndianness gates the manifest's endianness check
	// (spec §6.1).
	RequiresMatchingEndianness bool

	// RangeIndexGranularity overrides the default G of spec §4.2 for
	// this format; zero means "use the store's configured default".
	RangeIndexGranularity int

	ImportableFileTypes []FileType

	Bounds       Bounds
	Capabilities Capabilities
}

// Importable reports whether the format can ingest files of kind t.
func (f *Format) Importable(t FileType) bool {
	for _, got := range f.ImportableFileTypes {
		if got == t {
			return true
		}
	}
	return false
}

// ByKey looks up one of the five built-in formats by its manifest name.
func ByKey(name string) (*Format, bool) {
	for _, f := range All {
		if f.Key == name {
			return f, true
		}
	}
	return nil, false
}
