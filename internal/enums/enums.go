// Package enums defines the two small, fixed-cardinality enumerations
// that are folded into every position-database key: the game level and
// the game result (spec §3, "two small enumerations {Human, Engine,
// Server} and {WhiteWin, BlackWin, Draw}, each 2 bits"). It mirrors the
// EnumTraits<GameLevel>/EnumTraits<GameResult> dictionaries of the
// original implementation (original_source/GameClassification.h),
// translated into plain Go types rather than template specializations.
package enums

import "fmt"

// Level classifies who produced a game: a human player, an engine, or a
// server-hosted/correspondence game.
type Level uint8

const (
	LevelHuman Level = iota
	LevelEngine
	LevelServer

	// levelCardinality is the number of distinct Level values; used to
	// size per-level tally arrays and to validate decoded key bits.
	levelCardinality = 3
)

// AllLevels enumerates every Level in ordinal order.
var AllLevels = [levelCardinality]Level{LevelHuman, LevelEngine, LevelServer}

// String renders the level the way request/response JSON spells it
// (spec §6.3, `Level = "human"|"engine"|"server"`).
func (l Level) String() string {
	switch l {
	case LevelHuman:
		return "human"
	case LevelEngine:
		return "engine"
	case LevelServer:
		return "server"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// ParseLevel parses the wire spelling of a Level, defaulting to
// LevelHuman for unrecognized input — matching the original's
// fromString fallback rather than erroring, since the enum only ever
// appears inside already-validated requests or on-disk keys.
func ParseLevel(s string) Level {
	switch s {
	case "engine":
		return LevelEngine
	case "server":
		return LevelServer
	default:
		return LevelHuman
	}
}

// Valid reports whether l is one of the three defined levels.
func (l Level) Valid() bool { return l <= LevelServer }

// Result classifies a finished game from White's perspective.
type Result uint8

const (
	ResultWhiteWin Result = iota
	ResultBlackWin
	ResultDraw

	resultCardinality = 3
)

// AllResults enumerates every Result in ordinal order.
var AllResults = [resultCardinality]Result{ResultWhiteWin, ResultBlackWin, ResultDraw}

// String renders the result in the database's internal "word" format
// (spec §6.3, `Result (word) = "win"|"loss"|"draw"`) — like the Result
// itself, the word is from White's perspective: "win" is a White win.
func (r Result) String() string {
	switch r {
	case ResultWhiteWin:
		return "win"
	case ResultBlackWin:
		return "loss"
	case ResultDraw:
		return "draw"
	default:
		return fmt.Sprintf("result(%d)", uint8(r))
	}
}

// ParseResult parses the word-format spelling, defaulting to
// ResultDraw on unrecognized input, matching the original's fallback.
func ParseResult(s string) Result {
	switch s {
	case "win":
		return ResultWhiteWin
	case "loss":
		return ResultBlackWin
	default:
		return ResultDraw
	}
}

// ParsePGNResult parses the PGN-spelled result used inside game headers
// (spec §6.3, `Result (pgn) = "1-0"|"0-1"|"1/2-1/2"`) and reports
// whether the string was recognized — unlike ParseResult, callers that
// hit an unparseable header field need to know, since the importer
// treats a missing/invalid result as `numSkippedGames`, not a silent
// draw (spec §4.6, "if game.result() is missing, increment
// numSkippedGames").
func ParsePGNResult(s string) (Result, bool) {
	switch s {
	case "1-0":
		return ResultWhiteWin, true
	case "0-1":
		return ResultBlackWin, true
	case "1/2-1/2":
		return ResultDraw, true
	default:
		return ResultDraw, false
	}
}

// PGNString renders the result in PGN notation, for header records.
func (r Result) PGNString() string {
	switch r {
	case ResultWhiteWin:
		return "1-0"
	case ResultBlackWin:
		return "0-1"
	default:
		return "1/2-1/2"
	}
}

// Valid reports whether r is one of the three defined results.
func (r Result) Valid() bool { return r <= ResultDraw }
