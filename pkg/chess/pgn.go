package chess

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Game is one parsed PGN game: its seven-tag-roster (and any extra
// tags) plus the move text, not yet replayed against a board.
type Game struct {
	Tags     map[string]string
	Movetext string
}

// Tag returns a header value, or "" if absent.
func (g *Game) Tag(name string) string { return g.Tags[name] }

var tagLineRe = regexp.MustCompile(`^\[(\w+)\s+"(.*)"\]\s*$`)

// GameIterator reads consecutive PGN games off r.
type GameIterator struct {
	scanner *bufio.Scanner
}

// NewGameIterator wraps r for sequential PGN game reading.
func NewGameIterator(r io.Reader) *GameIterator {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &GameIterator{scanner: sc}
}

// Next reads the next game, or returns io.EOF once the stream is
// exhausted.
func (it *GameIterator) Next() (*Game, error) {
	tags := make(map[string]string)
	var haveTags bool
	var movetext strings.Builder

	for it.scanner.Scan() {
		line := strings.TrimSpace(it.scanner.Text())
		if line == "" {
			if haveTags && movetext.Len() > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "[") {
			if m := tagLineRe.FindStringSubmatch(line); m != nil {
				tags[m[1]] = m[2]
				haveTags = true
				continue
			}
		}
		movetext.WriteString(line)
		movetext.WriteByte(' ')
	}

	if err := it.scanner.Err(); err != nil {
		return nil, fmt.Errorf("chess: reading PGN: %w", err)
	}
	if !haveTags && movetext.Len() == 0 {
		return nil, io.EOF
	}

	return &Game{Tags: tags, Movetext: strings.TrimSpace(movetext.String())}, nil
}

var (
	moveNumberRe = regexp.MustCompile(`\d+\.(\.\.)?`)
	commentRe    = regexp.MustCompile(`\{[^}]*\}`)
	nagRe        = regexp.MustCompile(`\$\d+`)
	resultTokens = map[string]bool{"1-0": true, "0-1": true, "1/2-1/2": true, "*": true}
)

// SANMoves strips move numbers, comments and NAGs from the game's
// movetext and returns the bare SAN tokens in order.
func (g *Game) SANMoves() []string {
	text := commentRe.ReplaceAllString(g.Movetext, " ")
	text = nagRe.ReplaceAllString(text, " ")
	text = moveNumberRe.ReplaceAllString(text, " ")

	var out []string
	for _, tok := range strings.Fields(text) {
		if resultTokens[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Ply is one half-move of a replayed game: the position before the
// move was played, the move itself, and the resulting position.
type Ply struct {
	Before *Position
	Move   Move
	After  *Position
}

// Replay plays every SAN move of the game out from the starting
// position (or, for games with a custom starting FEN, from the
// position in the "FEN" tag), returning one Ply per half-move. It stops
// and returns an error at the first move that fails to parse or
// resolve, rather than skipping it, so the importer can decide
// whether to discard the whole game (spec.md's external PGN parser
// collaborator is expected to behave the same way).
func (g *Game) Replay() ([]Ply, error) {
	pos := StartingPosition()
	if fen := g.Tag("FEN"); fen != "" {
		p, err := ParseFEN(fen)
		if err != nil {
			return nil, fmt.Errorf("chess: game has invalid FEN tag: %w", err)
		}
		pos = p
	}

	moves := g.SANMoves()
	plies := make([]Ply, 0, len(moves))
	for i, san := range moves {
		m, err := ParseSAN(san, pos)
		if err != nil {
			return nil, fmt.Errorf("chess: move %d (%q): %w", i+1, san, err)
		}
		before := pos
		after := pos.Clone()
		after.Apply(m)
		plies = append(plies, Ply{Before: before, Move: m, After: after})
		pos = after
	}
	return plies, nil
}
