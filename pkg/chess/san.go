package chess

import (
	"fmt"
	"strings"
)

var sanPieceTypes = map[byte]PieceType{'N': Knight, 'B': Bishop, 'R': Rook, 'Q': Queen, 'K': King}

// ParseSAN resolves a single standard algebraic notation token (e.g.
// "Nf3", "exd5", "O-O", "e8=Q+") against pos's legal moves.
func ParseSAN(san string, pos *Position) (Move, error) {
	token := strings.TrimRight(san, "+#!?")
	if token == "" {
		return Move{}, fmt.Errorf("chess: empty SAN token")
	}

	if token == "O-O" || token == "0-0" {
		return findCastle(pos, KingsideCastle)
	}
	if token == "O-O-O" || token == "0-0-0" {
		return findCastle(pos, QueensideCastle)
	}

	promo := NoPieceType
	if i := strings.IndexByte(token, '='); i >= 0 {
		if i+1 >= len(token) {
			return Move{}, fmt.Errorf("chess: SAN %q has malformed promotion", san)
		}
		pt, ok := sanPieceTypes[token[i+1]]
		if !ok {
			return Move{}, fmt.Errorf("chess: SAN %q has unknown promotion piece", san)
		}
		promo = pt
		token = token[:i]
	}

	pieceType := Pawn
	rest := token
	if len(token) > 0 {
		if pt, ok := sanPieceTypes[token[0]]; ok {
			pieceType = pt
			rest = token[1:]
		}
	}

	rest = strings.ReplaceAll(rest, "x", "")
	if len(rest) < 2 {
		return Move{}, fmt.Errorf("chess: SAN %q has no destination square", san)
	}
	destStr := rest[len(rest)-2:]
	disambig := rest[:len(rest)-2]

	to, err := ParseSquare(destStr)
	if err != nil {
		return Move{}, fmt.Errorf("chess: SAN %q: %w", san, err)
	}

	var fromFile, fromRank = -1, -1
	for _, c := range disambig {
		switch {
		case c >= 'a' && c <= 'h':
			fromFile = int(c - 'a')
		case c >= '1' && c <= '8':
			fromRank = int(c - '1')
		}
	}

	var candidates []Move
	for _, m := range pos.LegalMoves() {
		if m.To != to || m.Piece.Type() != pieceType {
			continue
		}
		if promo != NoPieceType && (!m.Flag.IsPromotion() || m.Flag.PromotedType() != promo) {
			continue
		}
		if promo == NoPieceType && m.Flag.IsPromotion() {
			continue
		}
		if fromFile >= 0 && m.From.File() != fromFile {
			continue
		}
		if fromRank >= 0 && m.From.Rank() != fromRank {
			continue
		}
		candidates = append(candidates, m)
	}

	switch len(candidates) {
	case 0:
		return Move{}, fmt.Errorf("chess: SAN %q matches no legal move", san)
	case 1:
		return candidates[0], nil
	default:
		return Move{}, fmt.Errorf("chess: SAN %q is ambiguous among %d legal moves", san, len(candidates))
	}
}

func findCastle(pos *Position, flag MoveFlag) (Move, error) {
	for _, m := range pos.LegalMoves() {
		if m.Flag == flag {
			return m, nil
		}
	}
	return Move{}, fmt.Errorf("chess: no legal castle of kind %v", flag)
}

// SAN renders m as standard algebraic notation relative to pos, the
// position m is about to be applied to.
func (m Move) SAN(pos *Position) string {
	if m.Flag == KingsideCastle {
		return "O-O"
	}
	if m.Flag == QueensideCastle {
		return "O-O-O"
	}

	var b strings.Builder
	pt := m.Piece.Type()
	isCapture := m.Capture != NoPiece || m.Flag == EnPassantCapture

	if pt != Pawn {
		b.WriteString(pt.String())
		b.WriteString(disambiguation(pos, m))
	} else if isCapture {
		b.WriteByte('a' + byte(m.From.File()))
	}

	if isCapture {
		b.WriteByte('x')
	}
	b.WriteString(m.To.String())

	if m.Flag.IsPromotion() {
		b.WriteByte('=')
		b.WriteString(m.Flag.PromotedType().String())
	}

	next := pos.Clone()
	next.Apply(m)
	if next.InCheck(next.SideToMove) {
		if len(next.LegalMoves()) == 0 {
			b.WriteByte('#')
		} else {
			b.WriteByte('+')
		}
	}
	return b.String()
}

func disambiguation(pos *Position, m Move) string {
	var sameFile, sameRank, any bool
	for _, other := range pos.LegalMoves() {
		if other.To != m.To || other.From == m.From || other.Piece.Type() != m.Piece.Type() {
			continue
		}
		any = true
		if other.From.File() == m.From.File() {
			sameFile = true
		}
		if other.From.Rank() == m.From.Rank() {
			sameRank = true
		}
	}
	switch {
	case !any:
		return ""
	case !sameFile:
		return string('a' + byte(m.From.File()))
	case !sameRank:
		return string('1' + byte(m.From.Rank()))
	default:
		return m.From.String()
	}
}
