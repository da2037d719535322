package chess

// EncodeReverseMove packs the move that led into a position into at
// most 27 bits, matching the budget internal/key reserves for a
// position's reverse move (spec §3). The encoding is deliberately
// simple — from/to squares, moved piece type, move flag and captured
// piece type — rather than the minimal variable-width scheme the
// original database used, since this package only needs to round-trip
// through EncodeReverseMove/DecodeReverseMove, not match an external
// wire format bit for bit.
func EncodeReverseMove(m Move) uint32 {
	code := uint32(m.From)
	code |= uint32(m.To) << 6
	code |= uint32(m.Piece.Type()) << 12
	code |= uint32(m.Flag) << 15
	code |= uint32(m.Capture.Type()) << 19
	return code
}

// ReverseMove is the decoded form of a packed reverse-move code: the
// squares and piece kinds of the move that produced a position, enough
// to describe it without needing the predecessor position itself.
type ReverseMove struct {
	From, To Square
	Piece    PieceType
	Flag     MoveFlag
	Capture  PieceType
}

// DecodeReverseMove unpacks a code produced by EncodeReverseMove.
func DecodeReverseMove(code uint32) ReverseMove {
	return ReverseMove{
		From:    Square(code & 0x3f),
		To:      Square((code >> 6) & 0x3f),
		Piece:   PieceType((code >> 12) & 0x7),
		Flag:    MoveFlag((code >> 15) & 0xf),
		Capture: PieceType((code >> 19) & 0x7),
	}
}

// Long renders rm in long algebraic notation (e.g. "Ng1f3", "e7e8=Q",
// "O-O"). A decoded reverse move carries no reference to the full
// predecessor position, so the short-SAN disambiguation rules (which
// need to know every other piece able to reach the same square) cannot
// be reconstructed from it; long algebraic notation needs nothing more
// than the move's own fields and is unambiguous regardless.
func (rm ReverseMove) Long() string {
	if rm.Flag == KingsideCastle {
		return "O-O"
	}
	if rm.Flag == QueensideCastle {
		return "O-O-O"
	}

	var b []byte
	if rm.Piece != Pawn {
		b = append(b, rm.Piece.String()...)
	}
	b = append(b, rm.From.String()...)
	if rm.Capture != NoPieceType {
		b = append(b, 'x')
	}
	b = append(b, rm.To.String()...)
	if rm.Flag.IsPromotion() {
		b = append(b, '=')
		b = append(b, rm.Flag.PromotedType().String()...)
	}
	return string(b)
}
