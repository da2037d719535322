package chess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartingPositionHas20LegalMoves(t *testing.T) {
	pos := StartingPosition()
	require.Len(t, pos.LegalMoves(), 20)
}

func TestFENRoundTrip(t *testing.T) {
	fen := "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3"
	pos, err := ParseFEN(fen)
	require.NoError(t, err)
	require.Equal(t, fen, pos.FEN())
}

func TestApplyEnPassant(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3")
	require.NoError(t, err)
	m, err := ParseSAN("exd6", pos)
	require.NoError(t, err)
	require.Equal(t, EnPassantCapture, m.Flag)

	pos.Apply(m)
	require.Equal(t, NoPiece, pos.At(NewSquare(3, 4)), "expected captured pawn removed from d5")
	require.Equal(t, NewPiece(White, Pawn), pos.At(NewSquare(3, 5)), "expected white pawn on d6")
}

func TestCastlingUpdatesRookAndRights(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	require.NoError(t, err)
	m, err := ParseSAN("O-O", pos)
	require.NoError(t, err)
	pos.Apply(m)

	require.Equal(t, NewPiece(White, King), pos.At(NewSquare(6, 0)))
	require.Equal(t, NewPiece(White, Rook), pos.At(NewSquare(5, 0)))
	require.Zero(t, pos.Castle&(WhiteKingside|WhiteQueenside), "expected white to lose both castling rights")
}

func TestHashIsStableAndDistinguishesPositions(t *testing.T) {
	a := StartingPosition()
	b := StartingPosition()
	require.Equal(t, b.Hash(), a.Hash(), "two starting positions should hash identically")

	m, err := ParseSAN("e4", a)
	require.NoError(t, err)
	a.Apply(m)
	require.NotEqual(t, b.Hash(), a.Hash(), "positions after a move should hash differently")
}

func TestReverseMoveRoundTrip(t *testing.T) {
	pos := StartingPosition()
	m, err := ParseSAN("Nf3", pos)
	require.NoError(t, err)
	code := EncodeReverseMove(m)
	rm := DecodeReverseMove(code)
	require.Equal(t, m.From, rm.From)
	require.Equal(t, m.To, rm.To)
	require.Equal(t, m.Piece.Type(), rm.Piece)
}

func TestGameIteratorAndReplay(t *testing.T) {
	pgn := `[Event "Test"]
[White "A"]
[Black "B"]
[Result "1-0"]
[WhiteElo "2400"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 a6 1-0

[Event "Second"]
[Result "*"]

1. d4 d5 *
`
	it := NewGameIterator(strings.NewReader(pgn))

	g1, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, "1-0", g1.Tag("Result"))
	require.Equal(t, "2400", g1.Tag("WhiteElo"))

	plies, err := g1.Replay()
	require.NoError(t, err)
	require.Len(t, plies, 6)

	g2, err := it.Next()
	require.NoError(t, err, "Next (second game)")
	require.Equal(t, "Second", g2.Tag("Event"))
}
