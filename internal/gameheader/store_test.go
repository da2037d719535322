package gameheader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/posdb/chessposdb/internal/enums"
)

func TestAddGameAssignsSequentialIDs(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	loc1, err := s.AddGame(Header{Result: enums.ResultWhiteWin, Date: "1992.11.04", Eco: "C60", Event: "Linares", White: "Kasparov", Black: "Karpov"})
	require.NoError(t, err)
	loc2, err := s.AddGame(Header{Result: enums.ResultDraw, PlyCount: 40, Event: "Linares", White: "A", Black: "B"})
	require.NoError(t, err)

	require.EqualValues(t, 0, loc1.Index)
	require.EqualValues(t, 1, loc2.Index)
	require.EqualValues(t, 2, s.NumGames())
}

func TestQueryByIndicesRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	want := Header{Result: enums.ResultBlackWin, Date: "2001.01.01", Eco: "B90", PlyCount: 55, Event: "Test Open", White: "Alice", Black: "Bob"}
	_, err = s.AddGame(want)
	require.NoError(t, err)

	got, err := s.QueryByIndices([]uint64{0})
	require.NoError(t, err)
	require.Len(t, got, 1)

	h := got[0]
	require.Equal(t, want.Result, h.Result)
	require.Equal(t, want.Date, h.Date)
	require.Equal(t, want.Eco, h.Eco)
	require.Equal(t, want.PlyCount, h.PlyCount)
	require.Equal(t, want.Event, h.Event)
	require.Equal(t, want.White, h.White)
	require.Equal(t, want.Black, h.Black)
}

func TestQueryByIndicesOutOfRange(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.QueryByIndices([]uint64{0})
	require.Error(t, err, "expected error for out-of-range index")
}

func TestClearResetsStore(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.AddGame(Header{Event: "X", White: "A", Black: "B"})
	require.NoError(t, err)
	require.NoError(t, s.Clear())
	require.EqualValues(t, 0, s.NumGames())

	loc, err := s.AddGame(Header{Event: "Y", White: "C", Black: "D"})
	require.NoError(t, err)
	require.EqualValues(t, 0, loc.Index)
	require.EqualValues(t, 0, loc.Offset)
}

func TestReopenRecoversOffsets(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, nil)
	require.NoError(t, err)

	_, err = s.AddGame(Header{Event: "X", White: "A", Black: "B"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(dir, nil)
	require.NoError(t, err)
	defer s2.Close()
	require.EqualValues(t, 1, s2.NumGames())

	loc, err := s2.AddGame(Header{Event: "Y", White: "C", Black: "D"})
	require.NoError(t, err)
	require.EqualValues(t, 1, loc.Index)
}
