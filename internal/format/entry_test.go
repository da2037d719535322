package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/posdb/chessposdb/internal/key"
)

func TestEpsilonMarshalRoundTrip(t *testing.T) {
	e := Entry{Key: key.New(42, true, NullReverseMove, 0, 0), Count: 7}
	buf, err := e.Marshal(Epsilon)
	require.NoError(t, err)
	require.Len(t, buf, Epsilon.EntrySize)

	got, err := Unmarshal(Epsilon, buf)
	require.NoError(t, err)
	require.Equal(t, e.Key.Hash, got.Key.Hash)
	require.Equal(t, e.Count, got.Count)
}

func TestDeltaMarshalRoundTripWithEloAndRefs(t *testing.T) {
	e := Entry{
		Key:         key.New(1234, false, 99, 1, 2),
		Count:       3,
		HasEloDiff:  true,
		EloDiff:     -150,
		HasFirstRef: true,
		FirstRef:    10,
		HasLastRef:  true,
		LastRef:     20,
	}
	buf, err := e.Marshal(Delta)
	require.NoError(t, err)
	got, err := Unmarshal(Delta, buf)
	require.NoError(t, err)

	require.EqualValues(t, 3, got.Count)
	require.EqualValues(t, -150, got.EloDiff)
	require.EqualValues(t, 10, got.FirstRef)
	require.EqualValues(t, 20, got.LastRef)
	require.EqualValues(t, 99, got.Key.ReverseMove())
	require.EqualValues(t, 1, got.Key.Level())
	require.EqualValues(t, 2, got.Key.Result())
}

func TestBetaPackedCountRefSharesSlot(t *testing.T) {
	e := Entry{Key: key.New(55, false, NullReverseMove, 0, 0), Count: 5, HasFirstRef: true, FirstRef: 1000}
	buf, err := e.Marshal(Beta)
	require.NoError(t, err)
	got, err := Unmarshal(Beta, buf)
	require.NoError(t, err)

	require.EqualValues(t, 5, got.Count)
	require.True(t, got.HasFirstRef)
	require.EqualValues(t, 1000, got.FirstRef)
}

func TestPackedCountRefDropsOffsetWhenCountOverflowsWidth(t *testing.T) {
	huge := uint64(1) << 57
	p := NewPackedCountRef(huge, 123, true)
	_, ok := p.Ref()
	require.False(t, ok, "expected a count needing all payload bits to drop its ref")
}

func TestPackedCountRefCombineSumsCountsAndKeepsOldestFirst(t *testing.T) {
	a := NewPackedCountRef(1, 100, true)
	b := NewPackedCountRef(2, 50, true)
	combined := a.Combine(b, true)
	require.EqualValues(t, 3, combined.Count())

	ref, ok := combined.Ref()
	require.True(t, ok)
	require.EqualValues(t, 50, ref, "expected oldest (smaller) ref to survive a first-game combine")
}

func TestDeltaSmearedRoundTrip(t *testing.T) {
	e := Entry{
		Key:         key.New(777, false, 5, 0, 1),
		Count:       1 << 40,
		HasEloDiff:  true,
		EloDiff:     -1 << 40,
		HasFirstRef: true,
		FirstRef:    11,
		HasLastRef:  true,
		LastRef:     22,
	}
	records, err := MarshalSmeared(DeltaSmeared, e)
	require.NoError(t, err)
	require.Len(t, records, smearRecordCount)

	require.True(t, IsFirstSmearRecord(records[0]), "expected first record to carry the is-first flag")
	require.False(t, IsFirstSmearRecord(records[1]), "did not expect continuation records to carry the is-first flag")
	require.False(t, IsFirstSmearRecord(records[2]), "did not expect continuation records to carry the is-first flag")

	got, err := UnmarshalSmeared(DeltaSmeared, records)
	require.NoError(t, err)
	require.Equal(t, e.Key.Hash, got.Key.Hash)
	require.Equal(t, e.Count, got.Count)
	require.Equal(t, e.EloDiff, got.EloDiff)
	require.EqualValues(t, 11, got.FirstRef)
	require.EqualValues(t, 22, got.LastRef)
}
