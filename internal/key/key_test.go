package key

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderDominatedByHash(t *testing.T) {
	low := New(1, false, 5, 0, 0)
	high := New(2, false, 0, 0, 0)
	require.True(t, low.Less(high), "expected key with smaller hash to sort first regardless of reverse move")
}

func TestOrderWithinHashFollowsReverseMoveThenLevelThenResult(t *testing.T) {
	a := New(7, false, 3, 1, 1)
	b := New(7, false, 3, 1, 2)
	c := New(7, false, 3, 2, 0)
	d := New(7, false, 4, 0, 0)

	require.True(t, a.Less(b), "expected result to break ties when hash/reverse-move/level match")
	require.True(t, b.Less(c), "expected level to dominate result")
	require.True(t, c.Less(d), "expected reverse move to dominate level/result")
}

func TestEqualWithReverseMoveIgnoresLevelAndResult(t *testing.T) {
	a := New(9, false, 10, 0, 0)
	b := New(9, false, 10, 2, 1)
	require.True(t, a.EqualWithReverseMove(b), "expected keys with same hash/reverse-move to be with-reverse-move equal")
	require.False(t, a.EqualFull(b), "did not expect keys with differing level/result to be full-equal")
}

func TestEqualWithoutReverseMoveIgnoresEverythingButHash(t *testing.T) {
	a := New(11, true, 1, 0, 0)
	b := New(11, true, 99, 2, 2)
	require.True(t, a.EqualWithoutReverseMove(b), "expected keys with same hash+high-hash-bit to be without-reverse-move equal")

	c := New(11, false, 1, 0, 0)
	require.False(t, a.EqualWithoutReverseMove(c), "did not expect differing high-hash-bit to count as without-reverse-move equal")
}

func TestNullReverseMoveRoundTrip(t *testing.T) {
	k := New(1, false, NullReverseMove, 0, 0)
	require.False(t, k.HasReverseMove(), "expected null reverse move to report HasReverseMove=false")
}
