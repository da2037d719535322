package runfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/key"
)

func TestWriteOpenReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pool := NewHandlePool(4, nil)
	defer pool.Close()

	entries := []format.Entry{
		{Key: key.New(1, true, key.NullReverseMove, 0, 0), Count: 2},
		{Key: key.New(2, true, key.NullReverseMove, 0, 0), Count: 5},
		{Key: key.New(3, true, key.NullReverseMove, 0, 0), Count: 1},
	}

	rf, err := Write(dir, 1, format.Epsilon, entries, 2, pool, nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, rf.ID())

	reopened, err := Open(dir, 1, format.Epsilon, pool, nil)
	require.NoError(t, err)

	got, err := reopened.Read(0, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.EqualValues(t, 5, got[1].Count)

	lo, hi, err := reopened.Index.EqualRange(key.New(2, true, key.NullReverseMove, 0, 0), reopened)
	require.NoError(t, err)
	require.EqualValues(t, 1, (hi-lo)/int64(format.Epsilon.EntrySize), "expected exactly one matching entry")
}

func TestListIDsAndNextID(t *testing.T) {
	dir := t.TempDir()
	pool := NewHandlePool(4, nil)
	defer pool.Close()

	_, err := Write(dir, 1, format.Epsilon, nil, 2, pool, nil)
	require.NoError(t, err)
	_, err = Write(dir, 3, format.Epsilon, nil, 2, pool, nil)
	require.NoError(t, err)

	ids, err := ListIDs(dir)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 3}, ids)

	next, err := NextID(dir)
	require.NoError(t, err)
	require.EqualValues(t, 4, next)
}
