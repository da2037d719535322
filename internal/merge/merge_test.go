package merge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/key"
	"github.com/posdb/chessposdb/internal/runfile"
)

func writeFile(t *testing.T, dir string, id uint64, pool *runfile.HandlePool, entries []format.Entry) *runfile.RunFile {
	t.Helper()
	rf, err := runfile.Write(dir, id, format.Epsilon, entries, 2, pool, nil)
	require.NoError(t, err, "write id %d", id)
	return rf
}

func TestMergeAllCombinesOverlappingKeys(t *testing.T) {
	dir := t.TempDir()
	pool := runfile.NewHandlePool(8, nil)
	defer pool.Close()

	a := writeFile(t, dir, 1, pool, []format.Entry{
		{Key: key.New(1, true, key.NullReverseMove, 0, 0), Count: 2},
		{Key: key.New(3, true, key.NullReverseMove, 0, 0), Count: 1},
	})
	b := writeFile(t, dir, 2, pool, []format.Entry{
		{Key: key.New(1, true, key.NullReverseMove, 0, 0), Count: 5},
		{Key: key.New(2, true, key.NullReverseMove, 0, 0), Count: 9},
	})

	results, err := MergeAll(dir, []*runfile.RunFile{a, b}, format.Epsilon, 2, pool, 0, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1, "expected one merged group")

	merged := results[0]
	require.EqualValues(t, 1, merged.ID(), "expected merged file to keep first input's id")

	entries, err := merged.Read(0, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3, "expected 3 distinct keys after merge")

	require.EqualValues(t, 1, entries[0].Key.Hash)
	require.EqualValues(t, 7, entries[0].Count)
	require.EqualValues(t, 2, entries[1].Key.Hash)
	require.EqualValues(t, 9, entries[1].Count)
	require.EqualValues(t, 3, entries[2].Key.Hash)
	require.EqualValues(t, 1, entries[2].Count)
}

func TestMergeAllSingleFileGroupIsLeftUntouched(t *testing.T) {
	dir := t.TempDir()
	pool := runfile.NewHandlePool(8, nil)
	defer pool.Close()

	a := writeFile(t, dir, 5, pool, []format.Entry{
		{Key: key.New(9, true, key.NullReverseMove, 0, 0), Count: 1},
	})

	results, err := MergeAll(dir, []*runfile.RunFile{a}, format.Epsilon, 2, pool, 0, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1, "expected untouched single file")
	require.EqualValues(t, 5, results[0].ID())
}

func TestReplicateMergeAllLeavesInputsInPlace(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	pool := runfile.NewHandlePool(8, nil)
	defer pool.Close()

	a := writeFile(t, dir, 1, pool, []format.Entry{
		{Key: key.New(1, true, key.NullReverseMove, 0, 0), Count: 2},
	})
	b := writeFile(t, dir, 2, pool, []format.Entry{
		{Key: key.New(1, true, key.NullReverseMove, 0, 0), Count: 3},
	})

	merged, err := ReplicateMergeAll([]*runfile.RunFile{a, b}, outDir, format.Epsilon, 2, pool, nil, nil)
	require.NoError(t, err)

	entries, err := merged.Read(0, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.EqualValues(t, 5, entries[0].Count)

	_, err = a.Size()
	require.NoError(t, err, "original input a should still exist")
	_, err = b.Size()
	require.NoError(t, err, "original input b should still exist")
}
