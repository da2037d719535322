package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/key"
	"github.com/posdb/chessposdb/internal/runfile"
)

func TestScheduleUnorderedSortsCombinesAndWrites(t *testing.T) {
	dir := t.TempDir()
	pool := runfile.NewHandlePool(4, nil)
	defer pool.Close()

	p := New(Config{
		Dir: dir, Format: format.Epsilon, Granularity: 2,
		BufferCount: 2, BufferEntries: 8, SortThreads: 2, Pool: pool,
	})

	ctx := context.Background()
	buf, err := p.GetEmptyBuffer(ctx)
	require.NoError(t, err)

	buf = append(buf,
		format.Entry{Key: key.New(3, true, key.NullReverseMove, 0, 0), Count: 1},
		format.Entry{Key: key.New(1, true, key.NullReverseMove, 0, 0), Count: 2},
		format.Entry{Key: key.New(1, true, key.NullReverseMove, 0, 0), Count: 5},
	)

	fut, err := p.ScheduleUnordered(ctx, 1, buf)
	require.NoError(t, err)

	rf, err := fut.Wait(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, rf.ID())

	entries, err := rf.Read(0, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2, "expected 2 distinct keys after combine")

	require.EqualValues(t, 1, entries[0].Key.Hash)
	require.EqualValues(t, 7, entries[0].Count)
	require.EqualValues(t, 3, entries[1].Key.Hash)
	require.EqualValues(t, 1, entries[1].Count)

	require.NoError(t, p.WaitForCompletion())
}

func TestScheduleUnorderedAfterCloseFails(t *testing.T) {
	dir := t.TempDir()
	pool := runfile.NewHandlePool(4, nil)
	defer pool.Close()

	p := New(Config{
		Dir: dir, Format: format.Epsilon, Granularity: 2,
		BufferCount: 1, BufferEntries: 8, SortThreads: 1, Pool: pool,
	})
	require.NoError(t, p.WaitForCompletion())

	_, err := p.ScheduleUnordered(context.Background(), 1, nil)
	require.Error(t, err, "expected error scheduling against a closed pipeline")
}
