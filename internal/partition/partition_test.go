package partition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/key"
	"github.com/posdb/chessposdb/internal/pipeline"
	"github.com/posdb/chessposdb/internal/runfile"
)

func newTestPartition(t *testing.T) (*Partition, *pipeline.Pipeline, *runfile.HandlePool) {
	t.Helper()
	dir := t.TempDir()
	pool := runfile.NewHandlePool(8, nil)
	pl := pipeline.New(pipeline.Config{
		Dir: dir, Format: format.Epsilon, Granularity: 2,
		BufferCount: 2, BufferEntries: 16, SortThreads: 2, Pool: pool,
	})

	p, err := Open(Config{Dir: dir, Format: format.Epsilon, Pipeline: pl, Pool: pool, Granularity: 2})
	require.NoError(t, err)
	return p, pl, pool
}

func TestStoreUnorderedThenCollectInsertsSorted(t *testing.T) {
	p, pl, pool := newTestPartition(t)
	defer pool.Close()
	defer pl.WaitForCompletion()

	ctx := context.Background()

	_, err := p.StoreUnordered(ctx, []format.Entry{
		{Key: key.New(5, true, key.NullReverseMove, 0, 0), Count: 1},
	})
	require.NoError(t, err)
	_, err = p.StoreUnordered(ctx, []format.Entry{
		{Key: key.New(9, true, key.NullReverseMove, 0, 0), Count: 2},
	})
	require.NoError(t, err)

	require.NoError(t, p.CollectFutureFiles(ctx))

	files := p.Files()
	require.Len(t, files, 2)
	require.EqualValues(t, 1, files[0].ID())
	require.EqualValues(t, 2, files[1].ID())

	require.EqualValues(t, 3, p.NextID())
}

func TestExecuteQueryFansOverAllFiles(t *testing.T) {
	p, pl, pool := newTestPartition(t)
	defer pool.Close()
	defer pl.WaitForCompletion()

	ctx := context.Background()
	target := key.New(7, true, key.NullReverseMove, 0, 0)

	_, err := p.StoreUnordered(ctx, []format.Entry{
		{Key: target, Count: 3},
		{Key: key.New(1, true, key.NullReverseMove, 0, 0), Count: 1},
	})
	require.NoError(t, err)
	_, err = p.StoreUnordered(ctx, []format.Entry{
		{Key: target, Count: 4},
	})
	require.NoError(t, err)
	require.NoError(t, p.CollectFutureFiles(ctx))

	var total uint64
	var hits int
	err = p.ExecuteQuery([]key.Key{target}, func(queryIndex int, e format.Entry) error {
		require.Equal(t, 0, queryIndex)
		total += e.Count
		hits++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, hits)
	require.EqualValues(t, 7, total)
}

func TestClearRemovesAllFiles(t *testing.T) {
	p, pl, pool := newTestPartition(t)
	defer pool.Close()
	defer pl.WaitForCompletion()

	ctx := context.Background()
	_, err := p.StoreUnordered(ctx, []format.Entry{
		{Key: key.New(2, true, key.NullReverseMove, 0, 0), Count: 1},
	})
	require.NoError(t, err)
	require.NoError(t, p.CollectFutureFiles(ctx))
	require.Len(t, p.Files(), 1, "expected 1 file before clear")

	require.NoError(t, p.Clear())
	require.Len(t, p.Files(), 0, "expected 0 files after clear")
}
