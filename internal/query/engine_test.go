package query

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/posdb/chessposdb/internal/enums"
	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/gameheader"
	"github.com/posdb/chessposdb/internal/partition"
	"github.com/posdb/chessposdb/internal/pipeline"
	"github.com/posdb/chessposdb/internal/runfile"
	"github.com/posdb/chessposdb/pkg/chess"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	pool := runfile.NewHandlePool(8, nil)
	pl := pipeline.New(pipeline.Config{
		Dir: filepath.Join(dir, "data"), Format: format.Delta, Granularity: 2,
		BufferCount: 2, BufferEntries: 64, SortThreads: 1, Pool: pool,
	})
	part, err := partition.Open(partition.Config{Dir: filepath.Join(dir, "data"), Format: format.Delta, Pipeline: pl, Pool: pool, Granularity: 2})
	require.NoError(t, err)
	headers, err := gameheader.Open(filepath.Join(dir, "headers"), nil)
	require.NoError(t, err)

	pos := chess.StartingPosition()
	mv, err := chess.ParseSAN("e4", pos)
	require.NoError(t, err)
	child := pos.Clone()
	child.Apply(mv)

	loc, err := headers.AddGame(gameheader.Header{Result: enums.ResultWhiteWin, White: "A", Black: "B", Event: "Test"})
	require.NoError(t, err)
	require.NoError(t, headers.Flush())

	k := format.Delta.BuildKey(child.Hash(), chess.EncodeReverseMove(mv), uint8(enums.LevelHuman), uint8(enums.ResultWhiteWin))
	entry := format.Entry{Key: k, Count: 1, HasFirstRef: true, FirstRef: loc.Index, HasLastRef: true, LastRef: loc.Index, HasEloDiff: true, EloDiff: 42}
	ctx := context.Background()
	_, err = part.StoreUnordered(ctx, []format.Entry{entry})
	require.NoError(t, err)
	require.NoError(t, pl.WaitForCompletion())
	require.NoError(t, part.CollectFutureFiles(ctx))

	return New(format.Delta, SinglePartition{P: part}, headers, nil)
}

func TestExecuteFindsChildContinuation(t *testing.T) {
	e := newTestEngine(t)

	req := Request{
		Positions: []RootPosition{{FEN: startFEN}},
		Levels:    []string{"human"},
		Results:   []string{"win"},
		Continuations: &FetchOptions{
			FetchChildren:              true,
			FetchFirstGameForEachChild: true,
		},
	}

	resp, err := e.Execute(req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	seg, ok := resp.Results[0].Continuations["e4"]
	require.True(t, ok, "expected a continuation entry for e4, got keys %v", keysOf(resp.Results[0].Continuations))

	entry := seg["human"]["win"]
	require.EqualValues(t, 1, entry.Count)
	require.NotNil(t, entry.FirstGame)
	require.Equal(t, "A", entry.FirstGame.White)
}

func keysOf(m map[string]SegregatedEntries) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestNormalizeRejectsAllCombinedWithAnother(t *testing.T) {
	req := Request{
		Positions:     []RootPosition{{FEN: startFEN}},
		Levels:        []string{"human"},
		Results:       []string{"win"},
		All:           &FetchOptions{},
		Continuations: &FetchOptions{},
	}
	_, err := normalize(req, format.Delta)
	require.Error(t, err, "expected validation error combining all with another select")
}
