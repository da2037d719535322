package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/gameheader"
	"github.com/posdb/chessposdb/internal/partition"
	"github.com/posdb/chessposdb/internal/pipeline"
	"github.com/posdb/chessposdb/internal/runfile"
)

const samplePGN = `[Event "Test"]
[White "A"]
[Black "B"]
[Result "1-0"]
[WhiteElo "2400"]
[BlackElo "2300"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 1-0

[Event "Test2"]
[White "C"]
[Black "D"]

1. d4 d5 *
`

func newTestImporter(t *testing.T) (*Importer, func()) {
	t.Helper()
	dir := t.TempDir()
	pool := runfile.NewHandlePool(8, nil)
	pl := pipeline.New(pipeline.Config{
		Dir: filepath.Join(dir, "data"), Format: format.Epsilon, Granularity: 2,
		BufferCount: 2, BufferEntries: 64, SortThreads: 2, Pool: pool,
	})
	part, err := partition.Open(partition.Config{Dir: filepath.Join(dir, "data"), Format: format.Epsilon, Pipeline: pl, Pool: pool, Granularity: 2})
	require.NoError(t, err)
	headers, err := gameheader.Open(filepath.Join(dir, "headers"), nil)
	require.NoError(t, err)

	imp := New(Config{
		Partition: part, Pipeline: pl, Headers: headers, Format: format.Epsilon,
		Options: Options{BufferEntries: 4},
	})
	cleanup := func() {
		headers.Close()
		pool.Close()
	}
	return imp, cleanup
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportSequentialTalliesGamesAndPositions(t *testing.T) {
	imp, cleanup := newTestImporter(t)
	defer cleanup()

	dir := t.TempDir()
	path := writeFile(t, dir, "games.pgn", samplePGN)

	stats, err := imp.ImportSequential(context.Background(), []FileSpec{{Path: path, Type: format.FileTypePGN}})
	require.NoError(t, err)

	total := stats.Total()
	require.EqualValues(t, 1, total.NumGames, "expected 1 complete game (the other lacks a result)")
	require.EqualValues(t, 1, total.NumSkippedGames)
	// e4 e5 Nf3 Nc6 Bb5 = 5 plies -> 6 positions (including the start).
	require.EqualValues(t, 6, total.NumPositions)
	require.EqualValues(t, 1, imp.headers.NumGames())
}

func TestImportSequentialRespectsMinMaxPly(t *testing.T) {
	imp, cleanup := newTestImporter(t)
	defer cleanup()
	imp.opts.MinPly = 1
	imp.opts.MaxPly = 3

	dir := t.TempDir()
	path := writeFile(t, dir, "games.pgn", samplePGN)

	stats, err := imp.ImportSequential(context.Background(), []FileSpec{{Path: path, Type: format.FileTypePGN}})
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.Total().NumPositions, "expected 3 positions (plies 1-3)")
}
