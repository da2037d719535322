package chessposdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/posdb/chessposdb/internal/enums"
	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/importer"
	"github.com/posdb/chessposdb/internal/query"
	"github.com/posdb/chessposdb/pkg/options"
)

const samplePGN = `[Event "Test"]
[White "A"]
[Black "B"]
[Result "1-0"]
[WhiteElo "2400"]
[BlackElo "2300"]

1. e4 e5 2. Nf3 Nc6 1-0
`

func writeGames(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "games.pgn")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenImportQueryDelta(t *testing.T) {
	s, err := Open(context.Background(), "chessposdb-test", format.Delta.Key, options.WithDataDir(t.TempDir()))
	require.NoError(t, err)
	defer s.Close()

	path := writeGames(t, samplePGN)
	stats, err := s.Import(context.Background(), []importer.FileSpec{
		{Path: path, Level: enums.LevelHuman, Type: format.FileTypePGN},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Total().NumGames)

	resp, err := s.Query(query.Request{
		Positions: []query.RootPosition{{FEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"}},
		Levels:    []string{"human"},
		Results:   []string{"win"},
		Continuations: &query.FetchOptions{
			FetchChildren:              true,
			FetchFirstGameForEachChild: true,
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	entry := resp.Results[0].Continuations["e4"]["human"]["win"]
	require.EqualValues(t, 1, entry.Count)
	require.NotNil(t, entry.FirstGame)
	require.Equal(t, "A", entry.FirstGame.White)
}

func TestOpenImportQueryAlpha(t *testing.T) {
	s, err := Open(context.Background(), "chessposdb-test", format.Alpha.Key, options.WithDataDir(t.TempDir()))
	require.NoError(t, err)
	defer s.Close()
	require.Len(t, s.alpha, 9)

	path := writeGames(t, samplePGN)
	stats, err := s.Import(context.Background(), []importer.FileSpec{
		{Path: path, Level: enums.LevelHuman, Type: format.FileTypePGN},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Total().NumGames)

	resp, err := s.Query(query.Request{
		Positions: []query.RootPosition{{FEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"}},
		Levels:    []string{"human"},
		Results:   []string{"win"},
		All:       &query.FetchOptions{FetchChildren: true},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.EqualValues(t, 1, resp.Results[0].All["e4"]["human"]["win"].Count)
}
