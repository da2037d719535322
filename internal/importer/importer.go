// Package importer implements the import pipeline driver of spec §4.6
// (component C6): it drives a chess game iterator file by file, turns
// every reachable position into a pipeline entry, and keeps the game
// header store and pipeline in sync with what it has produced.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/posdb/chessposdb/internal/enums"
	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/gameheader"
	"github.com/posdb/chessposdb/internal/key"
	"github.com/posdb/chessposdb/internal/partition"
	"github.com/posdb/chessposdb/internal/pipeline"
	"github.com/posdb/chessposdb/pkg/chess"
)

// FileSpec names one input file to import (spec §4.6, "a list of
// {path, level, type∈{PGN,BCGN}}").
type FileSpec struct {
	Path  string
	Level enums.Level
	Type  format.FileType
}

// Options configures import behavior beyond the file list.
type Options struct {
	// BufferEntries is how many entries accumulate before a buffer is
	// shipped to the pipeline.
	BufferEntries int

	// MinPly/MaxPly bound which plies of a game are turned into
	// entries (SPEC_FULL.md section C.5's supplemented feature; ply 0
	// is the starting position). MaxPly of 0 means unbounded.
	MinPly, MaxPly int

	// LevelFilter/ResultFilter restrict this importer to games matching
	// a single level and/or PGN result, skipping every other game
	// before it touches the header store or the pipeline. db_alpha's
	// per-(level,result) partition layout (SPEC_FULL.md section D) has
	// no single partition an unfiltered importer could write to, so the
	// store facade runs one filtered Importer per (level, result) pair
	// over the same file list instead of teaching this package about
	// multiple partitions.
	LevelFilter  *enums.Level
	ResultFilter *enums.Result
}

// Config wires an Importer to the components it drives.
type Config struct {
	Partition *partition.Partition
	Pipeline  *pipeline.Pipeline
	Headers   *gameheader.Store
	Format    *format.Format
	Options   Options
	Logger    *zap.SugaredLogger
}

// Importer drives file import for one partition/header-store pair.
type Importer struct {
	partition *partition.Partition
	pipeline  *pipeline.Pipeline
	headers   *gameheader.Store
	format    *format.Format
	opts      Options
	log       *zap.SugaredLogger
}

// New builds an Importer from cfg.
func New(cfg Config) *Importer {
	if cfg.Options.BufferEntries <= 0 {
		cfg.Options.BufferEntries = 4096
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	return &Importer{
		partition: cfg.Partition, pipeline: cfg.Pipeline, headers: cfg.Headers,
		format: cfg.Format, opts: cfg.Options, log: cfg.Logger,
	}
}

// forceIDFunc returns the id the next StoreUnordered call should use,
// or false to let the partition auto-assign one (the sequential
// strategy's mode).
type forceIDFunc func() (uint64, bool)

func autoID() (uint64, bool) { return 0, false }

// ImportSequential runs spec §4.6's sequential strategy: one buffer,
// ids auto-assigned by the partition. It performs the completion
// sequence itself (residual flush, pipeline drain, header flush).
func (imp *Importer) ImportSequential(ctx context.Context, files []FileSpec) (Stats, error) {
	stats, err := imp.importFiles(ctx, files, autoID)
	if err != nil {
		return stats, err
	}
	return stats, imp.Finish(ctx)
}

// Finish runs spec §4.6's completion sequence: drain the pipeline,
// collect its future files into the partition, and flush the header
// store. Call this once after every producer (sequential run, or
// every parallel worker) has stopped submitting work.
func (imp *Importer) Finish(ctx context.Context) error {
	if err := imp.pipeline.WaitForCompletion(); err != nil {
		return fmt.Errorf("importer: draining pipeline: %w", err)
	}
	if err := imp.partition.CollectFutureFiles(ctx); err != nil {
		return fmt.Errorf("importer: collecting future files: %w", err)
	}
	if err := imp.headers.Flush(); err != nil {
		return fmt.Errorf("importer: flushing headers: %w", err)
	}
	return nil
}

func (imp *Importer) importFiles(ctx context.Context, files []FileSpec, nextID forceIDFunc) (Stats, error) {
	var stats Stats

	buf, err := imp.pipeline.GetEmptyBuffer(ctx)
	if err != nil {
		return stats, err
	}

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		var err error
		if id, forced := nextID(); forced {
			_, err = imp.partition.StoreUnordered(ctx, buf, id)
		} else {
			_, err = imp.partition.StoreUnordered(ctx, buf)
		}
		if err != nil {
			return err
		}
		buf, err = imp.pipeline.GetEmptyBuffer(ctx)
		return err
	}

	for _, fs := range files {
		if err := imp.importFile(ctx, fs, &stats, &buf, flush); err != nil {
			imp.log.Errorw("importer: abandoning file", "path", fs.Path, "error", err)
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (imp *Importer) importFile(ctx context.Context, fs FileSpec, stats *Stats, buf *[]format.Entry, flush func() error) error {
	if !imp.format.Importable(fs.Type) {
		return fmt.Errorf("importer: format %s cannot import file type %s", imp.format.Key, fs.Type)
	}

	f, err := os.Open(fs.Path)
	if err != nil {
		return fmt.Errorf("importer: opening %s: %w", fs.Path, err)
	}
	defer f.Close()

	it := chess.NewGameIterator(f)
	for {
		game, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("importer: reading %s: %w", fs.Path, err)
		}

		if err := imp.importGame(ctx, game, fs.Level, stats, buf, flush); err != nil {
			imp.log.Warnw("importer: skipping unparseable game", "path", fs.Path, "error", err)
			stats.at(fs.Level).NumSkippedGames++
		}
	}
}

func (imp *Importer) importGame(ctx context.Context, game *chess.Game, level enums.Level, stats *Stats, buf *[]format.Entry, flush func() error) error {
	if imp.opts.LevelFilter != nil && level != *imp.opts.LevelFilter {
		return nil
	}

	result, ok := enums.ParsePGNResult(game.Tag("Result"))
	if !ok {
		stats.at(level).NumSkippedGames++
		return nil
	}
	if imp.opts.ResultFilter != nil && result != *imp.opts.ResultFilter {
		return nil
	}

	var ref uint64
	switch imp.format.FirstGameRefKind {
	case format.GameRefIndex:
		ref = imp.headers.NextGameID()
	case format.GameRefOffset:
		ref = imp.headers.NextGameOffset()
	}

	plies, err := game.Replay()
	if err != nil {
		return err
	}

	positions := make([]struct {
		pos *chess.Position
		rm  uint32
	}, len(plies)+1)

	start := chess.StartingPosition()
	if fen := game.Tag("FEN"); fen != "" {
		if p, err := chess.ParseFEN(fen); err == nil {
			start = p
		}
	}
	if len(plies) > 0 {
		start = plies[0].Before
	}
	positions[0].pos = start
	positions[0].rm = key.NullReverseMove
	for i, p := range plies {
		positions[i+1].pos = p.After
		positions[i+1].rm = chess.EncodeReverseMove(p.Move)
	}

	eloDiff, hasEloDiff := eloDiff(game)

	for ply, p := range positions {
		if ply < imp.opts.MinPly {
			continue
		}
		if imp.opts.MaxPly > 0 && ply > imp.opts.MaxPly {
			break
		}

		k := imp.format.BuildKey(p.pos.Hash(), p.rm, uint8(level), uint8(result))
		entry := format.Entry{Key: k, Count: 1}
		if imp.format.Capabilities.HasEloDiff && hasEloDiff {
			entry.HasEloDiff = true
			entry.EloDiff = eloDiff
		}
		if imp.format.FirstGameRefKind != format.GameRefNone {
			entry.HasFirstRef = true
			entry.FirstRef = ref
		}
		if imp.format.LastGameRefKind != format.GameRefNone {
			entry.HasLastRef = true
			entry.LastRef = ref
		}

		*buf = append(*buf, entry)
		stats.at(level).NumPositions++

		if len(*buf) >= imp.opts.BufferEntries {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	stats.at(level).NumGames++

	plyCount := gameheader.UnknownPlyCount
	if len(plies) <= int(gameheader.UnknownPlyCount) {
		plyCount = uint16(len(plies))
	}
	loc, err := imp.headers.AddGame(gameheader.Header{
		Result:   result,
		Date:     game.Tag("Date"),
		Eco:      game.Tag("ECO"),
		PlyCount: plyCount,
		Event:    game.Tag("Event"),
		White:    game.Tag("White"),
		Black:    game.Tag("Black"),
	})
	if err != nil {
		return err
	}

	var gotRef uint64
	switch imp.format.FirstGameRefKind {
	case format.GameRefIndex:
		gotRef = loc.Index
	case format.GameRefOffset:
		gotRef = loc.Offset
	default:
		return nil
	}
	if gotRef != ref {
		return fmt.Errorf("importer: header store advanced unexpectedly (precomputed ref %d, got %d)", ref, gotRef)
	}
	return nil
}

func eloDiff(game *chess.Game) (int64, bool) {
	w, errW := strconv.Atoi(game.Tag("WhiteElo"))
	b, errB := strconv.Atoi(game.Tag("BlackElo"))
	if errW != nil || errB != nil {
		return 0, false
	}
	return int64(w - b), true
}
