// Package query implements the query engine of spec §4.7 (component
// C7): it turns a JSON request naming root positions, levels, results
// and fetch options into per-root, per-select, per-(level,result)
// aggregated statistics, resolving game-header references along the
// way.
package query

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/posdb/chessposdb/internal/enums"
	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/gameheader"
	"github.com/posdb/chessposdb/internal/key"
	"github.com/posdb/chessposdb/pkg/chess"
)

// Partitions resolves the partition holding entries for one
// (level, result) pair. Only db_alpha partitions by level/result on
// disk; every other format shares one partition regardless of the
// arguments (see SinglePartition in partitions.go).
type Partitions interface {
	Partition(level enums.Level, result enums.Result) (partitionReader, bool)
}

// partitionReader is the slice of *partition.Partition the engine
// needs, declared locally so this package depends only on the methods
// it actually calls.
type partitionReader interface {
	ExecuteQuery(keys []key.Key, visit func(queryIndex int, e format.Entry) error) error
	QueryRetractions(root key.Key, visit func(e format.Entry) error) error
}

// Engine answers queries against one format's partitions and header
// store.
type Engine struct {
	format  *format.Format
	parts   Partitions
	headers *gameheader.Store
	log     *zap.SugaredLogger
}

// New builds an Engine.
func New(f *format.Format, parts Partitions, headers *gameheader.Store, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{format: f, parts: parts, headers: headers, log: log}
}

// accumulator holds one select bucket's merged entries, keyed by
// level then result (spec §4.7 step 4, "accumulates ... using
// combine").
type accumulator map[enums.Level]map[enums.Result]format.Entry

func (a accumulator) add(level enums.Level, result enums.Result, e format.Entry) {
	byResult, ok := a[level]
	if !ok {
		byResult = map[enums.Result]format.Entry{}
		a[level] = byResult
	}
	if existing, ok := byResult[result]; ok {
		byResult[result] = existing.Combine(e)
	} else {
		byResult[result] = e
	}
}

// Execute runs req against e's partitions and header store (spec
// §4.7).
func (e *Engine) Execute(req Request) (Response, error) {
	opts, err := normalize(req, e.format)
	if err != nil {
		return Response{}, err
	}

	resp := Response{Query: req, Results: make([]ResultForRoot, len(req.Positions))}

	for i, rp := range req.Positions {
		pos, reverseMove, err := reconstructRoot(rp)
		if err != nil {
			return Response{}, err
		}

		result := ResultForRoot{Position: rp}

		all, cont, trans, err := e.queryPosition(pos, reverseMove, opts)
		if err != nil {
			return Response{}, err
		}
		e.assignSelects(&result, "--", all, cont, trans, opts, true)

		if opts.anyFetchChildren {
			for _, mv := range pos.LegalMoves() {
				child := pos.Clone()
				child.Apply(mv)
				label := mv.SAN(pos)

				all, cont, trans, err := e.queryPosition(child, chess.EncodeReverseMove(mv), opts)
				if err != nil {
					return Response{}, err
				}
				e.assignSelects(&result, label, all, cont, trans, opts, false)
			}
		}

		if opts.retractions != nil {
			retractions, err := e.queryRetractions(pos, opts.retractions)
			if err != nil {
				return Response{}, err
			}
			result.Retractions = retractions
		}

		resp.Results[i] = result
	}

	return resp, nil
}

// reconstructRoot parses rp's FEN and, if present, applies its move to
// produce the actual query position and the reverse move that defines
// it (spec §6.3/§6.4, "a FEN whose reconstruction with the optional
// move fails" is invalid input).
func reconstructRoot(rp RootPosition) (*chess.Position, uint32, error) {
	pos, err := chess.ParseFEN(rp.FEN)
	if err != nil {
		return nil, 0, fmt.Errorf("query: invalid fen %q: %w", rp.FEN, err)
	}
	if rp.Move == "" {
		return pos, key.NullReverseMove, nil
	}
	mv, err := chess.ParseSAN(rp.Move, pos)
	if err != nil {
		return nil, 0, fmt.Errorf("query: invalid move %q for fen %q: %w", rp.Move, rp.FEN, err)
	}
	actual := pos.Clone()
	actual.Apply(mv)
	return actual, chess.EncodeReverseMove(mv), nil
}

// queryPosition scans every partition group relevant to pos and
// returns the "all" accumulation plus, when the format carries a
// reverse move, the continuations/transpositions split (spec §4.7
// step 4). Formats without a reverse move cannot distinguish the two:
// every stored occurrence is conservatively attributed to whatever
// move the query asked about, so continuations is defined to equal
// all and transpositions is empty — still satisfying the stated
// identity count(all) = count(continuations) + count(transpositions).
func (e *Engine) queryPosition(pos *chess.Position, reverseMove uint32, opts options) (all, cont, trans accumulator, err error) {
	all = accumulator{}
	hash := pos.Hash()

	scan := func(level enums.Level, result enums.Result, queryLevel, queryResult uint8, filterByKey bool) error {
		part, ok := e.parts.Partition(level, result)
		if !ok {
			return nil
		}
		qk := e.format.BuildKey(hash, reverseMove, queryLevel, queryResult)
		return part.ExecuteQuery([]key.Key{qk}, func(_ int, ent format.Entry) error {
			lvl, res := level, result
			if filterByKey {
				lvl, res = enums.Level(ent.Key.Level()), enums.Result(ent.Key.Result())
				if !containsLevel(opts.levels, lvl) || !containsResult(opts.results, res) {
					return nil
				}
			}
			all.add(lvl, res, ent)

			if e.format.Capabilities.HasReverseMove {
				if cont == nil {
					cont = accumulator{}
					trans = accumulator{}
				}
				if ent.Key.EqualWithReverseMove(qk) {
					cont.add(lvl, res, ent)
				} else {
					trans.add(lvl, res, ent)
				}
			}
			return nil
		})
	}

	switch {
	case e.format.PartitionedByLevelResult:
		for _, lvl := range opts.levels {
			for _, res := range opts.results {
				if err := scan(lvl, res, 0, 0, false); err != nil {
					return nil, nil, nil, err
				}
			}
		}
	case e.format.FoldLevelResultIntoHash:
		for _, lvl := range opts.levels {
			for _, res := range opts.results {
				if err := scan(lvl, res, uint8(lvl), uint8(res), false); err != nil {
					return nil, nil, nil, err
				}
			}
		}
	default:
		if err := scan(0, 0, 0, 0, true); err != nil {
			return nil, nil, nil, err
		}
	}

	if !e.format.Capabilities.HasReverseMove {
		cont, trans = all, accumulator{}
	}

	return all, cont, trans, nil
}

func containsLevel(levels []enums.Level, l enums.Level) bool {
	for _, x := range levels {
		if x == l {
			return true
		}
	}
	return false
}

func containsResult(results []enums.Result, r enums.Result) bool {
	for _, x := range results {
		if x == r {
			return true
		}
	}
	return false
}

// queryRetractions resolves every predecessor of pos (spec §4.7 step
// 5), keyed by the retracted move's long-algebraic label — short SAN
// disambiguation needs the predecessor position itself, which a
// decoded reverse move alone doesn't carry.
func (e *Engine) queryRetractions(pos *chess.Position, opts *RetractionOptions) (map[string]SegregatedEntries, error) {
	part, ok := e.parts.Partition(enums.LevelHuman, enums.ResultWhiteWin)
	if !ok {
		return nil, nil
	}
	root := e.format.BuildKey(pos.Hash(), key.NullReverseMove, 0, 0)

	out := map[string]SegregatedEntries{}
	err := part.QueryRetractions(root, func(ent format.Entry) error {
		label := chess.DecodeReverseMove(ent.Key.ReverseMove()).Long()
		seg, ok := out[label]
		if !ok {
			seg = SegregatedEntries{}
			out[label] = seg
		}

		lvl := enums.Level(ent.Key.Level())
		res := enums.Result(ent.Key.Result())
		byRes, ok := seg[lvl.String()]
		if !ok {
			byRes = map[string]WireEntry{}
			seg[lvl.String()] = byRes
		}

		merged := fromWireEntry(byRes[res.String()]).Combine(ent)
		byRes[res.String()] = e.toWireEntry(merged, opts.FetchFirstGameForEach, opts.FetchLastGameForEach)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func fromWireEntry(we WireEntry) format.Entry {
	e := format.Entry{Count: we.Count}
	if we.EloDiff != nil {
		e.HasEloDiff = true
		e.EloDiff = *we.EloDiff
	}
	return e
}

// assignSelects folds one node's (root or child) aggregated results
// into result under label, for whichever selects opts has active.
func (e *Engine) assignSelects(result *ResultForRoot, label string, all, cont, trans accumulator, opts options, isRoot bool) {
	fold := func(a accumulator, fo *FetchOptions) SegregatedEntries {
		if a == nil || fo == nil {
			return nil
		}
		fetchFirst, fetchLast := fo.FetchFirstGame, fo.FetchLastGame
		if !isRoot {
			fetchFirst, fetchLast = fo.FetchFirstGameForEachChild, fo.FetchLastGameForEachChild
		}
		seg := SegregatedEntries{}
		for lvl, byRes := range a {
			out := map[string]WireEntry{}
			for res, ent := range byRes {
				out[res.String()] = e.toWireEntry(ent, fetchFirst, fetchLast)
			}
			seg[lvl.String()] = out
		}
		return seg
	}

	assign := func(sel selectKind, dst *map[string]SegregatedEntries, a accumulator) {
		fo, ok := opts.active[sel]
		if !ok {
			return
		}
		seg := fold(a, fo)
		if seg == nil {
			return
		}
		if *dst == nil {
			*dst = map[string]SegregatedEntries{}
		}
		(*dst)[label] = seg
	}

	assign(selectAll, &result.All, all)
	assign(selectContinuations, &result.Continuations, cont)
	assign(selectTranspositions, &result.Transpositions, trans)
}

func (e *Engine) toWireEntry(ent format.Entry, fetchFirst, fetchLast bool) WireEntry {
	we := WireEntry{Count: ent.Count}
	if ent.HasEloDiff {
		v := ent.EloDiff
		we.EloDiff = &v
	}
	if fetchFirst && ent.HasFirstRef {
		we.FirstGame = e.resolveHeader(ent.FirstRef, e.format.FirstGameRefKind)
	}
	if fetchLast && ent.HasLastRef {
		we.LastGame = e.resolveHeader(ent.LastRef, e.format.LastGameRefKind)
	}
	return we
}

func (e *Engine) resolveHeader(ref uint64, kind format.GameRefKind) *GameHeader {
	var hs []gameheader.Header
	var err error
	switch kind {
	case format.GameRefIndex:
		hs, err = e.headers.QueryByIndices([]uint64{ref})
	case format.GameRefOffset:
		hs, err = e.headers.QueryByOffsets([]uint64{ref})
	default:
		return nil
	}
	if err != nil || len(hs) == 0 {
		e.log.Warnw("query: failed to resolve game header", "ref", ref, "error", err)
		return nil
	}
	h := hs[0]
	return &GameHeader{
		Event: h.Event, White: h.White, Black: h.Black,
		Result: h.Result.PGNString(), Date: h.Date, Eco: h.Eco, PlyCount: h.PlyCount,
	}
}
