package query

import (
	"github.com/posdb/chessposdb/internal/enums"
	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/pkg/errors"
)

// selects names the three fetch buckets by name, in the fixed order
// the response assembles them.
type selectKind int

const (
	selectContinuations selectKind = iota
	selectTranspositions
	selectAll
)

// options is the validated, format-adjusted reading of one Request
// (spec §6.4, "unsupported fetch flags on a given format are silently
// stripped before execution").
type options struct {
	levels  []enums.Level
	results []enums.Result

	active map[selectKind]*FetchOptions

	retractions *RetractionOptions

	anyFetchChildren bool
}

// normalize validates req against spec §6.3's invalidity rules and
// strips fetch flags f cannot satisfy.
func normalize(req Request, f *format.Format) (options, error) {
	if len(req.Levels) == 0 {
		return options{}, errors.NewQueryError(nil, errors.ErrorCodeEmptyFilterSet, "levels must not be empty").WithField("levels")
	}
	if len(req.Results) == 0 {
		return options{}, errors.NewQueryError(nil, errors.ErrorCodeEmptyFilterSet, "results must not be empty").WithField("results")
	}

	count := 0
	if req.Continuations != nil {
		count++
	}
	if req.Transpositions != nil {
		count++
	}
	if req.All != nil {
		count++
	}
	if count == 0 || count > 2 {
		return options{}, errors.NewQueryError(nil, errors.ErrorCodeInvalidFetchOptions,
			"must specify one or two of continuations/transpositions/all fetch options")
	}
	if req.All != nil && count > 1 {
		return options{}, errors.NewQueryError(nil, errors.ErrorCodeInvalidFetchOptions,
			"all cannot be combined with another fetch option").WithField("all")
	}

	opts := options{active: map[selectKind]*FetchOptions{}}

	for _, s := range req.Levels {
		opts.levels = append(opts.levels, enums.ParseLevel(s))
	}
	for _, s := range req.Results {
		opts.results = append(opts.results, enums.ParseResult(s))
	}

	strip := func(fo *FetchOptions) *FetchOptions {
		if fo == nil {
			return nil
		}
		out := *fo
		if !f.Capabilities.HasFirstGame {
			out.FetchFirstGame = false
			out.FetchFirstGameForEachChild = false
		}
		if !f.Capabilities.HasLastGame {
			out.FetchLastGame = false
			out.FetchLastGameForEachChild = false
		}
		return &out
	}

	if req.Continuations != nil {
		opts.active[selectContinuations] = strip(req.Continuations)
	}
	if req.Transpositions != nil {
		opts.active[selectTranspositions] = strip(req.Transpositions)
	}
	if req.All != nil {
		opts.active[selectAll] = strip(req.All)
	}

	for _, fo := range opts.active {
		if fo.FetchChildren {
			opts.anyFetchChildren = true
		}
	}

	if f.Capabilities.HasReverseMove {
		opts.retractions = req.Retractions
	}

	return opts, nil
}
