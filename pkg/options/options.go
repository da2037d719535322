// Package options provides data structures and functions for configuring
// the chess position database. It defines the parameters that control
// the import pipeline, the partition/merge layer and the query engine,
// following the functional-options pattern of the teacher package this
// store was built from (pkg/ignite/options in the original retrieval).
//
// Configuration parsing from a process-wide file is explicitly an
// external collaborator (spec §1); this package only exposes
// constructors that take parameters directly, per design note §9
// ("a clean redesign takes format and pipeline parameters by explicit
// construction").
package options

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Options holds every parameter the store's components need at
// construction time.
type Options struct {
	// DataDir is the base path under which manifest, stats and partition
	// directories are created (spec §6, on-disk layout).
	DataDir string `json:"dataDir"`

	// RangeIndexGranularity is G: the sparse index samples every G-th
	// key in a run file (spec §4.2).
	RangeIndexGranularity int `json:"rangeIndexGranularity"`

	// BufferCount is how many entry-buffers circulate through the
	// pipeline (spec §4.5).
	BufferCount int `json:"bufferCount"`

	// BufferEntries bounds how many entries fit in one pipeline buffer
	// before it must be submitted for sort+write.
	BufferEntries int `json:"bufferEntries"`

	// SortThreads is the size of the pipeline's sort-thread pool (spec
	// §4.5/§5, "one or more sort threads").
	SortThreads int `json:"sortThreads"`

	// FileHandlePoolSize caps concurrently open run-file descriptors per
	// store: one pool is shared by all of the store's partitions (spec
	// §5, "pool is LRU with a fixed budget").
	FileHandlePoolSize int `json:"fileHandlePoolSize"`

	// QueryBufferEntries is carried in Options but nothing in the store
	// reads it: query execution does not bound its equal_range reads by
	// it.
	QueryBufferEntries int `json:"queryBufferEntries"`

	// MergeTempDirs is how many scratch directories a mergeAll call uses
	// when the caller doesn't supply its own (spec §4.4.1 rule 2).
	MergeTempDirs int `json:"mergeTempDirs"`

	// MergeTempSpaceBytes bounds how many bytes of input a single merge
	// group may total before it is split into a separate group (spec
	// §4.4.1 rule 1, "temporary-space budget"). Zero means unbounded
	// (merge everything in one pass).
	MergeTempSpaceBytes uint64 `json:"mergeTempSpaceBytes"`

	// ImporterThreads is a worker count for the importer's parallel
	// strategy (spec §4.6). Store.Import does not read it: it always
	// runs the sequential strategy.
	ImporterThreads int `json:"importerThreads"`

	// ImporterStrategyThreshold is an input-file count for choosing
	// between the sequential and the parallel strategy. Store.Import
	// does not read it: it always runs the sequential strategy.
	ImporterStrategyThreshold int `json:"importerStrategyThreshold"`

	// CompactInterval is how often a caller-scheduled background merge
	// runs; the core itself performs no scheduling (spec §5, "no
	// cancellation/timeouts at the core level").
	CompactInterval time.Duration `json:"compactInterval"`
}

// OptionFunc mutates an Options value; WithXxx constructors return one.
type OptionFunc func(*Options)

// WithDefaultOptions resets every field to its documented default.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the base data directory.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithRangeIndexGranularity overrides G for this store's range indices.
func WithRangeIndexGranularity(g int) OptionFunc {
	return func(o *Options) {
		if g > 0 {
			o.RangeIndexGranularity = g
		}
	}
}

// WithPipelineBuffers sets the pipeline's buffer count and per-buffer
// entry capacity (spec §4.5 concurrency contract).
func WithPipelineBuffers(count, entriesPerBuffer int) OptionFunc {
	return func(o *Options) {
		if count > 0 {
			o.BufferCount = count
		}
		if entriesPerBuffer > 0 {
			o.BufferEntries = entriesPerBuffer
		}
	}
}

// WithSortThreads sets the pipeline's sort-thread pool size.
func WithSortThreads(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.SortThreads = n
		}
	}
}

// WithFileHandlePoolSize sets the store-wide open-descriptor budget.
func WithFileHandlePoolSize(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.FileHandlePoolSize = n
		}
	}
}

// WithMergeTempSpace sets the merge temp-space budget from a
// human-readable amount (e.g. "2GiB"), following the original's
// util::MemoryAmount via github.com/dustin/go-humanize instead of a
// hand-rolled parser.
func WithMergeTempSpace(amount string) OptionFunc {
	return func(o *Options) {
		bytes, err := humanize.ParseBytes(amount)
		if err == nil {
			o.MergeTempSpaceBytes = bytes
		}
	}
}

// WithMergeTempDirs sets how many scratch directories a mergeAll call
// uses by default; spec §4.4.1 rule 2 only defines behavior for 0, 1 or 2.
func WithMergeTempDirs(n int) OptionFunc {
	return func(o *Options) {
		if n >= 0 && n <= 2 {
			o.MergeTempDirs = n
		}
	}
}

// WithImporterThreads sets the parallel importer's worker count.
func WithImporterThreads(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.ImporterThreads = n
		}
	}
}

// WithCompactInterval sets the caller-scheduled merge cadence.
func WithCompactInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.CompactInterval = interval
		}
	}
}

// MergeTempSpaceHuman renders the configured merge temp-space budget in
// human-readable form, for log lines ("mergeTempSpaceBytes", "2.0 GiB").
func (o Options) MergeTempSpaceHuman() string {
	if o.MergeTempSpaceBytes == 0 {
		return "unbounded"
	}
	return humanize.Bytes(o.MergeTempSpaceBytes)
}
