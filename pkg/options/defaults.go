package options

import "time"

const (
	// DefaultDataDir is where a store keeps its manifest, stats and
	// partition directories if the caller doesn't override it.
	DefaultDataDir = "/var/lib/chessposdb"

	// DefaultRangeIndexGranularity is the default G of spec §4.2: every
	// G-th key in a run file gets a sparse index sample.
	DefaultRangeIndexGranularity = 1024

	// DefaultBufferCount is the number of entry-buffers that circulate
	// through the pipeline (spec §4.5, "fixed pool of entry-buffers").
	DefaultBufferCount = 4

	// DefaultBufferEntries bounds how many entries a single pipeline
	// buffer holds before it must be submitted.
	DefaultBufferEntries = 1 << 16

	// DefaultSortThreads is the default size of the sort-thread pool
	// (spec §5: "typical N = 1-3").
	DefaultSortThreads = 2

	// DefaultFileHandlePoolSize bounds the number of concurrently open
	// run-file descriptors per store, in the one pool all of its
	// partitions share (spec §5, "LRU with a fixed budget").
	DefaultFileHandlePoolSize = 256

	// DefaultQueryBufferEntries is the default for
	// Options.QueryBufferEntries, which nothing in the store reads.
	DefaultQueryBufferEntries = 64

	// MinimumSupportedMajor/Minor/Patch is the oldest manifest version
	// this implementation will open (spec §6.1).
	MinimumSupportedMajor = 1
	MinimumSupportedMinor = 0
	MinimumSupportedPatch = 0

	// DefaultMergeTempDirs is how many scratch directories mergeAll uses
	// when the caller supplies none explicitly (spec §4.4.1 rule 2:
	// "0/1/2 temporary directories").
	DefaultMergeTempDirs = 1

	// DefaultImporterStrategyThreshold is the default for
	// Options.ImporterStrategyThreshold, which Store.Import does not
	// consult: it always runs the sequential strategy.
	DefaultImporterStrategyThreshold = 4
)

// DefaultCompactInterval mirrors the teacher's background-maintenance
// cadence; callers that schedule periodic mergeAll runs default to it.
const DefaultCompactInterval = time.Hour * 5

var defaultOptions = Options{
	DataDir:               DefaultDataDir,
	RangeIndexGranularity: DefaultRangeIndexGranularity,
	BufferCount:           DefaultBufferCount,
	BufferEntries:         DefaultBufferEntries,
	SortThreads:           DefaultSortThreads,
	FileHandlePoolSize:    DefaultFileHandlePoolSize,
	QueryBufferEntries:    DefaultQueryBufferEntries,
	MergeTempDirs:         DefaultMergeTempDirs,
	ImporterThreads:       1,

	ImporterStrategyThreshold: DefaultImporterStrategyThreshold,
	CompactInterval:           DefaultCompactInterval,
}

// NewDefaultOptions returns a fresh copy of the default option set.
func NewDefaultOptions() Options {
	return defaultOptions
}
