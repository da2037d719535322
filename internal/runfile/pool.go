package runfile

import (
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// HandlePool caps how many run-file descriptors a partition keeps open
// concurrently (spec §4.3, "data is accessed through a pooled file
// handle so the partition can cap open descriptors"). It is backed by
// an LRU so the least-recently-used file is the one closed to make
// room for a new one.
type HandlePool struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *os.File]
	log   *zap.SugaredLogger
}

// NewHandlePool creates a pool that keeps at most size file handles
// open at once.
func NewHandlePool(size int, log *zap.SugaredLogger) *HandlePool {
	if size <= 0 {
		size = 256
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	p := &HandlePool{log: log}
	cache, _ := lru.NewWithEvict(size, func(path string, f *os.File) {
		if err := f.Close(); err != nil {
			p.log.Warnw("failed to close evicted run file handle", "path", path, "error", err)
		}
	})
	p.cache = cache
	return p
}

// Get returns an open *os.File for path, opening and caching it if it
// isn't already pooled.
func (p *HandlePool) Get(path string) (*os.File, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if f, ok := p.cache.Get(path); ok {
		return f, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	p.cache.Add(path, f)
	return f, nil
}

// Evict closes and forgets path, if pooled — used when a run file is
// deleted (e.g. after a merge supersedes it).
func (p *HandlePool) Evict(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Remove(path)
}

// Close closes every pooled handle.
func (p *HandlePool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Purge()
}
