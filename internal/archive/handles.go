package archive

import (
	"archive/zip"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// maxTrackedArchives bounds how many distinct archive paths keep a live
// handlePool at once. A classpath with thousands of jars would otherwise
// grow the registry, and its open file descriptors, without bound; the
// least-recently-used path's pool is drained and evicted once the cap is
// reached.
const maxTrackedArchives = 64

// ErrHandleLeak is reported by Shutdown when the number of released
// handles doesn't match the number acquired, per §4.2's handle-recycling
// leak check.
var ErrHandleLeak = errors.New("archive: handle leak detected at shutdown")

// handlePool recycles *zip.ReadCloser values for one canonical archive
// path. A pool is bounded only by concurrent demand, matching §4.2: it
// grows to however many handles are concurrently checked out and never
// preallocates.
type handlePool struct {
	mu         sync.Mutex
	path       string
	idle       []*zip.ReadCloser
	acquired   int
	released   int
}

func newHandlePool(path string) *handlePool {
	return &handlePool{path: path}
}

// acquire returns an idle handle if one exists, else opens a new one.
func (p *handlePool) acquire() (*zip.ReadCloser, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		h := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.acquired++
		p.mu.Unlock()
		return h, nil
	}
	p.acquired++
	p.mu.Unlock()

	r, err := zip.OpenReader(p.path)
	if err != nil {
		p.mu.Lock()
		p.acquired--
		p.mu.Unlock()
		return nil, err
	}
	return r, nil
}

// release returns a handle to the idle list for reuse.
func (p *handlePool) release(h *zip.ReadCloser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
	p.idle = append(p.idle, h)
}

// drain closes every idle handle and reports a leak if acquired !=
// released.
func (p *handlePool) drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range p.idle {
		h.Close()
	}
	p.idle = nil
	if p.acquired != p.released {
		return ErrHandleLeak
	}
	return nil
}

// handleRegistry owns one handlePool per canonical archive path, bounded
// to maxTrackedArchives by LRU eviction. mu guards the get-or-create
// sequence against the cache; errMu is separate so the eviction callback
// (invoked synchronously from within Add, while mu is held) can record a
// leak without re-entering mu.
type handleRegistry struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *handlePool]

	errMu     sync.Mutex
	evictErrs []error
}

func newHandleRegistry() *handleRegistry {
	r := &handleRegistry{}
	cache, err := lru.NewWithEvict[string, *handlePool](maxTrackedArchives, func(_ string, p *handlePool) {
		if err := p.drain(); err != nil {
			r.errMu.Lock()
			r.evictErrs = append(r.evictErrs, err)
			r.errMu.Unlock()
		}
	})
	if err != nil {
		// Only possible if maxTrackedArchives <= 0, which it isn't.
		panic(err)
	}
	r.cache = cache
	return r
}

func (r *handleRegistry) poolFor(path string) *handlePool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.cache.Get(path); ok {
		return p
	}
	p := newHandlePool(path)
	r.cache.Add(path, p)
	return p
}

// shutdown drains every pool still resident in the cache, plus any
// eviction-time leak recorded earlier in the scan, returning the first
// error encountered (but draining all of them regardless, so every
// handle gets a chance to close even if an earlier pool leaked).
func (r *handleRegistry) shutdown() error {
	r.mu.Lock()
	keys := r.cache.Keys()
	var firstErr error
	for _, path := range keys {
		p, ok := r.cache.Peek(path)
		if !ok {
			continue
		}
		if err := p.drain(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.mu.Unlock()

	r.errMu.Lock()
	defer r.errMu.Unlock()
	for _, err := range r.evictErrs {
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
