package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// Stats counts loader and cache events. It implements [LoaderHooks] and
// [CacheHooks] and is safe for concurrent use.
type Stats struct {
	NoopLoaderHooks

	resources  atomic.Int64
	failures   atomic.Int64
	components atomic.Int64
	themes     atomic.Int64
	hits       atomic.Int64
	misses     atomic.Int64
	bytes      atomic.Int64
}

// NewStats returns zeroed counters.
func NewStats() *Stats { return &Stats{} }

// Snapshot is a point-in-time copy of [Stats].
type Snapshot struct {
	Resources   int64 // resources fetched successfully
	Failures    int64 // resource fetches that failed
	Components  int64 // components loaded
	Themes      int64 // themes applied
	CacheHits   int64
	CacheMisses int64
	CachedBytes int64 // bytes written to the cache
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Resources:   s.resources.Load(),
		Failures:    s.failures.Load(),
		Components:  s.components.Load(),
		Themes:      s.themes.Load(),
		CacheHits:   s.hits.Load(),
		CacheMisses: s.misses.Load(),
		CachedBytes: s.bytes.Load(),
	}
}

func (s *Stats) OnResourceComplete(_ context.Context, _, _ string, _ time.Duration, err error) {
	if err != nil {
		s.failures.Add(1)
		return
	}
	s.resources.Add(1)
}

func (s *Stats) OnComponentLoaded(_ context.Context, _ string, _ time.Duration, err error) {
	if err == nil {
		s.components.Add(1)
	}
}

func (s *Stats) OnThemeApplied(context.Context, string, int) { s.themes.Add(1) }

func (s *Stats) OnCacheHit(context.Context, string)  { s.hits.Add(1) }
func (s *Stats) OnCacheMiss(context.Context, string) { s.misses.Add(1) }

func (s *Stats) OnCacheSet(_ context.Context, _ string, size int) { s.bytes.Add(int64(size)) }

var (
	_ LoaderHooks = (*Stats)(nil)
	_ CacheHooks  = (*Stats)(nil)
)
