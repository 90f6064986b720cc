package observability

import "sync/atomic"

type hookSet struct {
	loader LoaderHooks
	cache  CacheHooks
	http   HTTPHooks
}

var current atomic.Pointer[hookSet]

func init() { Reset() }

// update swaps in a modified copy of the registered hooks.
func update(fn func(h *hookSet)) {
	for {
		old := current.Load()
		next := *old
		fn(&next)
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// SetLoaderHooks registers loader hooks. A nil value is ignored.
func SetLoaderHooks(h LoaderHooks) {
	if h != nil {
		update(func(s *hookSet) { s.loader = h })
	}
}

// SetCacheHooks registers cache hooks. A nil value is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks registers HTTP hooks. A nil value is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

// Loader returns the registered loader hooks.
func Loader() LoaderHooks { return current.Load().loader }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return current.Load().cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return current.Load().http }

// Reset restores the no-op hooks.
func Reset() {
	current.Store(&hookSet{
		loader: NoopLoaderHooks{},
		cache:  NoopCacheHooks{},
		http:   NoopHTTPHooks{},
	})
}
