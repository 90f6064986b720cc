// Package observability lets applications watch the loader at work.
//
// Library packages report resource fetches, component loads, theme
// switches, cache lookups and HTTP calls to the hooks registered here.
// Nothing is reported anywhere until an application registers hooks; the
// defaults discard every event.
//
//	stats := observability.NewStats()
//	observability.SetLoaderHooks(stats)
//	observability.SetCacheHooks(stats)
//	observability.SetHTTPHooks(observability.NewLogHooks(logger))
//
// [Stats] counts events for summaries; [LogHooks] writes them to a
// charmbracelet logger at debug level.
package observability

import (
	"context"
	"time"
)

// LoaderHooks receives events from the resource loader, the component
// registry and the theme manager. Kind is "css" or "js".
type LoaderHooks interface {
	OnResourceStart(ctx context.Context, kind, url string)
	OnResourceComplete(ctx context.Context, kind, url string, duration time.Duration, err error)
	OnComponentLoaded(ctx context.Context, name string, duration time.Duration, err error)
	OnThemeApplied(ctx context.Context, name string, vars int)
}

// CacheHooks receives cache lookups. KeyType is "resource" or "theme".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives outgoing requests of the fetch client.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError reports transport failures such as timeouts.
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopLoaderHooks discards loader events.
type NoopLoaderHooks struct{}

func (NoopLoaderHooks) OnResourceStart(context.Context, string, string)                        {}
func (NoopLoaderHooks) OnResourceComplete(context.Context, string, string, time.Duration, error) {}
func (NoopLoaderHooks) OnComponentLoaded(context.Context, string, time.Duration, error)         {}
func (NoopLoaderHooks) OnThemeApplied(context.Context, string, int)                             {}

// NoopCacheHooks discards cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks discards HTTP events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}
