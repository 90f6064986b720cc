package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. It implements
// [LoaderHooks], [CacheHooks] and [HTTPHooks].
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks writing to logger, or to log.Default when nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("trace")}
}

func (h *LogHooks) OnResourceStart(_ context.Context, kind, url string) {
	h.logger.Debug("resource start", "kind", kind, "url", url)
}

func (h *LogHooks) OnResourceComplete(_ context.Context, kind, url string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("resource failed", "kind", kind, "url", url, "took", d, "err", err)
		return
	}
	h.logger.Debug("resource loaded", "kind", kind, "url", url, "took", d)
}

func (h *LogHooks) OnComponentLoaded(_ context.Context, name string, d time.Duration, err error) {
	h.logger.Debug("component", "name", name, "took", d, "err", err)
}

func (h *LogHooks) OnThemeApplied(_ context.Context, name string, vars int) {
	h.logger.Debug("theme applied", "name", name, "vars", vars)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "took", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ LoaderHooks = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
	_ HTTPHooks   = (*LogHooks)(nil)
)
