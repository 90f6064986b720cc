package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	if _, ok := Loader().(NoopLoaderHooks); !ok {
		t.Errorf("Loader() = %T", Loader())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T", HTTP())
	}

	Loader().OnResourceComplete(ctx, "css", "styles/ffs-ui.css", time.Millisecond, nil)
	Cache().OnCacheSet(ctx, "theme", 12)
	HTTP().OnError(ctx, "GET", "cdn.example.com", "/themes/dark-vars.json", errors.New("timeout"))
}

func TestSetAndReset(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	stats := NewStats()
	SetLoaderHooks(stats)
	SetCacheHooks(stats)
	SetLoaderHooks(nil)

	if Loader() != LoaderHooks(stats) {
		t.Error("nil registration replaced loader hooks")
	}
	if Cache() != CacheHooks(stats) {
		t.Error("cache hooks not registered")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("setting loader hooks changed HTTP hooks")
	}

	Reset()
	if _, ok := Loader().(NoopLoaderHooks); !ok {
		t.Error("Reset() kept custom loader hooks")
	}
}

func TestConcurrentRegistration(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	stats := NewStats()
	logs := NewLogHooks(log.New(&bytes.Buffer{}))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(3)
		go func() { defer wg.Done(); SetLoaderHooks(stats) }()
		go func() { defer wg.Done(); SetHTTPHooks(logs) }()
		go func() { defer wg.Done(); Loader().OnThemeApplied(context.Background(), "dark", 3) }()
	}
	wg.Wait()

	if Loader() != LoaderHooks(stats) || HTTP() != HTTPHooks(logs) {
		t.Error("a registration was lost")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := NewStats()

	s.OnResourceStart(ctx, "css", "a.css")
	s.OnResourceComplete(ctx, "css", "a.css", time.Millisecond, nil)
	s.OnResourceComplete(ctx, "js", "b.js", time.Millisecond, errors.New("404"))
	s.OnComponentLoaded(ctx, "tooltip", time.Millisecond, nil)
	s.OnComponentLoaded(ctx, "chart", time.Millisecond, errors.New("404"))
	s.OnThemeApplied(ctx, "dark", 4)
	s.OnCacheHit(ctx, "theme")
	s.OnCacheMiss(ctx, "resource")
	s.OnCacheMiss(ctx, "resource")
	s.OnCacheSet(ctx, "resource", 100)

	want := Snapshot{
		Resources:   1,
		Failures:    1,
		Components:  1,
		Themes:      1,
		CacheHits:   1,
		CacheMisses: 2,
		CachedBytes: 100,
	}
	if got := s.Snapshot(); got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	h := NewLogHooks(logger)
	ctx := context.Background()

	h.OnResourceComplete(ctx, "css", "styles/ffs-tooltip.css", time.Millisecond, nil)
	h.OnResponse(ctx, "GET", "cdn.example.com", "/themes/dark-vars.json", 200, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"resource loaded", "styles/ffs-tooltip.css", "http response", "status=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := NewLogHooks(log.New(&buf))
	h.OnCacheHit(context.Background(), "theme")
	if buf.Len() != 0 {
		t.Errorf("debug event logged at info level: %q", buf.String())
	}
}
