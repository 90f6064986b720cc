package resource

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ffs-ui/ffs/pkg/dom"
	ffserrors "github.com/ffs-ui/ffs/pkg/errors"
	"github.com/ffs-ui/ffs/pkg/fetch"
)

// countingFetcher serves fixed bodies and records every request.
type countingFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  map[string]int
	delay  time.Duration
	fail   map[string]bool
}

func newCountingFetcher(bodies map[string]string) *countingFetcher {
	return &countingFetcher{bodies: bodies, calls: make(map[string]int), fail: make(map[string]bool)}
}

func (f *countingFetcher) GetBytes(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	fail := f.fail[url]
	body, ok := f.bodies[url]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail || !ok {
		return nil, fetch.ErrNotFound
	}
	return []byte(body), nil
}

func (f *countingFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestLoadCSSInsertsLink(t *testing.T) {
	f := newCountingFetcher(map[string]string{"/ui/styles/ffs-ui.css": "body{}"})
	doc := dom.New()
	l := New(doc, f, WithBaseURL("/ui/"), WithLogger(quietLogger()))

	if err := l.LoadCSS(context.Background(), "styles/ffs-ui.css"); err != nil {
		t.Fatalf("LoadCSS: %v", err)
	}
	if !doc.HasStylesheet("/ui/styles/ffs-ui.css") {
		t.Error("stylesheet not linked")
	}
	if s := l.State("styles/ffs-ui.css"); s != Loaded {
		t.Errorf("State = %v, want loaded", s)
	}
	if got := l.Loaded(); !slices.Equal(got, []string{"/ui/styles/ffs-ui.css"}) {
		t.Errorf("Loaded() = %v", got)
	}

	// Second load is a no-op.
	if err := l.LoadCSS(context.Background(), "styles/ffs-ui.css"); err != nil {
		t.Fatal(err)
	}
	if n := f.count("/ui/styles/ffs-ui.css"); n != 1 {
		t.Errorf("fetched %d times, want 1", n)
	}
	if n := len(doc.Stylesheets()); n != 1 {
		t.Errorf("%d stylesheets in head, want 1", n)
	}
}

func TestConcurrentLoadsFetchOnce(t *testing.T) {
	f := newCountingFetcher(map[string]string{"scripts/ffs-theme.js": "x"})
	f.delay = 30 * time.Millisecond
	doc := dom.New()
	l := New(doc, f, WithLogger(quietLogger()))

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.LoadJS(context.Background(), "scripts/ffs-theme.js"); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Errorf("%d callers failed", failures.Load())
	}
	if n := f.count("scripts/ffs-theme.js"); n != 1 {
		t.Errorf("fetched %d times, want 1", n)
	}
	if n := len(doc.Scripts()); n != 1 {
		t.Errorf("%d scripts in head, want 1", n)
	}
}

func TestLoadAllOverlaps(t *testing.T) {
	f := newCountingFetcher(map[string]string{
		"styles/ffs-ripple.css":  "a",
		"scripts/ffs-ripple.js":  "b",
		"styles/ffs-tooltip.css": "c",
		"scripts/ffs-tooltip.js": "d",
	})
	f.delay = 100 * time.Millisecond
	l := New(dom.New(), f, WithLogger(quietLogger()))

	start := time.Now()
	errs := l.LoadAll(context.Background(), []Ref{
		{CSS, "styles/ffs-ripple.css"},
		{JS, "scripts/ffs-ripple.js"},
		{CSS, "styles/ffs-tooltip.css"},
		{JS, "scripts/ffs-tooltip.js"},
	})
	elapsed := time.Since(start)

	if errs != nil {
		t.Fatalf("LoadAll errors: %v", errs)
	}
	if elapsed >= 200*time.Millisecond {
		t.Errorf("batch took %v, loads did not overlap", elapsed)
	}
}

func TestLoadAllIsolatesFailures(t *testing.T) {
	f := newCountingFetcher(map[string]string{"styles/a.css": "a"})
	doc := dom.New()
	l := New(doc, f, WithLogger(quietLogger()))

	errs := l.LoadAll(context.Background(), []Ref{
		{CSS, "styles/a.css"},
		{CSS, "styles/missing.css"},
	})
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want one failure", errs)
	}
	if !ffserrors.Is(errs["styles/missing.css"], ffserrors.ErrCodeResourceLoad) {
		t.Errorf("missing.css err = %v", errs["styles/missing.css"])
	}
	if !doc.HasStylesheet("styles/a.css") {
		t.Error("sibling load did not complete")
	}
	if err := Join(errs); !errors.Is(err, fetch.ErrNotFound) {
		t.Errorf("Join = %v", err)
	}
}

func TestFailedLoadIsRetryable(t *testing.T) {
	f := newCountingFetcher(map[string]string{"scripts/x.js": "x"})
	f.fail["scripts/x.js"] = true
	doc := dom.New()
	l := New(doc, f, WithLogger(quietLogger()))
	ctx := context.Background()

	if err := l.LoadJS(ctx, "scripts/x.js"); err == nil {
		t.Fatal("expected failure")
	}
	if s := l.State("scripts/x.js"); s != Unloaded {
		t.Errorf("State after failure = %v", s)
	}
	if doc.HasScript("scripts/x.js") {
		t.Error("failed script inserted")
	}

	f.mu.Lock()
	f.fail["scripts/x.js"] = false
	f.mu.Unlock()
	if err := l.LoadJS(ctx, "scripts/x.js"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if n := f.count("scripts/x.js"); n != 2 {
		t.Errorf("fetched %d times, want 2", n)
	}
}

func TestInlineMode(t *testing.T) {
	f := newCountingFetcher(map[string]string{
		"styles/ffs-ui.css":        ".ffs{color:red}",
		"scripts/ffs-components.js": "window.FFS={};",
	})
	doc := dom.New()
	l := New(doc, f, WithInline(true), WithLogger(quietLogger()))
	ctx := context.Background()

	if err := l.LoadCSS(ctx, "styles/ffs-ui.css"); err != nil {
		t.Fatal(err)
	}
	if err := l.LoadJS(ctx, "scripts/ffs-components.js"); err != nil {
		t.Fatal(err)
	}
	out := doc.String()
	for _, want := range []string{".ffs{color:red}", "window.FFS={};", `data-ffs-src="styles/ffs-ui.css"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !doc.HasStylesheet("styles/ffs-ui.css") {
		t.Error("inlined stylesheet not reported present")
	}
}

func TestAlreadyLinkedIsNotFetched(t *testing.T) {
	doc, err := dom.ParseString(`<html><head><link rel="stylesheet" href="/ui/styles/ffs-ui.css"></head><body></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	f := newCountingFetcher(nil)
	l := New(doc, f, WithBaseURL("/ui"), WithLogger(quietLogger()))

	if err := l.LoadCSS(context.Background(), "styles/ffs-ui.css"); err != nil {
		t.Fatalf("LoadCSS: %v", err)
	}
	if n := f.count("/ui/styles/ffs-ui.css"); n != 0 {
		t.Errorf("fetched %d times, want 0", n)
	}
	if n := len(doc.Stylesheets()); n != 1 {
		t.Errorf("%d stylesheets, want 1", n)
	}
}

func TestLoaderOverHTTP(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/ui/scripts/ffs-components.js" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "// registry")
	}))
	defer srv.Close()

	client := fetch.NewClient(nil, 0, nil, fetch.WithRetry(1, 0))
	doc := dom.New()
	l := New(doc, client, WithBaseURL("/ui/"), WithOrigin(srv.URL), WithLogger(quietLogger()))
	ctx := context.Background()

	if err := l.LoadJS(ctx, "scripts/ffs-components.js"); err != nil {
		t.Fatalf("LoadJS: %v", err)
	}
	if !doc.HasScript("/ui/scripts/ffs-components.js") {
		t.Errorf("script href not relative to base:\n%s", doc.String())
	}
	if err := l.LoadCSS(ctx, "styles/missing.css"); !errors.Is(err, fetch.ErrNotFound) {
		t.Errorf("missing stylesheet err = %v", err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("server hits = %d, want 2", n)
	}
}

func TestInvalidPathRejected(t *testing.T) {
	l := New(dom.New(), newCountingFetcher(nil), WithLogger(quietLogger()))
	err := l.LoadCSS(context.Background(), "../secret.css")
	if !ffserrors.Is(err, ffserrors.ErrCodeInvalidPath) {
		t.Errorf("err = %v, want INVALID_PATH", err)
	}
}
