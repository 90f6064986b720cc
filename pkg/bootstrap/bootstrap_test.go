package bootstrap

import (
	"context"
	"encoding/json"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ffs-ui/ffs/pkg/dom"
	ffserrors "github.com/ffs-ui/ffs/pkg/errors"
	"github.com/ffs-ui/ffs/pkg/fetch"
	"github.com/ffs-ui/ffs/pkg/preference"
	"github.com/ffs-ui/ffs/pkg/registry"
	"github.com/ffs-ui/ffs/pkg/theme"
)

const page = `<!DOCTYPE html>
<html>
<head>
  <script src="/ui/ffs-ui.js"></script>
</head>
<body>
  <button class="ffs-ripple btn">Save</button>
  <span class="ffs-tooltip">?</span>
  <div class="ffs-ripple ffs-carousel"></div>
</body>
</html>`

// assetFetcher serves any path ending in .css or .js plus the theme files,
// except paths listed in missing.
type assetFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	missing map[string]bool
}

func newAssetFetcher(missing ...string) *assetFetcher {
	f := &assetFetcher{calls: make(map[string]int), missing: make(map[string]bool)}
	for _, m := range missing {
		f.missing[m] = true
	}
	return f
}

func (f *assetFetcher) GetBytes(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	missing := f.missing[url]
	f.mu.Unlock()

	switch {
	case missing:
		return nil, fetch.ErrNotFound
	case strings.HasSuffix(url, "-vars.json"):
		name := strings.TrimSuffix(url[strings.LastIndex(url, "/")+1:], "-vars.json")
		return json.Marshal(map[string]string{"--ffs-name": name})
	case strings.HasSuffix(url, ".css"), strings.HasSuffix(url, ".js"):
		return []byte("/* " + url + " */"), nil
	}
	return nil, fetch.ErrNotFound
}

func (f *assetFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *assetFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func newApp(t *testing.T, f fetch.Fetcher, opts ...Option) *App {
	t.Helper()
	doc, err := dom.ParseString(page)
	if err != nil {
		t.Fatal(err)
	}
	attrs, ok := FindLoaderScript(doc)
	if !ok {
		t.Fatal("loader script not found")
	}
	base := []Option{WithLogger(log.New(io.Discard)), WithStore(preference.NewMemoryStore())}
	return New(doc, f, ConfigFromAttributes(attrs), append(base, opts...)...)
}

func TestRunSequence(t *testing.T) {
	f := newAssetFetcher()
	app := newApp(t, f)
	doc := app.Document()

	var events []string
	doc.On(dom.EventReady, func(dom.Event) { events = append(events, "ready") })
	readyCalled := false
	app.OnReady(func() { readyCalled = true })

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	st := app.State()
	if !st.Initialized || st.Initializing || !st.ComponentsInitialized {
		t.Errorf("state = %+v", st)
	}
	if !readyCalled || !slices.Equal(events, []string{"ready"}) {
		t.Errorf("ready callback %v, events %v", readyCalled, events)
	}
	select {
	case <-app.Ready():
	default:
		t.Error("ready channel not closed")
	}

	loaded := app.Loader().Loaded()
	wantPrefix := []string{"/ui/libs/jquery.min.js"}
	if !slices.Equal(loaded[:1], wantPrefix) {
		t.Errorf("first load = %v, want DOM helper", loaded[:1])
	}
	idx := func(href string) int { return slices.Index(loaded, href) }
	if idx("/ui/styles/ffs-ui.css") < idx("/ui/libs/iconfont/iconfont.css") {
		t.Error("base stylesheet loaded before dependencies")
	}
	if idx("/ui/scripts/ffs-components.js") < idx("/ui/styles/ffs-ui.css") {
		t.Error("registry script loaded before base stylesheet")
	}
	if idx("/ui/styles/ffs-ripple.css") < idx("/ui/scripts/ffs-components.js") {
		t.Error("component loaded before registry script")
	}

	if got := app.Used(); !slices.Equal(got, []string{"ripple", "tooltip"}) {
		t.Errorf("Used() = %v", got)
	}
	reg, err := app.Registry()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"ripple", "tooltip"} {
		if d, _ := reg.Get(name); !d.Loaded {
			t.Errorf("%s not loaded", name)
		}
	}
	if d, _ := reg.Get("notice"); d.Loaded {
		t.Error("unused component loaded")
	}
}

func TestRunTwice(t *testing.T) {
	f := newAssetFetcher()
	app := newApp(t, f)
	ctx := context.Background()

	if err := app.Run(ctx); err != nil {
		t.Fatal(err)
	}
	before := f.total()

	err := app.Run(ctx)
	if !ffserrors.Is(err, ffserrors.ErrCodeDuplicateInit) {
		t.Errorf("second Run err = %v, want DUPLICATE_INIT", err)
	}
	if f.total() != before {
		t.Errorf("second Run fetched %d more resources", f.total()-before)
	}
}

// blockingFetcher holds every request until release is closed.
type blockingFetcher struct {
	*assetFetcher
	started chan struct{}
	once    sync.Once
	release chan struct{}
}

func (f *blockingFetcher) GetBytes(ctx context.Context, url string) ([]byte, error) {
	f.once.Do(func() { close(f.started) })
	<-f.release
	return f.assetFetcher.GetBytes(ctx, url)
}

func TestRunWhileInitializing(t *testing.T) {
	f := &blockingFetcher{assetFetcher: newAssetFetcher(), started: make(chan struct{}), release: make(chan struct{})}
	app := newApp(t, f)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	<-f.started

	if !app.State().Initializing {
		t.Error("Initializing not set during Run")
	}
	if err := app.Run(ctx); !ffserrors.Is(err, ffserrors.ErrCodeDuplicateInit) {
		t.Errorf("concurrent Run err = %v", err)
	}

	close(f.release)
	if err := <-done; err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if n := f.count("/ui/styles/ffs-ui.css"); n != 1 {
		t.Errorf("base stylesheet fetched %d times", n)
	}
}

func TestRunFailureIsRetryable(t *testing.T) {
	f := newAssetFetcher("/ui/styles/ffs-ui.css")
	app := newApp(t, f)
	ctx := context.Background()

	if err := app.Run(ctx); err == nil {
		t.Fatal("expected failure")
	}
	st := app.State()
	if st.Initialized || st.Initializing {
		t.Errorf("state after failure = %+v", st)
	}
	if _, err := app.Registry(); !ffserrors.Is(err, ffserrors.ErrCodeNotReady) {
		t.Errorf("Registry() err = %v", err)
	}

	f.mu.Lock()
	delete(f.missing, "/ui/styles/ffs-ui.css")
	f.mu.Unlock()

	if err := app.Run(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if n := f.count("/ui/libs/jquery.min.js"); n != 1 {
		t.Errorf("DOM helper fetched %d times across retries", n)
	}
}

func TestThemeScriptFailureIsolated(t *testing.T) {
	f := newAssetFetcher("/ui/scripts/ffs-theme.js")
	app := newApp(t, f)
	ctx := context.Background()

	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := app.Theme(); !ffserrors.Is(err, ffserrors.ErrCodeNotReady) {
		t.Errorf("Theme() err = %v, want NOT_READY", err)
	}
	if _, err := app.Registry(); err != nil {
		t.Errorf("Registry() err = %v", err)
	}
	if err := app.InitTheme(ctx); !ffserrors.Is(err, ffserrors.ErrCodeNotReady) {
		t.Errorf("InitTheme err = %v", err)
	}
}

func TestInitThemeWaitsForReady(t *testing.T) {
	f := newAssetFetcher()
	app := newApp(t, f)
	ctx := context.Background()

	themeDone := make(chan error, 1)
	go func() { themeDone <- app.InitTheme(ctx) }()

	select {
	case <-themeDone:
		t.Fatal("InitTheme returned before Run")
	case <-time.After(20 * time.Millisecond):
	}

	if err := app.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := <-themeDone; err != nil {
		t.Fatalf("InitTheme: %v", err)
	}
	if !app.State().ThemeInitialized {
		t.Error("ThemeInitialized not set")
	}
	if v, _ := app.Document().Property("--ffs-name"); v != theme.Default {
		t.Errorf("--ffs-name = %q, want default", v)
	}
	if err := app.InitTheme(ctx); err != nil {
		t.Errorf("second InitTheme: %v", err)
	}
}

func TestInitThemeCancelled(t *testing.T) {
	app := newApp(t, newAssetFetcher())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.InitTheme(ctx); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAutoloadOff(t *testing.T) {
	f := newAssetFetcher()
	doc, _ := dom.ParseString(page)
	cfg := DefaultConfig()
	cfg.BaseURL = "/ui/"
	cfg.Autoload = false
	app := New(doc, f, cfg, WithLogger(log.New(io.Discard)))

	if err := app.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := f.count("/ui/styles/ffs-ripple.css"); n != 0 {
		t.Error("component loaded with autoload off")
	}
}

func TestDeclaredComponents(t *testing.T) {
	f := newAssetFetcher()
	doc, _ := dom.ParseString(page)
	m, err := registry.ParseManifest(strings.NewReader(`
components = ["chart"]
[register.chart]
stylesheet = "styles/chart.css"
script = "scripts/chart.js"
`))
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.BaseURL = "/ui/"
	cfg.Components = []string{"notice"}
	cfg.Manifest = m
	app := New(doc, f, cfg, WithLogger(log.New(io.Discard)))

	if err := app.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := app.Used(); !slices.Equal(got, []string{"notice", "chart"}) {
		t.Errorf("Used() = %v", got)
	}
	if f.count("/ui/styles/ffs-ripple.css") != 0 {
		t.Error("page scan ran despite declared components")
	}
	if f.count("/ui/scripts/chart.js") != 1 {
		t.Error("manifest component not loaded")
	}
}

func TestOnReadyAfterRun(t *testing.T) {
	app := newApp(t, newAssetFetcher())
	if err := app.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	called := false
	app.OnReady(func() { called = true })
	if !called {
		t.Error("OnReady after Run did not run immediately")
	}
}

func TestDebugDoesNotLeakIntoSharedLogger(t *testing.T) {
	shared := log.New(io.Discard)
	shared.SetLevel(log.WarnLevel)

	doc, err := dom.ParseString(`<html><head><script src="/ui/ffs-ui.js" data-debug="true"></script></head></html>`)
	if err != nil {
		t.Fatal(err)
	}
	attrs, _ := FindLoaderScript(doc)
	app := New(doc, newAssetFetcher(), ConfigFromAttributes(attrs), WithLogger(shared))

	if !app.Debug() {
		t.Fatal("data-debug not honored")
	}
	if shared.GetLevel() != log.WarnLevel {
		t.Errorf("shared logger level = %v, want warn", shared.GetLevel())
	}

	app.SetDebug(false)
	if got := app.logger.GetLevel(); got != log.WarnLevel {
		t.Errorf("SetDebug(false) level = %v, want the injected warn level", got)
	}
}

func TestSetDebug(t *testing.T) {
	app := newApp(t, newAssetFetcher())
	if app.Debug() {
		t.Fatal("debug on by default")
	}
	app.SetDebug(true)
	if !app.Debug() {
		t.Error("SetDebug(true) ignored")
	}
}
