// Package theme loads named sets of CSS custom properties and applies them
// to the document root.
//
// A theme is a flat JSON object served at themes/<name>-vars.json:
//
//	{"--ffs-primary": "#1890ff", "--ffs-bg": "#ffffff"}
//
// Fetched sets are cached in memory for the life of the [Manager]. The
// selected theme is persisted in a [preference.Store], marked on the root
// element with an "ffs-theme-<name>" class and announced to subscribers
// and as an "ffs:themechange" document event.
package theme

import (
	"context"
	"encoding/json"
	"maps"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/ffs-ui/ffs/pkg/cache"
	"github.com/ffs-ui/ffs/pkg/dom"
	ffserrors "github.com/ffs-ui/ffs/pkg/errors"
	"github.com/ffs-ui/ffs/pkg/fetch"
	"github.com/ffs-ui/ffs/pkg/observability"
	"github.com/ffs-ui/ffs/pkg/preference"
	"github.com/ffs-ui/ffs/pkg/resource"
)

// Built-in theme names.
const (
	Default = "default"
	Dark    = "dark"
)

// ClassPrefix prefixes the root class that marks the applied theme.
const ClassPrefix = "ffs-theme-"

// DefaultBaseStylesheet is the library stylesheet themes build on.
const DefaultBaseStylesheet = "styles/ffs-ui.css"

// Vars maps CSS custom property names to values.
type Vars map[string]string

// VarsPath returns the path of a theme's variable file relative to the
// base URL.
func VarsPath(name string) string {
	return "themes/" + name + "-vars.json"
}

type resolver interface {
	Resolve(p string) (string, error)
	Target(href string) (string, error)
}

// hrefResolver adapts a fetch.Resolver to the loader's method names.
type hrefResolver struct{ *fetch.Resolver }

func (r hrefResolver) Resolve(p string) (string, error) { return r.Href(p) }

// Manager applies themes to a document. It is safe for concurrent use.
type Manager struct {
	doc     *dom.Document
	fetcher fetch.Fetcher
	store   preference.Store
	loader  *resource.Loader
	logger  *log.Logger
	shared  cache.Cache
	keyer   cache.Keyer

	base, origin   string
	defaultTheme   string
	baseStylesheet string
	urls           resolver
	urlErr         error

	applyMu sync.Mutex // serialises Set

	mu      sync.RWMutex
	current string
	cache   map[string]Vars
	subs    []subscriber
	ready   bool
	flights singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithBaseURL sets the directory theme files resolve against. Ignored when
// WithLoader is given.
func WithBaseURL(base string) Option {
	return func(m *Manager) { m.base = base }
}

// WithOrigin sets where relative theme URLs are fetched from. Ignored when
// WithLoader is given.
func WithOrigin(origin string) Option {
	return func(m *Manager) { m.origin = origin }
}

// WithDefault sets the theme used when no preference is stored.
func WithDefault(name string) Option {
	return func(m *Manager) { m.defaultTheme = name }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithLoader shares a resource loader. Init loads the base stylesheet
// through it, and theme URLs resolve the same way as resource URLs.
func WithLoader(l *resource.Loader) Option {
	return func(m *Manager) { m.loader = l }
}

// WithBaseStylesheet overrides the stylesheet Init ensures is present.
func WithBaseStylesheet(p string) Option {
	return func(m *Manager) { m.baseStylesheet = p }
}

// WithSharedCache stores fetched variable sets in c under keyer's theme
// keys, so that processes sharing c fetch each theme once per TTLTheme.
// A nil keyer uses the default key scheme.
func WithSharedCache(c cache.Cache, keyer cache.Keyer) Option {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return func(m *Manager) {
		m.shared = c
		m.keyer = keyer
	}
}

// New creates a theme manager. A nil store keeps the preference in memory.
func New(doc *dom.Document, fetcher fetch.Fetcher, store preference.Store, opts ...Option) *Manager {
	if store == nil {
		store = preference.NewMemoryStore()
	}
	m := &Manager{
		doc:            doc,
		fetcher:        fetcher,
		store:          store,
		logger:         log.Default(),
		defaultTheme:   Default,
		baseStylesheet: DefaultBaseStylesheet,
		cache:          make(map[string]Vars),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.loader != nil {
		m.urls = m.loader
	} else {
		r, err := fetch.NewResolver(m.base, m.origin)
		m.urls, m.urlErr = hrefResolver{r}, err
	}
	return m
}

// DefaultTheme returns the configured fallback theme.
func (m *Manager) DefaultTheme() string { return m.defaultTheme }

// Current returns the active theme: the in-memory selection, else the
// persisted preference, else the default. The result is remembered.
func (m *Manager) Current(ctx context.Context) string {
	m.mu.RLock()
	cur := m.current
	m.mu.RUnlock()
	if cur != "" {
		return cur
	}

	name := m.defaultTheme
	v, ok, err := m.store.Get(ctx, preference.ThemeKey)
	switch {
	case err != nil:
		m.logger.Warn("read theme preference", "err", err)
	case ok && ffserrors.ValidateName(ffserrors.ErrCodeInvalidTheme, "theme", v) == nil:
		name = v
	case ok:
		m.logger.Warn("ignoring invalid stored theme", "theme", v)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == "" {
		m.current = name
	}
	return m.current
}

// Set applies the named theme. Variables come from the cache or are
// fetched; if they cannot be obtained the document and the current theme
// are left untouched. A failure to persist the choice is logged only.
func (m *Manager) Set(ctx context.Context, name string) error {
	if err := ffserrors.ValidateName(ffserrors.ErrCodeInvalidTheme, "theme", name); err != nil {
		m.logger.Error("set theme", "err", err)
		return err
	}
	vars, err := m.load(ctx, name)
	if err != nil {
		m.logger.Error("set theme", "theme", name, "err", err)
		return err
	}

	m.applyMu.Lock()
	m.doc.SetProperties(vars)
	if err := m.store.Set(ctx, preference.ThemeKey, name); err != nil {
		m.logger.Warn("persist theme preference", "theme", name, "err", err)
	}
	m.mu.Lock()
	m.current = name
	m.mu.Unlock()
	m.doc.ReplaceClasses(isThemeClass, ClassPrefix+name)
	m.applyMu.Unlock()

	observability.Loader().OnThemeApplied(ctx, name, len(vars))
	m.logger.Debug("theme applied", "theme", name, "vars", len(vars))
	m.Trigger(name)
	return nil
}

// Preload fetches and caches a theme without applying it. Empty names and
// cached themes are skipped; failures are logged and swallowed.
func (m *Manager) Preload(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if _, ok := m.Vars(name); ok {
		return
	}
	if _, err := m.load(ctx, name); err != nil {
		m.logger.Warn("preload theme", "theme", name, "err", err)
	}
}

// Vars returns a copy of a cached variable set.
func (m *Manager) Vars(name string) (Vars, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.cache[name]
	if !ok {
		return nil, false
	}
	return maps.Clone(v), true
}

// Init ensures the base stylesheet is loaded, preloads the default and
// dark themes, applies the current theme and emits "ffs:themeready". When
// the current theme cannot be applied the default is used instead; Init
// fails only if the default is unavailable too.
func (m *Manager) Init(ctx context.Context) error {
	if m.loader != nil && m.baseStylesheet != "" {
		if err := m.loader.LoadCSS(ctx, m.baseStylesheet); err != nil {
			return err
		}
	}
	m.Preload(ctx, m.defaultTheme)
	m.Preload(ctx, Dark)

	name := m.Current(ctx)
	if err := m.Set(ctx, name); err != nil {
		if name == m.defaultTheme {
			return err
		}
		// A stored theme may have been retired; fall back to the default,
		// which also overwrites the stale preference.
		m.logger.Warn("theme unavailable, using default", "theme", name, "default", m.defaultTheme, "err", err)
		m.mu.Lock()
		m.current = ""
		m.mu.Unlock()
		name = m.defaultTheme
		if err := m.Set(ctx, name); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()
	m.doc.Emit(dom.Event{Name: dom.EventThemeReady, Detail: name})
	return nil
}

// Ready reports whether Init has completed.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// load returns cached variables or fetches them. Concurrent fetches of one
// theme share a request.
func (m *Manager) load(ctx context.Context, name string) (Vars, error) {
	if v, ok := m.Vars(name); ok {
		return v, nil
	}
	v, err, _ := m.flights.Do(name, func() (any, error) {
		if v, ok := m.Vars(name); ok {
			return v, nil
		}
		vars, err := m.fetchShared(ctx, name)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.cache[name] = vars
		m.mu.Unlock()
		return maps.Clone(vars), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Vars), nil
}

// fetchShared consults the shared cache before fetching. Shared cache
// errors count as misses.
func (m *Manager) fetchShared(ctx context.Context, name string) (Vars, error) {
	if m.shared == nil {
		return m.fetch(ctx, name)
	}
	key := m.keyer.ThemeKey(name)
	if data, ok, err := m.shared.Get(ctx, key); err == nil && ok {
		var vars Vars
		if json.Unmarshal(data, &vars) == nil && vars != nil {
			observability.Cache().OnCacheHit(ctx, "theme")
			return vars, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "theme")

	vars, err := m.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(vars); err == nil {
		if err := m.shared.Set(ctx, key, data, cache.TTLTheme); err != nil {
			m.logger.Warn("cache theme", "theme", name, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "theme", len(data))
		}
	}
	return vars, nil
}

func (m *Manager) fetch(ctx context.Context, name string) (Vars, error) {
	if m.urlErr != nil {
		return nil, m.urlErr
	}
	href, err := m.urls.Resolve(VarsPath(name))
	if err != nil {
		return nil, err
	}
	target, err := m.urls.Target(href)
	if err != nil {
		return nil, err
	}
	data, err := m.fetcher.GetBytes(ctx, target)
	if err != nil {
		return nil, ffserrors.Wrap(ffserrors.ErrCodeThemeFetch, err, "fetch theme %q", name)
	}
	var vars Vars
	if err := json.Unmarshal(data, &vars); err != nil {
		return nil, ffserrors.Wrap(ffserrors.ErrCodeThemeFetch, err, "decode theme %q", name)
	}
	if vars == nil {
		return nil, ffserrors.New(ffserrors.ErrCodeThemeFetch, "theme %q is not an object", name)
	}
	for k := range vars {
		if !strings.HasPrefix(k, "--") {
			return nil, ffserrors.New(ffserrors.ErrCodeThemeFetch, "theme %q: %q is not a custom property", name, k)
		}
	}
	return vars, nil
}

func isThemeClass(c string) bool {
	return strings.HasPrefix(c, ClassPrefix)
}
