// Package bootstrap runs the one-time startup sequence of a page.
//
// [App] is the application context: it owns the document, the resource
// loader, the dependency detector, the component registry and the theme
// manager, and tracks the lifecycle flags. [App.Run] executes the stages
// strictly in order:
//
//  1. load missing third-party dependencies
//  2. load the base stylesheet
//  3. load the registry and theme scripts in parallel
//  4. install the registry and theme manager
//  5. resolve the components the page uses
//  6. load those components
//  7. mark the app initialized and emit "ffs:ready"
//
// A failure in stages 1 or 2 aborts the run and leaves the app
// uninitialized so that Run may be retried. Failures in stage 3 only keep
// the affected subsystem uninstalled; failures in stage 6 are isolated per
// component.
package bootstrap

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ffs-ui/ffs/pkg/detect"
	"github.com/ffs-ui/ffs/pkg/dom"
	ffserrors "github.com/ffs-ui/ffs/pkg/errors"
	"github.com/ffs-ui/ffs/pkg/fetch"
	"github.com/ffs-ui/ffs/pkg/preference"
	"github.com/ffs-ui/ffs/pkg/registry"
	"github.com/ffs-ui/ffs/pkg/resource"
	"github.com/ffs-ui/ffs/pkg/theme"
)

// State is a snapshot of the lifecycle flags.
type State struct {
	Initialized           bool
	Initializing          bool
	ThemeInitialized      bool
	ComponentsInitialized bool
}

// App is the application context of one page.
type App struct {
	cfg      Config
	doc      *dom.Document
	logger   *log.Logger
	loader   *resource.Loader
	detector *detect.Detector
	registry *registry.Registry
	theme    *theme.Manager

	mu                sync.Mutex
	state             State
	registryInstalled bool
	themeInstalled    bool
	used              []string
	ready             chan struct{}
	callbacks         []func()
	baseLevel         log.Level
}

type options struct {
	logger       *log.Logger
	store        preference.Store
	origin       string
	inline       bool
	defaultTheme string
	detect       []detect.Option
	registry     []registry.Option
	theme        []theme.Option
}

// Option configures an App.
type Option func(*options)

// WithLogger sets the logger shared by every subsystem.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStore sets the theme preference store.
func WithStore(s preference.Store) Option {
	return func(o *options) { o.store = s }
}

// WithOrigin sets where relative resource URLs are fetched from.
func WithOrigin(origin string) Option {
	return func(o *options) { o.origin = origin }
}

// WithInline embeds fetched resources into the document.
func WithInline(inline bool) Option {
	return func(o *options) { o.inline = inline }
}

// WithDefaultTheme sets the fallback theme.
func WithDefaultTheme(name string) Option {
	return func(o *options) { o.defaultTheme = name }
}

// WithDetectOptions passes options to the dependency detector.
func WithDetectOptions(opts ...detect.Option) Option {
	return func(o *options) { o.detect = append(o.detect, opts...) }
}

// WithRegistryOptions passes options to the component registry.
func WithRegistryOptions(opts ...registry.Option) Option {
	return func(o *options) { o.registry = append(o.registry, opts...) }
}

// WithThemeOptions passes options to the theme manager.
func WithThemeOptions(opts ...theme.Option) Option {
	return func(o *options) { o.theme = append(o.theme, opts...) }
}

// New assembles an app for doc. Nothing is fetched until Run.
func New(doc *dom.Document, fetcher fetch.Fetcher, cfg Config, opts ...Option) *App {
	o := options{logger: log.Default(), defaultTheme: theme.Default}
	for _, opt := range opts {
		opt(&o)
	}
	// Each page gets its own logger so data-debug never changes the level
	// of a logger shared with other pages.
	baseLevel := o.logger.GetLevel()
	o.logger = o.logger.With()
	if cfg.Debug {
		o.logger.SetLevel(log.DebugLevel)
	}
	doc.SetLogger(o.logger)

	loader := resource.New(doc, fetcher,
		resource.WithBaseURL(cfg.BaseURL),
		resource.WithOrigin(o.origin),
		resource.WithInline(o.inline),
		resource.WithLogger(o.logger),
	)
	return &App{
		cfg:      cfg,
		doc:      doc,
		logger:   o.logger,
		loader:   loader,
		detector: detect.New(loader, append([]detect.Option{detect.WithLogger(o.logger)}, o.detect...)...),
		registry: registry.New(loader, append([]registry.Option{registry.WithLogger(o.logger)}, o.registry...)...),
		theme: theme.New(doc, fetcher, o.store, append([]theme.Option{
			theme.WithLoader(loader),
			theme.WithDefault(o.defaultTheme),
			theme.WithLogger(o.logger),
		}, o.theme...)...),
		ready:     make(chan struct{}),
		baseLevel: baseLevel,
	}
}

// Run executes the bootstrap sequence once. A second call while running or
// after success logs a warning and returns a DUPLICATE_INIT error without
// side effects.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.state.Initialized || a.state.Initializing {
		a.mu.Unlock()
		a.logger.Warn("ffs already initialized, skipping")
		return ffserrors.New(ffserrors.ErrCodeDuplicateInit, "bootstrap already running or finished")
	}
	a.state.Initializing = true
	a.mu.Unlock()

	err := a.run(ctx)

	a.mu.Lock()
	a.state.Initializing = false
	if err != nil {
		a.mu.Unlock()
		a.logger.Error("ffs bootstrap failed", "err", err)
		return err
	}
	a.state.Initialized = true
	callbacks := a.callbacks
	a.callbacks = nil
	close(a.ready)
	a.mu.Unlock()

	for _, fn := range callbacks {
		a.callReady(fn)
	}
	a.doc.Emit(dom.Event{Name: dom.EventReady})
	a.logger.Info("ffs ready", "components", len(a.Used()))
	return nil
}

func (a *App) run(ctx context.Context) error {
	a.logger.Debug("loading dependencies")
	if err := a.detector.LoadDependencies(ctx); err != nil {
		return err
	}

	a.logger.Debug("loading base stylesheet", "url", BaseStylesheet)
	if err := a.loader.LoadCSS(ctx, BaseStylesheet); err != nil {
		return err
	}

	errs := a.loader.LoadAll(ctx, []resource.Ref{
		{Kind: resource.JS, URL: RegistryScript},
		{Kind: resource.JS, URL: ThemeScript},
	})
	a.install(errs[RegistryScript] == nil, errs[ThemeScript] == nil)

	names, err := a.resolveComponents()
	if err != nil {
		return err
	}
	a.loadComponents(ctx, names)
	return nil
}

// install publishes the subsystems whose scripts loaded.
func (a *App) install(registryOK, themeOK bool) {
	if registryOK {
		a.registry.Init()
	} else {
		a.logger.Warn("component registry unavailable", "script", RegistryScript)
	}
	if !themeOK {
		a.logger.Warn("theme manager unavailable", "script", ThemeScript)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.registryInstalled = registryOK
	a.themeInstalled = themeOK
}

func (a *App) resolveComponents() ([]string, error) {
	if !a.cfg.Autoload {
		return nil, nil
	}
	reg, err := a.Registry()
	if err != nil {
		return nil, nil
	}
	if a.cfg.Manifest != nil {
		if err := a.cfg.Manifest.Apply(reg); err != nil {
			return nil, err
		}
	}
	if names := a.cfg.requested(); names != nil {
		return names, nil
	}
	return registry.Detect(a.doc, reg), nil
}

func (a *App) loadComponents(ctx context.Context, names []string) {
	reg, err := a.Registry()
	if err != nil {
		return
	}
	if len(names) > 0 {
		a.logger.Debug("loading components", "names", names)
	}
	for name, err := range reg.LoadAll(ctx, names) {
		a.logger.Warn("component skipped", "name", name, "err", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.used = names
	a.state.ComponentsInitialized = true
}

// InitTheme waits for Run to finish, then initializes the theme manager.
// It returns early if ctx is cancelled and is a no-op once it succeeded.
func (a *App) InitTheme(ctx context.Context) error {
	select {
	case <-a.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	a.mu.Lock()
	done := a.state.ThemeInitialized
	a.mu.Unlock()
	if done {
		return nil
	}

	t, err := a.Theme()
	if err != nil {
		return err
	}
	if err := t.Init(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.state.ThemeInitialized = true
	a.mu.Unlock()
	return nil
}

// Registry returns the component registry, or a NOT_READY error when its
// script has not loaded.
func (a *App) Registry() (*registry.Registry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.registryInstalled {
		return nil, ffserrors.New(ffserrors.ErrCodeNotReady, "component registry not loaded")
	}
	return a.registry, nil
}

// Theme returns the theme manager, or a NOT_READY error when its script
// has not loaded.
func (a *App) Theme() (*theme.Manager, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.themeInstalled {
		return nil, ffserrors.New(ffserrors.ErrCodeNotReady, "theme manager not loaded")
	}
	return a.theme, nil
}

// Ready is closed once Run succeeds.
func (a *App) Ready() <-chan struct{} { return a.ready }

// OnReady runs fn once Run succeeds, or immediately if it already has.
func (a *App) OnReady(fn func()) {
	a.mu.Lock()
	if !a.state.Initialized {
		a.callbacks = append(a.callbacks, fn)
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()
	a.callReady(fn)
}

func (a *App) callReady(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("ready callback panicked", "panic", r)
		}
	}()
	fn()
}

// SetDebug toggles debug logging for this app. Turning it off restores
// the level the injected logger had.
func (a *App) SetDebug(on bool) {
	a.mu.Lock()
	a.cfg.Debug = on
	a.mu.Unlock()
	if on {
		a.logger.SetLevel(log.DebugLevel)
	} else {
		a.logger.SetLevel(a.baseLevel)
	}
}

// Debug reports whether debug logging is on.
func (a *App) Debug() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Debug
}

// State returns a snapshot of the lifecycle flags.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Config returns the page configuration.
func (a *App) Config() Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// Used returns the components resolved for the page.
func (a *App) Used() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.used...)
}

// Document returns the page document.
func (a *App) Document() *dom.Document { return a.doc }

// Loader returns the shared resource loader.
func (a *App) Loader() *resource.Loader { return a.loader }
