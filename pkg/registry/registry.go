// Package registry maps component names to their resources and loads
// components on demand.
//
// Each component is one stylesheet and one script. The registry starts
// from the library's static table ([Defaults]) and accepts registrations
// at any time. A component transitions from unloaded to loaded exactly
// once per [Registry.Init], after both of its resources have loaded;
// the stylesheet always loads before the script.
package registry

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	ffserrors "github.com/ffs-ui/ffs/pkg/errors"
	"github.com/ffs-ui/ffs/pkg/observability"
	"github.com/ffs-ui/ffs/pkg/resource"
)

// Config lists the resources of a component. Paths are relative to the
// loader's base URL.
type Config struct {
	Stylesheet string `toml:"stylesheet" json:"stylesheet"`
	Script     string `toml:"script" json:"script"`
}

// Descriptor is a registered component.
type Descriptor struct {
	Name       string
	Stylesheet string
	Script     string
	Loaded     bool
}

// Loader loads component resources. *resource.Loader implements it.
type Loader interface {
	LoadCSS(ctx context.Context, url string) error
	LoadJS(ctx context.Context, url string) error
}

var _ Loader = (*resource.Loader)(nil)

// Registry holds component descriptors. It is safe for concurrent use.
type Registry struct {
	loader Loader
	logger *log.Logger

	mu      sync.RWMutex
	entries map[string]*Descriptor
	ready   bool
	flights singleflight.Group
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithComponents replaces the default component table.
func WithComponents(table map[string]Config) Option {
	return func(r *Registry) {
		r.entries = make(map[string]*Descriptor, len(table))
		for name, cfg := range table {
			r.entries[name] = newDescriptor(name, cfg)
		}
	}
}

// New creates a registry seeded with [Defaults].
func New(loader Loader, opts ...Option) *Registry {
	r := &Registry{loader: loader, logger: log.Default()}
	WithComponents(Defaults())(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newDescriptor(name string, cfg Config) *Descriptor {
	return &Descriptor{Name: name, Stylesheet: cfg.Stylesheet, Script: cfg.Script}
}

// Register adds or replaces a component. An invalid name or a config with
// no resources is rejected without touching the registry. Replacing an
// existing entry logs a warning; the new entry starts unloaded.
func (r *Registry) Register(name string, cfg Config) error {
	if err := ffserrors.ValidateName(ffserrors.ErrCodeInvalidRegistration, "component", name); err != nil {
		r.logger.Error("component registration rejected", "name", name, "err", err)
		return err
	}
	if cfg.Stylesheet == "" && cfg.Script == "" {
		err := ffserrors.New(ffserrors.ErrCodeInvalidRegistration, "component %q has no stylesheet or script", name)
		r.logger.Error("component registration rejected", "name", name, "err", err)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		r.logger.Warn("component already registered, overwriting", "name", name)
	}
	r.entries[name] = newDescriptor(name, cfg)
	return nil
}

// Load loads the stylesheet, then the script of the named component.
//
// An unknown name logs a warning and returns a COMPONENT_NOT_FOUND error
// without side effects. A loaded component returns immediately. Concurrent
// calls for one component share a single load. On failure the component
// stays unloaded.
func (r *Registry) Load(ctx context.Context, name string) error {
	r.mu.RLock()
	d, ok := r.entries[name]
	loaded := ok && d.Loaded
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("component not found", "name", name)
		return ffserrors.New(ffserrors.ErrCodeComponentNotFound, "component %q not registered", name)
	}
	if loaded {
		return nil
	}

	// Keyed by descriptor so a re-registered name never joins the flight of
	// the descriptor it replaced.
	_, err, _ := r.flights.Do(fmt.Sprintf("%s@%p", name, d), func() (any, error) {
		return nil, r.load(ctx, d)
	})
	return err
}

func (r *Registry) load(ctx context.Context, d *Descriptor) error {
	r.mu.RLock()
	loaded := d.Loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	start := time.Now()
	err := r.loadResources(ctx, d)
	observability.Loader().OnComponentLoaded(ctx, d.Name, time.Since(start), err)
	if err != nil {
		r.logger.Error("component load failed", "name", d.Name, "err", err)
		return err
	}

	r.mu.Lock()
	d.Loaded = true
	r.mu.Unlock()
	r.logger.Info("component loaded", "name", d.Name)
	return nil
}

func (r *Registry) loadResources(ctx context.Context, d *Descriptor) error {
	if d.Stylesheet != "" {
		if err := r.loader.LoadCSS(ctx, d.Stylesheet); err != nil {
			return err
		}
	}
	if d.Script != "" {
		if err := r.loader.LoadJS(ctx, d.Script); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll loads every named component concurrently and waits for all of
// them. Duplicate names collapse into one load. Failures are isolated and
// returned by name; a nil map means every component loaded.
func (r *Registry) LoadAll(ctx context.Context, names []string) map[string]error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs map[string]error
	)
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		g.Go(func() error {
			if err := r.Load(ctx, name); err != nil {
				mu.Lock()
				if errs == nil {
					errs = make(map[string]error)
				}
				errs[name] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// Components returns the registered names in sorted order.
func (r *Registry) Components() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Get returns a copy of the named descriptor.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entries[name]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// Init marks every component unloaded and the registry ready.
func (r *Registry) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.entries {
		d.Loaded = false
	}
	r.ready = true
}

// Ready reports whether Init has run.
func (r *Registry) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}
