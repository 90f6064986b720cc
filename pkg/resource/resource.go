// Package resource loads stylesheets and scripts into a document.
//
// A load fetches the resource (verifying that it exists and warming the
// response cache), then inserts a <link> or <script> tag into the document
// head, or inlines the body when the loader runs in inline mode.
//
// Every URL is fetched at most once per [Loader]: concurrent callers for
// a URL that is already loading wait for that load instead of starting
// another one. Failed loads are not recorded and may be retried.
package resource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ffs-ui/ffs/pkg/dom"
	ffserrors "github.com/ffs-ui/ffs/pkg/errors"
	"github.com/ffs-ui/ffs/pkg/fetch"
	"github.com/ffs-ui/ffs/pkg/observability"
)

// Kind is the type of a resource.
type Kind string

const (
	CSS Kind = "css"
	JS  Kind = "js"
)

// State is the lifecycle state of a resource URL.
type State int

const (
	Unloaded State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// Ref names one resource of a batch.
type Ref struct {
	Kind Kind
	URL  string
}

// Loader inserts resources into a document. It is safe for concurrent use.
type Loader struct {
	doc     *dom.Document
	fetcher fetch.Fetcher
	logger  *log.Logger
	inline  bool

	base, origin string
	resolver     *fetch.Resolver
	resolverErr  error

	mu      sync.Mutex
	states  map[string]State
	order   []string
	flights singleflight.Group
}

// Option configures a Loader.
type Option func(*Loader)

// WithBaseURL sets the directory that relative resource paths resolve
// against.
func WithBaseURL(base string) Option {
	return func(l *Loader) { l.base = base }
}

// WithOrigin sets where relative hrefs are fetched from.
func WithOrigin(origin string) Option {
	return func(l *Loader) { l.origin = origin }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithInline makes the loader embed resource bodies instead of linking them.
func WithInline(inline bool) Option {
	return func(l *Loader) { l.inline = inline }
}

// New creates a loader for doc.
func New(doc *dom.Document, fetcher fetch.Fetcher, opts ...Option) *Loader {
	l := &Loader{
		doc:     doc,
		fetcher: fetcher,
		logger:  log.Default(),
		states:  make(map[string]State),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.resolver, l.resolverErr = fetch.NewResolver(l.base, l.origin)
	return l
}

// Document returns the document the loader writes to.
func (l *Loader) Document() *dom.Document { return l.doc }

// Resolve returns the document href for a resource path.
func (l *Loader) Resolve(p string) (string, error) {
	if l.resolverErr != nil {
		return "", l.resolverErr
	}
	return l.resolver.Href(p)
}

// Target returns the URL fetched for a document href.
func (l *Loader) Target(href string) (string, error) {
	if l.resolverErr != nil {
		return "", l.resolverErr
	}
	return l.resolver.Target(href)
}

// LoadCSS loads a stylesheet.
func (l *Loader) LoadCSS(ctx context.Context, p string) error {
	return l.load(ctx, CSS, p)
}

// LoadJS loads a script.
func (l *Loader) LoadJS(ctx context.Context, p string) error {
	return l.load(ctx, JS, p)
}

// Load loads a resource of the given kind.
func (l *Loader) Load(ctx context.Context, ref Ref) error {
	return l.load(ctx, ref.Kind, ref.URL)
}

// LoadAll loads refs in parallel and waits for all of them. Failures are
// isolated per item and returned keyed by the ref URL; a nil map means every
// load succeeded.
func (l *Loader) LoadAll(ctx context.Context, refs []Ref) map[string]error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs map[string]error
	)
	for _, ref := range refs {
		g.Go(func() error {
			if err := l.Load(ctx, ref); err != nil {
				mu.Lock()
				if errs == nil {
					errs = make(map[string]error)
				}
				errs[ref.URL] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// Join combines batch errors into one error in URL order.
func Join(errs map[string]error) error {
	if len(errs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]error, len(keys))
	for i, k := range keys {
		list[i] = errs[k]
	}
	return errors.Join(list...)
}

// State returns the state of the resource at p.
func (l *Loader) State(p string) State {
	href, err := l.Resolve(p)
	if err != nil {
		return Unloaded
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[href]
}

// Loaded returns the hrefs of loaded resources in load order.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

func (l *Loader) load(ctx context.Context, kind Kind, p string) error {
	href, err := l.Resolve(p)
	if err != nil {
		return err
	}
	if l.isLoaded(href) {
		return nil
	}

	_, err, _ = l.flights.Do(href, func() (any, error) {
		// A flight that finished between the check above and Do has
		// already recorded the href.
		if l.isLoaded(href) {
			return nil, nil
		}
		if l.present(kind, href) {
			l.markLoaded(href)
			return nil, nil
		}
		return nil, l.fetchAndInsert(ctx, kind, href)
	})
	return err
}

func (l *Loader) fetchAndInsert(ctx context.Context, kind Kind, href string) error {
	l.setState(href, Loading)
	observability.Loader().OnResourceStart(ctx, string(kind), href)
	start := time.Now()

	err := l.insert(ctx, kind, href)
	observability.Loader().OnResourceComplete(ctx, string(kind), href, time.Since(start), err)
	if err != nil {
		l.setState(href, Unloaded)
		l.logger.Error("resource load failed", "kind", kind, "url", href, "err", err)
		return ffserrors.Wrap(ffserrors.ErrCodeResourceLoad, err, "load %s", href)
	}

	l.markLoaded(href)
	l.logger.Debug("resource loaded", "kind", kind, "url", href)
	return nil
}

func (l *Loader) insert(ctx context.Context, kind Kind, href string) error {
	target, err := l.Target(href)
	if err != nil {
		return err
	}
	body, err := l.fetcher.GetBytes(ctx, target)
	if err != nil {
		return err
	}

	var el dom.Element
	switch {
	case kind == CSS && l.inline:
		el = dom.InlineStyle(href, string(body))
	case kind == CSS:
		el = dom.Link(href)
	case kind == JS && l.inline:
		el = dom.InlineScript(href, string(body))
	case kind == JS:
		el = dom.Script(href)
	default:
		return fmt.Errorf("unknown resource kind %q", kind)
	}
	l.doc.AppendHead(el)
	return nil
}

// present reports whether the page already references href, e.g. because
// the author linked it by hand.
func (l *Loader) present(kind Kind, href string) bool {
	if kind == CSS {
		return l.doc.HasStylesheet(href)
	}
	return l.doc.HasScript(href)
}

func (l *Loader) isLoaded(href string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[href] == Loaded
}

func (l *Loader) setState(href string, s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s == Unloaded {
		delete(l.states, href)
		return
	}
	l.states[href] = s
}

func (l *Loader) markLoaded(href string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.states[href] != Loaded {
		l.states[href] = Loaded
		l.order = append(l.order, href)
	}
}
