// Package detect finds third-party dependencies a page already provides
// and loads the ones it lacks.
//
// Two dependencies are tracked: the DOM helper library (jQuery) and the
// icon font. Presence checks have no side effects apart from the transient
// probe element used by the font check, which is always removed.
package detect

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/ffs-ui/ffs/pkg/dom"
	"github.com/ffs-ui/ffs/pkg/resource"
)

// Config names the dependencies and how to recognise them.
type Config struct {
	// DOMHelper is the script loaded when the DOM helper is missing.
	DOMHelper string
	// DOMHelperGlobal is the global the helper installs.
	DOMHelperGlobal string
	// DOMHelperPattern matches the file name of an existing helper script.
	DOMHelperPattern *regexp.Regexp

	// IconFonts are the stylesheets loaded when the icon font is missing.
	IconFonts []string
	// IconFontPattern matches the href of an existing icon font stylesheet.
	IconFontPattern *regexp.Regexp
	// IconFontFamily is the font family the probe must render with.
	IconFontFamily string
	// ProbeClass is the class of the throwaway probe element.
	ProbeClass string
}

// DefaultConfig returns the dependencies shipped with the library.
func DefaultConfig() Config {
	return Config{
		DOMHelper:        "libs/jquery.min.js",
		DOMHelperGlobal:  "jQuery",
		DOMHelperPattern: regexp.MustCompile(`(?i)^jquery[\w.-]*\.js$`),
		IconFonts: []string{
			"libs/font-awesome/css/all.min.css",
			"libs/iconfont/iconfont.css",
		},
		IconFontPattern: regexp.MustCompile(`(?i)font-?awesome`),
		IconFontFamily:  "Font Awesome",
		ProbeClass:      "fa",
	}
}

// FontMetrics reports the font family an element renders with.
type FontMetrics interface {
	FontFamily(doc *dom.Document, n *html.Node) string
}

// Detector checks for and loads page dependencies.
type Detector struct {
	doc     *dom.Document
	loader  *resource.Loader
	cfg     Config
	metrics FontMetrics
	logger  *log.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithConfig replaces the default dependency configuration.
func WithConfig(cfg Config) Option {
	return func(d *Detector) { d.cfg = cfg }
}

// WithMetrics sets the font metrics used by the icon font probe.
func WithMetrics(m FontMetrics) Option {
	return func(d *Detector) { d.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

// New creates a detector that loads missing dependencies through loader
// into the loader's document.
func New(loader *resource.Loader, opts ...Option) *Detector {
	d := &Detector{
		doc:     loader.Document(),
		loader:  loader,
		cfg:     DefaultConfig(),
		metrics: StyleMetrics{},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HasDOMHelper reports whether the DOM helper global is installed or a
// helper script is already referenced.
func (d *Detector) HasDOMHelper() bool {
	if d.cfg.DOMHelperGlobal != "" && d.doc.HasGlobal(d.cfg.DOMHelperGlobal) {
		return true
	}
	if d.cfg.DOMHelperPattern == nil {
		return false
	}
	for _, src := range d.doc.Scripts() {
		if d.cfg.DOMHelperPattern.MatchString(fileName(src)) {
			return true
		}
	}
	return false
}

// HasIconFont reports whether the icon font is available, first by looking
// for its stylesheet and then by probing the rendered font family.
func (d *Detector) HasIconFont() bool {
	if d.cfg.IconFontPattern != nil {
		for _, href := range d.doc.Stylesheets() {
			if d.cfg.IconFontPattern.MatchString(href) {
				return true
			}
		}
	}
	if d.metrics == nil || d.cfg.IconFontFamily == "" {
		return false
	}

	var found bool
	probe := dom.Element{Tag: "i", Attrs: []html.Attribute{{Key: "class", Val: d.cfg.ProbeClass}}}
	d.doc.WithProbe(probe, func(n *html.Node) {
		family := d.metrics.FontFamily(d.doc, n)
		found = strings.Contains(strings.ToLower(family), strings.ToLower(d.cfg.IconFontFamily))
	})
	return found
}

// LoadDependencies loads the DOM helper, then the icon font stylesheets as
// a parallel batch. Present dependencies are skipped. The helper must load
// before the icon fonts are attempted.
func (d *Detector) LoadDependencies(ctx context.Context) error {
	if d.HasDOMHelper() {
		d.logger.Debug("DOM helper present, skipping")
	} else if d.cfg.DOMHelper != "" {
		if err := d.loader.LoadJS(ctx, d.cfg.DOMHelper); err != nil {
			return err
		}
		if d.cfg.DOMHelperGlobal != "" {
			d.doc.SetGlobal(d.cfg.DOMHelperGlobal)
		}
	}

	if d.HasIconFont() {
		d.logger.Debug("icon font present, skipping")
		return nil
	}
	refs := make([]resource.Ref, len(d.cfg.IconFonts))
	for i, href := range d.cfg.IconFonts {
		refs[i] = resource.Ref{Kind: resource.CSS, URL: href}
	}
	return resource.Join(d.loader.LoadAll(ctx, refs))
}

func fileName(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return path.Base(src)
}
