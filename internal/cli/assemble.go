package cli

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/ffs-ui/ffs/pkg/bootstrap"
	"github.com/ffs-ui/ffs/pkg/cache"
	"github.com/ffs-ui/ffs/pkg/dom"
	"github.com/ffs-ui/ffs/pkg/fetch"
	"github.com/ffs-ui/ffs/pkg/preference"
	"github.com/ffs-ui/ffs/pkg/registry"
	"github.com/ffs-ui/ffs/pkg/theme"
)

// assembly describes how one page is assembled. Flags and the tool
// configuration fill it; the page's own loader tag fills the rest.
type assembly struct {
	fetcher      fetch.Fetcher
	store        preference.Store
	shared       cache.Cache
	keyer        cache.Keyer
	logger       *log.Logger
	baseURL      string
	origin       string
	defaultTheme string
	theme        string
	components   []string
	manifest     *registry.Manifest
	inline       bool
}

// pageConfig derives the loader configuration of doc. The loader tag wins
// over the configured base URL; declared components and a manifest are
// added on top.
func (a assembly) pageConfig(doc *dom.Document) bootstrap.Config {
	cfg := bootstrap.DefaultConfig()
	if attrs, ok := bootstrap.FindLoaderScript(doc); ok {
		cfg = bootstrap.ConfigFromAttributes(attrs)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = a.baseURL
	}
	if a.components != nil {
		cfg.Components = append(cfg.Components, a.components...)
	}
	if a.manifest != nil {
		cfg.Manifest = a.manifest
	}
	return cfg
}

// assemble runs the bootstrap sequence on doc, initializes the theme and
// applies the requested theme, if any.
func (a assembly) assemble(ctx context.Context, doc *dom.Document) (*bootstrap.App, error) {
	opts := []bootstrap.Option{
		bootstrap.WithLogger(a.logger),
		bootstrap.WithStore(a.store),
		bootstrap.WithOrigin(a.origin),
		bootstrap.WithInline(a.inline),
	}
	if a.defaultTheme != "" {
		opts = append(opts, bootstrap.WithDefaultTheme(a.defaultTheme))
	}
	if a.shared != nil {
		opts = append(opts, bootstrap.WithThemeOptions(theme.WithSharedCache(a.shared, a.keyer)))
	}

	app := bootstrap.New(doc, a.fetcher, a.pageConfig(doc), opts...)
	if err := app.Run(ctx); err != nil {
		return nil, err
	}
	if err := app.InitTheme(ctx); err != nil {
		a.logger.Warn("theme unavailable", "err", err)
		return app, nil
	}
	if a.theme != "" {
		m, err := app.Theme()
		if err != nil {
			return nil, err
		}
		if err := m.Set(ctx, a.theme); err != nil {
			return nil, err
		}
	}
	return app, nil
}
