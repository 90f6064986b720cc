package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ffs-ui/ffs/pkg/dom"
	"github.com/ffs-ui/ffs/pkg/observability"
	"github.com/ffs-ui/ffs/pkg/preference"
	"github.com/ffs-ui/ffs/pkg/registry"
)

// buildOptions holds the flags shared by build and serve.
type buildOptions struct {
	theme      string
	components string
	manifest   string
	inline     bool
	baseURL    string
	origin     string
	assets     string
	noCache    bool
}

func (o *buildOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.components, "components", "", "comma-separated components to load instead of scanning the page")
	cmd.Flags().StringVar(&o.manifest, "manifest", "", "TOML component manifest")
	cmd.Flags().BoolVar(&o.inline, "inline", false, "embed stylesheets and scripts into the page")
	cmd.Flags().StringVar(&o.baseURL, "base", "", "base URL written into resource links")
	cmd.Flags().StringVar(&o.origin, "origin", "", "URL relative resources are fetched from")
	cmd.Flags().StringVar(&o.assets, "assets", "", "local asset directory to read resources from")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the response cache")
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		opts    buildOptions
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "build PAGE",
		Short: "Load components and theme into an HTML page",
		Long: `Build runs the ffs-ui startup sequence on an HTML page: it loads the
missing third-party dependencies, the base stylesheet, the components the
page uses and the current theme, then writes the resulting page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd, args[0], outPath, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.theme, "theme", "", "theme to apply instead of the stored preference")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	return cmd
}

func (c *CLI) runBuild(cmd *cobra.Command, page, outPath string, opts buildOptions) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	a, closeFn, err := c.newAssembly(cmd, opts)
	if err != nil {
		return err
	}
	defer closeFn()
	if opts.theme != "" {
		// An explicit theme applies to this page only.
		a.theme = opts.theme
		a.store = preference.NewMemoryStore()
	}

	f, err := os.Open(page)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	doc, err := dom.Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("parse %s: %w", page, err)
	}

	stats := observability.NewStats()
	observability.SetLoaderHooks(stats)
	observability.SetCacheHooks(stats)

	app, err := a.assemble(ctx, doc)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	if outPath == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	prog.done("Built " + page)
	p := out(cmd)
	p.success("Assembled %s", page)
	p.file(outPath)
	p.components(app.Used())
	p.stats(stats.Snapshot())
	if m, err := app.Theme(); err == nil {
		p.keyValue("Theme", m.Current(ctx))
	}
	return nil
}

// newAssembly combines the tool configuration with the command's flags.
// The returned function releases the cache and preference store.
func (c *CLI) newAssembly(cmd *cobra.Command, opts buildOptions) (assembly, func(), error) {
	ctx := cmd.Context()
	cfg, err := c.config()
	if err != nil {
		return assembly{}, nil, err
	}

	if opts.assets != "" {
		cfg.Assets = opts.assets
	}
	if opts.origin != "" {
		cfg.Origin = opts.origin
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}

	rc, err := newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return assembly{}, nil, fmt.Errorf("open cache: %w", err)
	}
	store, err := newStore(ctx, cfg)
	if err != nil {
		rc.Close()
		return assembly{}, nil, fmt.Errorf("open preference store: %w", err)
	}
	closeFn := func() {
		rc.Close()
		store.Close()
	}

	a := assembly{
		fetcher:      newFetcher(cfg, rc),
		store:        store,
		shared:       rc,
		keyer:        newKeyer(cfg),
		logger:       c.Logger,
		baseURL:      cfg.BaseURL,
		origin:       cfg.Origin,
		defaultTheme: cfg.DefaultTheme,
		inline:       opts.inline || cfg.Inline,
	}
	if opts.components != "" {
		a.components = registry.ParseList(opts.components)
	}
	manifest := opts.manifest
	if manifest == "" {
		manifest = cfg.Manifest
	}
	if manifest != "" {
		m, err := registry.LoadManifest(manifest)
		if err != nil {
			closeFn()
			return assembly{}, nil, err
		}
		a.manifest = m
	}
	return a, closeFn, nil
}
