// Package cli implements the ffs command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ffs-ui/ffs/internal/config"
	"github.com/ffs-ui/ffs/pkg/buildinfo"
	"github.com/ffs-ui/ffs/pkg/cache"
	"github.com/ffs-ui/ffs/pkg/fetch"
	"github.com/ffs-ui/ffs/pkg/observability"
	"github.com/ffs-ui/ffs/pkg/preference"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "ffs"

	// redisPrefix namespaces shared cache keys.
	redisPrefix = "ffs:cache:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "ffs assembles pages with the ffs-ui component library",
		Long:         `ffs loads the ffs-ui base stylesheet, the components a page uses and its theme variables into HTML pages, either ahead of time (build) or per request (serve).`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(withLogger(ctx, c.Logger))
			_, err := c.config()
			return err
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultFile, "path to the configuration file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.componentsCommand())
	root.AddCommand(c.themeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads and validates the tool configuration once.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := c.configPath
	if path == "" {
		path = config.DefaultFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Debug {
		c.SetLogLevel(LogDebug)
	}
	if c.Logger.GetLevel() <= LogDebug {
		observability.SetHTTPHooks(observability.NewLogHooks(c.Logger))
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Factories
// =============================================================================

func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir := cfg.Cache.Dir
	if dir == "" && (cfg.Cache.Backend == "" || cfg.Cache.Backend == cache.BackendFile) {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.Open(ctx, cache.Options{
		Backend:  cfg.Cache.Backend,
		Dir:      dir,
		RedisURL: cfg.Cache.RedisURL,
		Prefix:   redisPrefix,
	})
}

// newFetcher returns the fetcher for library resources: the local asset
// tree when one is configured, otherwise a caching HTTP client.
func newFetcher(cfg *config.Config, c cache.Cache) fetch.Fetcher {
	if cfg.Assets != "" {
		return fetch.NewFSFetcher(os.DirFS(cfg.Assets))
	}
	return fetch.NewClient(c, cfg.Cache.TTL, nil, fetch.WithKeyer(newKeyer(cfg)))
}

// newKeyer scopes cache keys to the library location, so one shared cache
// can serve several asset hosts.
func newKeyer(cfg *config.Config) cache.Keyer {
	loc := cfg.Origin
	if loc == "" {
		loc = cfg.BaseURL
	}
	if cfg.Assets != "" {
		loc = "file:" + cfg.Assets
	}
	return cache.Scoped(cache.NewDefaultKeyer(), cache.ScopeFor(loc))
}

func newStore(ctx context.Context, cfg *config.Config) (preference.Store, error) {
	return preference.Open(ctx, preference.Options{
		Backend:  cfg.Preference.Backend,
		Path:     cfg.Preference.Path,
		URL:      cfg.Preference.URL,
		Database: cfg.Preference.Database,
	})
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/ffs/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
