package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ffs-ui/ffs/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the on-disk response cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Delete cached resources and theme variables",
			Args:  cobra.NoArgs,
			RunE:  c.withFileCache(runCacheClear),
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show how many entries the cache holds",
			Args:  cobra.NoArgs,
			RunE:  c.withFileCache(runCacheStats),
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				dir, err := c.fileCacheDir()
				if err != nil {
					return err
				}
				out(cmd).line(dir)
				return nil
			},
		},
	)
	return cmd
}

// withFileCache opens the file cache for fn. A missing directory is reported
// as an empty cache rather than created.
func (c *CLI) withFileCache(fn func(*cobra.Command, *cache.FileCache) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		dir, err := c.fileCacheDir()
		if err != nil {
			return err
		}
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			out(cmd).info("Cache is empty")
			return nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return err
		}
		return fn(cmd, fc)
	}
}

func runCacheClear(cmd *cobra.Command, fc *cache.FileCache) error {
	n, err := fc.Clear()
	if err != nil {
		return err
	}
	p := out(cmd)
	p.success("Cleared %d cached entries", n)
	p.detail("Directory: %s", fc.Dir())
	return nil
}

func runCacheStats(cmd *cobra.Command, fc *cache.FileCache) error {
	n, size, err := fc.Usage()
	if err != nil {
		return err
	}
	p := out(cmd)
	p.keyValue("Directory", fc.Dir())
	p.keyValue("Entries", fmt.Sprint(n))
	p.keyValue("Size", humanBytes(size))
	return nil
}

// fileCacheDir is cache.dir from the config, or the XDG cache directory.
func (c *CLI) fileCacheDir() (string, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return dir, nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
