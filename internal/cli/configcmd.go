package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ffs-ui/ffs/internal/config"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the ffs.yaml configuration",
	}
	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())
	return cmd
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default values",
		Args:  cobra.NoArgs,
		// The file being replaced may not load.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			out(cmd).success("Wrote configuration")
			out(cmd).file(path)
			out(cmd).nextStep("Assemble a page", appName+" build index.html -o dist/index.html")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			out(cmd).keyValue("base_url", orNone(cfg.BaseURL))
			out(cmd).keyValue("origin", orNone(cfg.Origin))
			out(cmd).keyValue("assets", orNone(cfg.Assets))
			out(cmd).keyValue("theme", cfg.DefaultTheme)
			out(cmd).keyValue("cache", cfg.Cache.Backend)
			out(cmd).keyValue("preference", cfg.Preference.Backend)
			out(cmd).keyValue("serve", cfg.Serve.Addr)
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return StyleDim.Render("(none)")
	}
	return s
}
