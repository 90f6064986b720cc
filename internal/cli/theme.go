package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ffs-ui/ffs/pkg/dom"
	ffserrors "github.com/ffs-ui/ffs/pkg/errors"
	"github.com/ffs-ui/ffs/pkg/preference"
	"github.com/ffs-ui/ffs/pkg/theme"
)

// themeCommand creates the theme command.
func (c *CLI) themeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Read and change the stored theme preference",
	}

	cmd.AddCommand(c.themeGetCommand())
	cmd.AddCommand(c.themeSetCommand())
	cmd.AddCommand(c.themePreloadCommand())
	cmd.AddCommand(c.themePickCommand())

	return cmd
}

// themeSession is a theme manager over an empty document, backed by the
// configured preference store.
type themeSession struct {
	manager *theme.Manager
	store   preference.Store
	close   func()
}

func (c *CLI) newThemeSession(cmd *cobra.Command) (*themeSession, error) {
	ctx := cmd.Context()
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	rc, err := newCache(ctx, cfg, false)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	store, err := newStore(ctx, cfg)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("open preference store: %w", err)
	}

	m := theme.New(dom.New(), newFetcher(cfg, rc), store,
		theme.WithBaseURL(cfg.BaseURL),
		theme.WithOrigin(cfg.Origin),
		theme.WithDefault(cfg.DefaultTheme),
		theme.WithLogger(c.Logger),
		theme.WithSharedCache(rc, newKeyer(cfg)),
	)
	return &themeSession{
		manager: m,
		store:   store,
		close: func() {
			store.Close()
			rc.Close()
		},
	}, nil
}

func (c *CLI) themeGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the current theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newThemeSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			fmt.Fprintln(cmd.OutOrStdout(), s.manager.Current(cmd.Context()))
			return nil
		},
	}
}

func (c *CLI) themeSetCommand() *cobra.Command {
	var noVerify bool

	cmd := &cobra.Command{
		Use:   "set NAME",
		Short: "Apply a theme and store it as the preference",
		Long: `Set fetches the theme's variables to make sure the theme exists, then
stores it as the preferred theme. With --no-verify the name is stored
without fetching anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newThemeSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			return s.set(cmd, args[0], noVerify)
		},
	}

	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "store the name without fetching the theme")
	return cmd
}

func (s *themeSession) set(cmd *cobra.Command, name string, noVerify bool) error {
	ctx := cmd.Context()
	if noVerify {
		if err := ffserrors.ValidateName(ffserrors.ErrCodeInvalidTheme, "theme", name); err != nil {
			return err
		}
		if err := s.store.Set(ctx, preference.ThemeKey, name); err != nil {
			return err
		}
	} else if err := s.manager.Set(ctx, name); err != nil {
		return err
	}

	out(cmd).success("Theme set to %s", StyleHighlight.Render(name))
	if vars, ok := s.manager.Vars(name); ok {
		out(cmd).detail("%d variables", len(vars))
	}
	return nil
}

func (c *CLI) themePreloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "preload NAME...",
		Short: "Fetch theme variables into the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newThemeSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			prog := newProgress(loggerFromContext(cmd.Context()))
			failed := 0
			for _, name := range args {
				s.manager.Preload(cmd.Context(), name)
				if vars, ok := s.manager.Vars(name); ok {
					out(cmd).success("%s %s", name, StyleDim.Render(fmt.Sprintf("(%d variables)", len(vars))))
				} else {
					out(cmd).warning("%s could not be loaded", name)
					failed++
				}
			}
			prog.done(fmt.Sprintf("Preloaded %d themes", len(args)-failed))
			if failed > 0 {
				return fmt.Errorf("%d of %d themes failed to load", failed, len(args))
			}
			return nil
		},
	}
}

func (c *CLI) themePickCommand() *cobra.Command {
	var noVerify bool

	cmd := &cobra.Command{
		Use:   "pick [NAME...]",
		Short: "Choose the theme interactively",
		Long: `Pick shows a list of themes and stores the selected one. The list holds
the built-in default and dark themes followed by any names given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newThemeSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			names := themeChoices(args)
			model := NewThemeListModel(names, s.manager.Current(cmd.Context()))
			result, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			final := result.(ThemeListModel)
			if final.Selected == "" {
				out(cmd).info("No theme selected")
				return nil
			}
			return s.set(cmd, final.Selected, noVerify)
		},
	}

	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "store the name without fetching the theme")
	return cmd
}

// themeChoices returns the built-in themes followed by extra, without
// duplicates.
func themeChoices(extra []string) []string {
	names := []string{theme.Default, theme.Dark}
	seen := map[string]bool{theme.Default: true, theme.Dark: true}
	for _, n := range extra {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}
