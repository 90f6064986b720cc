package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ffs-ui/ffs/pkg/registry"
)

// componentsCommand creates the components command.
func (c *CLI) componentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "components",
		Short: "Inspect the component registry",
	}
	cmd.AddCommand(c.componentsListCommand())
	return cmd
}

func (c *CLI) componentsListCommand() *cobra.Command {
	var manifest string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered components and their resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if manifest == "" {
				manifest = cfg.Manifest
			}

			reg := registry.New(nil, registry.WithLogger(c.Logger))
			var declared []string
			if manifest != "" {
				m, err := registry.LoadManifest(manifest)
				if err != nil {
					return err
				}
				if err := m.Apply(reg); err != nil {
					return err
				}
				declared = m.Components
			}
			return renderComponents(cmd.OutOrStdout(), reg, declared)
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "TOML component manifest to apply first")
	return cmd
}

// renderComponents writes the registry as a table. Components declared by
// a manifest are highlighted.
func renderComponents(w io.Writer, reg *registry.Registry, declared []string) error {
	names := reg.Components()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		d, _ := reg.Get(name)
		mark := ""
		if slices.Contains(declared, name) {
			mark = iconSuccess
		}
		rows = append(rows, []string{mark, d.Name, d.Stylesheet, d.Script})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Component", "Stylesheet", "Script").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 2 || col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			if slices.Contains(declared, rows[row][1]) {
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			return lipgloss.NewStyle()
		})

	_, err := fmt.Fprintf(w, "%s\n%s\n", t.Render(), StyleDim.Render(fmt.Sprintf("  %d components", len(names))))
	return err
}
