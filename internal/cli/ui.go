package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ffs-ui/ffs/pkg/observability"
)

// Palette
var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success, cached
	colorYellow = lipgloss.Color("220") // warnings
	colorBlue   = lipgloss.Color("75")  // links, commands
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleHighlight for names the user picked (themes, components).
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue for values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleSuccess for success markers.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	// StyleWarning for warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// printer writes status lines for a command. Status goes to the command's
// output so tests and pipes see it.
type printer struct {
	w io.Writer
}

func out(cmd interface{ OutOrStdout() io.Writer }) printer {
	return printer{w: cmd.OutOrStdout()}
}

func (p printer) line(s string) { fmt.Fprintln(p.w, s) }

func (p printer) success(format string, args ...any) {
	p.line(StyleSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	p.line(StyleWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	p.line(styleInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

func (p printer) detail(format string, args ...any) {
	p.line("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (p printer) file(path string) {
	p.line("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func (p printer) keyValue(key, value string) {
	p.line(styleKey.Render(key) + " " + StyleValue.Render(value))
}

func (p printer) nextStep(description, cmd string) {
	p.line(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// components lists loaded component names on one line.
func (p printer) components(names []string) {
	if len(names) == 0 {
		p.detail("no components")
		return
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = StyleHighlight.Render(n)
	}
	p.line("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// stats summarizes a build: resources fetched, failures and how much came
// from the cache.
func (p printer) stats(s observability.Snapshot) {
	parts := []string{fmt.Sprintf("%d resources", s.Resources)}
	if s.Failures > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d failed", s.Failures)))
	}
	if s.CacheHits > 0 {
		parts = append(parts, StyleSuccess.Render(fmt.Sprintf("%d cached", s.CacheHits)))
	}
	if s.CacheMisses > 0 {
		parts = append(parts, fmt.Sprintf("%d fresh", s.CacheMisses))
	}
	p.line("  " + StyleDim.Render(strings.Join(parts, " · ")))
}
