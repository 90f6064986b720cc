package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	pickItemStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	pickHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// ThemeListModel picks a theme. "/" starts a substring filter; while it is
// active, typed runes extend it and esc clears it.
type ThemeListModel struct {
	Themes    []string
	Current   string
	Filter    string
	Filtering bool
	Cursor    int // index into Visible()
	Offset    int
	Height    int
	Selected  string
}

// NewThemeListModel opens the list with the cursor on current.
func NewThemeListModel(themes []string, current string) ThemeListModel {
	m := ThemeListModel{Themes: themes, Current: current, Height: 10}
	for i, t := range themes {
		if t == current {
			m.Cursor = i
			break
		}
	}
	m.scroll()
	return m
}

// Visible returns the themes matching the filter.
func (m ThemeListModel) Visible() []string {
	if m.Filter == "" {
		return m.Themes
	}
	var out []string
	for _, t := range m.Themes {
		if strings.Contains(t, m.Filter) {
			out = append(out, t)
		}
	}
	return out
}

func (m ThemeListModel) Init() tea.Cmd { return nil }

func (m ThemeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 3)
		m.scroll()
		return m, nil
	case tea.KeyMsg:
		return m.key(msg)
	}
	return m, nil
}

func (m ThemeListModel) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		if m.Filtering || m.Filter != "" {
			m.Filtering, m.Filter, m.Cursor = false, "", 0
			m.scroll()
			return m, nil
		}
		return m, tea.Quit
	case tea.KeyEnter:
		if v := m.Visible(); len(v) > 0 {
			m.Selected = v[m.Cursor]
		}
		return m, tea.Quit
	case tea.KeyUp:
		m.move(-1)
		return m, nil
	case tea.KeyDown:
		m.move(1)
		return m, nil
	case tea.KeyHome:
		m.move(-len(m.Themes))
		return m, nil
	case tea.KeyEnd:
		m.move(len(m.Themes))
		return m, nil
	case tea.KeyBackspace:
		if m.Filtering && m.Filter != "" {
			m.Filter = m.Filter[:len(m.Filter)-1]
			m.Cursor = 0
			m.scroll()
		}
		return m, nil
	}

	if m.Filtering {
		if msg.Type == tea.KeyRunes {
			m.Filter += string(msg.Runes)
			m.Cursor = 0
			m.scroll()
		}
		return m, nil
	}
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "k":
		m.move(-1)
	case "j":
		m.move(1)
	case "/":
		m.Filtering = true
	}
	return m, nil
}

// move shifts the cursor by delta, clamped to the visible list.
func (m *ThemeListModel) move(delta int) {
	n := len(m.Visible())
	m.Cursor = min(max(m.Cursor+delta, 0), max(n-1, 0))
	m.scroll()
}

// scroll keeps the cursor inside the Height-line window.
func (m *ThemeListModel) scroll() {
	switch {
	case m.Cursor < m.Offset:
		m.Offset = m.Cursor
	case m.Cursor >= m.Offset+m.Height:
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m ThemeListModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Select Theme") + "\n")
	if m.Filtering || m.Filter != "" {
		b.WriteString(pickHelpStyle.Render("filter: ") + m.Filter + "\n\n")
	} else {
		b.WriteString(pickHelpStyle.Render("↑/↓ navigate  / filter  ⏎ select  q quit") + "\n\n")
	}

	visible := m.Visible()
	if len(visible) == 0 {
		b.WriteString(pickHelpStyle.Render("  no matching themes") + "\n")
	}
	for i := m.Offset; i < min(m.Offset+m.Height, len(visible)); i++ {
		line := "  " + visible[i]
		if visible[i] == m.Current {
			line += " " + StyleSuccess.Render(iconSuccess)
		}
		if i == m.Cursor {
			b.WriteString(pickCursorStyle.Render("▸" + line[1:]))
		} else {
			b.WriteString(pickItemStyle.Render(line))
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\n%s", pickHelpStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(visible)), len(visible))))
	return b.String()
}
