// Package palette implements the interactive color-picker TUI behind
// `aer palette`: a small Bubble Tea program that walks the user
// through naming a handful of colors, then writes them into
// [default.context.palette] in Aer.toml.
//
// Grounded on the kingrea-The-Lattice example's Bubble Tea Model,
// scoped down from the original implementation's ICC-profile-accurate
// CMYK color science (original_source/src/tool/color/cmyk.rs), which
// has no equivalent library anywhere in the retrieval pack: this picker
// works in hex RGB color codes instead.
package palette

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

type field int

const (
	fieldName field = iota
	fieldHex
)

// Swatch is one named color collected by the picker.
type Swatch struct {
	Name string
	Hex  string
}

// Model is the Bubble Tea model driving the picker. Each step collects
// a name and a hex color; "done" (empty name) ends the session.
type Model struct {
	name  textinput.Model
	hex   textinput.Model
	focus field

	swatches []Swatch
	err      error
	quitting bool
}

// New constructs a palette picker model.
func New() Model {
	name := textinput.New()
	name.Placeholder = "color name (blank to finish)"
	name.Focus()

	hex := textinput.New()
	hex.Placeholder = "#rrggbb"

	return Model{name: name, hex: hex, focus: fieldName}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			m.toggleFocus()
			return m, nil
		case "enter":
			return m.commit()
		}
	}

	var cmd tea.Cmd
	if m.focus == fieldName {
		m.name, cmd = m.name.Update(msg)
	} else {
		m.hex, cmd = m.hex.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == fieldName {
		m.focus = fieldHex
		m.name.Blur()
		m.hex.Focus()
	} else {
		m.focus = fieldName
		m.hex.Blur()
		m.name.Focus()
	}
}

func (m Model) commit() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.name.Value())
	if name == "" {
		m.quitting = true
		return m, tea.Quit
	}

	hex := strings.TrimSpace(m.hex.Value())
	if _, err := colorful.Hex(normalizeHex(hex)); err != nil {
		m.err = fmt.Errorf("palette: %q is not a valid color: %w", hex, err)
		return m, nil
	}

	m.swatches = append(m.swatches, Swatch{Name: name, Hex: normalizeHex(hex)})
	m.err = nil
	m.name.SetValue("")
	m.hex.SetValue("")
	m.focus = fieldName
	m.hex.Blur()
	m.name.Focus()
	return m, nil
}

func normalizeHex(hex string) string {
	if hex == "" {
		return "#000000"
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	return hex
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Render("aer palette")
	help := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).
		Render("tab → switch field · enter → add color · esc → finish")

	var rows []string
	for _, s := range m.swatches {
		swatch := lipgloss.NewStyle().
			Background(lipgloss.Color(s.Hex)).
			Render("   ")
		rows = append(rows, fmt.Sprintf("%s %-20s %s", swatch, s.Name, s.Hex))
	}

	form := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(24).Render("name: "+m.name.View()),
		lipgloss.NewStyle().Width(24).Render("hex: "+m.hex.View()),
	)

	sections := []string{title}
	if len(rows) > 0 {
		sections = append(sections, strings.Join(rows, "\n"))
	}
	sections = append(sections, form)
	if m.err != nil {
		sections = append(sections, lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Render(m.err.Error()))
	}
	sections = append(sections, help)
	return strings.Join(sections, "\n\n")
}

// Swatches returns the colors collected once the program has quit.
func (m Model) Swatches() []Swatch {
	return m.swatches
}
