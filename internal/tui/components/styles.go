// Package components provides reusable TUI building blocks shared by the
// views.
package components

import "github.com/charmbracelet/lipgloss"

// Styles is the subset of the application theme the views render with.
type Styles struct {
	Title    lipgloss.Style
	Section  lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Success  lipgloss.Style
	Help     lipgloss.Style
	Header   lipgloss.Style
	Row      lipgloss.Style
	RowAlt   lipgloss.Style
	Selected lipgloss.Style
	Border   lipgloss.Style
}

// DefaultStyles returns green phosphor styles for views created without a
// theme.
func DefaultStyles() Styles {
	primary := lipgloss.Color("#00FF00")
	secondary := lipgloss.Color("#00AA00")
	accent := lipgloss.Color("#66FF66")
	return Styles{
		Title:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		Section:  lipgloss.NewStyle().Foreground(primary),
		Label:    lipgloss.NewStyle().Foreground(secondary),
		Value:    lipgloss.NewStyle().Foreground(primary),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#006600")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00")),
		Success:  lipgloss.NewStyle().Foreground(primary),
		Help:     lipgloss.NewStyle().Foreground(secondary),
		Header:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		Row:      lipgloss.NewStyle().Foreground(primary),
		RowAlt:   lipgloss.NewStyle().Foreground(secondary),
		Selected: lipgloss.NewStyle().Background(primary).Foreground(lipgloss.Color("#000000")),
		Border:   lipgloss.NewStyle().Foreground(secondary),
	}
}

// Field renders a "label value" line with the label padded to width.
func (s Styles) Field(label, value string, width int) string {
	return s.Label.Render(PadRight(label, width)) + " " + s.Value.Render(value) + "\n"
}
