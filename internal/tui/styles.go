// Package tui provides the terminal user interface for stratplan.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stratplan/stratplan/internal/config"
	"github.com/stratplan/stratplan/internal/tui/components"
)

// Theme contains all style definitions for the TUI.
type Theme struct {
	PrimaryColor    lipgloss.Color
	SecondaryColor  lipgloss.Color
	AccentColor     lipgloss.Color
	BackgroundColor lipgloss.Color
	MutedColor      lipgloss.Color
	ErrorColor      lipgloss.Color
	WarningColor    lipgloss.Color
	SuccessColor    lipgloss.Color

	Base      lipgloss.Style
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Accent    lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Success   lipgloss.Style
	Muted     lipgloss.Style

	Header    lipgloss.Style
	Footer    lipgloss.Style
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Box       lipgloss.Style
	Selected  lipgloss.Style
	Alert     lipgloss.Style
	AlertWarn lipgloss.Style
	AlertCrit lipgloss.Style

	TableHeader lipgloss.Style
	TableRow    lipgloss.Style
	TableRowAlt lipgloss.Style

	StatusDivider lipgloss.Style
}

// NewTheme creates a theme for the configured color scheme.
func NewTheme(scheme config.ColorScheme) *Theme {
	switch scheme {
	case config.ColorSchemeAmber:
		return buildTheme(palette{
			primary: "#FFAA00", secondary: "#AA7700", accent: "#FFCC66", muted: "#664400",
			err: "#FF4444", warning: "#FFFF00", success: "#FFAA00",
		})
	case config.ColorSchemeWhite:
		return buildTheme(palette{
			primary: "#FFFFFF", secondary: "#AAAAAA", accent: "#FFFFFF", muted: "#666666",
			err: "#FF4444", warning: "#FFAA00", success: "#00FF00",
		})
	default:
		return buildTheme(palette{
			primary: "#00FF00", secondary: "#00AA00", accent: "#66FF66", muted: "#006600",
			err: "#FF4444", warning: "#FFAA00", success: "#00FF00",
		})
	}
}

type palette struct {
	primary, secondary, accent, muted lipgloss.Color
	err, warning, success             lipgloss.Color
}

func buildTheme(p palette) *Theme {
	background := lipgloss.Color("#000000")
	t := &Theme{
		PrimaryColor:    p.primary,
		SecondaryColor:  p.secondary,
		AccentColor:     p.accent,
		BackgroundColor: background,
		MutedColor:      p.muted,
		ErrorColor:      p.err,
		WarningColor:    p.warning,
		SuccessColor:    p.success,
	}

	t.Base = lipgloss.NewStyle().Foreground(p.primary)
	t.Primary = lipgloss.NewStyle().Foreground(p.primary)
	t.Secondary = lipgloss.NewStyle().Foreground(p.secondary)
	t.Accent = lipgloss.NewStyle().Foreground(p.accent)
	t.Error = lipgloss.NewStyle().Foreground(p.err)
	t.Warning = lipgloss.NewStyle().Foreground(p.warning)
	t.Success = lipgloss.NewStyle().Foreground(p.success)
	t.Muted = lipgloss.NewStyle().Foreground(p.muted)

	t.Header = lipgloss.NewStyle().
		Foreground(p.primary).
		Bold(true).
		Padding(0, 1)

	t.Footer = lipgloss.NewStyle().
		Foreground(p.secondary).
		Padding(0, 1)

	t.Title = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(p.primary).
		Bold(true)

	t.Label = lipgloss.NewStyle().Foreground(p.secondary)
	t.Value = lipgloss.NewStyle().Foreground(p.primary)

	t.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.secondary).
		Padding(0, 1)

	t.Selected = lipgloss.NewStyle().
		Foreground(background).
		Background(p.primary).
		Bold(true)

	t.Alert = lipgloss.NewStyle().Foreground(p.primary).Bold(true)
	t.AlertWarn = lipgloss.NewStyle().Foreground(p.warning).Bold(true)
	t.AlertCrit = lipgloss.NewStyle().Foreground(p.err).Bold(true)

	t.TableHeader = lipgloss.NewStyle().Foreground(p.accent).Bold(true)
	t.TableRow = lipgloss.NewStyle().Foreground(p.primary)
	t.TableRowAlt = lipgloss.NewStyle().Foreground(p.secondary)

	t.StatusDivider = lipgloss.NewStyle().
		Foreground(p.muted).
		SetString(" │ ")

	return t
}

// Components returns the styles handed to views and tables.
func (t *Theme) Components() components.Styles {
	return components.Styles{
		Title:    t.Title,
		Section:  t.Subtitle,
		Label:    t.Label,
		Value:    t.Value,
		Muted:    t.Muted,
		Error:    t.Error,
		Warning:  t.Warning,
		Success:  t.Success,
		Help:     t.Label,
		Header:   t.TableHeader,
		Row:      t.TableRow,
		RowAlt:   t.TableRowAlt,
		Selected: t.Selected,
		Border:   t.Secondary,
	}
}

// DrawHorizontalLine draws a single rule.
func (t *Theme) DrawHorizontalLine(width int) string {
	return t.Secondary.Render(strings.Repeat("─", max(width, 0)))
}

// DrawDoubleLine draws a double rule.
func (t *Theme) DrawDoubleLine(width int) string {
	return t.Primary.Render(strings.Repeat("═", max(width, 0)))
}
