package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ColumnSpec sizes a column relative to the others.
type ColumnSpec struct {
	// MinWidth is the smallest width the column is given when visible.
	MinWidth int
	// Weight is the proportional share of the width left after fixed columns.
	Weight float64
	// Fixed overrides Weight when > 0.
	Fixed int
	// Priority orders columns for dropping on narrow terminals; lowest goes first.
	Priority int
}

// CalculateColumnWidths distributes availableWidth among specs. Hidden
// columns get width 0. separator is the width of the gap between columns.
func CalculateColumnWidths(specs []ColumnSpec, availableWidth, separator int) []int {
	widths := make([]int, len(specs))
	visible := make([]bool, len(specs))
	for i := range visible {
		visible[i] = true
	}

	remaining := func() (int, float64) {
		fixed, weight, count := 0, 0.0, 0
		for i, spec := range specs {
			if !visible[i] {
				continue
			}
			count++
			if spec.Fixed > 0 {
				fixed += spec.Fixed
			} else {
				weight += spec.Weight
				fixed += spec.MinWidth
			}
		}
		gaps := 0
		if count > 1 {
			gaps = (count - 1) * separator
		}
		return availableWidth - fixed - gaps - 2, weight
	}

	free, totalWeight := remaining()
	for free < 0 {
		drop := -1
		left := 0
		for i, spec := range specs {
			if !visible[i] {
				continue
			}
			left++
			if drop < 0 || spec.Priority < specs[drop].Priority {
				drop = i
			}
		}
		if left <= 1 {
			break
		}
		visible[drop] = false
		free, totalWeight = remaining()
	}
	if free < 0 {
		free = 0
	}

	for i, spec := range specs {
		switch {
		case !visible[i]:
			widths[i] = 0
		case spec.Fixed > 0:
			widths[i] = spec.Fixed
		case totalWeight > 0:
			widths[i] = spec.MinWidth + int(float64(free)*spec.Weight/totalWeight)
		default:
			widths[i] = spec.MinWidth
		}
	}
	return widths
}

// Truncate shortens s to maxWidth cells, ending in an ellipsis when cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	if maxWidth == 1 {
		return string(runes[:1])
	}
	if len(runes) > maxWidth-1 {
		runes = runes[:maxWidth-1]
	}
	return string(runes) + "…"
}

// PadRight pads s with spaces to width cells.
func PadRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// PadLeft pads s with leading spaces to width cells.
func PadLeft(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}

// ProgressBar renders value/limit as a bar of width cells, colored by how
// full it is.
func ProgressBar(s Styles, value, limit float64, width int) string {
	if limit <= 0 {
		limit = 1
	}
	ratio := min(max(value/limit, 0), 1)

	inner := max(width-2, 4)
	filled := int(ratio * float64(inner))
	bar := "[" + strings.Repeat("█", filled) + strings.Repeat("░", inner-filled) + "]"

	switch {
	case ratio > 0.6:
		return s.Success.Render(bar)
	case ratio > 0.3:
		return s.Warning.Render(bar)
	default:
		return s.Error.Render(bar)
	}
}
