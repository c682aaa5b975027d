package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column.
type Column struct {
	Title string
	Spec  ColumnSpec
	Align lipgloss.Position
}

const columnGap = " | "

// Table is a scrolling, selectable table whose column widths follow the
// render width.
type Table struct {
	columns     []Column
	rows        [][]string
	selected    int
	offset      int
	visibleRows int
	focused     bool
	styles      Styles

	currentPage int
	totalPages  int
	totalRows   int
}

// NewTable creates a table with the given columns.
func NewTable(columns []Column) *Table {
	return &Table{
		columns:     columns,
		visibleRows: 10,
		styles:      DefaultStyles(),
	}
}

// SetRows replaces the table data and clamps the selection.
func (t *Table) SetRows(rows [][]string) {
	t.rows = rows
	if t.selected >= len(rows) {
		t.selected = len(rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	if t.offset > t.selected {
		t.offset = t.selected
	}
}

// SetPagination sets the footer page info. totalPages of zero hides it.
func (t *Table) SetPagination(page, totalPages, totalRows int) {
	t.currentPage = page
	t.totalPages = totalPages
	t.totalRows = totalRows
}

// SetVisibleRows sets the number of rows rendered at once.
func (t *Table) SetVisibleRows(n int) {
	if n < 1 {
		n = 1
	}
	t.visibleRows = n
}

// SetStyles applies theme styles.
func (t *Table) SetStyles(s Styles) {
	t.styles = s
}

// Focus sets whether the selection is highlighted.
func (t *Table) Focus(focused bool) {
	t.focused = focused
}

// Selected returns the selected row index.
func (t *Table) Selected() int {
	return t.selected
}

// SelectedRow returns the selected row, or nil for an empty table.
func (t *Table) SelectedRow() []string {
	if t.selected >= 0 && t.selected < len(t.rows) {
		return t.rows[t.selected]
	}
	return nil
}

// MoveUp moves the selection up one row.
func (t *Table) MoveUp() {
	if t.selected > 0 {
		t.selected--
		if t.selected < t.offset {
			t.offset = t.selected
		}
	}
}

// MoveDown moves the selection down one row.
func (t *Table) MoveDown() {
	if t.selected < len(t.rows)-1 {
		t.selected++
		if t.selected >= t.offset+t.visibleRows {
			t.offset = t.selected - t.visibleRows + 1
		}
	}
}

// GoToTop selects the first row.
func (t *Table) GoToTop() {
	t.selected = 0
	t.offset = 0
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// Widths returns the column widths for a render width.
func (t *Table) Widths(width int) []int {
	specs := make([]ColumnSpec, len(t.columns))
	for i, c := range t.columns {
		specs[i] = c.Spec
	}
	return CalculateColumnWidths(specs, width, lipgloss.Width(columnGap))
}

// Render renders the table into width cells.
func (t *Table) Render(width int) string {
	widths := t.Widths(width)

	lineWidth := 0
	for _, w := range widths {
		if w > 0 {
			lineWidth += w + lipgloss.Width(columnGap)
		}
	}
	rule := t.styles.Border.Render(strings.Repeat("─", lineWidth))

	var b strings.Builder
	headers := make([]string, len(t.columns))
	for i, c := range t.columns {
		headers[i] = c.Title
	}
	b.WriteString(t.renderRow(headers, widths, t.styles.Header))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")

	end := t.offset + t.visibleRows
	if end > len(t.rows) {
		end = len(t.rows)
	}
	for i := t.offset; i < end; i++ {
		style := t.styles.Row
		switch {
		case i == t.selected && t.focused:
			style = t.styles.Selected
		case (i-t.offset)%2 == 1:
			style = t.styles.RowAlt
		}
		b.WriteString(t.renderRow(t.rows[i], widths, style))
		b.WriteString("\n")
	}

	if t.totalPages > 0 {
		b.WriteString(rule)
		b.WriteString("\n")
		b.WriteString(t.styles.Border.Render(fmt.Sprintf("Page %d/%d | %d total", t.currentPage, t.totalPages, t.totalRows)))
	}

	return b.String()
}

func (t *Table) renderRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, col := range t.columns {
		w := widths[i]
		if w == 0 {
			continue
		}
		cell := ""
		if i < len(cells) {
			cell = Truncate(cells[i], w)
		}
		switch col.Align {
		case lipgloss.Right:
			cell = PadLeft(cell, w)
		case lipgloss.Center:
			pad := w - lipgloss.Width(cell)
			cell = strings.Repeat(" ", pad/2) + cell + strings.Repeat(" ", pad-pad/2)
		default:
			cell = PadRight(cell, w)
		}
		parts = append(parts, style.Render(cell))
	}
	return " " + strings.Join(parts, columnGap) + " "
}
