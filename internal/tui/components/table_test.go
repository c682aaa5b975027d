package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func testColumns() []Column {
	return []Column{
		{Title: "Code", Spec: ColumnSpec{Fixed: 8, Priority: 10}},
		{Title: "Name", Spec: ColumnSpec{MinWidth: 6, Weight: 2, Priority: 9}},
		{Title: "Required", Spec: ColumnSpec{Fixed: 10, Priority: 5}, Align: lipgloss.Right},
		{Title: "Notes", Spec: ColumnSpec{MinWidth: 6, Weight: 1, Priority: 1}},
	}
}

func testRows(n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{"R" + string(rune('A'+i)), "Resource", "12.5", "note"}
	}
	return rows
}

func TestTable_Navigation(t *testing.T) {
	tbl := NewTable(testColumns())
	tbl.SetVisibleRows(2)
	tbl.SetRows(testRows(4))

	tbl.MoveUp()
	if tbl.Selected() != 0 {
		t.Fatalf("MoveUp at top: selected = %d", tbl.Selected())
	}

	for i := 0; i < 10; i++ {
		tbl.MoveDown()
	}
	if tbl.Selected() != 3 {
		t.Errorf("selected = %d, want 3", tbl.Selected())
	}
	if tbl.offset != 2 {
		t.Errorf("offset = %d, want 2", tbl.offset)
	}

	tbl.GoToTop()
	if tbl.Selected() != 0 || tbl.offset != 0 {
		t.Errorf("GoToTop: selected = %d, offset = %d", tbl.Selected(), tbl.offset)
	}
}

func TestTable_SetRowsClampsSelection(t *testing.T) {
	tbl := NewTable(testColumns())
	tbl.SetRows(testRows(5))
	for i := 0; i < 4; i++ {
		tbl.MoveDown()
	}

	tbl.SetRows(testRows(2))
	if tbl.Selected() != 1 {
		t.Errorf("selected = %d, want 1", tbl.Selected())
	}

	tbl.SetRows(nil)
	if tbl.SelectedRow() != nil {
		t.Error("expected nil row for empty table")
	}
	if !tbl.Empty() {
		t.Error("expected empty table")
	}
}

func TestTable_Widths(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		wantHidden []int
	}{
		{"wide shows all", 80, nil},
		{"narrow drops notes", 40, []int{3}},
		{"very narrow keeps code", 12, []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			widths := NewTable(testColumns()).Widths(tt.width)
			hidden := map[int]bool{}
			for _, i := range tt.wantHidden {
				hidden[i] = true
			}
			for i, w := range widths {
				if hidden[i] && w != 0 {
					t.Errorf("column %d width = %d, want hidden", i, w)
				}
				if !hidden[i] && w == 0 {
					t.Errorf("column %d hidden, want visible", i)
				}
			}
		})
	}
}

func TestTable_Render(t *testing.T) {
	tbl := NewTable(testColumns())
	tbl.SetRows(testRows(3))
	tbl.SetPagination(1, 2, 30)

	out := tbl.Render(80)
	for _, want := range []string{"Code", "Name", "Required", "RA", "RC", "Page 1/2 | 30 total"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "      12.5") {
		t.Errorf("expected right-aligned quantity:\n%s", out)
	}

	narrow := tbl.Render(40)
	if strings.Contains(narrow, "Notes") {
		t.Errorf("narrow render should drop Notes:\n%s", narrow)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"flour", 10, "flour"},
		{"wheat flour", 6, "wheat…"},
		{"flour", 1, "f"},
		{"flour", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestPadding(t *testing.T) {
	if got := PadRight("ab", 4); got != "ab  " {
		t.Errorf("PadRight = %q", got)
	}
	if got := PadLeft("ab", 4); got != "  ab" {
		t.Errorf("PadLeft = %q", got)
	}
	if got := PadLeft("abcdef", 4); got != "abcdef" {
		t.Errorf("PadLeft overflow = %q", got)
	}
}

func TestProgressBar(t *testing.T) {
	s := DefaultStyles()
	tests := []struct {
		value, limit float64
		filled       int
	}{
		{0, 100, 0},
		{50, 100, 5},
		{100, 100, 10},
		{150, 100, 10},
		{5, 0, 10},
	}
	for _, tt := range tests {
		bar := ProgressBar(s, tt.value, tt.limit, 12)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("ProgressBar(%v, %v) filled = %d, want %d: %s", tt.value, tt.limit, got, tt.filled, bar)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != 10 {
			t.Errorf("ProgressBar(%v, %v) inner width = %d, want 10", tt.value, tt.limit, got)
		}
	}
}
