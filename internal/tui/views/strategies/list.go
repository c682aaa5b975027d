// Package strategies provides the TUI strategy list.
package strategies

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/tui/components"
	"github.com/stratplan/stratplan/internal/util"
)

// Lister reads pages of strategies.
type Lister interface {
	List(ctx context.Context, filter models.StrategyFilter, page models.Pagination) (*models.StrategyList, error)
}

// ListView displays strategies with their cached result.
type ListView struct {
	lister     Lister
	table      *components.Table
	styles     components.Styles
	strategies []*models.Strategy
	page       models.Pagination
	totalPages int
	search     string
	err        error
	now        time.Time
}

// NewListView creates a strategy list.
func NewListView(lister Lister) *ListView {
	table := components.NewTable([]components.Column{
		{Title: "Name", Spec: components.ColumnSpec{MinWidth: 12, Weight: 3, Priority: 10}},
		{Title: "Status", Spec: components.ColumnSpec{Fixed: 8, Priority: 4}},
		{Title: "Result", Spec: components.ColumnSpec{Fixed: 14, Priority: 9}},
		{Title: "Max Budget", Spec: components.ColumnSpec{Fixed: 12, Priority: 5}, Align: lipgloss.Right},
		{Title: "Updated", Spec: components.ColumnSpec{MinWidth: 10, Weight: 1, Priority: 2}},
	})
	table.SetVisibleRows(20)
	table.Focus(true)

	return &ListView{
		lister: lister,
		table:  table,
		styles: components.DefaultStyles(),
		page:   models.NewPagination(1, 20),
		now:    time.Now(),
	}
}

// SetStyles applies theme styles.
func (v *ListView) SetStyles(s components.Styles) {
	v.styles = s
	v.table.SetStyles(s)
}

// SetNow sets the reference time for relative timestamps.
func (v *ListView) SetNow(t time.Time) {
	v.now = t
}

// SetSearch filters by name and returns to the first page.
func (v *ListView) SetSearch(s string) {
	v.search = s
	v.page.Page = 1
}

// Search returns the active name filter.
func (v *ListView) Search() string {
	return v.search
}

// Load fetches the current page.
func (v *ListView) Load(ctx context.Context) error {
	v.err = nil
	list, err := v.lister.List(ctx, models.StrategyFilter{Search: v.search}, v.page)
	if err != nil {
		v.err = err
		return err
	}

	v.strategies = list.Strategies
	v.totalPages = list.TotalPages
	rows := make([][]string, len(list.Strategies))
	for i, s := range list.Strategies {
		rows[i] = []string{
			s.Name,
			string(s.Status),
			strings.ToUpper(string(s.Result)),
			s.MaxBudget.StringFixed(2),
			util.RelativeTimeString(s.UpdatedAt, v.now),
		}
	}
	v.table.SetRows(rows)
	v.table.SetPagination(list.Page, list.TotalPages, list.Total)
	return nil
}

// NextPage moves to the next page, staying on the last one.
func (v *ListView) NextPage() {
	if v.page.Page < v.totalPages {
		v.page.Page++
	}
}

// PrevPage moves to the previous page.
func (v *ListView) PrevPage() {
	if v.page.Page > 1 {
		v.page.Page--
	}
}

// MoveUp moves the selection up.
func (v *ListView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *ListView) MoveDown() {
	v.table.MoveDown()
}

// Selected returns the selected strategy.
func (v *ListView) Selected() *models.Strategy {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.strategies) {
		return v.strategies[idx]
	}
	return nil
}

// Render renders the list. policy describes the policy calculations will
// run with.
func (v *ListView) Render(width int, policy string) string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("=== STRATEGIES ==="))
	b.WriteString("\n\n")

	b.WriteString(v.styles.Label.Render("Policy: "))
	b.WriteString(v.styles.Value.Render(policy))
	b.WriteString("\n")
	if v.search != "" {
		b.WriteString(v.styles.Label.Render("Search: "))
		b.WriteString(v.styles.Value.Render(v.search))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	case v.table.Empty():
		b.WriteString(v.styles.Label.Render("No strategies found."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.Render(width))
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("Up/Down:Select  c/Enter:Calculate  x:Policy  h:History  /:Search  PgUp/Dn:Page"))
	return b.String()
}

