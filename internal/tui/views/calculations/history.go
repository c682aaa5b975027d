package calculations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/tui/components"
	"github.com/stratplan/stratplan/internal/util"
)

// History reads recorded calculations.
type History interface {
	ListCalculations(ctx context.Context, strategyID string, page models.Pagination) (*models.CalculationList, error)
	GetCalculation(ctx context.Context, id string) (*models.Calculation, error)
	CalculationStats(ctx context.Context, id string) (*models.CalculationStats, error)
}

// HistoryView lists the calculations of one strategy, newest first, and
// shows the recorded resource details of a selected one.
type HistoryView struct {
	history      History
	table        *components.Table
	styles       components.Styles
	strategy     *models.Strategy
	calculations []*models.Calculation
	page         models.Pagination
	totalPages   int
	err          error
	now          time.Time

	detail *models.Calculation
	stats  *models.CalculationStats
}

// NewHistoryView creates a history view.
func NewHistoryView(history History) *HistoryView {
	table := components.NewTable([]components.Column{
		{Title: "Calculated", Spec: components.ColumnSpec{Fixed: 19, Priority: 10}},
		{Title: "Result", Spec: components.ColumnSpec{Fixed: 14, Priority: 9}},
		{Title: "Budget Used", Spec: components.ColumnSpec{Fixed: 12, Priority: 4}, Align: lipgloss.Right},
		{Title: "Age", Spec: components.ColumnSpec{Fixed: 14, Priority: 3}},
		{Title: "Notes", Spec: components.ColumnSpec{MinWidth: 10, Weight: 1, Priority: 1}},
	})
	table.SetVisibleRows(15)
	table.Focus(true)

	return &HistoryView{
		history: history,
		table:   table,
		styles:  components.DefaultStyles(),
		page:    models.NewPagination(1, 15),
		now:     time.Now(),
	}
}

// SetStyles applies theme styles.
func (v *HistoryView) SetStyles(s components.Styles) {
	v.styles = s
	v.table.SetStyles(s)
}

// SetNow sets the reference time for ages.
func (v *HistoryView) SetNow(t time.Time) {
	v.now = t
}

// SetStrategy switches the view to s and resets paging.
func (v *HistoryView) SetStrategy(s *models.Strategy) {
	if v.strategy == nil || s == nil || v.strategy.ID != s.ID {
		v.page.Page = 1
		v.table.GoToTop()
	}
	v.strategy = s
	v.detail = nil
	v.stats = nil
}

// Strategy returns the strategy shown, or nil.
func (v *HistoryView) Strategy() *models.Strategy {
	return v.strategy
}

// Load fetches the current page of calculations.
func (v *HistoryView) Load(ctx context.Context) error {
	v.err = nil
	if v.strategy == nil {
		v.calculations = nil
		v.table.SetRows(nil)
		v.table.SetPagination(0, 0, 0)
		return nil
	}

	list, err := v.history.ListCalculations(ctx, v.strategy.ID, v.page)
	if err != nil {
		v.err = err
		return err
	}

	v.calculations = list.Calculations
	v.totalPages = list.TotalPages
	rows := make([][]string, len(list.Calculations))
	for i, c := range list.Calculations {
		rows[i] = []string{
			c.CalculatedAt.Format(timestampLayout),
			strings.ToUpper(string(c.Result)),
			c.BudgetUsed.StringFixed(2),
			util.RelativeTimeString(c.CalculatedAt, v.now),
			c.Notes,
		}
	}
	v.table.SetRows(rows)
	v.table.SetPagination(list.Page, list.TotalPages, list.Total)
	return nil
}

// LoadDetail fetches the selected calculation with its details and stats.
func (v *HistoryView) LoadDetail(ctx context.Context) error {
	selected := v.Selected()
	if selected == nil {
		return nil
	}
	calc, err := v.history.GetCalculation(ctx, selected.ID)
	if err != nil {
		v.err = err
		return err
	}
	stats, err := v.history.CalculationStats(ctx, selected.ID)
	if err != nil {
		v.err = err
		return err
	}
	v.detail = calc
	v.stats = stats
	return nil
}

// ShowingDetail reports whether a calculation detail is open.
func (v *HistoryView) ShowingDetail() bool {
	return v.detail != nil
}

// CloseDetail returns to the list.
func (v *HistoryView) CloseDetail() {
	v.detail = nil
	v.stats = nil
}

// NextPage moves to the next page, staying on the last one.
func (v *HistoryView) NextPage() {
	if v.page.Page < v.totalPages {
		v.page.Page++
	}
}

// PrevPage moves to the previous page.
func (v *HistoryView) PrevPage() {
	if v.page.Page > 1 {
		v.page.Page--
	}
}

// MoveUp moves the selection up.
func (v *HistoryView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *HistoryView) MoveDown() {
	v.table.MoveDown()
}

// Selected returns the selected calculation.
func (v *HistoryView) Selected() *models.Calculation {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.calculations) {
		return v.calculations[idx]
	}
	return nil
}

// Render renders the list or the open detail.
func (v *HistoryView) Render(width int) string {
	if v.detail != nil {
		return v.renderDetail(width)
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("=== CALCULATION HISTORY ==="))
	b.WriteString("\n\n")

	if v.strategy == nil {
		b.WriteString(v.styles.Label.Render("Select a strategy and press h."))
		return b.String()
	}

	b.WriteString(v.styles.Field("Strategy:", v.strategy.Name, labelWidth))
	b.WriteString("\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	case v.table.Empty():
		b.WriteString(v.styles.Label.Render("No calculations recorded."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.Render(width))
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("Up/Down:Select  Enter:Details  PgUp/Dn:Page  Esc:Back"))
	return b.String()
}

func (v *HistoryView) renderDetail(width int) string {
	c := v.detail
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("=== CALCULATION DETAIL ==="))
	b.WriteString("\n\n")

	b.WriteString(v.styles.Field("Calculation:", c.ID, labelWidth))
	b.WriteString(v.styles.Label.Render(components.PadRight("Result:", labelWidth)) + " " +
		ResultStyle(v.styles, c.Result).Render(strings.ToUpper(string(c.Result))) + "\n")
	b.WriteString(v.styles.Field("Calculated:", c.CalculatedAt.Format(timestampLayout), labelWidth))
	if c.Notes != "" {
		b.WriteString(v.styles.Field("Notes:", c.Notes, labelWidth))
	}

	if s := v.stats; s != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Section.Render("STATISTICS"))
		b.WriteString("\n")
		b.WriteString(v.styles.Field("Details:", fmt.Sprintf("%d (%d satisfiable, %d short)",
			s.TotalDetails, s.SatisfiableCount, s.UnsatisfiableCount), labelWidth))
		pct, _ := s.SatisfactionPercent.Float64()
		b.WriteString(v.styles.Label.Render(components.PadRight("Satisfaction:", labelWidth)) + " " +
			components.ProgressBar(v.styles, pct, 100, 22) + " " +
			v.styles.Value.Render(s.SatisfactionPercent.StringFixed(2)+"%") + "\n")
		b.WriteString(v.styles.Field("Resources:", fmt.Sprint(s.DistinctResources), labelWidth))
		b.WriteString(v.styles.Field("Total deficit:", s.TotalDeficit.String(), labelWidth))
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Section.Render("RESOURCE DETAILS"))
	b.WriteString("\n")

	t := components.NewTable([]components.Column{
		{Title: "Product", Spec: components.ColumnSpec{MinWidth: 8, Weight: 1, Priority: 9}},
		{Title: "Resource", Spec: components.ColumnSpec{MinWidth: 8, Weight: 1, Priority: 10}},
		{Title: "Required", Spec: components.ColumnSpec{Fixed: 11, Priority: 8}, Align: lipgloss.Right},
		{Title: "Available", Spec: components.ColumnSpec{Fixed: 11, Priority: 7}, Align: lipgloss.Right},
		{Title: "Deficit", Spec: components.ColumnSpec{Fixed: 11, Priority: 6}, Align: lipgloss.Right},
	})
	t.SetStyles(v.styles)
	t.SetVisibleRows(len(c.Details))
	rows := make([][]string, len(c.Details))
	for i, d := range c.Details {
		deficit := "-"
		if d.Deficit.Valid {
			deficit = d.Deficit.Decimal.String()
		}
		rows[i] = []string{d.ProductID, d.ResourceID, d.RequiredTotal.String(), d.AvailableTotal.String(), deficit}
	}
	t.SetRows(rows)
	if t.Empty() {
		b.WriteString(v.styles.Muted.Render("No details recorded."))
		b.WriteString("\n")
	} else {
		b.WriteString(t.Render(width))
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("Esc:Back"))
	return b.String()
}
