// Package calculations provides the TUI feasibility report and calculation
// history views.
package calculations

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/services/feasibility"
	"github.com/stratplan/stratplan/internal/tui/components"
	"github.com/stratplan/stratplan/internal/util"
)

const (
	labelWidth      = 14
	timestampLayout = "2006-01-02 15:04:05"
)

// ReportView shows the outcome of the latest calculation run from the TUI.
type ReportView struct {
	result   *feasibility.Result
	styles   components.Styles
	showLots bool
	offset   int
}

// NewReportView creates an empty report.
func NewReportView() *ReportView {
	return &ReportView{styles: components.DefaultStyles()}
}

// SetStyles applies theme styles.
func (v *ReportView) SetStyles(s components.Styles) {
	v.styles = s
}

// SetResult replaces the report and scrolls to the top.
func (v *ReportView) SetResult(r *feasibility.Result) {
	v.result = r
	v.offset = 0
}

// Result returns the displayed result, or nil.
func (v *ReportView) Result() *feasibility.Result {
	return v.result
}

// ToggleLots shows or hides the contributing lots under each resource.
func (v *ReportView) ToggleLots() {
	v.showLots = !v.showLots
}

// ScrollUp scrolls one line up.
func (v *ReportView) ScrollUp() {
	if v.offset > 0 {
		v.offset--
	}
}

// ScrollDown scrolls one line down.
func (v *ReportView) ScrollDown() {
	v.offset++
}

// ScrollTop returns to the first line.
func (v *ReportView) ScrollTop() {
	v.offset = 0
}

// ResultStyle colors a calculation result.
func ResultStyle(s components.Styles, r models.CalculationResult) lipgloss.Style {
	switch r {
	case models.CalculationResultSatisfiable:
		return s.Success
	case models.CalculationResultPartial:
		return s.Warning
	default:
		return s.Error
	}
}

// Render renders at most height lines of the report.
func (v *ReportView) Render(width, height int) string {
	if v.result == nil {
		return v.styles.Title.Render("=== FEASIBILITY REPORT ===") + "\n\n" +
			v.styles.Label.Render("No calculation yet. Select a strategy and press c.")
	}

	lines := strings.Split(strings.TrimRight(v.body(width), "\n"), "\n")
	if height < 1 {
		height = 1
	}
	if maxOffset := max(len(lines)-height, 0); v.offset > maxOffset {
		v.offset = maxOffset
	}
	end := min(v.offset+height, len(lines))

	return strings.Join(lines[v.offset:end], "\n") + "\n" +
		v.styles.Help.Render("Up/Down:Scroll  g:Top  l:Lots  h:History  Esc:Back")
}

func (v *ReportView) body(width int) string {
	r := v.result
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("=== FEASIBILITY REPORT ==="))
	b.WriteString("\n\n")

	b.WriteString(v.styles.Field("Strategy:", r.StrategyName, labelWidth))
	b.WriteString(v.styles.Label.Render(components.PadRight("Result:", labelWidth)) + " " +
		ResultStyle(v.styles, r.Result).Render(strings.ToUpper(string(r.Result))) + "\n")
	b.WriteString(v.styles.Field("Calculated:", r.CalculatedAt.Format(timestampLayout), labelWidth))
	b.WriteString(v.styles.Field("Calculation:", r.CalculationID, labelWidth))
	b.WriteString(v.styles.Field("Budget used:", r.BudgetUsed.StringFixed(2), labelWidth))
	available := "-"
	if r.BudgetAvailable.Valid {
		available = r.BudgetAvailable.Decimal.StringFixed(2)
	}
	b.WriteString(v.styles.Field("Remaining:", available, labelWidth))
	if r.Notes != "" {
		b.WriteString(v.styles.Field("Notes:", r.Notes, labelWidth))
	}

	if len(r.Products) == 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Strategy has no demand lines."))
		b.WriteString("\n")
		return b.String()
	}

	for _, p := range r.Products {
		b.WriteString("\n")
		b.WriteString(v.productHeading(p))
		b.WriteString("\n")
		if len(p.Resources) == 0 {
			b.WriteString(v.styles.Muted.Render("  No consumed resources."))
			b.WriteString("\n")
			continue
		}
		b.WriteString(v.resourceTable(p).Render(width))
		if v.showLots {
			b.WriteString(v.lots(p))
		}
	}
	return b.String()
}

func (v *ReportView) productHeading(p feasibility.ProductResult) string {
	mark := v.styles.Success.Render("[OK]")
	if !p.Satisfiable {
		mark = v.styles.Error.Render("[SHORT]")
	}
	return fmt.Sprintf("%s %s %s",
		mark,
		v.styles.Section.Render(p.Code+" "+p.Name),
		v.styles.Label.Render("x "+p.Quantity.String()+" "+p.Unit),
	)
}

func (v *ReportView) resourceTable(p feasibility.ProductResult) *components.Table {
	t := components.NewTable([]components.Column{
		{Title: "Resource", Spec: components.ColumnSpec{MinWidth: 10, Weight: 2, Priority: 10}},
		{Title: "Per Unit", Spec: components.ColumnSpec{Fixed: 9, Priority: 3}, Align: lipgloss.Right},
		{Title: "Required", Spec: components.ColumnSpec{Fixed: 11, Priority: 8}, Align: lipgloss.Right},
		{Title: "Available", Spec: components.ColumnSpec{Fixed: 11, Priority: 7}, Align: lipgloss.Right},
		{Title: "Deficit", Spec: components.ColumnSpec{Fixed: 11, Priority: 6}, Align: lipgloss.Right},
		{Title: "Unit", Spec: components.ColumnSpec{Fixed: 5, Priority: 2}},
	})
	t.SetStyles(v.styles)
	t.SetVisibleRows(len(p.Resources))

	rows := make([][]string, len(p.Resources))
	for i, res := range p.Resources {
		deficit := "-"
		if res.Deficit.Valid {
			deficit = res.Deficit.Decimal.String()
		}
		rows[i] = []string{
			res.Code + " " + res.Name,
			res.PerUnit.String(),
			res.Required.String(),
			res.Available.String(),
			deficit,
			res.Unit,
		}
	}
	t.SetRows(rows)
	return t
}

func (v *ReportView) lots(p feasibility.ProductResult) string {
	var b strings.Builder
	for _, res := range p.Resources {
		b.WriteString(v.styles.Label.Render("  " + res.Code + " lots:"))
		b.WriteString("\n")
		if len(res.Lots) == 0 {
			b.WriteString(v.styles.Muted.Render("    none"))
			b.WriteString("\n")
			continue
		}
		for _, lot := range res.Lots {
			line := fmt.Sprintf("    %-14s %-16s %-9s %10s %s  exp %s",
				lot.LotNumber, lot.WarehouseName, lot.WarehouseType,
				lot.Quantity.String(), lot.Unit, util.FormatDate(lot.ExpiresAt))
			if lot.Expired {
				b.WriteString(v.styles.Warning.Render(line + "  EXPIRED"))
			} else {
				b.WriteString(v.styles.Value.Render(line))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
