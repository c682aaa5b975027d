// Package lots provides the TUI lot expiry view.
package lots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/services/inventory"
	"github.com/stratplan/stratplan/internal/tui/components"
	"github.com/stratplan/stratplan/internal/util"
)

// Horizons are the look-ahead windows the view cycles through, in days.
var Horizons = []int{7, 30, 90}

// Reporter builds expiry reports.
type Reporter interface {
	ExpiryReport(ctx context.Context, days int) (*inventory.ExpiryReport, error)
}

// ExpiryView lists expired lots and lots expiring within the selected
// horizon, then lots past or near the end of their validity. Both dates are
// informational; they do not affect calculations.
type ExpiryView struct {
	reporter Reporter
	table    *components.Table
	styles   components.Styles
	horizon  int
	report   *inventory.ExpiryReport
	err      error
}

// NewExpiryView creates an expiry view on the 30-day horizon.
func NewExpiryView(reporter Reporter) *ExpiryView {
	table := components.NewTable([]components.Column{
		{Title: "State", Spec: components.ColumnSpec{Fixed: 8, Priority: 10}},
		{Title: "Lot", Spec: components.ColumnSpec{MinWidth: 10, Weight: 1, Priority: 9}},
		{Title: "Warehouse", Spec: components.ColumnSpec{MinWidth: 10, Weight: 1, Priority: 5}},
		{Title: "Date", Spec: components.ColumnSpec{Fixed: 10, Priority: 8}},
		{Title: "Days", Spec: components.ColumnSpec{Fixed: 5, Priority: 6}, Align: lipgloss.Right},
		{Title: "Quantity", Spec: components.ColumnSpec{Fixed: 11, Priority: 7}, Align: lipgloss.Right},
		{Title: "Status", Spec: components.ColumnSpec{Fixed: 10, Priority: 2}},
	})
	table.SetVisibleRows(20)
	table.Focus(true)

	return &ExpiryView{
		reporter: reporter,
		table:    table,
		styles:   components.DefaultStyles(),
		horizon:  1,
	}
}

// SetStyles applies theme styles.
func (v *ExpiryView) SetStyles(s components.Styles) {
	v.styles = s
	v.table.SetStyles(s)
}

// Days returns the current horizon.
func (v *ExpiryView) Days() int {
	return Horizons[v.horizon]
}

// CycleHorizon advances to the next horizon.
func (v *ExpiryView) CycleHorizon() {
	v.horizon = (v.horizon + 1) % len(Horizons)
}

// Load fetches the report for the current horizon.
func (v *ExpiryView) Load(ctx context.Context) error {
	v.err = nil
	report, err := v.reporter.ExpiryReport(ctx, v.Days())
	if err != nil {
		v.err = err
		return err
	}
	v.report = report

	var rows [][]string
	for _, lot := range report.Expired {
		rows = append(rows, v.row("EXPIRED", lot, lot.ExpiresAt))
	}
	for _, lot := range report.Expiring {
		rows = append(rows, v.row("SOON", lot, lot.ExpiresAt))
	}
	for _, lot := range report.ValidityLapsed {
		rows = append(rows, v.row("LAPSED", lot, lot.ValidUntil))
	}
	for _, lot := range report.ValidityEnding {
		rows = append(rows, v.row("ENDING", lot, lot.ValidUntil))
	}
	v.table.SetRows(rows)
	return nil
}

func (v *ExpiryView) row(state string, lot *models.InventoryLot, date *time.Time) []string {
	warehouse := lot.WarehouseID
	if lot.Warehouse != nil {
		warehouse = lot.Warehouse.Name
	}
	days := "-"
	if date != nil {
		days = fmt.Sprint(util.DaysUntil(v.report.AsOf, *date))
	}
	return []string{
		state,
		lot.LotNumber,
		warehouse,
		util.FormatDate(date),
		days,
		lot.Quantity.String(),
		string(lot.Status),
	}
}

// MoveUp moves the selection up.
func (v *ExpiryView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *ExpiryView) MoveDown() {
	v.table.MoveDown()
}

// Render renders the view.
func (v *ExpiryView) Render(width int) string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("=== LOT EXPIRY ==="))
	b.WriteString("\n\n")

	b.WriteString(v.styles.Label.Render("Horizon: "))
	b.WriteString(v.styles.Value.Render(fmt.Sprintf("%d days", v.Days())))
	if v.report != nil {
		b.WriteString(v.styles.Label.Render("   As of: "))
		b.WriteString(v.styles.Value.Render(v.report.AsOf.Format(util.DateFormat)))
		b.WriteString(v.styles.Label.Render("   Expired: "))
		b.WriteString(v.styles.Error.Render(fmt.Sprint(len(v.report.Expired))))
		b.WriteString(v.styles.Label.Render("   Expiring: "))
		b.WriteString(v.styles.Warning.Render(fmt.Sprint(len(v.report.Expiring))))
		b.WriteString(v.styles.Label.Render("   Lapsed: "))
		b.WriteString(v.styles.Error.Render(fmt.Sprint(len(v.report.ValidityLapsed))))
		b.WriteString(v.styles.Label.Render("   Ending: "))
		b.WriteString(v.styles.Warning.Render(fmt.Sprint(len(v.report.ValidityEnding))))
	}
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	case v.table.Empty():
		b.WriteString(v.styles.Label.Render("No lots past or near their expiry or validity dates."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.Render(width))
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("Up/Down:Select  d:Horizon  Expired lots still count towards availability"))
	return b.String()
}
