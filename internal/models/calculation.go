package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalculationResult is the tri-state outcome of a feasibility calculation.
type CalculationResult string

const (
	CalculationResultSatisfiable   CalculationResult = "satisfiable"
	CalculationResultPartial       CalculationResult = "partial"
	CalculationResultUnsatisfiable CalculationResult = "unsatisfiable"
)

// Valid returns true if the calculation result is valid.
func (r CalculationResult) Valid() bool {
	switch r {
	case CalculationResultSatisfiable, CalculationResultPartial, CalculationResultUnsatisfiable:
		return true
	default:
		return false
	}
}

func (r CalculationResult) String() string {
	return string(r)
}

// StrategyResult maps the outcome onto the strategy's cached result.
func (r CalculationResult) StrategyResult() StrategyResult {
	return StrategyResult(r)
}

// Calculation is an immutable snapshot of one feasibility run.
type Calculation struct {
	ID              string              `json:"id"`
	StrategyID      string              `json:"strategy_id"`
	CalculatedAt    time.Time           `json:"calculated_at"`
	Result          CalculationResult   `json:"result"`
	BudgetUsed      decimal.Decimal     `json:"budget_used"`
	BudgetAvailable decimal.NullDecimal `json:"budget_available"`
	Notes           string              `json:"notes,omitempty"`

	// Joined fields
	Details []*ResourceDetail `json:"details,omitempty"`
}

// ResourceDetail is the per (product, resource) line of a calculation.
// Deficit is present exactly when Satisfiable is false.
type ResourceDetail struct {
	ID             string              `json:"id"`
	CalculationID  string              `json:"calculation_id"`
	ProductID      string              `json:"product_id"`
	ResourceID     string              `json:"resource_id"`
	RequiredTotal  decimal.Decimal     `json:"required_total"`
	AvailableTotal decimal.Decimal     `json:"available_total"`
	Satisfiable    bool                `json:"satisfiable"`
	Deficit        decimal.NullDecimal `json:"deficit"`
	Position       int                 `json:"position"`
}

// CalculationFilter defines filters for querying calculations.
type CalculationFilter struct {
	StrategyID string
	Result     *CalculationResult
}

// CalculationList represents a paginated list of calculations, newest first.
type CalculationList struct {
	Calculations []*Calculation `json:"calculations"`
	Total        int            `json:"total"`
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
}

// CalculationStats summarizes the details of one calculation.
type CalculationStats struct {
	CalculationID       string          `json:"calculation_id"`
	TotalDetails        int             `json:"total_details"`
	SatisfiableCount    int             `json:"satisfiable_count"`
	UnsatisfiableCount  int             `json:"unsatisfiable_count"`
	SatisfactionPercent decimal.Decimal `json:"satisfaction_percent"`
	DistinctResources   int             `json:"distinct_resources"`
	TotalDeficit        decimal.Decimal `json:"total_deficit"`
}

// ComputeStats derives CalculationStats from the calculation's details. The
// percentage is rounded to two decimal places and is zero when there are no
// details.
func ComputeStats(calculationID string, details []*ResourceDetail) CalculationStats {
	stats := CalculationStats{
		CalculationID:       calculationID,
		TotalDetails:        len(details),
		SatisfactionPercent: decimal.Zero,
		TotalDeficit:        decimal.Zero,
	}

	resources := make(map[string]struct{}, len(details))
	for _, d := range details {
		resources[d.ResourceID] = struct{}{}
		if d.Satisfiable {
			stats.SatisfiableCount++
			continue
		}
		stats.UnsatisfiableCount++
		if d.Deficit.Valid {
			stats.TotalDeficit = stats.TotalDeficit.Add(d.Deficit.Decimal)
		}
	}
	stats.DistinctResources = len(resources)

	if stats.TotalDetails > 0 {
		stats.SatisfactionPercent = decimal.NewFromInt(int64(stats.SatisfiableCount)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(stats.TotalDetails))).
			Round(2)
	}

	return stats
}
