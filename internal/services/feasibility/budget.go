package feasibility

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stratplan/stratplan/internal/models"
)

// BudgetEstimator prices the evaluated demand of a strategy.
type BudgetEstimator interface {
	Estimate(ctx context.Context, strategy *models.Strategy, products []ProductResult) (decimal.Decimal, error)
}

// NoBudget reports zero spend for every run.
type NoBudget struct{}

// Estimate implements BudgetEstimator.
func (NoBudget) Estimate(context.Context, *models.Strategy, []ProductResult) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// remainingBudget is MaxBudget minus used. It may be negative when a custom
// estimator overshoots.
func remainingBudget(strategy *models.Strategy, used decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(strategy.MaxBudget.Sub(used))
}
