package feasibility

import (
	"context"

	"github.com/stratplan/stratplan/internal/models"
)

// ListCalculations returns a strategy's calculations, newest first.
func (s *Service) ListCalculations(ctx context.Context, strategyID string, page models.Pagination) (*models.CalculationList, error) {
	list, err := s.calculations.List(ctx, models.CalculationFilter{StrategyID: strategyID}, page)
	if err != nil {
		return nil, translate("listing calculations for strategy "+strategyID, err)
	}
	return list, nil
}

// ListCalculationsByResult returns calculations of every strategy with the
// given outcome, newest first.
func (s *Service) ListCalculationsByResult(ctx context.Context, result models.CalculationResult, page models.Pagination) (*models.CalculationList, error) {
	if !result.Valid() {
		return nil, invalid("unknown calculation result %q", result)
	}
	list, err := s.calculations.List(ctx, models.CalculationFilter{Result: &result}, page)
	if err != nil {
		return nil, translate("listing "+string(result)+" calculations", err)
	}
	return list, nil
}

// LatestCalculation returns the most recent calculation of a strategy with
// its details. ErrNotFound when the strategy was never calculated.
func (s *Service) LatestCalculation(ctx context.Context, strategyID string) (*models.Calculation, error) {
	latest, err := s.calculations.Latest(ctx, strategyID)
	if err != nil {
		return nil, translate("latest calculation for strategy "+strategyID, err)
	}
	return s.GetCalculation(ctx, latest.ID)
}

// GetCalculation returns one calculation with its details in recorded order.
func (s *Service) GetCalculation(ctx context.Context, id string) (*models.Calculation, error) {
	calc, err := s.calculations.GetWithDetails(ctx, id)
	if err != nil {
		return nil, translate("loading calculation "+id, err)
	}
	return calc, nil
}

// CalculationStats summarizes the details of one calculation.
func (s *Service) CalculationStats(ctx context.Context, id string) (*models.CalculationStats, error) {
	calc, err := s.GetCalculation(ctx, id)
	if err != nil {
		return nil, err
	}
	stats := models.ComputeStats(calc.ID, calc.Details)
	return &stats, nil
}
