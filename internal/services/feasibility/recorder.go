package feasibility

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratplan/stratplan/internal/models"
)

// RecordInput is the outcome of an evaluation, ready to be persisted.
type RecordInput struct {
	StrategyID      string
	Result          models.CalculationResult
	BudgetUsed      decimal.Decimal
	BudgetAvailable decimal.NullDecimal
	Notes           string
	CalculatedAt    time.Time

	// Details are written in slice order. ID, CalculationID and Position
	// are assigned by the recorder.
	Details []*models.ResourceDetail
}

// Recorder persists a calculation snapshot and the strategy's cached result
// as one unit of work.
type Recorder struct {
	tx           TxRunner
	calculations CalculationWriter
	strategies   StrategyResultWriter
	ids          IDGenerator
	logger       *slog.Logger
}

// NewRecorder creates a Recorder. A nil logger uses slog.Default.
func NewRecorder(tx TxRunner, calculations CalculationWriter, strategies StrategyResultWriter, ids IDGenerator, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		tx:           tx,
		calculations: calculations,
		strategies:   strategies,
		ids:          ids,
		logger:       logger,
	}
}

// Record inserts the calculation, one detail per (product, resource) pair and
// updates the strategy result in a single transaction. Caller cancellation is
// ignored once recording starts. Any failure rolls back every write and is
// reported as ErrPersistence.
func (r *Recorder) Record(ctx context.Context, in RecordInput) (*models.Calculation, error) {
	if !in.Result.Valid() {
		return nil, invalid("unknown calculation result %q", in.Result)
	}
	for i, d := range in.Details {
		if d.Satisfiable == d.Deficit.Valid {
			return nil, invalid("detail %d: deficit must be present exactly when unsatisfiable", i)
		}
	}

	ctx = context.WithoutCancel(ctx)

	calc := &models.Calculation{
		ID:              r.ids.NewID(),
		StrategyID:      in.StrategyID,
		CalculatedAt:    in.CalculatedAt.UTC(),
		Result:          in.Result,
		BudgetUsed:      in.BudgetUsed,
		BudgetAvailable: in.BudgetAvailable,
		Notes:           in.Notes,
	}

	details := make([]*models.ResourceDetail, 0, len(in.Details))
	err := r.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := r.calculations.Create(ctx, tx, calc); err != nil {
			return fmt.Errorf("inserting calculation: %w", err)
		}

		for i, d := range in.Details {
			detail := *d
			detail.ID = r.ids.NewID()
			detail.CalculationID = calc.ID
			detail.Position = i
			if err := r.calculations.CreateDetail(ctx, tx, &detail); err != nil {
				return fmt.Errorf("inserting detail %d: %w", i, err)
			}
			details = append(details, &detail)
		}

		if err := r.strategies.UpdateResult(ctx, tx, in.StrategyID, in.Result.StrategyResult()); err != nil {
			return fmt.Errorf("updating strategy result: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("calculation rolled back",
			"strategy_id", in.StrategyID,
			"calculation_id", calc.ID,
			"error", err)
		return nil, fmt.Errorf("%w: recording calculation for strategy %s: %w", ErrPersistence, in.StrategyID, err)
	}

	calc.Details = details
	return calc, nil
}
