package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/stratplan/stratplan/internal/models"
)

// CalculationRepository handles the insert-only calculation history.
type CalculationRepository struct {
	db *sql.DB
}

// NewCalculationRepository creates a new calculation repository.
func NewCalculationRepository(db *sql.DB) *CalculationRepository {
	return &CalculationRepository{db: db}
}

const (
	calculationColumns = `id, strategy_id, calculated_at, result, budget_used, budget_available, notes`
	detailColumns      = `id, calculation_id, product_id, resource_id, required_total, available_total, satisfiable, deficit, position`
)

// Create inserts a calculation header. CalculatedAt must be set by the caller.
func (r *CalculationRepository) Create(ctx context.Context, tx *sql.Tx, c *models.Calculation) error {
	query := `INSERT INTO calculations (` + calculationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := getExecer(r.db, tx).ExecContext(ctx, query,
		c.ID,
		c.StrategyID,
		formatTimestamp(c.CalculatedAt),
		c.Result,
		c.BudgetUsed.String(),
		c.BudgetAvailable,
		c.Notes,
	)
	if err != nil {
		return fmt.Errorf("inserting calculation: %w", err)
	}
	return nil
}

// CreateDetail inserts one resource detail line of a calculation.
func (r *CalculationRepository) CreateDetail(ctx context.Context, tx *sql.Tx, d *models.ResourceDetail) error {
	query := `INSERT INTO calculation_resource_details (` + detailColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := getExecer(r.db, tx).ExecContext(ctx, query,
		d.ID,
		d.CalculationID,
		d.ProductID,
		d.ResourceID,
		d.RequiredTotal.String(),
		d.AvailableTotal.String(),
		boolToInt(d.Satisfiable),
		d.Deficit,
		d.Position,
	)
	if err != nil {
		return fmt.Errorf("inserting resource detail: %w", err)
	}
	return nil
}

// GetByID retrieves a calculation header by ID.
func (r *CalculationRepository) GetByID(ctx context.Context, id string) (*models.Calculation, error) {
	query := `SELECT ` + calculationColumns + ` FROM calculations WHERE id = ?`
	return scanCalculation(r.db.QueryRowContext(ctx, query, id))
}

// GetWithDetails retrieves a calculation and its detail lines in recorded order.
func (r *CalculationRepository) GetWithDetails(ctx context.Context, id string) (*models.Calculation, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Details, err = r.ListDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Latest returns the most recent calculation of a strategy.
func (r *CalculationRepository) Latest(ctx context.Context, strategyID string) (*models.Calculation, error) {
	query := `
		SELECT ` + calculationColumns + ` FROM calculations
		WHERE strategy_id = ?
		ORDER BY calculated_at DESC, id DESC
		LIMIT 1`
	return scanCalculation(r.db.QueryRowContext(ctx, query, strategyID))
}

// List retrieves calculations matching the filter, newest first.
func (r *CalculationRepository) List(ctx context.Context, filter models.CalculationFilter, page models.Pagination) (*models.CalculationList, error) {
	var conditions []string
	var args []any

	if filter.StrategyID != "" {
		conditions = append(conditions, "strategy_id = ?")
		args = append(args, filter.StrategyID)
	}
	if filter.Result != nil {
		conditions = append(conditions, "result = ?")
		args = append(args, *filter.Result)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM calculations %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting calculations: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM calculations
		%s
		ORDER BY calculated_at DESC, id DESC
		LIMIT ? OFFSET ?`, calculationColumns, whereClause)
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying calculations: %w", err)
	}
	defer rows.Close()

	var calculations []*models.Calculation
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		calculations = append(calculations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating calculations: %w", err)
	}

	return &models.CalculationList{
		Calculations: calculations,
		Total:        total,
		Page:         page.Page,
		TotalPages:   page.TotalPages(total),
	}, nil
}

// ListDetails retrieves a calculation's detail lines in recorded order.
func (r *CalculationRepository) ListDetails(ctx context.Context, calculationID string) ([]*models.ResourceDetail, error) {
	query := `
		SELECT ` + detailColumns + ` FROM calculation_resource_details
		WHERE calculation_id = ?
		ORDER BY position, id`

	rows, err := r.db.QueryContext(ctx, query, calculationID)
	if err != nil {
		return nil, fmt.Errorf("querying resource details: %w", err)
	}
	defer rows.Close()

	var details []*models.ResourceDetail
	for rows.Next() {
		var d models.ResourceDetail
		var satisfiable int
		if err := rows.Scan(
			&d.ID,
			&d.CalculationID,
			&d.ProductID,
			&d.ResourceID,
			&d.RequiredTotal,
			&d.AvailableTotal,
			&satisfiable,
			&d.Deficit,
			&d.Position,
		); err != nil {
			return nil, fmt.Errorf("scanning resource detail row: %w", err)
		}
		d.Satisfiable = satisfiable == 1
		details = append(details, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resource details: %w", err)
	}

	return details, nil
}

func scanCalculation(row rowScanner) (*models.Calculation, error) {
	var c models.Calculation
	var calculatedStr string

	err := row.Scan(
		&c.ID,
		&c.StrategyID,
		&calculatedStr,
		&c.Result,
		&c.BudgetUsed,
		&c.BudgetAvailable,
		&c.Notes,
	)
	if err != nil {
		return nil, notFound("calculation", err)
	}

	c.CalculatedAt = parseTimestamp(calculatedStr)
	return &c, nil
}
