package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/stratplan/stratplan/internal/models"
)

// StrategyRepository handles strategy and demand data access.
type StrategyRepository struct {
	db *sql.DB
}

// NewStrategyRepository creates a new strategy repository.
func NewStrategyRepository(db *sql.DB) *StrategyRepository {
	return &StrategyRepository{db: db}
}

const strategyColumns = `id, name, description, max_budget, status, result, created_at, updated_at`

// ============================================================================
// STRATEGIES
// ============================================================================

// Create inserts a new strategy.
func (r *StrategyRepository) Create(ctx context.Context, tx *sql.Tx, s *models.Strategy) error {
	query := `
		INSERT INTO strategies (` + strategyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.Result == "" {
		s.Result = models.StrategyResultNotCalculated
	}

	_, err := getExecer(r.db, tx).ExecContext(ctx, query,
		s.ID,
		s.Name,
		s.Description,
		s.MaxBudget.String(),
		s.Status,
		s.Result,
		formatTimestamp(s.CreatedAt),
		formatTimestamp(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting strategy: %w", err)
	}
	return nil
}

// GetByID retrieves a strategy by ID.
func (r *StrategyRepository) GetByID(ctx context.Context, id string) (*models.Strategy, error) {
	return getStrategy(ctx, r.db, id)
}

func getStrategy(ctx context.Context, q querier, id string) (*models.Strategy, error) {
	query := `SELECT ` + strategyColumns + ` FROM strategies WHERE id = ?`
	return scanStrategy(q.QueryRowContext(ctx, query, id))
}

// GetWithDemand retrieves a strategy and its demand lines in insertion order.
// Both reads run in one transaction, so a concurrent demand edit is seen
// entirely or not at all.
func (r *StrategyRepository) GetWithDemand(ctx context.Context, id string) (*models.Strategy, []*models.Demand, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning read: %w", err)
	}
	defer tx.Rollback()

	strategy, err := getStrategy(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}

	demands, err := listDemands(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("ending read: %w", err)
	}
	return strategy, demands, nil
}

// Update modifies a strategy's descriptive fields. The cached result is
// left untouched; see UpdateResult.
func (r *StrategyRepository) Update(ctx context.Context, tx *sql.Tx, s *models.Strategy) error {
	query := `
		UPDATE strategies SET
			name = ?, description = ?, max_budget = ?, status = ?, updated_at = ?
		WHERE id = ?`

	s.UpdatedAt = time.Now().UTC()

	res, err := getExecer(r.db, tx).ExecContext(ctx, query,
		s.Name,
		s.Description,
		s.MaxBudget.String(),
		s.Status,
		formatTimestamp(s.UpdatedAt),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating strategy: %w", err)
	}
	return expectOneRow(res, "strategy")
}

// UpdateResult stores the outcome of the latest calculation on the strategy.
func (r *StrategyRepository) UpdateResult(ctx context.Context, tx *sql.Tx, id string, result models.StrategyResult) error {
	res, err := getExecer(r.db, tx).ExecContext(ctx,
		`UPDATE strategies SET result = ?, updated_at = ? WHERE id = ?`,
		result, formatTimestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating strategy result: %w", err)
	}
	return expectOneRow(res, "strategy")
}

// List retrieves strategies matching the filter, ordered by name.
func (r *StrategyRepository) List(ctx context.Context, filter models.StrategyFilter, page models.Pagination) (*models.StrategyList, error) {
	var conditions []string
	var args []any

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Result != nil {
		conditions = append(conditions, "result = ?")
		args = append(args, *filter.Result)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(name LIKE ? OR description LIKE ?)")
		term := "%" + filter.Search + "%"
		args = append(args, term, term)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM strategies %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting strategies: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM strategies
		%s
		ORDER BY name
		LIMIT ? OFFSET ?`, strategyColumns, whereClause)
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying strategies: %w", err)
	}
	defer rows.Close()

	var strategies []*models.Strategy
	for rows.Next() {
		s, err := scanStrategy(rows)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating strategies: %w", err)
	}

	return &models.StrategyList{
		Strategies: strategies,
		Total:      total,
		Page:       page.Page,
		TotalPages: page.TotalPages(total),
	}, nil
}

// ============================================================================
// DEMAND
// ============================================================================

// AddDemand appends a demand line to a strategy.
func (r *StrategyRepository) AddDemand(ctx context.Context, tx *sql.Tx, d *models.Demand) error {
	query := `
		INSERT INTO strategy_demands (
			id, strategy_id, product_id, demand_type, quantity, period, position, created_at
		) VALUES (?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM strategy_demands WHERE strategy_id = ?),
			?)`

	d.CreatedAt = time.Now().UTC()

	_, err := getExecer(r.db, tx).ExecContext(ctx, query,
		d.ID,
		d.StrategyID,
		d.ProductID,
		d.DemandType,
		d.Quantity.String(),
		d.Period,
		d.StrategyID,
		formatTimestamp(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting demand: %w", err)
	}
	return nil
}

// ListDemands retrieves a strategy's demand lines in insertion order.
func (r *StrategyRepository) ListDemands(ctx context.Context, strategyID string) ([]*models.Demand, error) {
	return listDemands(ctx, r.db, strategyID)
}

func listDemands(ctx context.Context, q querier, strategyID string) ([]*models.Demand, error) {
	query := `
		SELECT id, strategy_id, product_id, demand_type, quantity, period, position, created_at
		FROM strategy_demands
		WHERE strategy_id = ?
		ORDER BY position, id`

	rows, err := q.QueryContext(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("querying demands: %w", err)
	}
	defer rows.Close()

	var demands []*models.Demand
	for rows.Next() {
		var d models.Demand
		var createdStr string
		if err := rows.Scan(
			&d.ID,
			&d.StrategyID,
			&d.ProductID,
			&d.DemandType,
			&d.Quantity,
			&d.Period,
			&d.Position,
			&createdStr,
		); err != nil {
			return nil, fmt.Errorf("scanning demand row: %w", err)
		}
		d.CreatedAt = parseTimestamp(createdStr)
		demands = append(demands, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating demands: %w", err)
	}

	return demands, nil
}

// RemoveDemand deletes a single demand line.
func (r *StrategyRepository) RemoveDemand(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := getExecer(r.db, tx).ExecContext(ctx, `DELETE FROM strategy_demands WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting demand: %w", err)
	}
	return expectOneRow(res, "demand")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStrategy(row rowScanner) (*models.Strategy, error) {
	var s models.Strategy
	var createdStr, updatedStr string

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.MaxBudget,
		&s.Status,
		&s.Result,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return nil, notFound("strategy", err)
	}

	s.CreatedAt = parseTimestamp(createdStr)
	s.UpdatedAt = parseTimestamp(updatedStr)

	return &s, nil
}
