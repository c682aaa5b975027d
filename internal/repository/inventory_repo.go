package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/stratplan/stratplan/internal/models"
)

// InventoryRepository handles warehouses and inventory lots.
type InventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new inventory repository.
func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

const (
	warehouseColumns = `id, name, location, warehouse_type, status, created_at, updated_at`

	lotWithWarehouseSelect = `
		SELECT l.id, l.resource_id, l.warehouse_id, l.lot_number, l.manufacturer,
			l.manufactured_at, l.expires_at, l.valid_until, l.quantity, l.status,
			l.sampling_number, l.created_at, l.updated_at,
			w.id, w.name, w.location, w.warehouse_type, w.status, w.created_at, w.updated_at
		FROM inventory_lots l
		JOIN warehouses w ON w.id = l.warehouse_id`
)

// ============================================================================
// WAREHOUSES
// ============================================================================

// CreateWarehouse inserts a new warehouse.
func (r *InventoryRepository) CreateWarehouse(ctx context.Context, tx *sql.Tx, w *models.Warehouse) error {
	query := `INSERT INTO warehouses (` + warehouseColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now

	_, err := getExecer(r.db, tx).ExecContext(ctx, query,
		w.ID,
		w.Name,
		w.Location,
		w.WarehouseType,
		w.Status,
		formatTimestamp(w.CreatedAt),
		formatTimestamp(w.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting warehouse: %w", err)
	}
	return nil
}

// GetWarehouse retrieves a warehouse by ID.
func (r *InventoryRepository) GetWarehouse(ctx context.Context, id string) (*models.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE id = ?`
	return scanWarehouse(r.db.QueryRowContext(ctx, query, id))
}

// ListWarehouses retrieves all warehouses, primary before secondary.
func (r *InventoryRepository) ListWarehouses(ctx context.Context) ([]*models.Warehouse, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+warehouseColumns+` FROM warehouses ORDER BY warehouse_type, name`)
	if err != nil {
		return nil, fmt.Errorf("querying warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []*models.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, err
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

// UpdateWarehouseStatus changes a warehouse's status.
func (r *InventoryRepository) UpdateWarehouseStatus(ctx context.Context, tx *sql.Tx, id string, status models.WarehouseStatus) error {
	res, err := getExecer(r.db, tx).ExecContext(ctx,
		`UPDATE warehouses SET status = ?, updated_at = ? WHERE id = ?`,
		status, formatTimestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating warehouse status: %w", err)
	}
	return expectOneRow(res, "warehouse")
}

// ============================================================================
// LOTS
// ============================================================================

// CreateLot inserts a new inventory lot.
func (r *InventoryRepository) CreateLot(ctx context.Context, tx *sql.Tx, lot *models.InventoryLot) error {
	query := `
		INSERT INTO inventory_lots (
			id, resource_id, warehouse_id, lot_number, manufacturer,
			manufactured_at, expires_at, valid_until, quantity, status,
			sampling_number, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	lot.CreatedAt = now
	lot.UpdatedAt = now

	_, err := getExecer(r.db, tx).ExecContext(ctx, query,
		lot.ID,
		lot.ResourceID,
		lot.WarehouseID,
		lot.LotNumber,
		lot.Manufacturer,
		lot.ManufacturedAt.Format(time.DateOnly),
		nullableDate(lot.ExpiresAt),
		nullableDate(lot.ValidUntil),
		lot.Quantity.String(),
		lot.Status,
		lot.SamplingNumber,
		formatTimestamp(lot.CreatedAt),
		formatTimestamp(lot.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting lot: %w", err)
	}
	return nil
}

// GetLot retrieves a lot with its warehouse. When tx is non-nil the read
// happens inside that transaction.
func (r *InventoryRepository) GetLot(ctx context.Context, tx *sql.Tx, id string) (*models.InventoryLot, error) {
	query := lotWithWarehouseSelect + ` WHERE l.id = ?`
	return scanLot(getQuerier(r.db, tx).QueryRowContext(ctx, query, id))
}

// UpdateLotQuantity sets a lot's remaining quantity and status.
func (r *InventoryRepository) UpdateLotQuantity(ctx context.Context, tx *sql.Tx, lot *models.InventoryLot) error {
	lot.UpdatedAt = time.Now().UTC()

	res, err := getExecer(r.db, tx).ExecContext(ctx,
		`UPDATE inventory_lots SET quantity = ?, status = ?, updated_at = ? WHERE id = ?`,
		lot.Quantity.String(), lot.Status, formatTimestamp(lot.UpdatedAt), lot.ID)
	if err != nil {
		return fmt.Errorf("updating lot: %w", err)
	}
	return expectOneRow(res, "lot")
}

// ListAvailableLots returns the resource's lots in status available with
// their warehouses joined, whatever the warehouse status or expiry date.
func (r *InventoryRepository) ListAvailableLots(ctx context.Context, resourceID string) ([]*models.InventoryLot, error) {
	query := lotWithWarehouseSelect + `
		WHERE l.resource_id = ? AND l.status = ?
		ORDER BY w.name, l.lot_number`
	return r.queryLots(ctx, query, resourceID, models.LotStatusAvailable)
}

// ListLots retrieves lots matching the filter, ordered by resource and lot number.
func (r *InventoryRepository) ListLots(ctx context.Context, filter models.LotFilter, page models.Pagination) (*models.LotList, error) {
	var conditions []string
	var args []any

	if filter.ResourceID != "" {
		conditions = append(conditions, "l.resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.WarehouseID != "" {
		conditions = append(conditions, "l.warehouse_id = ?")
		args = append(args, filter.WarehouseID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "l.status = ?")
		args = append(args, *filter.Status)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM inventory_lots l %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting lots: %w", err)
	}

	query := fmt.Sprintf(`%s
		%s
		ORDER BY l.resource_id, l.lot_number
		LIMIT ? OFFSET ?`, lotWithWarehouseSelect, whereClause)
	args = append(args, page.Limit(), page.Offset())

	lots, err := r.queryLots(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &models.LotList{
		Lots:       lots,
		Total:      total,
		Page:       page.Page,
		TotalPages: page.TotalPages(total),
	}, nil
}

// ListExpiredLots returns lots whose expiry date is before asOf.
func (r *InventoryRepository) ListExpiredLots(ctx context.Context, asOf time.Time) ([]*models.InventoryLot, error) {
	query := lotWithWarehouseSelect + `
		WHERE l.expires_at IS NOT NULL AND l.expires_at < ?
		ORDER BY l.expires_at, l.lot_number`
	return r.queryLots(ctx, query, asOf.Format(time.DateOnly))
}

// ListLotsExpiringBetween returns lots expiring on or after from and on or
// before until.
func (r *InventoryRepository) ListLotsExpiringBetween(ctx context.Context, from, until time.Time) ([]*models.InventoryLot, error) {
	query := lotWithWarehouseSelect + `
		WHERE l.expires_at IS NOT NULL AND l.expires_at >= ? AND l.expires_at <= ?
		ORDER BY l.expires_at, l.lot_number`
	return r.queryLots(ctx, query, from.Format(time.DateOnly), until.Format(time.DateOnly))
}

// ListValidityLapsedLots returns lots whose validity date is before asOf.
func (r *InventoryRepository) ListValidityLapsedLots(ctx context.Context, asOf time.Time) ([]*models.InventoryLot, error) {
	query := lotWithWarehouseSelect + `
		WHERE l.valid_until IS NOT NULL AND l.valid_until < ?
		ORDER BY l.valid_until, l.lot_number`
	return r.queryLots(ctx, query, asOf.Format(time.DateOnly))
}

// ListLotsValidityEndingBetween returns lots whose validity ends on or after
// from and on or before until.
func (r *InventoryRepository) ListLotsValidityEndingBetween(ctx context.Context, from, until time.Time) ([]*models.InventoryLot, error) {
	query := lotWithWarehouseSelect + `
		WHERE l.valid_until IS NOT NULL AND l.valid_until >= ? AND l.valid_until <= ?
		ORDER BY l.valid_until, l.lot_number`
	return r.queryLots(ctx, query, from.Format(time.DateOnly), until.Format(time.DateOnly))
}

// ListLotsByWarehouse returns every lot stored in a warehouse.
func (r *InventoryRepository) ListLotsByWarehouse(ctx context.Context, warehouseID string) ([]*models.InventoryLot, error) {
	query := lotWithWarehouseSelect + `
		WHERE l.warehouse_id = ?
		ORDER BY l.resource_id, l.lot_number`
	return r.queryLots(ctx, query, warehouseID)
}

func (r *InventoryRepository) queryLots(ctx context.Context, query string, args ...any) ([]*models.InventoryLot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lots: %w", err)
	}
	defer rows.Close()

	var lots []*models.InventoryLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lots: %w", err)
	}

	return lots, nil
}

func scanWarehouse(row rowScanner) (*models.Warehouse, error) {
	var w models.Warehouse
	var createdStr, updatedStr string

	err := row.Scan(
		&w.ID,
		&w.Name,
		&w.Location,
		&w.WarehouseType,
		&w.Status,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return nil, notFound("warehouse", err)
	}

	w.CreatedAt = parseTimestamp(createdStr)
	w.UpdatedAt = parseTimestamp(updatedStr)
	return &w, nil
}

func scanLot(row rowScanner) (*models.InventoryLot, error) {
	var lot models.InventoryLot
	var w models.Warehouse
	var manufacturedStr, createdStr, updatedStr string
	var wCreatedStr, wUpdatedStr string
	var expiresStr, validStr sql.NullString

	err := row.Scan(
		&lot.ID,
		&lot.ResourceID,
		&lot.WarehouseID,
		&lot.LotNumber,
		&lot.Manufacturer,
		&manufacturedStr,
		&expiresStr,
		&validStr,
		&lot.Quantity,
		&lot.Status,
		&lot.SamplingNumber,
		&createdStr,
		&updatedStr,
		&w.ID,
		&w.Name,
		&w.Location,
		&w.WarehouseType,
		&w.Status,
		&wCreatedStr,
		&wUpdatedStr,
	)
	if err != nil {
		return nil, notFound("lot", err)
	}

	lot.ManufacturedAt, _ = time.Parse(time.DateOnly, manufacturedStr)
	lot.ExpiresAt = parseNullableDate(expiresStr)
	lot.ValidUntil = parseNullableDate(validStr)
	lot.CreatedAt = parseTimestamp(createdStr)
	lot.UpdatedAt = parseTimestamp(updatedStr)

	w.CreatedAt = parseTimestamp(wCreatedStr)
	w.UpdatedAt = parseTimestamp(wUpdatedStr)
	lot.Warehouse = &w

	return &lot, nil
}
