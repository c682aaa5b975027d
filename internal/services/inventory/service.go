// Package inventory manages warehouses and inventory lots: intake,
// reservation and expiry reporting.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/stratplan/stratplan/internal/config"
	"github.com/stratplan/stratplan/internal/database"
	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/repository"
	"github.com/stratplan/stratplan/internal/util"
)

var (
	// ErrNotFound reports an unknown lot, warehouse or resource.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput reports a rejected quantity or lot state.
	ErrInvalidInput = errors.New("invalid input")
)

// Service provides inventory operations.
type Service struct {
	db          *database.DB
	inventory   *repository.InventoryRepository
	catalog     *repository.CatalogRepository
	idGenerator *util.IDGenerator
	clock       util.Clock
	logger      *slog.Logger
	cfg         config.CalculationConfig
}

// NewService creates a new inventory service. A nil clock uses the system
// clock.
func NewService(db *database.DB, cfg config.CalculationConfig, clock util.Clock) *Service {
	if clock == nil {
		clock = util.SystemClock{}
	}
	return &Service{
		db:          db,
		inventory:   repository.NewInventoryRepository(db.DB),
		catalog:     repository.NewCatalogRepository(db.DB),
		idGenerator: util.NewIDGenerator(),
		clock:       clock,
		logger:      slog.Default().With("component", "inventory"),
		cfg:         cfg,
	}
}

func wrap(what string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", what, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ============================================================================
// WAREHOUSES
// ============================================================================

// CreateWarehouse registers a new warehouse. An empty status means active.
func (s *Service) CreateWarehouse(ctx context.Context, input CreateWarehouseInput) (*models.Warehouse, error) {
	if input.Status == "" {
		input.Status = models.WarehouseStatusActive
	}
	if input.Name == "" {
		return nil, invalid("warehouse name is required")
	}
	if !input.WarehouseType.Valid() {
		return nil, invalid("invalid warehouse type %q", input.WarehouseType)
	}
	if !input.Status.Valid() {
		return nil, invalid("invalid warehouse status %q", input.Status)
	}

	w := &models.Warehouse{
		ID:            s.idGenerator.NewID(),
		Name:          input.Name,
		Location:      input.Location,
		WarehouseType: input.WarehouseType,
		Status:        input.Status,
	}
	if err := s.inventory.CreateWarehouse(ctx, nil, w); err != nil {
		return nil, fmt.Errorf("creating warehouse: %w", err)
	}
	return w, nil
}

// ListWarehouses returns every warehouse ordered by name.
func (s *Service) ListWarehouses(ctx context.Context) ([]*models.Warehouse, error) {
	return s.inventory.ListWarehouses(ctx)
}

// SetWarehouseStatus changes a warehouse's status, e.g. to do_not_touch.
func (s *Service) SetWarehouseStatus(ctx context.Context, id string, status models.WarehouseStatus) error {
	if !status.Valid() {
		return invalid("invalid warehouse status %q", status)
	}
	if err := s.inventory.UpdateWarehouseStatus(ctx, nil, id, status); err != nil {
		return wrap("updating warehouse "+id, err)
	}
	s.logger.Info("warehouse status changed", "warehouse_id", id, "status", status)
	return nil
}

// ============================================================================
// LOTS
// ============================================================================

// ReceiveLot records an incoming lot as available.
func (s *Service) ReceiveLot(ctx context.Context, input ReceiveLotInput) (*models.InventoryLot, error) {
	lot := &models.InventoryLot{
		ID:             s.idGenerator.NewID(),
		ResourceID:     input.ResourceID,
		WarehouseID:    input.WarehouseID,
		LotNumber:      input.LotNumber,
		Manufacturer:   input.Manufacturer,
		ManufacturedAt: input.ManufacturedAt,
		ExpiresAt:      input.ExpiresAt,
		ValidUntil:     input.ValidUntil,
		Quantity:       input.Quantity,
		Status:         models.LotStatusAvailable,
		SamplingNumber: input.SamplingNumber,
	}
	if err := lot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if _, err := s.catalog.GetResource(ctx, input.ResourceID); err != nil {
		return nil, wrap("resolving resource "+input.ResourceID, err)
	}
	if _, err := s.inventory.GetWarehouse(ctx, input.WarehouseID); err != nil {
		return nil, wrap("resolving warehouse "+input.WarehouseID, err)
	}

	if err := s.inventory.CreateLot(ctx, nil, lot); err != nil {
		return nil, fmt.Errorf("creating lot: %w", err)
	}
	return lot, nil
}

// GetLot retrieves a lot with its warehouse.
func (s *Service) GetLot(ctx context.Context, id string) (*models.InventoryLot, error) {
	lot, err := s.inventory.GetLot(ctx, nil, id)
	if err != nil {
		return nil, wrap("loading lot "+id, err)
	}
	return lot, nil
}

// ListLots retrieves lots with filtering and pagination.
func (s *Service) ListLots(ctx context.Context, filter models.LotFilter, page models.Pagination) (*models.LotList, error) {
	return s.inventory.ListLots(ctx, filter, page)
}

// AvailableTotal sums the quantity of a resource's available lots across all
// warehouses. Unlike a feasibility run it applies no warehouse policy.
func (s *Service) AvailableTotal(ctx context.Context, resourceID string) (*ResourceAvailability, error) {
	res, err := s.catalog.GetResource(ctx, resourceID)
	if err != nil {
		return nil, wrap("resolving resource "+resourceID, err)
	}

	lots, err := s.inventory.ListAvailableLots(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}
	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.Quantity)
	}
	return &ResourceAvailability{
		ResourceID: res.ID,
		Code:       res.Code,
		Unit:       res.UnitOfMeasure,
		Available:  total,
		Lots:       len(lots),
	}, nil
}

// ============================================================================
// RESERVATION
// ============================================================================

// Reserve takes qty out of an available lot. A lot reserved down to zero
// becomes reserved.
func (s *Service) Reserve(ctx context.Context, lotID string, qty decimal.Decimal) (*models.InventoryLot, error) {
	if !qty.IsPositive() {
		return nil, invalid("reserve quantity must be positive, got %s", qty)
	}

	var lot *models.InventoryLot
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		lot, err = s.inventory.GetLot(ctx, tx, lotID)
		if err != nil {
			return wrap("loading lot "+lotID, err)
		}

		if lot.Status != models.LotStatusAvailable {
			return invalid("lot %s is not available for reservation", lotID)
		}
		if lot.Quantity.LessThan(qty) {
			return invalid("insufficient quantity in lot %s: available %s, requested %s", lotID, lot.Quantity, qty)
		}

		lot.Quantity = lot.Quantity.Sub(qty)
		if lot.Quantity.IsZero() {
			lot.Status = models.LotStatusReserved
		}
		return s.inventory.UpdateLotQuantity(ctx, tx, lot)
	})
	if err != nil {
		return nil, fmt.Errorf("reserving from lot %s: %w", lotID, err)
	}

	s.logger.Info("lot reserved", "lot_id", lotID, "quantity", qty, "remaining", lot.Quantity)
	return lot, nil
}

// Release returns qty to a lot and makes it available again, whatever its
// previous status.
func (s *Service) Release(ctx context.Context, lotID string, qty decimal.Decimal) (*models.InventoryLot, error) {
	if !qty.IsPositive() {
		return nil, invalid("release quantity must be positive, got %s", qty)
	}

	var lot *models.InventoryLot
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		lot, err = s.inventory.GetLot(ctx, tx, lotID)
		if err != nil {
			return wrap("loading lot "+lotID, err)
		}

		lot.Quantity = lot.Quantity.Add(qty)
		lot.Status = models.LotStatusAvailable
		return s.inventory.UpdateLotQuantity(ctx, tx, lot)
	})
	if err != nil {
		return nil, fmt.Errorf("releasing to lot %s: %w", lotID, err)
	}

	s.logger.Info("lot released", "lot_id", lotID, "quantity", qty, "remaining", lot.Quantity)
	return lot, nil
}

// ============================================================================
// EXPIRATION
// ============================================================================

// ExpiredLots returns lots whose expiry date has passed. The feasibility
// calculation still counts them.
func (s *Service) ExpiredLots(ctx context.Context) ([]*models.InventoryLot, error) {
	return s.inventory.ListExpiredLots(ctx, s.clock.Now())
}

// ExpiringLots returns unexpired lots expiring within days. A non-positive
// days uses the configured warning window.
func (s *Service) ExpiringLots(ctx context.Context, days int) ([]*models.InventoryLot, error) {
	if days <= 0 {
		days = s.cfg.ExpiryWarningDays
	}
	today := util.StartOfDay(s.clock.Now())
	return s.inventory.ListLotsExpiringBetween(ctx, today, today.AddDate(0, 0, days))
}

// ValidityLapsedLots returns lots whose validity date has passed.
func (s *Service) ValidityLapsedLots(ctx context.Context) ([]*models.InventoryLot, error) {
	return s.inventory.ListValidityLapsedLots(ctx, s.clock.Now())
}

// ValidityEndingLots returns lots whose validity ends within days. A
// non-positive days uses the configured warning window.
func (s *Service) ValidityEndingLots(ctx context.Context, days int) ([]*models.InventoryLot, error) {
	if days <= 0 {
		days = s.cfg.ExpiryWarningDays
	}
	today := util.StartOfDay(s.clock.Now())
	return s.inventory.ListLotsValidityEndingBetween(ctx, today, today.AddDate(0, 0, days))
}

// ExpiryReport combines the expiry and validity scans.
func (s *Service) ExpiryReport(ctx context.Context, days int) (*ExpiryReport, error) {
	if days <= 0 {
		days = s.cfg.ExpiryWarningDays
	}

	expired, err := s.ExpiredLots(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning expired lots: %w", err)
	}
	expiring, err := s.ExpiringLots(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("scanning expiring lots: %w", err)
	}

	lapsed, err := s.ValidityLapsedLots(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning lapsed lots: %w", err)
	}
	ending, err := s.ValidityEndingLots(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("scanning lots near end of validity: %w", err)
	}

	return &ExpiryReport{
		AsOf:           util.StartOfDay(s.clock.Now()),
		Days:           days,
		Expired:        expired,
		Expiring:       expiring,
		ValidityLapsed: lapsed,
		ValidityEnding: ending,
	}, nil
}

// WarehouseStats counts a warehouse's lots and totals the quantity of its
// available ones.
func (s *Service) WarehouseStats(ctx context.Context, warehouseID string) (*WarehouseStats, error) {
	w, err := s.inventory.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, wrap("loading warehouse "+warehouseID, err)
	}

	lots, err := s.inventory.ListLotsByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}

	today := util.StartOfDay(s.clock.Now())
	horizon := today.AddDate(0, 0, s.cfg.ExpiryWarningDays)
	stats := &WarehouseStats{
		WarehouseID:   w.ID,
		Name:          w.Name,
		Lots:          len(lots),
		TotalQuantity: decimal.Zero,
	}
	for _, lot := range lots {
		if lot.Status == models.LotStatusAvailable {
			stats.AvailableLots++
			stats.TotalQuantity = stats.TotalQuantity.Add(lot.Quantity)
		}
		switch {
		case lot.ExpiresAt == nil:
		case lot.ExpiresAt.Before(today):
			stats.Expired++
		case !lot.ExpiresAt.After(horizon):
			stats.Expiring++
		}
		switch {
		case lot.ValidUntil == nil:
		case lot.ValidUntil.Before(today):
			stats.ValidityLapsed++
		case !lot.ValidUntil.After(horizon):
			stats.ValidityEnding++
		}
	}
	return stats, nil
}
