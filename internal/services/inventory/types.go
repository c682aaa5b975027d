package inventory

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratplan/stratplan/internal/models"
)

// CreateWarehouseInput contains data for registering a warehouse.
type CreateWarehouseInput struct {
	Name          string
	Location      string
	WarehouseType models.WarehouseType
	Status        models.WarehouseStatus
}

// ReceiveLotInput contains data for recording an incoming lot.
type ReceiveLotInput struct {
	ResourceID     string
	WarehouseID    string
	LotNumber      string
	Manufacturer   string
	ManufacturedAt time.Time
	ExpiresAt      *time.Time
	ValidUntil     *time.Time
	Quantity       decimal.Decimal
	SamplingNumber string
}

// ExpiryReport lists lots past or near their expiry date, and lots past or
// near the end of their validity.
type ExpiryReport struct {
	AsOf           time.Time              `json:"as_of"`
	Days           int                    `json:"days"`
	Expired        []*models.InventoryLot `json:"expired"`
	Expiring       []*models.InventoryLot `json:"expiring"`
	ValidityLapsed []*models.InventoryLot `json:"validity_lapsed"`
	ValidityEnding []*models.InventoryLot `json:"validity_ending"`
}

// WarehouseStats summarizes the lots held in one warehouse. Date counts use
// the configured warning window.
type WarehouseStats struct {
	WarehouseID    string          `json:"warehouse_id"`
	Name           string          `json:"name"`
	Lots           int             `json:"lots"`
	AvailableLots  int             `json:"available_lots"`
	TotalQuantity  decimal.Decimal `json:"total_quantity"`
	Expired        int             `json:"expired"`
	Expiring       int             `json:"expiring"`
	ValidityLapsed int             `json:"validity_lapsed"`
	ValidityEnding int             `json:"validity_ending"`
}

// ResourceAvailability is the on-hand quantity of a resource across all
// warehouses, whatever their status.
type ResourceAvailability struct {
	ResourceID string          `json:"resource_id"`
	Code       string          `json:"code"`
	Unit       string          `json:"unit"`
	Available  decimal.Decimal `json:"available"`
	Lots       int             `json:"lots"`
}
