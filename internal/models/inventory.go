package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WarehouseType ranks a warehouse for lot ordering.
type WarehouseType string

const (
	WarehouseTypePrimary   WarehouseType = "primary"
	WarehouseTypeSecondary WarehouseType = "secondary"
)

// Valid returns true if the warehouse type is valid.
func (w WarehouseType) Valid() bool {
	return w == WarehouseTypePrimary || w == WarehouseTypeSecondary
}

// WarehouseStatus controls whether a warehouse's stock may be counted.
type WarehouseStatus string

const (
	WarehouseStatusActive     WarehouseStatus = "active"
	WarehouseStatusInactive   WarehouseStatus = "inactive"
	WarehouseStatusDoNotTouch WarehouseStatus = "do_not_touch"
)

// Valid returns true if the warehouse status is valid.
func (w WarehouseStatus) Valid() bool {
	switch w {
	case WarehouseStatusActive, WarehouseStatusInactive, WarehouseStatusDoNotTouch:
		return true
	default:
		return false
	}
}

// Warehouse is a storage location for inventory lots.
type Warehouse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Location      string          `json:"location,omitempty"`
	WarehouseType WarehouseType   `json:"warehouse_type"`
	Status        WarehouseStatus `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LotStatus is the availability state of an inventory lot.
type LotStatus string

const (
	LotStatusAvailable LotStatus = "available"
	LotStatusReserved  LotStatus = "reserved"
)

// Valid returns true if the lot status is valid.
func (s LotStatus) Valid() bool {
	return s == LotStatusAvailable || s == LotStatusReserved
}

func (s LotStatus) String() string {
	return string(s)
}

// InventoryLot is a quantity of one resource held in one warehouse.
type InventoryLot struct {
	ID             string          `json:"id"`
	ResourceID     string          `json:"resource_id"`
	WarehouseID    string          `json:"warehouse_id"`
	LotNumber      string          `json:"lot_number"`
	Manufacturer   string          `json:"manufacturer,omitempty"`
	ManufacturedAt time.Time       `json:"manufactured_at"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	ValidUntil     *time.Time      `json:"valid_until,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	Status         LotStatus       `json:"status"`
	SamplingNumber string          `json:"sampling_number,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Joined fields
	Warehouse *Warehouse `json:"warehouse,omitempty"`
	Resource  *Resource  `json:"resource,omitempty"`
}

// Validate checks the lot's field constraints. Expiry and validity dates,
// when present, must fall strictly after the manufacture date.
func (l *InventoryLot) Validate() error {
	var errs []error
	if l.ResourceID == "" {
		errs = append(errs, errors.New("resource_id is required"))
	}
	if l.WarehouseID == "" {
		errs = append(errs, errors.New("warehouse_id is required"))
	}
	if l.LotNumber == "" {
		errs = append(errs, errors.New("lot_number is required"))
	}
	if l.ManufacturedAt.IsZero() {
		errs = append(errs, errors.New("manufactured_at is required"))
	}
	if l.Quantity.IsNegative() {
		errs = append(errs, errors.New("quantity must not be negative"))
	}
	if !l.Status.Valid() {
		errs = append(errs, fmt.Errorf("invalid status: %s", l.Status))
	}
	if l.ExpiresAt != nil && !l.ExpiresAt.After(l.ManufacturedAt) {
		errs = append(errs, errors.New("expires_at must be after manufactured_at"))
	}
	if l.ValidUntil != nil && !l.ValidUntil.After(l.ManufacturedAt) {
		errs = append(errs, errors.New("valid_until must be after manufactured_at"))
	}
	return errors.Join(errs...)
}

// IsExpired reports whether the lot's expiry date is before asOf.
func (l *InventoryLot) IsExpired(asOf time.Time) bool {
	if l.ExpiresAt == nil {
		return false
	}
	return l.ExpiresAt.Before(asOf)
}

// ExpiresWithin reports whether the lot is unexpired at asOf and expires
// within the given number of days.
func (l *InventoryLot) ExpiresWithin(asOf time.Time, days int) bool {
	if l.ExpiresAt == nil || l.IsExpired(asOf) {
		return false
	}
	return !l.ExpiresAt.After(asOf.AddDate(0, 0, days))
}

// LotFilter defines filters for querying inventory lots.
type LotFilter struct {
	ResourceID  string
	WarehouseID string
	Status      *LotStatus
}

// LotList represents a paginated list of inventory lots.
type LotList struct {
	Lots       []*InventoryLot `json:"lots"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
}
