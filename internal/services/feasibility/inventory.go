package feasibility

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/util"
)

// LotContribution describes one lot counted towards a resource's availability.
type LotContribution struct {
	LotID          string               `json:"lot_id"`
	LotNumber      string               `json:"lot_number"`
	WarehouseID    string               `json:"warehouse_id"`
	WarehouseName  string               `json:"warehouse_name"`
	WarehouseType  models.WarehouseType `json:"warehouse_type"`
	Manufacturer   string               `json:"manufacturer,omitempty"`
	ManufacturedAt time.Time            `json:"manufactured_at"`
	ExpiresAt      *time.Time           `json:"expires_at,omitempty"`
	Quantity       decimal.Decimal      `json:"quantity"`
	Unit           string               `json:"unit"`

	// Expired is informational; expired lots still count.
	Expired bool `json:"expired"`
}

// Availability is the usable stock of one resource for a run.
type Availability struct {
	Resource *models.Resource
	Total    decimal.Decimal
	Lots     []LotContribution
}

// Aggregator sums available inventory per resource under a policy.
type Aggregator struct {
	catalog   CatalogReader
	inventory InventoryReader
	clock     util.Clock
}

// NewAggregator creates an Aggregator.
func NewAggregator(catalog CatalogReader, inventory InventoryReader, clock util.Clock) *Aggregator {
	if clock == nil {
		clock = util.SystemClock{}
	}
	return &Aggregator{catalog: catalog, inventory: inventory, clock: clock}
}

// Aggregate resolves the resource and sums the quantity of its available
// lots, dropping do_not_touch warehouses when the policy says so. Expiry
// dates are not filtered on.
func (a *Aggregator) Aggregate(ctx context.Context, resourceID string, policy Policy) (*Availability, error) {
	resource, err := a.catalog.GetResource(ctx, resourceID)
	if err != nil {
		return nil, translate("resolving resource "+resourceID, err)
	}

	lots, err := a.inventory.ListAvailableLots(ctx, resourceID)
	if err != nil {
		return nil, translate("listing lots for resource "+resourceID, err)
	}

	today := util.StartOfDay(a.clock.Now())
	warehouses := make(map[string]*models.Warehouse)

	avail := &Availability{Resource: resource, Total: decimal.Zero}
	for _, lot := range lots {
		if lot.Status != models.LotStatusAvailable {
			continue
		}
		if lot.Quantity.IsNegative() {
			return nil, invalid("lot %s has negative quantity %s", lot.ID, lot.Quantity)
		}

		wh, err := a.warehouseFor(ctx, lot, warehouses)
		if err != nil {
			return nil, err
		}
		if policy.ExcludeDoNotTouchWarehouses && wh.Status == models.WarehouseStatusDoNotTouch {
			continue
		}

		avail.Total = avail.Total.Add(lot.Quantity)
		avail.Lots = append(avail.Lots, LotContribution{
			LotID:          lot.ID,
			LotNumber:      lot.LotNumber,
			WarehouseID:    wh.ID,
			WarehouseName:  wh.Name,
			WarehouseType:  wh.WarehouseType,
			Manufacturer:   lot.Manufacturer,
			ManufacturedAt: lot.ManufacturedAt,
			ExpiresAt:      lot.ExpiresAt,
			Quantity:       lot.Quantity,
			Unit:           resource.UnitOfMeasure,
			Expired:        lot.IsExpired(today),
		})
	}

	if len(policy.PrioritizeWarehouseTypes) > 0 {
		sort.SliceStable(avail.Lots, func(i, j int) bool {
			return policy.rank(avail.Lots[i].WarehouseType) < policy.rank(avail.Lots[j].WarehouseType)
		})
	}

	return avail, nil
}

func (a *Aggregator) warehouseFor(ctx context.Context, lot *models.InventoryLot, cache map[string]*models.Warehouse) (*models.Warehouse, error) {
	if lot.Warehouse != nil {
		return lot.Warehouse, nil
	}
	if wh, ok := cache[lot.WarehouseID]; ok {
		return wh, nil
	}
	wh, err := a.inventory.GetWarehouse(ctx, lot.WarehouseID)
	if err != nil {
		return nil, translate("resolving warehouse "+lot.WarehouseID, err)
	}
	cache[lot.WarehouseID] = wh
	return wh, nil
}
