package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stratplan/stratplan/internal/models"
)

// Dec parses a decimal literal, panicking on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// FixtureStrategy creates an active, not yet calculated strategy.
func FixtureStrategy(overrides ...func(*models.Strategy)) *models.Strategy {
	id := uuid.New().String()

	s := &models.Strategy{
		ID:          id,
		Name:        "Strategy " + id[:8],
		Description: "test strategy",
		MaxBudget:   Dec("10000"),
		Status:      models.StrategyStatusActive,
		Result:      models.StrategyResultNotCalculated,
	}

	for _, override := range overrides {
		override(s)
	}

	return s
}

// FixtureDemand creates a static monthly demand line.
func FixtureDemand(strategyID, productID string, qty string, overrides ...func(*models.Demand)) *models.Demand {
	d := &models.Demand{
		ID:         uuid.New().String(),
		StrategyID: strategyID,
		ProductID:  productID,
		DemandType: models.DemandTypeStatic,
		Quantity:   Dec(qty),
		Period:     models.PeriodMonthly,
	}

	for _, override := range overrides {
		override(d)
	}

	return d
}

// FixtureProduct creates a direct product measured in units.
func FixtureProduct(overrides ...func(*models.Product)) *models.Product {
	id := uuid.New().String()

	p := &models.Product{
		ID:            id,
		Code:          "PRD-" + id[:8],
		Name:          "Product " + id[:8],
		PackagingType: "box",
		ProductType:   models.ProductTypeDirect,
		UnitOfMeasure: "unit",
	}

	for _, override := range overrides {
		override(p)
	}

	return p
}

// FixtureResource creates a raw material measured in kilograms.
func FixtureResource(overrides ...func(*models.Resource)) *models.Resource {
	id := uuid.New().String()

	r := &models.Resource{
		ID:            id,
		Code:          "RES-" + id[:8],
		Name:          "Resource " + id[:8],
		ResourceType:  models.ResourceTypeRawMaterial,
		UnitOfMeasure: "kg",
	}

	for _, override := range overrides {
		override(r)
	}

	return r
}

// FixtureRelation creates a consumption edge from product to resource.
func FixtureRelation(productID, resourceID string, perUnit string, overrides ...func(*models.ProductResourceRelation)) *models.ProductResourceRelation {
	rel := &models.ProductResourceRelation{
		ID:              uuid.New().String(),
		ProductID:       productID,
		ResourceID:      resourceID,
		QuantityPerUnit: Dec(perUnit),
		RelationType:    models.RelationTypeConsumption,
	}

	for _, override := range overrides {
		override(rel)
	}

	return rel
}

// FixtureWarehouse creates an active primary warehouse.
func FixtureWarehouse(overrides ...func(*models.Warehouse)) *models.Warehouse {
	id := uuid.New().String()

	w := &models.Warehouse{
		ID:            id,
		Name:          "Warehouse " + id[:8],
		Location:      "Dock 1",
		WarehouseType: models.WarehouseTypePrimary,
		Status:        models.WarehouseStatusActive,
	}

	for _, override := range overrides {
		override(w)
	}

	return w
}

// FixtureLot creates an available lot manufactured a month ago that expires
// in a year.
func FixtureLot(resourceID, warehouseID string, qty string, overrides ...func(*models.InventoryLot)) *models.InventoryLot {
	id := uuid.New().String()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	expires := today.AddDate(1, 0, 0)

	lot := &models.InventoryLot{
		ID:             id,
		ResourceID:     resourceID,
		WarehouseID:    warehouseID,
		LotNumber:      "LOT-" + id[:8],
		Manufacturer:   "Acme",
		ManufacturedAt: today.AddDate(0, -1, 0),
		ExpiresAt:      &expires,
		Quantity:       Dec(qty),
		Status:         models.LotStatusAvailable,
		SamplingNumber: "S-1",
	}

	for _, override := range overrides {
		override(lot)
	}

	return lot
}
