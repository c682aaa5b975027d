// Package seed provides demo data for a fresh planner database.
package seed

import "github.com/stratplan/stratplan/internal/models"

// Warehouses defines the demo warehouses. The vault is do_not_touch so the
// exclusion policy has something to exclude.
var Warehouses = []struct {
	Name     string
	Location string
	Type     models.WarehouseType
	Status   models.WarehouseStatus
}{
	{"Central Depot", "Building A, Dock 1", models.WarehouseTypePrimary, models.WarehouseStatusActive},
	{"North Annex", "Building C", models.WarehouseTypeSecondary, models.WarehouseStatusActive},
	{"Reserve Vault", "Basement B2", models.WarehouseTypeSecondary, models.WarehouseStatusDoNotTouch},
	{"Old Storage", "Lot 7", models.WarehouseTypeSecondary, models.WarehouseStatusInactive},
}

// Resources defines the demo resources. BaseStock is the mean quantity of a
// lot; ShelfLifeDays of zero means lots never expire.
var Resources = []struct {
	Code          string
	Name          string
	Type          models.ResourceType
	Unit          string
	Description   string
	BaseStock     float64
	ShelfLifeDays int
}{
	{"FLOUR", "Wheat flour", models.ResourceTypeRawMaterial, "kg", "Type 55 bread flour", 120, 240},
	{"SUGAR", "Cane sugar", models.ResourceTypeRawMaterial, "kg", "Refined white sugar", 60, 720},
	{"YEAST", "Dry yeast", models.ResourceTypeRawMaterial, "kg", "Instant dry yeast", 2, 90},
	{"WATER", "Process water", models.ResourceTypeRawMaterial, "l", "Filtered process water", 400, 0},
	{"COCOA", "Cocoa powder", models.ResourceTypeRawMaterial, "kg", "Dutch-processed cocoa", 15, 365},
	{"BOX-S", "Small carton", models.ResourceTypeSupply, "unit", "Folding carton 20x15x5", 300, 0},
	{"LABEL", "Product label", models.ResourceTypeSupply, "unit", "Printed adhesive label", 800, 0},
	{"CRUMBS", "Bread crumbs", models.ResourceTypeRawMaterial, "kg", "Recovered from trimming", 5, 30},
}

// Products defines the demo products.
var Products = []struct {
	Code        string
	Name        string
	Description string
	Packaging   string
	Type        models.ProductType
	Unit        string
}{
	{"BREAD-LOAF", "Country loaf", "800 g sourdough loaf", "bag", models.ProductTypeDirect, "unit"},
	{"COOKIE-PACK", "Cocoa cookies", "Pack of 12 cookies", "box", models.ProductTypeDirect, "pack"},
	{"CAKE-SLAB", "Chocolate slab cake", "1.2 kg slab", "box", models.ProductTypeDirect, "unit"},
	{"STARTER", "Bakery starter mix", "Internal pre-mix", "bulk", models.ProductTypeIndirect, "kg"},
}

// BillOfMaterials defines the demo edges by product and resource code.
var BillOfMaterials = []struct {
	Product  string
	Resource string
	PerUnit  string
	Relation models.RelationType
}{
	{"BREAD-LOAF", "FLOUR", "0.5", models.RelationTypeConsumption},
	{"BREAD-LOAF", "YEAST", "0.01", models.RelationTypeConsumption},
	{"BREAD-LOAF", "WATER", "0.35", models.RelationTypeConsumption},
	{"BREAD-LOAF", "LABEL", "1", models.RelationTypeConsumption},
	{"BREAD-LOAF", "CRUMBS", "0.02", models.RelationTypeProduction},
	{"COOKIE-PACK", "FLOUR", "0.2", models.RelationTypeConsumption},
	{"COOKIE-PACK", "SUGAR", "0.1", models.RelationTypeConsumption},
	{"COOKIE-PACK", "COCOA", "0.03", models.RelationTypeConsumption},
	{"COOKIE-PACK", "BOX-S", "1", models.RelationTypeConsumption},
	{"CAKE-SLAB", "FLOUR", "0.4", models.RelationTypeConsumption},
	{"CAKE-SLAB", "SUGAR", "0.35", models.RelationTypeConsumption},
	{"CAKE-SLAB", "COCOA", "0.12", models.RelationTypeConsumption},
	{"CAKE-SLAB", "BOX-S", "1", models.RelationTypeConsumption},
	{"STARTER", "FLOUR", "0.6", models.RelationTypeConsumption},
	{"STARTER", "WATER", "0.4", models.RelationTypeConsumption},
}

// DemandLine is one demo demand line, by product code.
type DemandLine struct {
	Product  string
	Type     models.DemandType
	Quantity string
	Period   models.Period
}

// Strategies defines the demo strategies and their demand lines.
var Strategies = []struct {
	Name        string
	Description string
	MaxBudget   string
	Demand      []DemandLine
}{
	{
		Name:        "Winter Bakery Plan",
		Description: "Steady bread and cookie output for the winter season",
		MaxBudget:   "25000",
		Demand: []DemandLine{
			{"BREAD-LOAF", models.DemandTypeStatic, "400", models.PeriodMonthly},
			{"COOKIE-PACK", models.DemandTypeStatic, "250", models.PeriodMonthly},
		},
	},
	{
		Name:        "Holiday Cake Push",
		Description: "Quarterly cake promotion with a starter mix buffer",
		MaxBudget:   "60000",
		Demand: []DemandLine{
			{"CAKE-SLAB", models.DemandTypeDynamic, "1500", models.PeriodQuarterly},
			{"STARTER", models.DemandTypeStatic, "50", models.PeriodQuarterly},
		},
	},
}
