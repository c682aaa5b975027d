package feasibility

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratplan/stratplan/internal/models"
)

// Request asks for a feasibility run of one strategy.
type Request struct {
	StrategyID string
	Policy     Policy
}

// Result is the caller-facing outcome of a run.
type Result struct {
	CalculationID   string                   `json:"calculation_id"`
	StrategyID      string                   `json:"strategy_id"`
	StrategyName    string                   `json:"strategy_name"`
	Result          models.CalculationResult `json:"result"`
	BudgetUsed      decimal.Decimal          `json:"budget_used"`
	BudgetAvailable decimal.NullDecimal      `json:"budget_available"`
	CalculatedAt    time.Time                `json:"calculated_at"`
	Notes           string                   `json:"notes,omitempty"`
	Products        []ProductResult          `json:"products"`
}

// ProductResult is the verdict for one demand line.
type ProductResult struct {
	DemandID    string           `json:"demand_id"`
	ProductID   string           `json:"product_id"`
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Unit        string           `json:"unit"`
	Satisfiable bool             `json:"satisfiable"`
	Resources   []ResourceResult `json:"resources"`
}

// ResourceResult is the verdict for one resource of a demand line.
type ResourceResult struct {
	ResourceID  string              `json:"resource_id"`
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Unit        string              `json:"unit"`
	PerUnit     decimal.Decimal     `json:"per_unit"`
	Required    decimal.Decimal     `json:"required"`
	Available   decimal.Decimal     `json:"available"`
	Satisfiable bool                `json:"satisfiable"`
	Deficit     decimal.NullDecimal `json:"deficit"`
	Lots        []LotContribution   `json:"lots"`
}

// RequirementLine is one edge of a product's bill of materials scaled to a
// quantity.
type RequirementLine struct {
	ResourceID   string              `json:"resource_id"`
	Code         string              `json:"code"`
	Name         string              `json:"name"`
	Unit         string              `json:"unit"`
	RelationType models.RelationType `json:"relation_type"`
	PerUnit      decimal.Decimal     `json:"per_unit"`
	Total        decimal.Decimal     `json:"total"`
}

// RequirementsPreview is the bill of materials of a product at a given
// quantity, without touching inventory.
type RequirementsPreview struct {
	ProductID string            `json:"product_id"`
	Code      string            `json:"code"`
	Name      string            `json:"name"`
	Quantity  decimal.Decimal   `json:"quantity"`
	Lines     []RequirementLine `json:"lines"`

	ConsumptionTotal decimal.Decimal `json:"consumption_total"`
	ProductionTotal  decimal.Decimal `json:"production_total"`
}
