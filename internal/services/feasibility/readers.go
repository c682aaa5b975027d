package feasibility

import (
	"context"
	"database/sql"

	"github.com/stratplan/stratplan/internal/models"
)

// StrategyReader loads a strategy with its demand lines.
type StrategyReader interface {
	GetWithDemand(ctx context.Context, id string) (*models.Strategy, []*models.Demand, error)
}

// CatalogReader resolves products, resources and bill-of-materials edges.
type CatalogReader interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetResource(ctx context.Context, id string) (*models.Resource, error)
	ListRelationsByProduct(ctx context.Context, productID string) ([]*models.ProductResourceRelation, error)
}

// InventoryReader lists a resource's available lots. GetWarehouse is used
// when a lot arrives without its warehouse joined.
type InventoryReader interface {
	ListAvailableLots(ctx context.Context, resourceID string) ([]*models.InventoryLot, error)
	GetWarehouse(ctx context.Context, id string) (*models.Warehouse, error)
}

// CalculationWriter inserts calculation snapshots within a transaction.
type CalculationWriter interface {
	Create(ctx context.Context, tx *sql.Tx, c *models.Calculation) error
	CreateDetail(ctx context.Context, tx *sql.Tx, d *models.ResourceDetail) error
}

// StrategyResultWriter updates a strategy's cached result within a transaction.
type StrategyResultWriter interface {
	UpdateResult(ctx context.Context, tx *sql.Tx, id string, result models.StrategyResult) error
}

// TxRunner runs fn in one transaction, committing on nil and rolling back otherwise.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// IDGenerator produces identifiers for new rows.
type IDGenerator interface {
	NewID() string
}

// CalculationReader reads recorded calculations.
type CalculationReader interface {
	GetWithDetails(ctx context.Context, id string) (*models.Calculation, error)
	Latest(ctx context.Context, strategyID string) (*models.Calculation, error)
	List(ctx context.Context, filter models.CalculationFilter, page models.Pagination) (*models.CalculationList, error)
}

// CalculationStore reads and writes calculations.
type CalculationStore interface {
	CalculationReader
	CalculationWriter
}
