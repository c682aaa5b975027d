package feasibility

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stratplan/stratplan/internal/models"
)

// Requirement is the total quantity of one resource needed for a demanded
// product quantity.
type Requirement struct {
	ResourceID string
	Resource   *models.Resource
	PerUnit    decimal.Decimal
	Required   decimal.Decimal
}

// Explorer expands products into resource requirements through their
// bill-of-materials edges.
type Explorer struct {
	catalog CatalogReader
}

// NewExplorer creates an Explorer over the given catalog.
func NewExplorer(catalog CatalogReader) *Explorer {
	return &Explorer{catalog: catalog}
}

// Explode returns one requirement per consumption edge of the product, in
// edge order, with Required = PerUnit × qty. Production edges are outputs
// and are skipped. A product without edges yields an empty list.
func (e *Explorer) Explode(ctx context.Context, productID string, qty decimal.Decimal) ([]Requirement, error) {
	_, reqs, err := e.explode(ctx, productID, qty)
	return reqs, err
}

func (e *Explorer) explode(ctx context.Context, productID string, qty decimal.Decimal) (*models.Product, []Requirement, error) {
	product, edges, err := e.edges(ctx, productID, qty)
	if err != nil {
		return nil, nil, err
	}

	reqs := make([]Requirement, 0, len(edges))
	for _, edge := range edges {
		if edge.RelationType != models.RelationTypeConsumption {
			continue
		}
		reqs = append(reqs, requirementFor(edge, qty))
	}
	return product, reqs, nil
}

// edges resolves the product and returns all of its edges after checking
// quantities are non-negative.
func (e *Explorer) edges(ctx context.Context, productID string, qty decimal.Decimal) (*models.Product, []*models.ProductResourceRelation, error) {
	if qty.IsNegative() {
		return nil, nil, invalid("demanded quantity %s for product %s is negative", qty, productID)
	}

	product, err := e.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, translate("resolving product "+productID, err)
	}

	edges, err := e.catalog.ListRelationsByProduct(ctx, productID)
	if err != nil {
		return nil, nil, translate("listing bill of materials for product "+productID, err)
	}

	for _, edge := range edges {
		if edge.QuantityPerUnit.IsNegative() {
			return nil, nil, invalid("quantity per unit %s on relation %s is negative", edge.QuantityPerUnit, edge.ID)
		}
	}

	return product, edges, nil
}

func requirementFor(edge *models.ProductResourceRelation, qty decimal.Decimal) Requirement {
	return Requirement{
		ResourceID: edge.ResourceID,
		Resource:   edge.Resource,
		PerUnit:    edge.QuantityPerUnit,
		Required:   edge.QuantityPerUnit.Mul(qty),
	}
}
