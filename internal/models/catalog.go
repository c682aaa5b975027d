package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType classifies a product.
type ProductType string

const (
	ProductTypeDirect   ProductType = "direct"
	ProductTypeIndirect ProductType = "indirect"
)

// Valid returns true if the product type is valid.
func (p ProductType) Valid() bool {
	return p == ProductTypeDirect || p == ProductTypeIndirect
}

// Product is a finished good that strategies demand.
type Product struct {
	ID            string      `json:"id"`
	Code          string      `json:"code"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	PackagingType string      `json:"packaging_type,omitempty"`
	ProductType   ProductType `json:"product_type"`
	UnitOfMeasure string      `json:"unit_of_measure"`
	CreatedAt     time.Time   `json:"created_at"`
}

// ResourceType classifies a resource.
type ResourceType string

const (
	ResourceTypeRawMaterial ResourceType = "raw_material"
	ResourceTypeSupply      ResourceType = "supply"
)

// Valid returns true if the resource type is valid.
func (r ResourceType) Valid() bool {
	return r == ResourceTypeRawMaterial || r == ResourceTypeSupply
}

// Resource is an input material or supply held in inventory.
type Resource struct {
	ID                string       `json:"id"`
	Code              string       `json:"code"`
	Name              string       `json:"name"`
	ResourceType      ResourceType `json:"resource_type"`
	UnitOfMeasure     string       `json:"unit_of_measure"`
	Description       string       `json:"description,omitempty"`
	RelationCriterion *string      `json:"relation_criterion,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

// RelationType is the direction of a bill-of-materials edge.
type RelationType string

const (
	RelationTypeConsumption RelationType = "consumption"
	RelationTypeProduction  RelationType = "production"
)

// Valid returns true if the relation type is valid.
func (r RelationType) Valid() bool {
	return r == RelationTypeConsumption || r == RelationTypeProduction
}

// ProductResourceRelation is one bill-of-materials edge. At most one exists
// per (product, resource) pair.
type ProductResourceRelation struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ResourceID      string          `json:"resource_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	RelationType    RelationType    `json:"relation_type"`

	// Joined fields
	Resource *Resource `json:"resource,omitempty"`
}
