package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stratplan/stratplan/internal/models"
)

// CatalogRepository handles products, resources and the bill-of-materials
// edges between them.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const (
	productColumns  = `id, code, name, description, packaging_type, product_type, unit_of_measure, created_at`
	resourceColumns = `id, code, name, resource_type, unit_of_measure, description, relation_criterion, created_at`
)

// ============================================================================
// PRODUCTS
// ============================================================================

// CreateProduct inserts a new product.
func (r *CatalogRepository) CreateProduct(ctx context.Context, tx *sql.Tx, p *models.Product) error {
	query := `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	p.CreatedAt = time.Now().UTC()

	_, err := getExecer(r.db, tx).ExecContext(ctx, query,
		p.ID,
		p.Code,
		p.Name,
		p.Description,
		p.PackagingType,
		p.ProductType,
		p.UnitOfMeasure,
		formatTimestamp(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by ID.
func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	return scanProduct(r.db.QueryRowContext(ctx, query, id))
}

// ListProducts retrieves all products ordered by code.
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ============================================================================
// RESOURCES
// ============================================================================

// CreateResource inserts a new resource.
func (r *CatalogRepository) CreateResource(ctx context.Context, tx *sql.Tx, res *models.Resource) error {
	query := `INSERT INTO resources (` + resourceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res.CreatedAt = time.Now().UTC()

	_, err := getExecer(r.db, tx).ExecContext(ctx, query,
		res.ID,
		res.Code,
		res.Name,
		res.ResourceType,
		res.UnitOfMeasure,
		res.Description,
		nullableStringPtr(res.RelationCriterion),
		formatTimestamp(res.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting resource: %w", err)
	}
	return nil
}

// GetResource retrieves a resource by ID.
func (r *CatalogRepository) GetResource(ctx context.Context, id string) (*models.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = ?`
	return scanResource(r.db.QueryRowContext(ctx, query, id))
}

// GetResourceByCode retrieves a resource by its unique code.
func (r *CatalogRepository) GetResourceByCode(ctx context.Context, code string) (*models.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE code = ?`
	return scanResource(r.db.QueryRowContext(ctx, query, code))
}

// ListResources retrieves all resources ordered by code.
func (r *CatalogRepository) ListResources(ctx context.Context) ([]*models.Resource, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+resourceColumns+` FROM resources ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("querying resources: %w", err)
	}
	defer rows.Close()

	var resources []*models.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

// ============================================================================
// BILL OF MATERIALS
// ============================================================================

// CreateRelation inserts a bill-of-materials edge. A second edge for the
// same (product, resource) pair violates the unique constraint.
func (r *CatalogRepository) CreateRelation(ctx context.Context, tx *sql.Tx, rel *models.ProductResourceRelation) error {
	query := `
		INSERT INTO product_resources (id, product_id, resource_id, quantity_per_unit, relation_type)
		VALUES (?, ?, ?, ?, ?)`

	_, err := getExecer(r.db, tx).ExecContext(ctx, query,
		rel.ID,
		rel.ProductID,
		rel.ResourceID,
		rel.QuantityPerUnit.String(),
		rel.RelationType,
	)
	if err != nil {
		return fmt.Errorf("inserting product resource relation: %w", err)
	}
	return nil
}

// ListRelationsByProduct returns every edge of a product, both consumption
// and production, with the resource joined, ordered by resource code.
func (r *CatalogRepository) ListRelationsByProduct(ctx context.Context, productID string) ([]*models.ProductResourceRelation, error) {
	query := `
		SELECT pr.id, pr.product_id, pr.resource_id, pr.quantity_per_unit, pr.relation_type,
			res.id, res.code, res.name, res.resource_type, res.unit_of_measure,
			res.description, res.relation_criterion, res.created_at
		FROM product_resources pr
		JOIN resources res ON res.id = pr.resource_id
		WHERE pr.product_id = ?
		ORDER BY res.code, pr.id`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("querying product resources: %w", err)
	}
	defer rows.Close()

	var relations []*models.ProductResourceRelation
	for rows.Next() {
		var rel models.ProductResourceRelation
		var res models.Resource
		var criterion sql.NullString
		var createdStr string

		if err := rows.Scan(
			&rel.ID,
			&rel.ProductID,
			&rel.ResourceID,
			&rel.QuantityPerUnit,
			&rel.RelationType,
			&res.ID,
			&res.Code,
			&res.Name,
			&res.ResourceType,
			&res.UnitOfMeasure,
			&res.Description,
			&criterion,
			&createdStr,
		); err != nil {
			return nil, fmt.Errorf("scanning product resource row: %w", err)
		}

		if criterion.Valid {
			res.RelationCriterion = &criterion.String
		}
		res.CreatedAt = parseTimestamp(createdStr)
		rel.Resource = &res
		relations = append(relations, &rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product resources: %w", err)
	}

	return relations, nil
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var createdStr string

	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Name,
		&p.Description,
		&p.PackagingType,
		&p.ProductType,
		&p.UnitOfMeasure,
		&createdStr,
	)
	if err != nil {
		return nil, notFound("product", err)
	}

	p.CreatedAt = parseTimestamp(createdStr)
	return &p, nil
}

func scanResource(row rowScanner) (*models.Resource, error) {
	var res models.Resource
	var criterion sql.NullString
	var createdStr string

	err := row.Scan(
		&res.ID,
		&res.Code,
		&res.Name,
		&res.ResourceType,
		&res.UnitOfMeasure,
		&res.Description,
		&criterion,
		&createdStr,
	)
	if err != nil {
		return nil, notFound("resource", err)
	}

	if criterion.Valid {
		res.RelationCriterion = &criterion.String
	}
	res.CreatedAt = parseTimestamp(createdStr)
	return &res, nil
}
