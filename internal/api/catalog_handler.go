package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/stratplan/stratplan/internal/models"
)

// CatalogReader reads products, resources and the bill of materials.
type CatalogReader interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	ListRelationsByProduct(ctx context.Context, productID string) ([]*models.ProductResourceRelation, error)
	GetResourceByCode(ctx context.Context, code string) (*models.Resource, error)
	ListResources(ctx context.Context) ([]*models.Resource, error)
}

// CatalogHandler serves the product and resource catalog.
type CatalogHandler struct {
	catalog CatalogReader
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalog CatalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts handles GET /products.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, products)
}

// GetProduct handles GET /products/:id, including its direct relations.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()
	product, err := h.catalog.GetProduct(ctx, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	relations, err := h.catalog.ListRelationsByProduct(ctx, product.ID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"product": product, "relations": relations})
}

// ListResources handles GET /resources and GET /resources?code=.
func (h *CatalogHandler) ListResources(c *gin.Context) {
	if code := c.Query("code"); code != "" {
		res, err := h.catalog.GetResourceByCode(c.Request.Context(), code)
		if err != nil {
			Fail(c, err)
			return
		}
		Success(c, []*models.Resource{res})
		return
	}

	resources, err := h.catalog.ListResources(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, resources)
}
