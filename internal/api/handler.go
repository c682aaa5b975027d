// Package api exposes the feasibility engine, calculation history and
// inventory reservation over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stratplan/stratplan/internal/database"
	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/repository"
	"github.com/stratplan/stratplan/internal/services/feasibility"
	"github.com/stratplan/stratplan/internal/services/inventory"
)

// Response codes. The HTTP status is code / 100.
const (
	CodeOK         = 0
	CodeBadRequest = 40000
	CodeNotFound   = 40400
	CodeInternal   = 50000
)

// Response is the envelope of every JSON reply.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Handlers groups the HTTP handlers.
type Handlers struct {
	Strategy  *StrategyHandler
	Inventory *InventoryHandler
	Catalog   *CatalogHandler
	Health    *HealthHandler
}

// NewHandlers creates the handler set over the given services.
func NewHandlers(db *database.DB, calc *feasibility.Service, inv *inventory.Service) *Handlers {
	return &Handlers{
		Strategy:  NewStrategyHandler(repository.NewStrategyRepository(db.DB), calc),
		Inventory: NewInventoryHandler(inv),
		Catalog:   NewCatalogHandler(repository.NewCatalogRepository(db.DB)),
		Health:    NewHealthHandler(db),
	}
}

// Success writes a 200 response.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: CodeOK, Message: "success", Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: CodeOK, Message: "success", Data: data})
}

// Error writes an error response whose status derives from code.
func Error(c *gin.Context, code int, message string) {
	status := code / 100
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, Response{Code: code, Message: message})
}

// BadRequest writes a 400 response.
func BadRequest(c *gin.Context, message string) {
	Error(c, CodeBadRequest, message)
}

// NotFound writes a 404 response.
func NotFound(c *gin.Context, message string) {
	Error(c, CodeNotFound, message)
}

// InternalError writes a 500 response.
func InternalError(c *gin.Context, message string) {
	Error(c, CodeInternal, message)
}

// Fail maps a service error onto a response and records it on the context
// for the request logger.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, feasibility.ErrNotFound),
		errors.Is(err, inventory.ErrNotFound),
		errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, feasibility.ErrInvalidInput),
		errors.Is(err, inventory.ErrInvalidInput):
		BadRequest(c, err.Error())
	case errors.Is(err, feasibility.ErrPersistence):
		InternalError(c, "calculation could not be recorded")
	default:
		InternalError(c, "internal server error")
	}
}

// GetPagination reads page and page_size query parameters.
func GetPagination(c *gin.Context) models.Pagination {
	page, pageSize := 1, 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 {
			pageSize = v
		}
	}

	return models.NewPagination(page, pageSize)
}
