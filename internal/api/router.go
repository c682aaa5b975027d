package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stratplan/stratplan/internal/config"
)

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(h *Handlers, logger *slog.Logger, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestID(), Logger(logger), Recovery(logger))

	r.GET("/health", h.Health.Check)

	v1 := r.Group("/api/v1")
	{
		strategies := v1.Group("/strategies")
		strategies.GET("", h.Strategy.List)
		strategies.GET("/:id", h.Strategy.Get)
		strategies.POST("/:id/calculations", h.Strategy.Calculate)
		strategies.GET("/:id/calculations", h.Strategy.ListCalculations)
		strategies.GET("/:id/calculations/latest", h.Strategy.LatestCalculation)

		calculations := v1.Group("/calculations")
		calculations.GET("", h.Strategy.ListCalculationsByResult)
		calculations.GET("/:id", h.Strategy.GetCalculation)
		calculations.GET("/:id/stats", h.Strategy.CalculationStats)

		products := v1.Group("/products")
		products.GET("", h.Catalog.ListProducts)
		products.GET("/:id", h.Catalog.GetProduct)
		products.GET("/:id/requirements", h.Strategy.Requirements)

		v1.GET("/resources", h.Catalog.ListResources)
		v1.GET("/resources/:id/availability", h.Inventory.Availability)

		lots := v1.Group("/lots")
		lots.GET("", h.Inventory.ListLots)
		lots.POST("", h.Inventory.ReceiveLot)
		lots.GET("/expiry", h.Inventory.Expiry)
		lots.GET("/:id", h.Inventory.GetLot)
		lots.PUT("/:id/reserve", h.Inventory.Reserve)
		lots.PUT("/:id/release", h.Inventory.Release)

		warehouses := v1.Group("/warehouses")
		warehouses.GET("", h.Inventory.ListWarehouses)
		warehouses.GET("/:id/stats", h.Inventory.WarehouseStats)
		warehouses.PUT("/:id/status", h.Inventory.SetWarehouseStatus)
	}

	return r
}

// NewServer wraps the router in an http.Server configured from cfg.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
}
