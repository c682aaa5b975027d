package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stratplan/stratplan/internal/database"
)

// HealthHandler reports database health.
type HealthHandler struct {
	db *database.DB
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.db.HealthCheck(ctx); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, Response{Code: 50300, Message: "database unavailable"})
		return
	}

	stats, err := h.db.GetStats(ctx)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"status": "ok", "database": stats})
}
