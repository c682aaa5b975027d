package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/services/feasibility"
)

// StrategyLister reads strategies for the listing endpoints.
type StrategyLister interface {
	List(ctx context.Context, filter models.StrategyFilter, page models.Pagination) (*models.StrategyList, error)
	GetWithDemand(ctx context.Context, id string) (*models.Strategy, []*models.Demand, error)
}

// StrategyHandler serves strategies and their feasibility calculations.
type StrategyHandler struct {
	strategies StrategyLister
	calc       *feasibility.Service
}

// NewStrategyHandler creates a StrategyHandler.
func NewStrategyHandler(strategies StrategyLister, calc *feasibility.Service) *StrategyHandler {
	return &StrategyHandler{strategies: strategies, calc: calc}
}

// List handles GET /strategies.
func (h *StrategyHandler) List(c *gin.Context) {
	var filter models.StrategyFilter
	if s := c.Query("status"); s != "" {
		status := models.StrategyStatus(s)
		if !status.Valid() {
			BadRequest(c, "invalid status: "+s)
			return
		}
		filter.Status = &status
	}
	if r := c.Query("result"); r != "" {
		result := models.StrategyResult(r)
		if !result.Valid() {
			BadRequest(c, "invalid result: "+r)
			return
		}
		filter.Result = &result
	}
	filter.Search = c.Query("search")

	list, err := h.strategies.List(c.Request.Context(), filter, GetPagination(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, list)
}

// Get handles GET /strategies/:id.
func (h *StrategyHandler) Get(c *gin.Context) {
	strategy, demand, err := h.strategies.GetWithDemand(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"strategy": strategy, "demand": demand})
}

// Calculate handles POST /strategies/:id/calculations. The optional JSON
// body is a policy; absent options take the configured defaults.
func (h *StrategyHandler) Calculate(c *gin.Context) {
	policy, err := feasibility.DecodePolicy(c.Request.Body, h.calc.DefaultPolicy())
	if err != nil {
		Fail(c, err)
		return
	}

	result, err := h.calc.Calculate(c.Request.Context(), feasibility.Request{
		StrategyID: c.Param("id"),
		Policy:     policy,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, result)
}

// ListCalculations handles GET /strategies/:id/calculations.
func (h *StrategyHandler) ListCalculations(c *gin.Context) {
	list, err := h.calc.ListCalculations(c.Request.Context(), c.Param("id"), GetPagination(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, list)
}

// LatestCalculation handles GET /strategies/:id/calculations/latest.
func (h *StrategyHandler) LatestCalculation(c *gin.Context) {
	calc, err := h.calc.LatestCalculation(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, calc)
}

// ListCalculationsByResult handles GET /calculations?result=.
func (h *StrategyHandler) ListCalculationsByResult(c *gin.Context) {
	result := models.CalculationResult(c.Query("result"))
	list, err := h.calc.ListCalculationsByResult(c.Request.Context(), result, GetPagination(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, list)
}

// GetCalculation handles GET /calculations/:id.
func (h *StrategyHandler) GetCalculation(c *gin.Context) {
	calc, err := h.calc.GetCalculation(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, calc)
}

// CalculationStats handles GET /calculations/:id/stats.
func (h *StrategyHandler) CalculationStats(c *gin.Context) {
	stats, err := h.calc.CalculationStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, stats)
}

// Requirements handles GET /products/:id/requirements?quantity=.
func (h *StrategyHandler) Requirements(c *gin.Context) {
	qty, err := decimal.NewFromString(c.DefaultQuery("quantity", "1"))
	if err != nil {
		BadRequest(c, "invalid quantity: "+err.Error())
		return
	}

	preview, err := h.calc.Requirements(c.Request.Context(), c.Param("id"), qty)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, preview)
}
