package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/services/inventory"
)

// InventoryHandler serves lots and warehouses.
type InventoryHandler struct {
	svc *inventory.Service
}

// NewInventoryHandler creates an InventoryHandler.
func NewInventoryHandler(svc *inventory.Service) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// QuantityRequest is the body of reserve and release calls.
type QuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// ReceiveLotRequest is the body of a lot receipt.
type ReceiveLotRequest struct {
	ResourceID     string          `json:"resource_id" binding:"required"`
	WarehouseID    string          `json:"warehouse_id" binding:"required"`
	LotNumber      string          `json:"lot_number" binding:"required"`
	Manufacturer   string          `json:"manufacturer"`
	ManufacturedAt time.Time       `json:"manufactured_at"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	ValidUntil     *time.Time      `json:"valid_until"`
	Quantity       decimal.Decimal `json:"quantity"`
	SamplingNumber string          `json:"sampling_number"`
}

// WarehouseStatusRequest is the body of a warehouse status change.
type WarehouseStatusRequest struct {
	Status models.WarehouseStatus `json:"status" binding:"required"`
}

// ListLots handles GET /lots.
func (h *InventoryHandler) ListLots(c *gin.Context) {
	filter := models.LotFilter{
		ResourceID:  c.Query("resource_id"),
		WarehouseID: c.Query("warehouse_id"),
	}
	if s := c.Query("status"); s != "" {
		status := models.LotStatus(s)
		if !status.Valid() {
			BadRequest(c, "invalid status: "+s)
			return
		}
		filter.Status = &status
	}

	list, err := h.svc.ListLots(c.Request.Context(), filter, GetPagination(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, list)
}

// ReceiveLot handles POST /lots.
func (h *InventoryHandler) ReceiveLot(c *gin.Context) {
	var req ReceiveLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	lot, err := h.svc.ReceiveLot(c.Request.Context(), inventory.ReceiveLotInput{
		ResourceID:     req.ResourceID,
		WarehouseID:    req.WarehouseID,
		LotNumber:      req.LotNumber,
		Manufacturer:   req.Manufacturer,
		ManufacturedAt: req.ManufacturedAt,
		ExpiresAt:      req.ExpiresAt,
		ValidUntil:     req.ValidUntil,
		Quantity:       req.Quantity,
		SamplingNumber: req.SamplingNumber,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, lot)
}

// GetLot handles GET /lots/:id.
func (h *InventoryHandler) GetLot(c *gin.Context) {
	lot, err := h.svc.GetLot(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, lot)
}

// Reserve handles PUT /lots/:id/reserve.
func (h *InventoryHandler) Reserve(c *gin.Context) {
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	lot, err := h.svc.Reserve(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, lot)
}

// Release handles PUT /lots/:id/release.
func (h *InventoryHandler) Release(c *gin.Context) {
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	lot, err := h.svc.Release(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, lot)
}

// Expiry handles GET /lots/expiry?days=.
func (h *InventoryHandler) Expiry(c *gin.Context) {
	days := 0
	if d := c.Query("days"); d != "" {
		v, err := strconv.Atoi(d)
		if err != nil || v < 0 {
			BadRequest(c, "invalid days: "+d)
			return
		}
		days = v
	}

	report, err := h.svc.ExpiryReport(c.Request.Context(), days)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, report)
}

// ListWarehouses handles GET /warehouses.
func (h *InventoryHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.svc.ListWarehouses(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, warehouses)
}

// WarehouseStats handles GET /warehouses/:id/stats.
func (h *InventoryHandler) WarehouseStats(c *gin.Context) {
	stats, err := h.svc.WarehouseStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, stats)
}

// Availability handles GET /resources/:id/availability.
func (h *InventoryHandler) Availability(c *gin.Context) {
	avail, err := h.svc.AvailableTotal(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, avail)
}

// SetWarehouseStatus handles PUT /warehouses/:id/status.
func (h *InventoryHandler) SetWarehouseStatus(c *gin.Context) {
	var req WarehouseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := h.svc.SetWarehouseStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"id": c.Param("id"), "status": req.Status})
}
