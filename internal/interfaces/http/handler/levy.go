package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	accountingapp "github.com/strataledger/backend/internal/application/accounting"
)

// LevyHandler handles levy schedule, calculation and payment endpoints
type LevyHandler struct {
	BaseHandler
	levyService *accountingapp.LevyService
}

// NewLevyHandler creates a new LevyHandler
func NewLevyHandler(levyService *accountingapp.LevyService) *LevyHandler {
	return &LevyHandler{levyService: levyService}
}

// RegisterRoutes registers levy routes
func (h *LevyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/levies")
	{
		group.POST("/schedules", h.CreateSchedule)
		group.POST("/periods", h.CreatePeriod)
		group.POST("/periods/:id/calculate", h.CalculateLevies)
		group.GET("/periods/:id/items", h.ListItemsForPeriod)
		group.POST("/payments", h.RecordPayment)
		group.POST("/items/:id/send", h.MarkItemSent)
		group.POST("/overdue-sweep", h.MarkOverdue)
		group.GET("/lots/:id/outstanding", h.ListOutstandingForLot)
	}
}

// CreateSchedule creates an annual levy schedule for the scheme
func (h *LevyHandler) CreateSchedule(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req accountingapp.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	schedule, err := h.levyService.CreateSchedule(c.Request.Context(), schemeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, schedule)
}

// CreatePeriod creates a levy period under the active schedule
func (h *LevyHandler) CreatePeriod(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req accountingapp.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	period, err := h.levyService.CreatePeriod(c.Request.Context(), schemeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, period)
}

// CalculateLevies generates levy items for every leviable lot in the period
func (h *LevyHandler) CalculateLevies(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	periodID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid period ID")
		return
	}

	result, err := h.levyService.CalculateLevies(c.Request.Context(), schemeID, periodID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListItemsForPeriod returns all levy items generated for a period
func (h *LevyHandler) ListItemsForPeriod(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	periodID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid period ID")
		return
	}

	items, err := h.levyService.ListItemsForPeriod(c.Request.Context(), schemeID, periodID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// RecordPayment records an owner payment and allocates it oldest-first
func (h *LevyHandler) RecordPayment(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req accountingapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.levyService.RecordPayment(c.Request.Context(), schemeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// MarkItemSent transitions a pending levy item to SENT
func (h *LevyHandler) MarkItemSent(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	itemID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid item ID")
		return
	}

	item, err := h.levyService.MarkItemSent(c.Request.Context(), schemeID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// OverdueSweepRequest sets the reference date for the overdue sweep
type OverdueSweepRequest struct {
	AsOf *time.Time `json:"as_of"`
}

// OverdueSweepResponse reports how many items were marked overdue
type OverdueSweepResponse struct {
	ItemsMarked int64 `json:"items_marked"`
}

// MarkOverdue flags unpaid levy items past their due date as OVERDUE
func (h *LevyHandler) MarkOverdue(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req OverdueSweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}
	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	marked, err := h.levyService.MarkOverdue(c.Request.Context(), schemeID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, OverdueSweepResponse{ItemsMarked: marked})
}

// ListOutstandingForLot returns a lot's unpaid levy items, oldest due first
func (h *LevyHandler) ListOutstandingForLot(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	lotID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid lot ID")
		return
	}

	items, err := h.levyService.ListOutstandingForLot(c.Request.Context(), schemeID, lotID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}
