package handler

import (
	"github.com/gin-gonic/gin"
	reportapp "github.com/strataledger/backend/internal/application/report"
	"github.com/strataledger/backend/internal/domain/shared"
)

// ReportHandler handles financial report endpoints
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.Service
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *reportapp.Service) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// RegisterRoutes registers report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/reports")
	{
		group.GET("/trial-balance", h.TrialBalance)
		group.GET("/fund-balances", h.FundBalances)
		group.GET("/income-statement", h.IncomeStatement)
		group.GET("/arrears", h.Arrears)
	}
}

// TrialBalance returns per-account debit and credit totals
func (h *ReportHandler) TrialBalance(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	asOf, err := parseTimeQuery(c, "as_of")
	if err != nil {
		h.BadRequest(c, "as_of must be an RFC3339 timestamp or YYYY-MM-DD date")
		return
	}

	report, err := h.reportService.TrialBalance(c.Request.Context(), schemeID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// FundBalances returns opening balance, movement and closing balance per fund
func (h *ReportHandler) FundBalances(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		h.BadRequest(c, "from must be an RFC3339 timestamp or YYYY-MM-DD date")
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		h.BadRequest(c, "to must be an RFC3339 timestamp or YYYY-MM-DD date")
		return
	}

	report, err := h.reportService.FundBalanceSummary(c.Request.Context(), schemeID, shared.DateRange{From: from, To: to})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// IncomeStatement returns income and expense totals for a date range
func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil || from == nil {
		h.BadRequest(c, "from is required and must be an RFC3339 timestamp or YYYY-MM-DD date")
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil || to == nil {
		h.BadRequest(c, "to is required and must be an RFC3339 timestamp or YYYY-MM-DD date")
		return
	}

	report, err := h.reportService.IncomeStatement(c.Request.Context(), schemeID, *from, *to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Arrears returns outstanding levy balances grouped by lot
func (h *ReportHandler) Arrears(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.reportService.ArrearsSummary(c.Request.Context(), schemeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
