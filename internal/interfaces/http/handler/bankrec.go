package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	accountingapp "github.com/strataledger/backend/internal/application/accounting"
	"github.com/strataledger/backend/internal/domain/bankrec"
)

// BankRecHandler handles bank statement import and reconciliation endpoints
type BankRecHandler struct {
	BaseHandler
	reconciliationService *accountingapp.ReconciliationService
}

// NewBankRecHandler creates a new BankRecHandler
func NewBankRecHandler(reconciliationService *accountingapp.ReconciliationService) *BankRecHandler {
	return &BankRecHandler{reconciliationService: reconciliationService}
}

// RegisterRoutes registers bank reconciliation routes
func (h *BankRecHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/bank")
	{
		group.POST("/statements", h.ImportStatement)
		group.GET("/statements/:id", h.GetStatement)
		group.POST("/statements/:id/automatch", h.AutoMatch)
		group.POST("/statements/:id/finalize", h.Finalize)
		group.GET("/statements/:id/reconciliation", h.GetReconciliation)
		group.POST("/lines/:id/match", h.ManualMatch)
		group.POST("/lines/:id/unmatch", h.Unmatch)
		group.POST("/lines/:id/transactions", h.CreateAndMatch)
	}
}

// ImportStatement parses and stores a raw bank statement export
func (h *BankRecHandler) ImportStatement(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req accountingapp.ImportStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.reconciliationService.ImportStatement(c.Request.Context(), schemeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// StatementResponse bundles a statement with its lines
type StatementResponse struct {
	Statement *bankrec.BankStatement       `json:"statement"`
	Lines     []*bankrec.BankStatementLine `json:"lines"`
}

// GetStatement returns a statement and its lines
func (h *BankRecHandler) GetStatement(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	statementID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid statement ID")
		return
	}

	statement, lines, err := h.reconciliationService.GetStatement(c.Request.Context(), schemeID, statementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, StatementResponse{Statement: statement, Lines: lines})
}

// AutoMatch runs the matcher over the statement's unmatched lines
func (h *BankRecHandler) AutoMatch(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	statementID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid statement ID")
		return
	}

	matches, err := h.reconciliationService.AutoMatch(c.Request.Context(), schemeID, statementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, matches)
}

// ManualMatchRequest names the ledger transaction to match a line against
type ManualMatchRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
}

// ManualMatch matches a statement line to a chosen ledger transaction
func (h *BankRecHandler) ManualMatch(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	lineID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid line ID")
		return
	}

	var req ManualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	txnID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		h.BadRequest(c, "invalid transaction ID")
		return
	}

	line, err := h.reconciliationService.ManualMatch(c.Request.Context(), schemeID, lineID, txnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// Unmatch clears a statement line's match
func (h *BankRecHandler) Unmatch(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	lineID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid line ID")
		return
	}

	line, err := h.reconciliationService.Unmatch(c.Request.Context(), schemeID, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// CreateAndMatch posts a ledger transaction mirroring the line and matches it
func (h *BankRecHandler) CreateAndMatch(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	lineID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid line ID")
		return
	}

	var req accountingapp.CreateAndMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	txn, err := h.reconciliationService.CreateAndMatch(c.Request.Context(), schemeID, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, txn)
}

// Finalize seals the statement's reconciliation
func (h *BankRecHandler) Finalize(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	statementID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid statement ID")
		return
	}

	result, err := h.reconciliationService.Finalize(c.Request.Context(), schemeID, statementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// GetReconciliation returns the sealed reconciliation for a statement
func (h *BankRecHandler) GetReconciliation(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	statementID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid statement ID")
		return
	}

	rec, err := h.reconciliationService.GetReconciliation(c.Request.Context(), schemeID, statementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rec)
}
