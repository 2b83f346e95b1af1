package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	accountingapp "github.com/strataledger/backend/internal/application/accounting"
	"github.com/strataledger/backend/internal/domain/ledger"
)

// LedgerHandler handles chart-of-accounts and ledger transaction endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService *accountingapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *accountingapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// RegisterRoutes registers ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/ledger")
	{
		group.POST("/chart", h.ProvisionChart)
		group.GET("/chart", h.GetChart)
		group.POST("/receipts", h.PostReceipt)
		group.POST("/payments", h.PostPayment)
		group.POST("/journals", h.PostJournal)
		group.GET("/transactions", h.ListTransactions)
		group.GET("/transactions/:id", h.GetTransaction)
		group.PUT("/transactions/:id/lines", h.UpdateLines)
		group.DELETE("/transactions/:id", h.DeleteTransaction)
		group.GET("/trust-balance", h.TrustBalance)
	}
}

// ProvisionChart seeds the default chart of accounts for a scheme
func (h *LedgerHandler) ProvisionChart(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	accounts, err := h.ledgerService.ProvisionChart(c.Request.Context(), schemeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, accounts)
}

// GetChart returns the scheme's chart of accounts
func (h *LedgerHandler) GetChart(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	accounts, err := h.ledgerService.GetChart(c.Request.Context(), schemeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// PostReceipt posts a two-line receipt transaction
func (h *LedgerHandler) PostReceipt(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req accountingapp.PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	txn, err := h.ledgerService.PostReceipt(c.Request.Context(), schemeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, txn)
}

// PostPayment posts a two-line payment transaction
func (h *LedgerHandler) PostPayment(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req accountingapp.PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	txn, err := h.ledgerService.PostPayment(c.Request.Context(), schemeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, txn)
}

// PostJournal posts a multi-line balanced journal
func (h *LedgerHandler) PostJournal(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req accountingapp.PostJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	txn, err := h.ledgerService.PostJournal(c.Request.Context(), schemeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, txn)
}

// ListTransactions lists the scheme's transactions with optional filters
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var filter accountingapp.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	txns, err := h.ledgerService.ListTransactions(c.Request.Context(), schemeID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txns)
}

// GetTransaction returns a single transaction with its lines
func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	txnID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid transaction ID")
		return
	}

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), schemeID, txnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txn)
}

// UpdateLines replaces a transaction's full line set
func (h *LedgerHandler) UpdateLines(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	txnID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid transaction ID")
		return
	}

	var req accountingapp.UpdateLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	txn, err := h.ledgerService.UpdateLines(c.Request.Context(), schemeID, txnID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txn)
}

// DeleteTransaction soft-deletes an unreconciled, unreferenced transaction
func (h *LedgerHandler) DeleteTransaction(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	txnID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid transaction ID")
		return
	}

	if err := h.ledgerService.DeleteTransaction(c.Request.Context(), schemeID, txnID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// TrustBalanceResponse carries a fund's trust account balance
type TrustBalanceResponse struct {
	Fund    string          `json:"fund"`
	AsOf    *time.Time      `json:"as_of,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

// TrustBalance returns the trust account balance for a fund
func (h *LedgerHandler) TrustBalance(c *gin.Context) {
	schemeID, err := getSchemeID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	fund := ledger.Fund(c.Query("fund"))
	if !fund.IsValid() {
		h.BadRequest(c, "fund must be ADMIN or CAPITAL_WORKS")
		return
	}

	asOf, err := parseTimeQuery(c, "as_of")
	if err != nil {
		h.BadRequest(c, "as_of must be an RFC3339 timestamp or YYYY-MM-DD date")
		return
	}

	balance, err := h.ledgerService.TrustBalance(c.Request.Context(), schemeID, fund, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, TrustBalanceResponse{
		Fund:    fund.String(),
		AsOf:    asOf,
		Balance: balance,
	})
}

// parseTimeQuery parses an optional time query parameter, accepting RFC3339
// or a bare date
func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
