package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/ledger"
	"github.com/strataledger/backend/internal/domain/levy"
	"github.com/strataledger/backend/internal/domain/shared"
)

// LedgerService provides application-level ledger operations: chart
// provisioning, posting, corrections and deletion guards.
type LedgerService struct {
	accountRepo ledger.AccountRepository
	txnRepo     ledger.TransactionRepository
	paymentRepo levy.PaymentRepository
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	accountRepo ledger.AccountRepository,
	txnRepo ledger.TransactionRepository,
	paymentRepo levy.PaymentRepository,
) *LedgerService {
	return &LedgerService{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		paymentRepo: paymentRepo,
	}
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	AccountType string    `json:"account_type"`
	Fund        *string   `json:"fund,omitempty"`
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID                uuid.UUID                 `json:"id"`
	SchemeID          uuid.UUID                 `json:"scheme_id"`
	Date              time.Time                 `json:"date"`
	Type              string                    `json:"type"`
	Fund              string                    `json:"fund"`
	Amount            decimal.Decimal           `json:"amount"`
	CategoryAccountID *uuid.UUID                `json:"category_account_id,omitempty"`
	LotID             *uuid.UUID                `json:"lot_id,omitempty"`
	Description       string                    `json:"description"`
	Reference         string                    `json:"reference,omitempty"`
	IsReconciled      bool                      `json:"is_reconciled"`
	Lines             []TransactionLineResponse `json:"lines"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// TransactionLineResponse represents one posting line in API responses
type TransactionLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"account_id"`
	LineType  string          `json:"line_type"`
	Amount    decimal.Decimal `json:"amount"`
}

// PostEntryRequest describes a receipt or payment to post
type PostEntryRequest struct {
	Fund              string          `json:"fund" binding:"required,fund"`
	CategoryAccountID uuid.UUID       `json:"category_account_id" binding:"required"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	Date              time.Time       `json:"date" binding:"required"`
	LotID             *uuid.UUID      `json:"lot_id"`
	Description       string          `json:"description"`
	Reference         string          `json:"reference"`
}

// JournalEntryRequest is one leg of a journal posting request
type JournalEntryRequest struct {
	AccountID uuid.UUID       `json:"account_id" binding:"required"`
	LineType  string          `json:"line_type" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// PostJournalRequest describes a journal to post
type PostJournalRequest struct {
	Fund        string                `json:"fund" binding:"required,fund"`
	Date        time.Time             `json:"date" binding:"required"`
	Description string                `json:"description"`
	Reference   string                `json:"reference"`
	Entries     []JournalEntryRequest `json:"entries" binding:"required,min=2"`
}

// UpdateLinesRequest replaces a transaction's full line set
type UpdateLinesRequest struct {
	Entries []JournalEntryRequest `json:"entries" binding:"required,min=2"`
}

// TransactionListFilter defines filtering options for transaction queries
type TransactionListFilter struct {
	Type         string     `form:"type"`
	Fund         string     `form:"fund"`
	LotID        *uuid.UUID `form:"lot_id"`
	IsReconciled *bool      `form:"is_reconciled"`
	FromDate     *time.Time `form:"from_date"`
	ToDate       *time.Time `form:"to_date"`
}

// defaultChart is the per-scheme chart every new scheme starts from. Codes
// 1100/1200 are the fund trust accounts and 4100/4200 the levy income
// accounts; the engine resolves them by code, so provisioning is mandatory.
func defaultChart(schemeID uuid.UUID) ([]ledger.Account, error) {
	adminFund := ledger.FundAdmin
	capitalFund := ledger.FundCapitalWorks
	entries := []struct {
		code string
		name string
		typ  ledger.AccountType
		fund *ledger.Fund
	}{
		{ledger.TrustAccountCodeAdmin, "Administrative Fund Trust Account", ledger.AccountTypeAsset, &adminFund},
		{ledger.TrustAccountCodeCapitalWorks, "Capital Works Fund Trust Account", ledger.AccountTypeAsset, &capitalFund},
		{"2100", "Levies in Advance", ledger.AccountTypeLiability, nil},
		{"3100", "Owners Corporation Equity", ledger.AccountTypeEquity, nil},
		{ledger.LevyIncomeCodeAdmin, "Levy Income - Administrative Fund", ledger.AccountTypeIncome, &adminFund},
		{ledger.LevyIncomeCodeCapitalWorks, "Levy Income - Capital Works Fund", ledger.AccountTypeIncome, &capitalFund},
		{"4300", "Interest Income", ledger.AccountTypeIncome, &adminFund},
		{"6100", "Repairs & Maintenance", ledger.AccountTypeExpense, &adminFund},
		{"6200", "Insurance", ledger.AccountTypeExpense, &adminFund},
		{"6300", "Utilities", ledger.AccountTypeExpense, &adminFund},
		{"6400", "Management Fees", ledger.AccountTypeExpense, &adminFund},
		{"6500", "Capital Works", ledger.AccountTypeExpense, &capitalFund},
	}
	accounts := make([]ledger.Account, 0, len(entries))
	for _, e := range entries {
		a, err := ledger.NewAccount(schemeID, e.code, e.name, e.typ, e.fund)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, nil
}

// ProvisionChart seeds the default chart of accounts for a scheme. A scheme
// that already has accounts is left untouched.
func (s *LedgerService) ProvisionChart(ctx context.Context, schemeID uuid.UUID) ([]AccountResponse, error) {
	chart, err := s.accountRepo.ChartForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	if len(chart.Accounts()) > 0 {
		return nil, shared.NewDomainError("CHART_EXISTS",
			"scheme already has a chart of accounts")
	}

	accounts, err := defaultChart(schemeID)
	if err != nil {
		return nil, err
	}
	if err := s.accountRepo.SaveAll(ctx, accounts); err != nil {
		return nil, err
	}
	return toAccountResponses(accounts), nil
}

// GetChart returns the scheme's chart of accounts
func (s *LedgerService) GetChart(ctx context.Context, schemeID uuid.UUID) ([]AccountResponse, error) {
	chart, err := s.accountRepo.ChartForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	return toAccountResponses(chart.Accounts()), nil
}

// PostReceipt posts a two-line receipt: debit trust, credit category
func (s *LedgerService) PostReceipt(ctx context.Context, schemeID uuid.UUID, req PostEntryRequest) (*TransactionResponse, error) {
	return s.postEntry(ctx, schemeID, req, ledger.TransactionTypeReceipt)
}

// PostPayment posts a two-line payment: debit category, credit trust
func (s *LedgerService) PostPayment(ctx context.Context, schemeID uuid.UUID, req PostEntryRequest) (*TransactionResponse, error) {
	return s.postEntry(ctx, schemeID, req, ledger.TransactionTypePayment)
}

func (s *LedgerService) postEntry(ctx context.Context, schemeID uuid.UUID, req PostEntryRequest, txType ledger.TransactionType) (*TransactionResponse, error) {
	fund := ledger.Fund(req.Fund)
	if !fund.IsValid() {
		return nil, shared.NewValidationError("invalid fund: " + req.Fund)
	}

	chart, err := s.accountRepo.ChartForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	svc := ledger.NewPostingService(chart)

	in := ledger.ReceiptInput{
		SchemeID:          schemeID,
		Fund:              fund,
		CategoryAccountID: req.CategoryAccountID,
		Amount:            req.Amount,
		Date:              req.Date,
		LotID:             req.LotID,
		Description:       req.Description,
		Reference:         req.Reference,
	}

	var txn *ledger.Transaction
	if txType == ledger.TransactionTypeReceipt {
		txn, err = svc.BuildReceipt(in)
	} else {
		txn, err = svc.BuildPayment(in)
	}
	if err != nil {
		return nil, err
	}

	if err := s.txnRepo.Save(ctx, txn); err != nil {
		return nil, err
	}
	return toTransactionResponse(txn), nil
}

// PostJournal posts a multi-line journal. The line set must balance to the
// cent before anything is written.
func (s *LedgerService) PostJournal(ctx context.Context, schemeID uuid.UUID, req PostJournalRequest) (*TransactionResponse, error) {
	fund := ledger.Fund(req.Fund)
	if !fund.IsValid() {
		return nil, shared.NewValidationError("invalid fund: " + req.Fund)
	}

	chart, err := s.accountRepo.ChartForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}

	entries := make([]ledger.JournalEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		lineType := ledger.LineType(e.LineType)
		if !lineType.IsValid() {
			return nil, shared.NewValidationError("invalid line type: " + e.LineType)
		}
		entries = append(entries, ledger.JournalEntry{
			AccountID: e.AccountID,
			LineType:  lineType,
			Amount:    e.Amount,
		})
	}

	svc := ledger.NewPostingService(chart)
	txn, err := svc.BuildJournal(ledger.JournalInput{
		SchemeID:    schemeID,
		Fund:        fund,
		Date:        req.Date,
		Description: req.Description,
		Reference:   req.Reference,
		Entries:     entries,
	})
	if err != nil {
		return nil, err
	}

	if err := s.txnRepo.Save(ctx, txn); err != nil {
		return nil, err
	}
	return toTransactionResponse(txn), nil
}

// UpdateLines replaces a transaction's full line set. The new set is
// validated as a whole before any write; a reconciled transaction refuses
// the change.
func (s *LedgerService) UpdateLines(ctx context.Context, schemeID, txnID uuid.UUID, req UpdateLinesRequest) (*TransactionResponse, error) {
	txn, err := s.findSchemeTransaction(ctx, schemeID, txnID)
	if err != nil {
		return nil, err
	}

	chart, err := s.accountRepo.ChartForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}

	lines := make([]ledger.TransactionLine, 0, len(req.Entries))
	for _, e := range req.Entries {
		if _, err := chart.ByID(e.AccountID); err != nil {
			return nil, err
		}
		lineType := ledger.LineType(e.LineType)
		if !lineType.IsValid() {
			return nil, shared.NewValidationError("invalid line type: " + e.LineType)
		}
		line, err := ledger.NewTransactionLine(e.AccountID, lineType, e.Amount)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err := txn.ReplaceLines(lines); err != nil {
		return nil, err
	}
	if err := s.txnRepo.ReplaceLines(ctx, txn); err != nil {
		return nil, err
	}
	return toTransactionResponse(txn), nil
}

// DeleteTransaction soft-deletes a transaction. Reconciled transactions and
// transactions referenced by payment allocations are protected.
func (s *LedgerService) DeleteTransaction(ctx context.Context, schemeID, txnID uuid.UUID) error {
	txn, err := s.findSchemeTransaction(ctx, schemeID, txnID)
	if err != nil {
		return err
	}
	if txn.IsReconciled {
		return shared.NewDomainError("TRANSACTION_RECONCILED",
			"cannot delete a reconciled transaction")
	}

	refs, err := s.paymentRepo.AllocationsReferencingTransaction(ctx, txnID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return shared.NewDomainError("TRANSACTION_REFERENCED",
			"transaction is linked to payment allocations")
	}

	return s.txnRepo.SoftDelete(ctx, txnID)
}

// GetTransaction returns a single transaction with its lines
func (s *LedgerService) GetTransaction(ctx context.Context, schemeID, txnID uuid.UUID) (*TransactionResponse, error) {
	txn, err := s.findSchemeTransaction(ctx, schemeID, txnID)
	if err != nil {
		return nil, err
	}
	return toTransactionResponse(txn), nil
}

// ListTransactions returns the scheme's transactions, newest first
func (s *LedgerService) ListTransactions(ctx context.Context, schemeID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, error) {
	domainFilter := ledger.TransactionFilter{
		LotID:        filter.LotID,
		IsReconciled: filter.IsReconciled,
		DateRange:    shared.DateRange{From: filter.FromDate, To: filter.ToDate},
	}
	if filter.Type != "" {
		txType := ledger.TransactionType(filter.Type)
		if !txType.IsValid() {
			return nil, shared.NewValidationError("invalid transaction type: " + filter.Type)
		}
		domainFilter.Type = &txType
	}
	if filter.Fund != "" {
		fund := ledger.Fund(filter.Fund)
		if !fund.IsValid() {
			return nil, shared.NewValidationError("invalid fund: " + filter.Fund)
		}
		domainFilter.Fund = &fund
	}

	txns, err := s.txnRepo.FindAllForScheme(ctx, schemeID, domainFilter)
	if err != nil {
		return nil, err
	}
	responses := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		responses = append(responses, *toTransactionResponse(&txns[i]))
	}
	return responses, nil
}

// TrustBalance returns the fund's trust account balance, optionally as of a
// date.
func (s *LedgerService) TrustBalance(ctx context.Context, schemeID uuid.UUID, fund ledger.Fund, asOf *time.Time) (decimal.Decimal, error) {
	chart, err := s.accountRepo.ChartForScheme(ctx, schemeID)
	if err != nil {
		return decimal.Zero, err
	}
	trust, err := chart.TrustAccount(fund)
	if err != nil {
		return decimal.Zero, err
	}
	return s.txnRepo.AccountBalance(ctx, schemeID, trust.ID, asOf)
}

func (s *LedgerService) findSchemeTransaction(ctx context.Context, schemeID, txnID uuid.UUID) (*ledger.Transaction, error) {
	txn, err := s.txnRepo.FindByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.SchemeID != schemeID {
		return nil, shared.ErrNotFound
	}
	return txn, nil
}

func toAccountResponses(accounts []ledger.Account) []AccountResponse {
	responses := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp := AccountResponse{
			ID:          a.ID,
			Code:        a.Code,
			Name:        a.Name,
			AccountType: a.Type.String(),
		}
		if a.Fund != nil {
			f := a.Fund.String()
			resp.Fund = &f
		}
		responses = append(responses, resp)
	}
	return responses
}

func toTransactionResponse(txn *ledger.Transaction) *TransactionResponse {
	lines := make([]TransactionLineResponse, 0, len(txn.Lines))
	for _, l := range txn.Lines {
		lines = append(lines, TransactionLineResponse{
			ID:        l.ID,
			AccountID: l.AccountID,
			LineType:  l.LineType.String(),
			Amount:    l.Amount,
		})
	}
	return &TransactionResponse{
		ID:                txn.ID,
		SchemeID:          txn.SchemeID,
		Date:              txn.Date,
		Type:              txn.Type.String(),
		Fund:              txn.Fund.String(),
		Amount:            txn.Amount,
		CategoryAccountID: txn.CategoryAccountID,
		LotID:             txn.LotID,
		Description:       txn.Description,
		Reference:         txn.Reference,
		IsReconciled:      txn.IsReconciled,
		Lines:             lines,
		CreatedAt:         txn.CreatedAt,
		UpdatedAt:         txn.UpdatedAt,
	}
}
