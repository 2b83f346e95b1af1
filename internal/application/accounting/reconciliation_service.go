package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/bankrec"
	"github.com/strataledger/backend/internal/domain/ledger"
	"github.com/strataledger/backend/internal/domain/shared"
	"github.com/strataledger/backend/internal/infrastructure/lock"
	"github.com/strataledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReconciliationService drives the bank reconciliation workflow: statement
// import, automatic and manual matching, and finalization.
type ReconciliationService struct {
	stmtRepo    bankrec.StatementRepository
	recRepo     bankrec.ReconciliationRepository
	accountRepo ledger.AccountRepository
	txnRepo     ledger.TransactionRepository
	parser      *bankrec.StatementParser
	matcher     *bankrec.Matcher
	finalizer   *bankrec.Finalizer
	locks       *lock.KeyedMutex
	logger      *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	stmtRepo bankrec.StatementRepository,
	recRepo bankrec.ReconciliationRepository,
	accountRepo ledger.AccountRepository,
	txnRepo ledger.TransactionRepository,
	locks *lock.KeyedMutex,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		stmtRepo:    stmtRepo,
		recRepo:     recRepo,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		parser:      bankrec.NewStatementParser(),
		matcher:     bankrec.NewMatcher(),
		finalizer:   bankrec.NewFinalizer(),
		locks:       locks,
		logger:      logger,
	}
}

// ImportStatementRequest carries a raw statement export to import
type ImportStatementRequest struct {
	Fund          string    `json:"fund" binding:"required,fund"`
	StatementDate time.Time `json:"statement_date" binding:"required"`
	Text          string    `json:"text" binding:"required"`
}

// ImportResult summarizes an imported statement
type ImportResult struct {
	Statement      *bankrec.BankStatement `json:"statement"`
	LinesImported  int                    `json:"lines_imported"`
	SkippedRows    int                    `json:"skipped_rows"`
	OpeningBalance decimal.Decimal        `json:"opening_balance"`
	ClosingBalance decimal.Decimal        `json:"closing_balance"`
}

// CreateAndMatchRequest posts a new transaction for an unmatched line and
// matches the line to it in one step.
type CreateAndMatchRequest struct {
	CategoryAccountID uuid.UUID  `json:"category_account_id" binding:"required"`
	LotID             *uuid.UUID `json:"lot_id"`
	Description       string     `json:"description"`
	Reference         string     `json:"reference"`
}

// ImportStatement parses the raw text and persists the statement with all
// its lines in one unit of work.
func (s *ReconciliationService) ImportStatement(ctx context.Context, schemeID uuid.UUID, req ImportStatementRequest) (*ImportResult, error) {
	fund := ledger.Fund(req.Fund)
	if !fund.IsValid() {
		return nil, shared.NewValidationError("invalid fund: " + req.Fund)
	}

	parsed, err := s.parser.Parse(req.Text)
	if err != nil {
		return nil, err
	}

	opening, closing := decimal.Zero, decimal.Zero
	if parsed.OpeningBalance != nil {
		opening = *parsed.OpeningBalance
	}
	if parsed.ClosingBalance != nil {
		closing = *parsed.ClosingBalance
	}

	statement, err := bankrec.NewBankStatement(schemeID, fund, req.StatementDate, opening, closing)
	if err != nil {
		return nil, err
	}

	lines := make([]*bankrec.BankStatementLine, 0, len(parsed.Lines))
	for _, p := range parsed.Lines {
		line := &bankrec.BankStatementLine{
			BaseEntity:     shared.NewBaseEntity(),
			StatementID:    statement.ID,
			LineDate:       p.Date,
			Description:    p.Description,
			DebitAmount:    p.DebitAmount,
			CreditAmount:   p.CreditAmount,
			RunningBalance: p.RunningBalance,
		}
		lines = append(lines, line)
	}

	if err := s.stmtRepo.SaveStatementWithLines(ctx, statement, lines); err != nil {
		return nil, err
	}

	s.logger.Info("bank statement imported",
		zap.String("scheme_id", schemeID.String()),
		zap.String("statement_id", statement.ID.String()),
		zap.Int("lines", len(lines)),
		zap.Int("skipped_rows", parsed.SkippedRows))

	return &ImportResult{
		Statement:      statement,
		LinesImported:  len(lines),
		SkippedRows:    parsed.SkippedRows,
		OpeningBalance: opening,
		ClosingBalance: closing,
	}, nil
}

// AutoMatch scores every unmatched line of the statement against the
// scheme's unreconciled transactions for the fund and persists the accepted
// pairings. Passes over the same statement are serialized so two concurrent
// runs cannot both claim a transaction.
func (s *ReconciliationService) AutoMatch(ctx context.Context, schemeID, statementID uuid.UUID) ([]bankrec.MatchResult, error) {
	unlock := s.locks.Lock("statement:" + statementID.String())
	defer unlock()

	statement, err := s.findSchemeStatement(ctx, schemeID, statementID)
	if err != nil {
		return nil, err
	}

	lines, err := s.stmtRepo.FindLinesForStatement(ctx, statementID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.unreconciledTransactions(ctx, schemeID, statement.Fund)
	if err != nil {
		return nil, err
	}

	results := s.matcher.AutoMatch(lines, candidates)
	if len(results) == 0 {
		return results, nil
	}

	matched := make([]*bankrec.BankStatementLine, 0, len(results))
	byID := make(map[uuid.UUID]*bankrec.BankStatementLine, len(lines))
	for _, line := range lines {
		byID[line.ID] = line
	}
	for _, r := range results {
		if line, ok := byID[r.LineID]; ok {
			matched = append(matched, line)
		}
	}
	if err := s.stmtRepo.SaveLines(ctx, matched); err != nil {
		return nil, err
	}

	s.logger.Info("auto-match pass complete",
		zap.String("statement_id", statementID.String()),
		zap.Int("matched", len(results)),
		zap.Int("lines", len(lines)))
	return results, nil
}

// ManualMatch pairs a line with an operator-chosen transaction
func (s *ReconciliationService) ManualMatch(ctx context.Context, schemeID, lineID, txnID uuid.UUID) (*bankrec.BankStatementLine, error) {
	line, statement, err := s.findSchemeLine(ctx, schemeID, lineID)
	if err != nil {
		return nil, err
	}
	txn, err := s.txnRepo.FindByID(ctx, txnID)
	if err != nil {
		return nil, err
	}

	if err := s.matcher.ManualMatch(line, statement, txn); err != nil {
		return nil, err
	}
	if err := s.stmtRepo.SaveLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// Unmatch clears a line's pairing. Once the statement's reconciliation is
// sealed the pairing is part of the record and can no longer be undone.
func (s *ReconciliationService) Unmatch(ctx context.Context, schemeID, lineID uuid.UUID) (*bankrec.BankStatementLine, error) {
	line, statement, err := s.findSchemeLine(ctx, schemeID, lineID)
	if err != nil {
		return nil, err
	}

	rec, err := s.recRepo.FindByStatement(ctx, statement.ID)
	if err != nil && !shared.IsDomainError(err, "NOT_FOUND") {
		return nil, err
	}
	if rec != nil {
		return nil, shared.NewDomainError("RECONCILIATION_FINAL",
			"statement is reconciled; matches can no longer change")
	}

	line.Unmatch()
	if err := s.stmtRepo.SaveLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// CreateAndMatch posts a new transaction mirroring an unmatched line and
// pairs them immediately. The line's direction picks the transaction type:
// a credit line creates a receipt, a debit line a payment.
func (s *ReconciliationService) CreateAndMatch(ctx context.Context, schemeID, lineID uuid.UUID, req CreateAndMatchRequest) (*TransactionResponse, error) {
	line, statement, err := s.findSchemeLine(ctx, schemeID, lineID)
	if err != nil {
		return nil, err
	}
	if line.Matched {
		return nil, shared.NewDomainError("LINE_ALREADY_MATCHED",
			"bank statement line is already matched")
	}

	chart, err := s.accountRepo.ChartForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	svc := ledger.NewPostingService(chart)

	in := ledger.ReceiptInput{
		SchemeID:          schemeID,
		Fund:              statement.Fund,
		CategoryAccountID: req.CategoryAccountID,
		Amount:            line.Amount(),
		Date:              line.LineDate,
		LotID:             req.LotID,
		Description:       req.Description,
		Reference:         req.Reference,
	}
	if in.Description == "" {
		in.Description = line.Description
	}

	var txn *ledger.Transaction
	if line.IsDebit() {
		txn, err = svc.BuildPayment(in)
	} else {
		txn, err = svc.BuildReceipt(in)
	}
	if err != nil {
		return nil, err
	}

	if err := s.txnRepo.Save(ctx, txn); err != nil {
		return nil, err
	}
	if err := line.MatchTo(txn.ID); err != nil {
		return nil, err
	}
	if err := s.stmtRepo.SaveLine(ctx, line); err != nil {
		return nil, err
	}
	return toTransactionResponse(txn), nil
}

// Finalize seals the statement's reconciliation: every line must be
// matched, the matched transactions become immutable, and the record is
// written once, never updated.
func (s *ReconciliationService) Finalize(ctx context.Context, schemeID, statementID uuid.UUID) (*bankrec.FinalizationResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "reconciliation.finalize")
	defer span.End()

	// One finalization at a time per statement
	unlock := s.locks.Lock("statement:" + statementID.String())
	defer unlock()

	statement, err := s.findSchemeStatement(ctx, schemeID, statementID)
	if err != nil {
		return nil, err
	}

	existing, err := s.recRepo.FindByStatement(ctx, statementID)
	if err != nil && !shared.IsDomainError(err, "NOT_FOUND") {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_RECONCILED",
			"statement already has a reconciliation")
	}

	lines, err := s.stmtRepo.FindLinesForStatement(ctx, statementID)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.unreconciledTransactions(ctx, schemeID, statement.Fund)
	if err != nil {
		return nil, err
	}

	chart, err := s.accountRepo.ChartForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	trust, err := chart.TrustAccount(statement.Fund)
	if err != nil {
		return nil, err
	}
	ledgerBalance, err := s.txnRepo.AccountBalance(ctx, schemeID, trust.ID, nil)
	if err != nil {
		return nil, err
	}

	result, err := s.finalizer.Finalize(statement, lines, outstanding, ledgerBalance)
	if err != nil {
		return nil, err
	}

	if err := s.recRepo.SealReconciliation(ctx, result.Reconciliation, result.MatchedTransactionIDs); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("reconciliation sealed",
		zap.String("scheme_id", schemeID.String()),
		zap.String("statement_id", statementID.String()),
		zap.Int("transactions", len(result.MatchedTransactionIDs)),
		zap.String("variance", result.Variance.String()))
	return result, nil
}

// GetStatement returns a statement with its lines
func (s *ReconciliationService) GetStatement(ctx context.Context, schemeID, statementID uuid.UUID) (*bankrec.BankStatement, []*bankrec.BankStatementLine, error) {
	statement, err := s.findSchemeStatement(ctx, schemeID, statementID)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.stmtRepo.FindLinesForStatement(ctx, statementID)
	if err != nil {
		return nil, nil, err
	}
	return statement, lines, nil
}

// GetReconciliation returns the sealed reconciliation for a statement
func (s *ReconciliationService) GetReconciliation(ctx context.Context, schemeID, statementID uuid.UUID) (*bankrec.Reconciliation, error) {
	if _, err := s.findSchemeStatement(ctx, schemeID, statementID); err != nil {
		return nil, err
	}
	return s.recRepo.FindByStatement(ctx, statementID)
}

func (s *ReconciliationService) unreconciledTransactions(ctx context.Context, schemeID uuid.UUID, fund ledger.Fund) ([]*ledger.Transaction, error) {
	reconciled := false
	txns, err := s.txnRepo.FindAllForScheme(ctx, schemeID, ledger.TransactionFilter{
		Fund:         &fund,
		IsReconciled: &reconciled,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*ledger.Transaction, 0, len(txns))
	for i := range txns {
		out = append(out, &txns[i])
	}
	return out, nil
}

func (s *ReconciliationService) findSchemeStatement(ctx context.Context, schemeID, statementID uuid.UUID) (*bankrec.BankStatement, error) {
	statement, err := s.stmtRepo.FindByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if statement.SchemeID != schemeID {
		return nil, shared.ErrNotFound
	}
	return statement, nil
}

func (s *ReconciliationService) findSchemeLine(ctx context.Context, schemeID, lineID uuid.UUID) (*bankrec.BankStatementLine, *bankrec.BankStatement, error) {
	line, err := s.stmtRepo.FindLineByID(ctx, lineID)
	if err != nil {
		return nil, nil, err
	}
	statement, err := s.stmtRepo.FindByID(ctx, line.StatementID)
	if err != nil {
		return nil, nil, err
	}
	if statement.SchemeID != schemeID {
		return nil, nil, shared.ErrNotFound
	}
	return line, statement, nil
}
