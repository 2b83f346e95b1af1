package bankrec

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/ledger"
	"github.com/strataledger/backend/internal/domain/shared"
	"github.com/strataledger/backend/internal/domain/shared/valueobject"
)

// Finalizer seals a fully-resolved statement into a write-once
// Reconciliation. It is pure: callers fetch the statement's lines, the
// scheme+fund's still-unreconciled transactions, and the trust account
// balance, and persist the outcome in one unit of work.
type Finalizer struct{}

// NewFinalizer creates a reconciliation finalizer
func NewFinalizer() *Finalizer {
	return &Finalizer{}
}

// FinalizationResult carries the sealed record plus everything the caller
// must persist and present alongside it.
type FinalizationResult struct {
	Reconciliation *Reconciliation `json:"reconciliation"`
	// MatchedTransactionIDs are the transactions to mark reconciled,
	// atomically with the reconciliation insert.
	MatchedTransactionIDs []uuid.UUID `json:"matched_transaction_ids"`
	// AdjustedBankBalance = bank balance + outstanding deposits -
	// outstanding withdrawals. Should equal LedgerBalance under correct
	// matching; both are surfaced for human review, never enforced equal.
	AdjustedBankBalance decimal.Decimal `json:"adjusted_bank_balance"`
	// Variance = AdjustedBankBalance - LedgerBalance, zero when they agree
	Variance decimal.Decimal `json:"variance"`
}

// Finalize validates that every line is resolved and produces the sealed
// reconciliation. Fails with UNRESOLVED_LINES naming the count when any line
// is unmatched; nothing is written in that case.
//
// outstanding must be the scheme+fund's non-deleted, still-unreconciled
// receipt/payment transactions: ledger activity the bank has not yet seen.
func (f *Finalizer) Finalize(
	statement *BankStatement,
	lines []*BankStatementLine,
	outstanding []*ledger.Transaction,
	ledgerBalance decimal.Decimal,
) (*FinalizationResult, error) {
	if statement == nil {
		return nil, shared.NewValidationError("statement cannot be nil")
	}

	unresolved := 0
	matchedIDs := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool)
	for _, line := range lines {
		if !line.Matched || line.MatchedTransactionID == nil {
			unresolved++
			continue
		}
		if !seen[*line.MatchedTransactionID] {
			seen[*line.MatchedTransactionID] = true
			matchedIDs = append(matchedIDs, *line.MatchedTransactionID)
		}
	}
	if unresolved > 0 {
		return nil, shared.NewDomainErrorf("UNRESOLVED_LINES",
			"%d statement line(s) remain unmatched", unresolved)
	}

	deposits, withdrawals := decimal.Zero, decimal.Zero
	for _, txn := range outstanding {
		if txn.IsReconciled || seen[txn.ID] {
			// Matched by this statement, so no longer a timing difference
			continue
		}
		switch txn.Type {
		case ledger.TransactionTypeReceipt:
			deposits = deposits.Add(txn.Amount)
		case ledger.TransactionTypePayment:
			withdrawals = withdrawals.Add(txn.Amount)
		}
	}
	deposits = valueobject.RoundCents(deposits)
	withdrawals = valueobject.RoundCents(withdrawals)
	ledgerBalance = valueobject.RoundCents(ledgerBalance)

	rec := &Reconciliation{
		BaseEntity:             shared.NewBaseEntity(),
		StatementID:            statement.ID,
		BankBalance:            statement.ClosingBalance,
		LedgerBalance:          ledgerBalance,
		OutstandingDeposits:    deposits,
		OutstandingWithdrawals: withdrawals,
		Status:                 StatusReconciled,
		ReconciledAt:           time.Now(),
	}

	adjusted := rec.AdjustedBankBalance()
	return &FinalizationResult{
		Reconciliation:        rec,
		MatchedTransactionIDs: matchedIDs,
		AdjustedBankBalance:   adjusted,
		Variance:              adjusted.Sub(ledgerBalance),
	}, nil
}
