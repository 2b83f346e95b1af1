package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/shared"
)

// AccountRepository provides read access to the per-scheme chart of accounts
type AccountRepository interface {
	ChartForScheme(ctx context.Context, schemeID uuid.UUID) (*ChartOfAccounts, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	SaveAll(ctx context.Context, accounts []Account) error
}

// TransactionFilter narrows transaction queries
type TransactionFilter struct {
	Type         *TransactionType
	Fund         *Fund
	LotID        *uuid.UUID
	IsReconciled *bool
	DateRange    shared.DateRange
}

// AccountActivity is the debit/credit roll-up for a single account
type AccountActivity struct {
	AccountID    uuid.UUID
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
}

// Balance returns debits minus credits
func (a AccountActivity) Balance() decimal.Decimal {
	return a.TotalDebits.Sub(a.TotalCredits)
}

// TransactionRepository persists ledger transactions and answers the balance
// queries built on their lines. Soft-deleted transactions are excluded from
// every query and sum.
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindAllForScheme(ctx context.Context, schemeID uuid.UUID, filter TransactionFilter) ([]Transaction, error)
	Save(ctx context.Context, txn *Transaction) error

	// ReplaceLines persists a full line-set swap atomically: the old lines
	// are deleted and the new set inserted in one database transaction.
	ReplaceLines(ctx context.Context, txn *Transaction) error

	// SoftDelete marks the transaction deleted without touching its lines
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// AccountBalance sums debits minus credits over non-deleted lines for
	// the account, optionally bounded by an inclusive as-of date.
	AccountBalance(ctx context.Context, schemeID, accountID uuid.UUID, asOf *time.Time) (decimal.Decimal, error)

	// AccountBalanceBefore is AccountBalance with an exclusive upper bound:
	// only transactions dated strictly before the cutoff count. Opening
	// balances use this so a window starting on a transaction's date does
	// not count it twice.
	AccountBalanceBefore(ctx context.Context, schemeID, accountID uuid.UUID, before time.Time) (decimal.Decimal, error)

	// ActivityByAccount rolls up debit/credit totals per account over the
	// optional date range, for trial balance and report aggregation.
	ActivityByAccount(ctx context.Context, schemeID uuid.UUID, dateRange shared.DateRange) ([]AccountActivity, error)

	// MarkReconciled seals a set of transactions in one database transaction
	MarkReconciled(ctx context.Context, ids []uuid.UUID) error
}
