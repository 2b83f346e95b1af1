package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/shared"
	"github.com/strataledger/backend/internal/domain/shared/valueobject"
)

// PostingService synthesizes balanced transactions against a chart of
// accounts. Receipts and payments always carry exactly two lines: the fund's
// trust account against a category account, with the sides swapped between
// the two types. Journals carry an arbitrary balanced line set.
type PostingService struct {
	chart *ChartOfAccounts
}

// NewPostingService creates a posting service over a chart of accounts
func NewPostingService(chart *ChartOfAccounts) *PostingService {
	return &PostingService{chart: chart}
}

// ReceiptInput describes a receipt or payment to post
type ReceiptInput struct {
	SchemeID          uuid.UUID
	Fund              Fund
	CategoryAccountID uuid.UUID
	Amount            decimal.Decimal
	Date              time.Time
	LotID             *uuid.UUID
	Description       string
	Reference         string
}

// JournalEntry is a single leg of a journal posting request
type JournalEntry struct {
	AccountID uuid.UUID
	LineType  LineType
	Amount    decimal.Decimal
}

// JournalInput describes a journal to post
type JournalInput struct {
	SchemeID    uuid.UUID
	Fund        Fund
	Date        time.Time
	Description string
	Reference   string
	Entries     []JournalEntry
}

// BuildReceipt creates a receipt: debit trust, credit category (income)
func (s *PostingService) BuildReceipt(in ReceiptInput) (*Transaction, error) {
	return s.buildTwoLine(TransactionTypeReceipt, in)
}

// BuildPayment creates a payment: debit category (expense), credit trust
func (s *PostingService) BuildPayment(in ReceiptInput) (*Transaction, error) {
	return s.buildTwoLine(TransactionTypePayment, in)
}

func (s *PostingService) buildTwoLine(txType TransactionType, in ReceiptInput) (*Transaction, error) {
	amount := valueobject.RoundCents(in.Amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("amount must be positive")
	}

	trust, err := s.chart.TrustAccount(in.Fund)
	if err != nil {
		return nil, err
	}
	category, err := s.chart.ByID(in.CategoryAccountID)
	if err != nil {
		return nil, err
	}

	txn, err := newTransaction(in.SchemeID, txType, in.Fund, in.Date, in.Description, in.Reference)
	if err != nil {
		return nil, err
	}
	txn.Amount = amount
	txn.CategoryAccountID = &category.ID
	txn.LotID = in.LotID

	trustSide, categorySide := LineTypeDebit, LineTypeCredit
	if txType == TransactionTypePayment {
		trustSide, categorySide = LineTypeCredit, LineTypeDebit
	}

	trustLine, err := NewTransactionLine(trust.ID, trustSide, amount)
	if err != nil {
		return nil, err
	}
	categoryLine, err := NewTransactionLine(category.ID, categorySide, amount)
	if err != nil {
		return nil, err
	}
	txn.attachLines([]TransactionLine{trustLine, categoryLine})
	return txn, nil
}

// BuildJournal creates a journal transaction from an arbitrary entry set.
// Requires at least two entries balancing to the cent; fails with
// UNBALANCED_JOURNAL naming the discrepancy otherwise.
func (s *PostingService) BuildJournal(in JournalInput) (*Transaction, error) {
	lines := make([]TransactionLine, 0, len(in.Entries))
	for _, e := range in.Entries {
		if _, err := s.chart.ByID(e.AccountID); err != nil {
			return nil, err
		}
		line, err := NewTransactionLine(e.AccountID, e.LineType, e.Amount)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := validateLineSet(lines); err != nil {
		return nil, err
	}

	txn, err := newTransaction(in.SchemeID, TransactionTypeJournal, in.Fund, in.Date, in.Description, in.Reference)
	if err != nil {
		return nil, err
	}
	txn.attachLines(lines)
	txn.Amount = txn.TotalDebits()
	return txn, nil
}
