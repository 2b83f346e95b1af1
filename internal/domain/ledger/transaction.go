package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/shared"
	"github.com/strataledger/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
)

// TransactionType classifies a ledger transaction
type TransactionType string

const (
	TransactionTypeReceipt TransactionType = "RECEIPT" // money into the trust account
	TransactionTypePayment TransactionType = "PAYMENT" // money out of the trust account
	TransactionTypeJournal TransactionType = "JOURNAL" // internal transfer, no cash movement implied
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeReceipt, TransactionTypePayment, TransactionTypeJournal:
		return true
	}
	return false
}

// String returns the string representation
func (t TransactionType) String() string {
	return string(t)
}

// LineType is the debit/credit side of a transaction line
type LineType string

const (
	LineTypeDebit  LineType = "DEBIT"
	LineTypeCredit LineType = "CREDIT"
)

// IsValid checks if the line type is valid
func (t LineType) IsValid() bool {
	return t == LineTypeDebit || t == LineTypeCredit
}

// String returns the string representation
func (t LineType) String() string {
	return string(t)
}

// TransactionLine is a single debit or credit against an account. Lines are
// exclusively owned by their transaction and are only ever replaced as a set.
type TransactionLine struct {
	shared.BaseEntity
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"transaction_id"`
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"account_id"`
	LineType      LineType        `gorm:"size:8;not null" json:"line_type"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
}

// TableName returns the table name for GORM
func (TransactionLine) TableName() string {
	return "transaction_lines"
}

// NewTransactionLine creates a line, validating side and amount
func NewTransactionLine(accountID uuid.UUID, lineType LineType, amount decimal.Decimal) (TransactionLine, error) {
	if accountID == uuid.Nil {
		return TransactionLine{}, shared.NewValidationError("transaction line requires an account")
	}
	if !lineType.IsValid() {
		return TransactionLine{}, shared.NewValidationError("invalid line type: " + string(lineType))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return TransactionLine{}, shared.NewValidationError("transaction line amount must be positive")
	}
	return TransactionLine{
		BaseEntity: shared.NewBaseEntity(),
		AccountID:  accountID,
		LineType:   lineType,
		Amount:     valueobject.RoundCents(amount),
	}, nil
}

// Transaction is a balanced double-entry record. Once reconciled it is
// immutable: no line replacement, no soft delete.
type Transaction struct {
	shared.SchemeEntity
	Date              time.Time         `gorm:"not null;index" json:"date"`
	Type              TransactionType   `gorm:"size:16;not null;index" json:"type"`
	Fund              Fund              `gorm:"size:32;not null;index" json:"fund"`
	Amount            decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"amount"`
	CategoryAccountID *uuid.UUID        `gorm:"type:uuid;index" json:"category_account_id,omitempty"`
	LotID             *uuid.UUID        `gorm:"type:uuid;index" json:"lot_id,omitempty"`
	Description       string            `gorm:"size:512" json:"description"`
	Reference         string            `gorm:"size:128" json:"reference"`
	IsReconciled      bool              `gorm:"not null;default:false;index" json:"is_reconciled"`
	DeletedAt         gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
	Lines             []TransactionLine `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"lines"`
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}

func newTransaction(schemeID uuid.UUID, txType TransactionType, fund Fund, date time.Time, description, reference string) (*Transaction, error) {
	if schemeID == uuid.Nil {
		return nil, shared.NewValidationError("transaction requires a scheme")
	}
	if !txType.IsValid() {
		return nil, shared.NewValidationError("invalid transaction type: " + string(txType))
	}
	if !fund.IsValid() {
		return nil, shared.NewValidationError("invalid fund: " + string(fund))
	}
	if date.IsZero() {
		return nil, shared.NewValidationError("transaction date is required")
	}
	return &Transaction{
		SchemeEntity: shared.NewSchemeEntity(schemeID),
		Date:         date,
		Type:         txType,
		Fund:         fund,
		Description:  description,
		Reference:    reference,
	}, nil
}

// TotalDebits sums the debit lines to the cent
func (t *Transaction) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range t.Lines {
		if l.LineType == LineTypeDebit {
			total = total.Add(l.Amount)
		}
	}
	return valueobject.RoundCents(total)
}

// TotalCredits sums the credit lines to the cent
func (t *Transaction) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range t.Lines {
		if l.LineType == LineTypeCredit {
			total = total.Add(l.Amount)
		}
	}
	return valueobject.RoundCents(total)
}

// IsBalanced reports whether debits equal credits to the cent
func (t *Transaction) IsBalanced() bool {
	return t.TotalDebits().Equal(t.TotalCredits())
}

// CanModify reports whether the transaction accepts updates or deletion
func (t *Transaction) CanModify() bool {
	return !t.IsReconciled
}

// validateLineSet enforces the double-entry invariant on a candidate line set
func validateLineSet(lines []TransactionLine) error {
	if len(lines) < 2 {
		return shared.NewValidationError("a transaction requires at least two lines")
	}
	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range lines {
		if !l.LineType.IsValid() {
			return shared.NewValidationError("invalid line type: " + string(l.LineType))
		}
		if l.Amount.LessThanOrEqual(decimal.Zero) {
			return shared.NewValidationError("transaction line amount must be positive")
		}
		if l.LineType == LineTypeDebit {
			debits = debits.Add(l.Amount)
		} else {
			credits = credits.Add(l.Amount)
		}
	}
	debits = valueobject.RoundCents(debits)
	credits = valueobject.RoundCents(credits)
	if !debits.Equal(credits) {
		return shared.NewDomainErrorf("UNBALANCED_JOURNAL",
			"transaction does not balance: debits %s, credits %s, discrepancy %s",
			debits.StringFixed(2), credits.StringFixed(2), debits.Sub(credits).Abs().StringFixed(2))
	}
	return nil
}

// attachLines stamps ownership onto a validated line set
func (t *Transaction) attachLines(lines []TransactionLine) {
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].BaseEntity = shared.NewBaseEntity()
		}
		lines[i].TransactionID = t.ID
	}
	t.Lines = lines
}

// ReplaceLines swaps the full line set, re-validating the balancing rule.
// The previous lines are discarded; a partial edit of individual lines does
// not exist. Fails once the transaction is reconciled.
func (t *Transaction) ReplaceLines(lines []TransactionLine) error {
	if t.IsReconciled {
		return shared.NewDomainError("TRANSACTION_RECONCILED",
			"cannot modify a reconciled transaction")
	}
	if err := validateLineSet(lines); err != nil {
		return err
	}
	t.attachLines(lines)
	t.Amount = t.TotalDebits()
	t.UpdatedAt = time.Now()
	return nil
}

// MarkReconciled seals the transaction against further modification
func (t *Transaction) MarkReconciled() {
	t.IsReconciled = true
	t.UpdatedAt = time.Now()
}

// Unreconcile clears the reconciled flag. Only the reconciliation engine may
// call this, and only before a reconciliation is finalized.
func (t *Transaction) Unreconcile() {
	t.IsReconciled = false
	t.UpdatedAt = time.Now()
}
