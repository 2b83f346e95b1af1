package bankrec

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/ledger"
	"github.com/strataledger/backend/internal/domain/shared"
	"github.com/strataledger/backend/internal/domain/shared/valueobject"
)

// BankStatement is one imported statement for a scheme's fund
type BankStatement struct {
	shared.SchemeEntity
	Fund           ledger.Fund     `gorm:"size:32;not null;index" json:"fund"`
	StatementDate  time.Time       `gorm:"not null" json:"statement_date"`
	OpeningBalance decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"opening_balance"`
	ClosingBalance decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"closing_balance"`
}

// NewBankStatement creates a statement record
func NewBankStatement(schemeID uuid.UUID, fund ledger.Fund, statementDate time.Time, opening, closing decimal.Decimal) (*BankStatement, error) {
	if !fund.IsValid() {
		return nil, shared.NewValidationError("invalid fund: " + string(fund))
	}
	if statementDate.IsZero() {
		return nil, shared.NewValidationError("statement date is required")
	}
	return &BankStatement{
		SchemeEntity:   shared.NewSchemeEntity(schemeID),
		Fund:           fund,
		StatementDate:  statementDate,
		OpeningBalance: valueobject.RoundCents(opening),
		ClosingBalance: valueobject.RoundCents(closing),
	}, nil
}

// TableName returns the table name for GORM
func (BankStatement) TableName() string {
	return "bank_statements"
}

// BankStatementLine is one row of an imported statement. Matched and
// MatchedTransactionID are only ever set and cleared together.
type BankStatementLine struct {
	shared.BaseEntity
	StatementID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"statement_id"`
	LineDate             time.Time        `gorm:"not null" json:"line_date"`
	Description          string           `gorm:"size:512" json:"description"`
	DebitAmount          decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0" json:"debit_amount"`
	CreditAmount         decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0" json:"credit_amount"`
	RunningBalance       *decimal.Decimal `gorm:"type:numeric(14,2)" json:"running_balance,omitempty"`
	Matched              bool             `gorm:"not null;default:false;index" json:"matched"`
	MatchedTransactionID *uuid.UUID       `gorm:"type:uuid;index" json:"matched_transaction_id,omitempty"`
}

// TableName returns the table name for GORM
func (BankStatementLine) TableName() string {
	return "bank_statement_lines"
}

// IsDebit reports whether the line is money out of the bank account
func (l *BankStatementLine) IsDebit() bool {
	return l.DebitAmount.IsPositive()
}

// Amount returns the line's magnitude regardless of direction
func (l *BankStatementLine) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.DebitAmount
	}
	return l.CreditAmount
}

// MatchTo pairs the line with a ledger transaction
func (l *BankStatementLine) MatchTo(txnID uuid.UUID) error {
	if l.Matched {
		return shared.NewDomainError("LINE_ALREADY_MATCHED",
			"bank statement line is already matched")
	}
	l.Matched = true
	l.MatchedTransactionID = &txnID
	l.UpdatedAt = time.Now()
	return nil
}

// Unmatch clears the pairing unconditionally. Finalized reconciliations make
// the paired transaction immutable, so the application layer refuses the
// operation once a reconciliation exists; the line itself does not know.
func (l *BankStatementLine) Unmatch() {
	l.Matched = false
	l.MatchedTransactionID = nil
	l.UpdatedAt = time.Now()
}

// ReconciliationStatus is the terminal status of a reconciliation record
type ReconciliationStatus string

// StatusReconciled is the only status: a reconciliation exists only once
// sealed. There is no draft state and no update or delete.
const StatusReconciled ReconciliationStatus = "RECONCILED"

// Reconciliation is the write-once record sealing a statement: the two
// balances side by side plus the timing differences explaining the gap.
type Reconciliation struct {
	shared.BaseEntity
	StatementID            uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex" json:"statement_id"`
	BankBalance            decimal.Decimal      `gorm:"type:numeric(14,2);not null" json:"bank_balance"`
	LedgerBalance          decimal.Decimal      `gorm:"type:numeric(14,2);not null" json:"ledger_balance"`
	OutstandingDeposits    decimal.Decimal      `gorm:"type:numeric(14,2);not null" json:"outstanding_deposits"`
	OutstandingWithdrawals decimal.Decimal      `gorm:"type:numeric(14,2);not null" json:"outstanding_withdrawals"`
	Status                 ReconciliationStatus `gorm:"size:16;not null" json:"status"`
	ReconciledAt           time.Time            `gorm:"not null" json:"reconciled_at"`
}

// TableName returns the table name for GORM
func (Reconciliation) TableName() string {
	return "reconciliations"
}

// AdjustedBankBalance is the bank balance corrected for ledger activity the
// bank has not yet seen. Under correct matching it equals the ledger balance;
// the engine surfaces both numbers rather than enforcing equality.
func (r *Reconciliation) AdjustedBankBalance() decimal.Decimal {
	return valueobject.RoundCents(
		r.BankBalance.Add(r.OutstandingDeposits).Sub(r.OutstandingWithdrawals))
}
