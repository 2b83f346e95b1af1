package levy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/shared"
	"github.com/strataledger/backend/internal/domain/shared/valueobject"
)

// PaymentMethod is how an owner paid
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "CASH"
	PaymentMethodCheque      PaymentMethod = "CHEQUE"
	PaymentMethodEFT         PaymentMethod = "EFT"
	PaymentMethodBPAY        PaymentMethod = "BPAY"
	PaymentMethodDirectDebit PaymentMethod = "DIRECT_DEBIT"
	PaymentMethodOther       PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheque, PaymentMethodEFT,
		PaymentMethodBPAY, PaymentMethodDirectDebit, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation
func (m PaymentMethod) String() string {
	return string(m)
}

// Payment is cash received from a lot owner. Created once, immutable.
type Payment struct {
	shared.SchemeEntity
	LotID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"lot_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaymentDate time.Time       `gorm:"not null" json:"payment_date"`
	Method      PaymentMethod   `gorm:"size:16;not null" json:"method"`
	Reference   string          `gorm:"size:128" json:"reference"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a payment record
func NewPayment(schemeID, lotID uuid.UUID, amount decimal.Decimal, paymentDate time.Time, method PaymentMethod, reference string) (*Payment, error) {
	if lotID == uuid.Nil {
		return nil, shared.NewValidationError("payment requires a lot")
	}
	amount = valueobject.RoundCents(amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("payment amount must be positive")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewValidationError("payment date is required")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("invalid payment method: " + string(method))
	}
	return &Payment{
		SchemeEntity: shared.NewSchemeEntity(schemeID),
		LotID:        lotID,
		Amount:       amount,
		PaymentDate:  paymentDate,
		Method:       method,
		Reference:    reference,
	}, nil
}

// PaymentAllocation is the join between a payment and a levy item: how much
// of the payment settled that item. Creating an allocation is the sole
// mutator of a levy item's AmountPaid.
type PaymentAllocation struct {
	shared.BaseEntity
	PaymentID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_id"`
	LevyItemID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"levy_item_id"`
	AllocatedAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"allocated_amount"`
	// TransactionID links the allocation to the ledger receipt posted for
	// the payment. Nil when the ledger post failed; the allocation still
	// stands (partial-success contract).
	TransactionID *uuid.UUID `gorm:"type:uuid;index" json:"transaction_id,omitempty"`
}

// TableName returns the table name for GORM
func (PaymentAllocation) TableName() string {
	return "payment_allocations"
}

// NewPaymentAllocation creates an allocation row
func NewPaymentAllocation(paymentID, levyItemID uuid.UUID, amount decimal.Decimal) PaymentAllocation {
	return PaymentAllocation{
		BaseEntity:      shared.NewBaseEntity(),
		PaymentID:       paymentID,
		LevyItemID:      levyItemID,
		AllocatedAmount: valueobject.RoundCents(amount),
	}
}

// LinkTransaction records the ledger transaction backing this allocation
func (a *PaymentAllocation) LinkTransaction(txnID uuid.UUID) {
	a.TransactionID = &txnID
	a.UpdatedAt = time.Now()
}
