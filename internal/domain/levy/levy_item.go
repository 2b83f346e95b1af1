package levy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/shared"
	"github.com/strataledger/backend/internal/domain/shared/valueobject"
)

// LevyItemStatus is the collection state of a single lot's levy obligation
type LevyItemStatus string

const (
	LevyItemStatusPending LevyItemStatus = "PENDING" // calculated, notice not yet issued
	LevyItemStatusSent    LevyItemStatus = "SENT"    // notice issued
	LevyItemStatusPartial LevyItemStatus = "PARTIAL" // partly paid
	LevyItemStatusOverdue LevyItemStatus = "OVERDUE" // past due with an outstanding balance
	LevyItemStatusPaid    LevyItemStatus = "PAID"    // fully paid
)

// IsValid checks if the status is valid
func (s LevyItemStatus) IsValid() bool {
	switch s {
	case LevyItemStatusPending, LevyItemStatusSent, LevyItemStatusPartial,
		LevyItemStatusOverdue, LevyItemStatusPaid:
		return true
	}
	return false
}

// String returns the string representation
func (s LevyItemStatus) String() string {
	return string(s)
}

// Outstanding reports whether the status still accepts payment allocations
func (s LevyItemStatus) Outstanding() bool {
	switch s {
	case LevyItemStatusPending, LevyItemStatusSent, LevyItemStatusPartial, LevyItemStatusOverdue:
		return true
	}
	return false
}

// LevyItem is one lot's obligation for one levy period. Amounts are immutable
// after creation; AmountPaid only ever grows, and only through payment
// allocation. Balance is never stored - it is always derived from
// (TotalAmount, AmountPaid).
type LevyItem struct {
	shared.SchemeEntity
	LotID             uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_levy_items_lot_period" json:"lot_id"`
	PeriodID          uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_levy_items_lot_period" json:"period_id"`
	AdminLevyAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"admin_levy_amount"`
	CapitalLevyAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"capital_levy_amount"`
	SpecialLevyAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"special_levy_amount"`
	AmountPaid        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"amount_paid"`
	Status            LevyItemStatus  `gorm:"size:16;not null;index" json:"status"`
	DueDate           time.Time       `gorm:"not null;index" json:"due_date"`
}

// NewLevyItem creates a pending item for a lot and period
func NewLevyItem(schemeID, lotID, periodID uuid.UUID, adminLevy, capitalLevy decimal.Decimal, dueDate time.Time) (*LevyItem, error) {
	if lotID == uuid.Nil || periodID == uuid.Nil {
		return nil, shared.NewValidationError("levy item requires a lot and a period")
	}
	if adminLevy.IsNegative() || capitalLevy.IsNegative() {
		return nil, shared.NewValidationError("levy amounts cannot be negative")
	}
	return &LevyItem{
		SchemeEntity:      shared.NewSchemeEntity(schemeID),
		LotID:             lotID,
		PeriodID:          periodID,
		AdminLevyAmount:   valueobject.RoundCents(adminLevy),
		CapitalLevyAmount: valueobject.RoundCents(capitalLevy),
		SpecialLevyAmount: decimal.Zero,
		AmountPaid:        decimal.Zero,
		Status:            LevyItemStatusPending,
		DueDate:           dueDate,
	}, nil
}

// TableName returns the table name for GORM
func (LevyItem) TableName() string {
	return "levy_items"
}

// TotalAmount is the full levy owed for the period
func (i *LevyItem) TotalAmount() decimal.Decimal {
	return i.AdminLevyAmount.Add(i.CapitalLevyAmount).Add(i.SpecialLevyAmount)
}

// Balance is the outstanding amount, always derived, never stored
func (i *LevyItem) Balance() decimal.Decimal {
	return valueobject.RoundCents(i.TotalAmount().Sub(i.AmountPaid))
}

// ApplyAllocation records a payment allocation against the item. AmountPaid
// moves monotonically upward; over-allocation is rejected. Status transitions
// to PARTIAL or PAID as the balance dictates.
func (i *LevyItem) ApplyAllocation(amount decimal.Decimal) error {
	amount = valueobject.RoundCents(amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("allocation amount must be positive")
	}
	if !i.Status.Outstanding() {
		return shared.NewDomainErrorf("STATE_CONFLICT", "cannot allocate to levy item in %s status", i.Status)
	}
	if amount.GreaterThan(i.Balance()) {
		return shared.NewDomainErrorf("STATE_CONFLICT",
			"allocation %s exceeds outstanding balance %s", amount.StringFixed(2), i.Balance().StringFixed(2))
	}

	i.AmountPaid = valueobject.RoundCents(i.AmountPaid.Add(amount))
	if i.Balance().IsZero() {
		i.Status = LevyItemStatusPaid
	} else {
		i.Status = LevyItemStatusPartial
	}
	i.UpdatedAt = time.Now()
	return nil
}

// MarkSent records that the levy notice has been issued
func (i *LevyItem) MarkSent() error {
	if i.Status != LevyItemStatusPending {
		return shared.NewDomainErrorf("STATE_CONFLICT", "cannot mark levy item sent in %s status", i.Status)
	}
	i.Status = LevyItemStatusSent
	i.UpdatedAt = time.Now()
	return nil
}

// MarkOverdueIfPast flags the item overdue when the due date has passed and a
// balance remains. Returns true if the status changed.
func (i *LevyItem) MarkOverdueIfPast(asOf time.Time) bool {
	if !i.Status.Outstanding() || i.Status == LevyItemStatusOverdue {
		return false
	}
	if i.DueDate.Before(asOf) && i.Balance().IsPositive() {
		i.Status = LevyItemStatusOverdue
		i.UpdatedAt = time.Now()
		return true
	}
	return false
}
