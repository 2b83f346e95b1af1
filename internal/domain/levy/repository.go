package levy

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ScheduleRepository persists levy schedules
type ScheduleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LevySchedule, error)
	FindActiveForScheme(ctx context.Context, schemeID uuid.UUID) (*LevySchedule, error)
	Save(ctx context.Context, schedule *LevySchedule) error
}

// PeriodRepository persists levy periods
type PeriodRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LevyPeriod, error)
	FindForSchedule(ctx context.Context, scheduleID uuid.UUID) ([]LevyPeriod, error)
	Save(ctx context.Context, period *LevyPeriod) error
}

// ItemRepository persists levy items
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LevyItem, error)
	CountForPeriod(ctx context.Context, periodID uuid.UUID) (int64, error)

	// FindOutstandingForLot returns the lot's items that still accept
	// allocations, ordered by due date ascending then creation time. The
	// ordering is part of the contract: the FIFO allocator consumes the
	// slice as delivered.
	FindOutstandingForLot(ctx context.Context, schemeID, lotID uuid.UUID) ([]*LevyItem, error)

	FindForPeriod(ctx context.Context, periodID uuid.UUID) ([]LevyItem, error)
	FindOutstandingForScheme(ctx context.Context, schemeID uuid.UUID) ([]LevyItem, error)

	// InsertItemsActivatePeriod writes the calculated items and flips the
	// period to active in one database transaction.
	InsertItemsActivatePeriod(ctx context.Context, items []LevyItem, period *LevyPeriod) error

	Save(ctx context.Context, item *LevyItem) error
	SaveAll(ctx context.Context, items []*LevyItem) error

	// MarkOverdue flags outstanding items past their due date as of the
	// given time, returning how many changed.
	MarkOverdue(ctx context.Context, schemeID uuid.UUID, asOf time.Time) (int64, error)
}

// PaymentRepository persists payments and their allocations
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindAllocationsForPayment(ctx context.Context, paymentID uuid.UUID) ([]PaymentAllocation, error)
	AllocationsReferencingTransaction(ctx context.Context, txnID uuid.UUID) (int64, error)

	// SavePaymentWithAllocations writes the payment, its allocation rows,
	// and the updated levy items in one database transaction.
	SavePaymentWithAllocations(ctx context.Context, payment *Payment, allocations []PaymentAllocation, items []*LevyItem) error

	// LinkAllocationsToTransaction stamps the ledger transaction id onto
	// allocation rows after the receipt posts.
	LinkAllocationsToTransaction(ctx context.Context, allocationIDs []uuid.UUID, txnID uuid.UUID) error
}
