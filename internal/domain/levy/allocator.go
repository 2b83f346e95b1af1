package levy

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/shared"
	"github.com/strataledger/backend/internal/domain/shared/valueobject"
)

// Allocator applies a payment to a lot's outstanding levy items in strict
// FIFO order: oldest due date first, no reordering by amount or priority.
// It mutates the items it settles and returns the allocation rows; writing
// both, and posting the matching ledger receipt, is the application layer's
// job.
type Allocator struct{}

// NewAllocator creates a payment allocator
func NewAllocator() *Allocator {
	return &Allocator{}
}

// AllocationResult is the outcome of one payment allocation pass
type AllocationResult struct {
	Allocations []PaymentAllocation `json:"allocations"`
	// UpdatedItems are the items whose AmountPaid moved, in allocation order
	UpdatedItems   []*LevyItem     `json:"-"`
	TotalAllocated decimal.Decimal `json:"total_allocated"`
	// UnallocatedAmount is what remains of the payment once the lot has no
	// more outstanding items. The payment is still recorded; the leftover
	// is reported, not an error.
	UnallocatedAmount decimal.Decimal `json:"unallocated_amount"`
}

// FullyAllocated reports whether the whole payment found a home
func (r *AllocationResult) FullyAllocated() bool {
	return r.UnallocatedAmount.IsZero()
}

// Allocate walks the lot's outstanding items oldest-first and settles each in
// turn until the payment is exhausted. Every allocated amount is rounded to
// cents before it is applied or subtracted, so no fractional-cent drift can
// accumulate across the walk.
func (a *Allocator) Allocate(payment *Payment, items []*LevyItem) (*AllocationResult, error) {
	if payment == nil {
		return nil, shared.NewValidationError("payment cannot be nil")
	}
	if payment.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("payment amount must be positive")
	}

	candidates := make([]*LevyItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if item.LotID != payment.LotID || item.SchemeID != payment.SchemeID {
			return nil, shared.NewValidationError("levy item does not belong to the payment's lot")
		}
		if item.Status.Outstanding() && item.Balance().IsPositive() {
			candidates = append(candidates, item)
		}
	}

	// Strict FIFO by due date; creation time breaks ties deterministically
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].DueDate.Equal(candidates[j].DueDate) {
			return candidates[i].DueDate.Before(candidates[j].DueDate)
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	result := &AllocationResult{
		Allocations:    make([]PaymentAllocation, 0, len(candidates)),
		UpdatedItems:   make([]*LevyItem, 0, len(candidates)),
		TotalAllocated: decimal.Zero,
	}
	remaining := payment.Amount

	for _, item := range candidates {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		alloc := valueobject.RoundCents(decimal.Min(remaining, item.Balance()))
		if alloc.LessThanOrEqual(decimal.Zero) {
			continue
		}
		if err := item.ApplyAllocation(alloc); err != nil {
			return nil, err
		}
		result.Allocations = append(result.Allocations, NewPaymentAllocation(payment.ID, item.ID, alloc))
		result.UpdatedItems = append(result.UpdatedItems, item)
		result.TotalAllocated = result.TotalAllocated.Add(alloc)
		remaining = remaining.Sub(alloc)
	}

	result.TotalAllocated = valueobject.RoundCents(result.TotalAllocated)
	result.UnallocatedAmount = valueobject.RoundCents(remaining)
	return result, nil
}
