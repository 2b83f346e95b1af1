// Package registry defines the read-only view of the scheme/lot/owner
// registry consumed by the accounting core. The registry itself is an
// external collaborator; the core never writes to it.
package registry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lot is a read-only snapshot of a strata lot as the levy engine needs it:
// its unit entitlement and whether it is levied at all.
type Lot struct {
	ID               uuid.UUID       `json:"id"`
	SchemeID         uuid.UUID       `json:"scheme_id"`
	LotNumber        string          `json:"lot_number"`
	UnitEntitlement  decimal.Decimal `json:"unit_entitlement"`
	Active           bool            `json:"active"`
	IsCommonProperty bool            `json:"is_common_property"`
}

// Leviable reports whether the lot participates in levy calculation.
// Common-property lots and inactive lots carry no levy obligation.
func (l Lot) Leviable() bool {
	return l.Active && !l.IsCommonProperty
}

// LotRegistry supplies lot snapshots for a scheme
type LotRegistry interface {
	LotsForScheme(ctx context.Context, schemeID uuid.UUID) ([]Lot, error)
	FindLot(ctx context.Context, schemeID, lotID uuid.UUID) (*Lot, error)
}
