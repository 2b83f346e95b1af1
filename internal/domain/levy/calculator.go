package levy

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/registry"
	"github.com/strataledger/backend/internal/domain/shared"
	"github.com/strataledger/backend/internal/domain/shared/valueobject"
)

// Calculator derives per-lot levy items from a schedule's budget and the
// lots' unit entitlements. It is a pure domain service: it reads snapshots
// and produces items; persistence and period activation happen at the
// application layer inside one unit of work.
type Calculator struct{}

// NewCalculator creates a levy calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// CalculationInput carries everything a calculation needs, fetched up front
type CalculationInput struct {
	Schedule *LevySchedule
	Period   *LevyPeriod
	Lots     []registry.Lot
	// ItemsExist reports whether items were already generated for the
	// period. Calculation is not idempotent by overwrite; a second run is a
	// state conflict.
	ItemsExist bool
}

// CalculationResult is the outcome of a levy calculation. The rounding
// difference is a quantified note, never an error: per-lot rounding can miss
// the period budget by a few cents and the caller must see by how much.
type CalculationResult struct {
	Items []LevyItem `json:"items"`
	// RoundingDifference = sum of per-lot levies minus the rounded period
	// budget. Zero when the split happens to land exactly.
	RoundingDifference decimal.Decimal `json:"rounding_difference"`
	// PeriodBudget is round2((admin_total + capital_total) / periods_per_year)
	PeriodBudget decimal.Decimal `json:"period_budget"`
}

// Calculate computes one levy item per eligible lot. Entitlement ratios are
// taken over eligible lots only, against the actual entitlement sum - never
// an assumed aggregate. Each lot's admin and capital levies are rounded to
// cents independently, half away from zero.
func (c *Calculator) Calculate(in CalculationInput) (*CalculationResult, error) {
	if in.Schedule == nil || in.Period == nil {
		return nil, shared.NewValidationError("calculation requires a schedule and a period")
	}
	if in.ItemsExist {
		return nil, shared.NewDomainError("ALREADY_CALCULATED",
			"levy items already exist for this period")
	}
	if !in.Schedule.Active {
		return nil, shared.NewDomainError("INACTIVE_SCHEDULE",
			"levy schedule is not active")
	}

	eligible := make([]registry.Lot, 0, len(in.Lots))
	for _, lot := range in.Lots {
		if lot.Leviable() {
			eligible = append(eligible, lot)
		}
	}
	if len(eligible) == 0 {
		return nil, shared.NewDomainError("NO_ELIGIBLE_LOTS",
			"scheme has no lots eligible for levies")
	}

	totalEntitlement := decimal.Zero
	for _, lot := range eligible {
		totalEntitlement = totalEntitlement.Add(lot.UnitEntitlement)
	}
	if totalEntitlement.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("ZERO_ENTITLEMENT",
			"total unit entitlement of eligible lots must be positive")
	}

	// Stable output order regardless of registry ordering
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].LotNumber < eligible[j].LotNumber
	})

	periods := decimal.NewFromInt(int64(in.Schedule.PeriodsPerYear))
	items := make([]LevyItem, 0, len(eligible))
	itemSum := decimal.Zero

	for _, lot := range eligible {
		ratio := lot.UnitEntitlement.Div(totalEntitlement)
		adminLevy := valueobject.RoundCents(in.Schedule.AdminFundTotal.Mul(ratio).Div(periods))
		capitalLevy := valueobject.RoundCents(in.Schedule.CapitalWorksFundTotal.Mul(ratio).Div(periods))

		item, err := NewLevyItem(in.Schedule.SchemeID, lot.ID, in.Period.ID, adminLevy, capitalLevy, in.Period.DueDate)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
		itemSum = itemSum.Add(adminLevy).Add(capitalLevy)
	}

	periodBudget := valueobject.RoundCents(
		in.Schedule.AdminFundTotal.Add(in.Schedule.CapitalWorksFundTotal).Div(periods))

	return &CalculationResult{
		Items:              items,
		RoundingDifference: itemSum.Sub(periodBudget),
		PeriodBudget:       periodBudget,
	}, nil
}
