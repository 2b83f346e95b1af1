package levy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/shared"
)

// LevySchedule is the annual budget split across the two funds, divided into
// equal periods. One active schedule per scheme at a time; that uniqueness is
// enforced by the caller, not here.
type LevySchedule struct {
	shared.SchemeEntity
	AdminFundTotal        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"admin_fund_total"`
	CapitalWorksFundTotal decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"capital_works_fund_total"`
	PeriodsPerYear        int             `gorm:"not null" json:"periods_per_year"`
	Active                bool            `gorm:"not null;default:true" json:"active"`
}

// NewLevySchedule creates a schedule, validating budget totals and frequency
func NewLevySchedule(schemeID uuid.UUID, adminTotal, capitalTotal decimal.Decimal, periodsPerYear int) (*LevySchedule, error) {
	if adminTotal.IsNegative() || capitalTotal.IsNegative() {
		return nil, shared.NewValidationError("fund totals cannot be negative")
	}
	if periodsPerYear < 1 {
		return nil, shared.NewValidationError("periods per year must be at least 1")
	}
	return &LevySchedule{
		SchemeEntity:          shared.NewSchemeEntity(schemeID),
		AdminFundTotal:        adminTotal,
		CapitalWorksFundTotal: capitalTotal,
		PeriodsPerYear:        periodsPerYear,
		Active:                true,
	}, nil
}

// TableName returns the table name for GORM
func (LevySchedule) TableName() string {
	return "levy_schedules"
}

// Deactivate retires the schedule
func (s *LevySchedule) Deactivate() {
	s.Active = false
	s.UpdatedAt = time.Now()
}

// LevyPeriodStatus is the lifecycle of a levy period
type LevyPeriodStatus string

const (
	LevyPeriodStatusPending LevyPeriodStatus = "PENDING" // created, not yet calculated
	LevyPeriodStatusActive  LevyPeriodStatus = "ACTIVE"  // items exist
	LevyPeriodStatusClosed  LevyPeriodStatus = "CLOSED"
)

// IsValid checks if the status is valid
func (s LevyPeriodStatus) IsValid() bool {
	switch s {
	case LevyPeriodStatusPending, LevyPeriodStatusActive, LevyPeriodStatusClosed:
		return true
	}
	return false
}

// String returns the string representation
func (s LevyPeriodStatus) String() string {
	return string(s)
}

// LevyPeriod is one billing period of a schedule
type LevyPeriod struct {
	shared.BaseEntity
	ScheduleID uuid.UUID        `gorm:"type:uuid;not null;index" json:"schedule_id"`
	DueDate    time.Time        `gorm:"not null" json:"due_date"`
	Status     LevyPeriodStatus `gorm:"size:16;not null" json:"status"`
}

// NewLevyPeriod creates a pending period for a schedule
func NewLevyPeriod(scheduleID uuid.UUID, dueDate time.Time) (*LevyPeriod, error) {
	if scheduleID == uuid.Nil {
		return nil, shared.NewValidationError("period requires a schedule")
	}
	if dueDate.IsZero() {
		return nil, shared.NewValidationError("period due date is required")
	}
	return &LevyPeriod{
		BaseEntity: shared.NewBaseEntity(),
		ScheduleID: scheduleID,
		DueDate:    dueDate,
		Status:     LevyPeriodStatusPending,
	}, nil
}

// TableName returns the table name for GORM
func (LevyPeriod) TableName() string {
	return "levy_periods"
}

// Activate transitions the period to active once items exist
func (p *LevyPeriod) Activate() error {
	if p.Status != LevyPeriodStatusPending {
		return shared.NewDomainErrorf("STATE_CONFLICT", "cannot activate period in %s status", p.Status)
	}
	p.Status = LevyPeriodStatusActive
	p.UpdatedAt = time.Now()
	return nil
}

// Close transitions the period to closed
func (p *LevyPeriod) Close() error {
	if p.Status != LevyPeriodStatusActive {
		return shared.NewDomainErrorf("STATE_CONFLICT", "cannot close period in %s status", p.Status)
	}
	p.Status = LevyPeriodStatusClosed
	p.UpdatedAt = time.Now()
	return nil
}
