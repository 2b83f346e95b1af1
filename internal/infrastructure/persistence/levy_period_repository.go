package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/strataledger/backend/internal/domain/levy"
	"github.com/strataledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPeriodRepository implements levy.PeriodRepository using GORM
type GormPeriodRepository struct {
	db *gorm.DB
}

// NewGormPeriodRepository creates a new GormPeriodRepository
func NewGormPeriodRepository(db *gorm.DB) *GormPeriodRepository {
	return &GormPeriodRepository{db: db}
}

// FindByID finds a levy period by its ID
func (r *GormPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*levy.LevyPeriod, error) {
	var period levy.LevyPeriod
	if err := r.db.WithContext(ctx).First(&period, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &period, nil
}

// FindForSchedule finds all periods of a schedule ordered by due date
func (r *GormPeriodRepository) FindForSchedule(ctx context.Context, scheduleID uuid.UUID) ([]levy.LevyPeriod, error) {
	var periods []levy.LevyPeriod
	if err := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("due_date ASC").
		Find(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}

// Save persists a levy period
func (r *GormPeriodRepository) Save(ctx context.Context, period *levy.LevyPeriod) error {
	return r.db.WithContext(ctx).Save(period).Error
}
