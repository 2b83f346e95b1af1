package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/strataledger/backend/internal/domain/levy"
	"github.com/strataledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormScheduleRepository implements levy.ScheduleRepository using GORM
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a new GormScheduleRepository
func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

// FindByID finds a levy schedule by its ID
func (r *GormScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*levy.LevySchedule, error) {
	var schedule levy.LevySchedule
	if err := r.db.WithContext(ctx).First(&schedule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

// FindActiveForScheme finds the scheme's single active schedule
func (r *GormScheduleRepository) FindActiveForScheme(ctx context.Context, schemeID uuid.UUID) (*levy.LevySchedule, error) {
	var schedule levy.LevySchedule
	if err := r.db.WithContext(ctx).
		Where("scheme_id = ? AND active = ?", schemeID, true).
		Order("created_at DESC").
		First(&schedule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

// Save persists a levy schedule
func (r *GormScheduleRepository) Save(ctx context.Context, schedule *levy.LevySchedule) error {
	return r.db.WithContext(ctx).Save(schedule).Error
}
