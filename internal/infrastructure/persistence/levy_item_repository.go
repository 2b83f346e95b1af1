package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/strataledger/backend/internal/domain/levy"
	"github.com/strataledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// outstandingStatuses are the levy item statuses that still accept
// allocations. Must stay in step with levy.LevyItemStatus.Outstanding.
var outstandingStatuses = []levy.LevyItemStatus{
	levy.LevyItemStatusPending,
	levy.LevyItemStatusSent,
	levy.LevyItemStatusPartial,
	levy.LevyItemStatusOverdue,
}

// GormItemRepository implements levy.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds a levy item by its ID
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*levy.LevyItem, error) {
	var item levy.LevyItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// CountForPeriod counts the items already calculated for a period
func (r *GormItemRepository) CountForPeriod(ctx context.Context, periodID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&levy.LevyItem{}).
		Where("period_id = ?", periodID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindOutstandingForLot returns the lot's outstanding items ordered by due
// date then creation time. The FIFO allocator consumes the slice as delivered.
func (r *GormItemRepository) FindOutstandingForLot(ctx context.Context, schemeID, lotID uuid.UUID) ([]*levy.LevyItem, error) {
	var items []*levy.LevyItem
	if err := r.db.WithContext(ctx).
		Where("scheme_id = ? AND lot_id = ? AND status IN ?", schemeID, lotID, outstandingStatuses).
		Order("due_date ASC, created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindForPeriod finds all items of a period
func (r *GormItemRepository) FindForPeriod(ctx context.Context, periodID uuid.UUID) ([]levy.LevyItem, error) {
	var items []levy.LevyItem
	if err := r.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindOutstandingForScheme finds every outstanding item across the scheme
func (r *GormItemRepository) FindOutstandingForScheme(ctx context.Context, schemeID uuid.UUID) ([]levy.LevyItem, error) {
	var items []levy.LevyItem
	if err := r.db.WithContext(ctx).
		Where("scheme_id = ? AND status IN ?", schemeID, outstandingStatuses).
		Order("due_date ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// InsertItemsActivatePeriod writes the calculated items and flips the period
// to active in one database transaction
func (r *GormItemRepository) InsertItemsActivatePeriod(ctx context.Context, items []levy.LevyItem, period *levy.LevyPeriod) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return tx.Save(period).Error
	})
}

// Save persists a levy item
func (r *GormItemRepository) Save(ctx context.Context, item *levy.LevyItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// SaveAll persists a batch of levy items in one database transaction
func (r *GormItemRepository) SaveAll(ctx context.Context, items []*levy.LevyItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := tx.Save(item).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkOverdue flags outstanding items past their due date, returning how many
// changed. Items already overdue or fully paid are untouched.
func (r *GormItemRepository) MarkOverdue(ctx context.Context, schemeID uuid.UUID, asOf time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&levy.LevyItem{}).
		Where("scheme_id = ? AND due_date < ? AND status IN ?", schemeID, asOf,
			[]levy.LevyItemStatus{levy.LevyItemStatusPending, levy.LevyItemStatusSent, levy.LevyItemStatusPartial}).
		Updates(map[string]any{
			"status":     levy.LevyItemStatusOverdue,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
