package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/registry"
	"github.com/strataledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// LotRecord is the persistence model behind the read-only lot registry. The
// registry proper is maintained outside the accounting core; this table is a
// synced snapshot of it.
type LotRecord struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SchemeID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	LotNumber        string          `gorm:"size:32;not null"`
	UnitEntitlement  decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	Active           bool            `gorm:"not null;default:true"`
	IsCommonProperty bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (LotRecord) TableName() string {
	return "lots"
}

func (m LotRecord) toDomain() registry.Lot {
	return registry.Lot{
		ID:               m.ID,
		SchemeID:         m.SchemeID,
		LotNumber:        m.LotNumber,
		UnitEntitlement:  m.UnitEntitlement,
		Active:           m.Active,
		IsCommonProperty: m.IsCommonProperty,
	}
}

// GormLotRegistry implements registry.LotRegistry using GORM
type GormLotRegistry struct {
	db *gorm.DB
}

// NewGormLotRegistry creates a new GormLotRegistry
func NewGormLotRegistry(db *gorm.DB) *GormLotRegistry {
	return &GormLotRegistry{db: db}
}

// LotsForScheme returns every lot snapshot of a scheme
func (r *GormLotRegistry) LotsForScheme(ctx context.Context, schemeID uuid.UUID) ([]registry.Lot, error) {
	var records []LotRecord
	if err := r.db.WithContext(ctx).
		Where("scheme_id = ?", schemeID).
		Order("lot_number ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	lots := make([]registry.Lot, len(records))
	for i, record := range records {
		lots[i] = record.toDomain()
	}
	return lots, nil
}

// FindLot finds a single lot within a scheme
func (r *GormLotRegistry) FindLot(ctx context.Context, schemeID, lotID uuid.UUID) (*registry.Lot, error) {
	var record LotRecord
	if err := r.db.WithContext(ctx).
		Where("scheme_id = ? AND id = ?", schemeID, lotID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	lot := record.toDomain()
	return &lot, nil
}

// SyncLots replaces a scheme's lot snapshots. Used by the registry sync job
// and by tests seeding fixture data.
func (r *GormLotRegistry) SyncLots(ctx context.Context, schemeID uuid.UUID, lots []registry.Lot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scheme_id = ?", schemeID).Delete(&LotRecord{}).Error; err != nil {
			return err
		}
		if len(lots) == 0 {
			return nil
		}
		records := make([]LotRecord, len(lots))
		for i, lot := range lots {
			records[i] = LotRecord{
				ID:               lot.ID,
				SchemeID:         lot.SchemeID,
				LotNumber:        lot.LotNumber,
				UnitEntitlement:  lot.UnitEntitlement,
				Active:           lot.Active,
				IsCommonProperty: lot.IsCommonProperty,
			}
		}
		return tx.Create(&records).Error
	})
}
