package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/strataledger/backend/internal/domain/bankrec"
	"github.com/strataledger/backend/internal/domain/ledger"
	"github.com/strataledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormReconciliationRepository implements bankrec.ReconciliationRepository
// using GORM. Reconciliations are write-once; there is no update or delete.
type GormReconciliationRepository struct {
	db *gorm.DB
}

// NewGormReconciliationRepository creates a new GormReconciliationRepository
func NewGormReconciliationRepository(db *gorm.DB) *GormReconciliationRepository {
	return &GormReconciliationRepository{db: db}
}

// FindByStatement finds the reconciliation sealing a statement, if any
func (r *GormReconciliationRepository) FindByStatement(ctx context.Context, statementID uuid.UUID) (*bankrec.Reconciliation, error) {
	var rec bankrec.Reconciliation
	if err := r.db.WithContext(ctx).
		Where("statement_id = ?", statementID).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// SealReconciliation inserts the reconciliation and marks the matched
// transactions reconciled in one database transaction
func (r *GormReconciliationRepository) SealReconciliation(ctx context.Context, rec *bankrec.Reconciliation, matchedTxnIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		if len(matchedTxnIDs) == 0 {
			return nil
		}
		return tx.Model(&ledger.Transaction{}).
			Where("id IN ?", matchedTxnIDs).
			Updates(map[string]any{
				"is_reconciled": true,
				"updated_at":    time.Now(),
			}).Error
	})
}
