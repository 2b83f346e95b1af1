package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/strataledger/backend/internal/domain/ledger"
	"github.com/strataledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// ChartForScheme loads the scheme's full account catalogue. A scheme with no
// accounts yields an empty chart, not an error; provisioning relies on that.
func (r *GormAccountRepository) ChartForScheme(ctx context.Context, schemeID uuid.UUID) (*ledger.ChartOfAccounts, error) {
	var accounts []ledger.Account
	if err := r.db.WithContext(ctx).
		Where("scheme_id = ?", schemeID).
		Order("code ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return ledger.NewChartOfAccounts(accounts), nil
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	var account ledger.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// SaveAll persists a batch of accounts in one database transaction
func (r *GormAccountRepository) SaveAll(ctx context.Context, accounts []ledger.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Save(&accounts).Error
	})
}
