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

// GormPaymentRepository implements levy.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*levy.Payment, error) {
	var payment levy.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// FindAllocationsForPayment finds the allocation rows of a payment
func (r *GormPaymentRepository) FindAllocationsForPayment(ctx context.Context, paymentID uuid.UUID) ([]levy.PaymentAllocation, error) {
	var allocations []levy.PaymentAllocation
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

// AllocationsReferencingTransaction counts allocation rows linked to a ledger
// transaction. A non-zero count blocks deleting the transaction.
func (r *GormPaymentRepository) AllocationsReferencingTransaction(ctx context.Context, txnID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&levy.PaymentAllocation{}).
		Where("transaction_id = ?", txnID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SavePaymentWithAllocations writes the payment, its allocation rows, and the
// updated levy items in one database transaction
func (r *GormPaymentRepository) SavePaymentWithAllocations(ctx context.Context, payment *levy.Payment, allocations []levy.PaymentAllocation, items []*levy.LevyItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		if len(allocations) > 0 {
			if err := tx.Create(&allocations).Error; err != nil {
				return err
			}
		}
		for _, item := range items {
			if err := tx.Save(item).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LinkAllocationsToTransaction stamps the ledger transaction id onto
// allocation rows after the receipt posts
func (r *GormPaymentRepository) LinkAllocationsToTransaction(ctx context.Context, allocationIDs []uuid.UUID, txnID uuid.UUID) error {
	if len(allocationIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&levy.PaymentAllocation{}).
		Where("id IN ?", allocationIDs).
		Updates(map[string]any{
			"transaction_id": txnID,
			"updated_at":     time.Now(),
		}).Error
}
