package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/ledger"
	"github.com/strataledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionRepository implements ledger.TransactionRepository using GORM.
// Soft-deleted transactions are excluded from every query and aggregate; the
// line-level sums join back to the transactions table for that reason.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction with its lines
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var txn ledger.Transaction
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// FindAllForScheme finds all transactions for a scheme matching the filter
func (r *GormTransactionRepository) FindAllForScheme(ctx context.Context, schemeID uuid.UUID, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("scheme_id = ?", schemeID)

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Fund != nil {
		query = query.Where("fund = ?", *filter.Fund)
	}
	if filter.LotID != nil {
		query = query.Where("lot_id = ?", *filter.LotID)
	}
	if filter.IsReconciled != nil {
		query = query.Where("is_reconciled = ?", *filter.IsReconciled)
	}
	if filter.DateRange.From != nil {
		query = query.Where("date >= ?", *filter.DateRange.From)
	}
	if filter.DateRange.To != nil {
		query = query.Where("date <= ?", *filter.DateRange.To)
	}

	var txns []ledger.Transaction
	if err := query.Order("date ASC, created_at ASC").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// Save persists a transaction and its lines
func (r *GormTransactionRepository) Save(ctx context.Context, txn *ledger.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Save(txn).Error
	})
}

// ReplaceLines swaps the transaction's full line-set atomically: old lines
// deleted, new set inserted, header updated, one database transaction.
func (r *GormTransactionRepository) ReplaceLines(ctx context.Context, txn *ledger.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", txn.ID).
			Delete(&ledger.TransactionLine{}).Error; err != nil {
			return err
		}
		for i := range txn.Lines {
			txn.Lines[i].TransactionID = txn.ID
		}
		if len(txn.Lines) > 0 {
			if err := tx.Create(&txn.Lines).Error; err != nil {
				return err
			}
		}
		return tx.Model(&ledger.Transaction{}).
			Where("id = ?", txn.ID).
			Updates(map[string]any{
				"amount":     txn.Amount,
				"updated_at": txn.UpdatedAt,
			}).Error
	})
}

// SoftDelete marks the transaction deleted without touching its lines
func (r *GormTransactionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&ledger.Transaction{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AccountBalance sums debits minus credits over non-deleted lines for the
// account, optionally bounded by an inclusive as-of date.
func (r *GormTransactionRepository) AccountBalance(ctx context.Context, schemeID, accountID uuid.UUID, asOf *time.Time) (decimal.Decimal, error) {
	query := r.balanceQuery(ctx, schemeID, accountID)
	if asOf != nil {
		query = query.Where("transactions.date <= ?", *asOf)
	}

	var balance decimal.Decimal
	if err := query.Scan(&balance).Error; err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// AccountBalanceBefore sums the account's balance over transactions dated
// strictly before the cutoff
func (r *GormTransactionRepository) AccountBalanceBefore(ctx context.Context, schemeID, accountID uuid.UUID, before time.Time) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.balanceQuery(ctx, schemeID, accountID).
		Where("transactions.date < ?", before).
		Scan(&balance).Error
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (r *GormTransactionRepository) balanceQuery(ctx context.Context, schemeID, accountID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&ledger.TransactionLine{}).
		Select("COALESCE(SUM(CASE WHEN transaction_lines.line_type = ? THEN transaction_lines.amount ELSE -transaction_lines.amount END), 0)",
			ledger.LineTypeDebit).
		Joins("JOIN transactions ON transactions.id = transaction_lines.transaction_id").
		Where("transactions.scheme_id = ?", schemeID).
		Where("transactions.deleted_at IS NULL").
		Where("transaction_lines.account_id = ?", accountID)
}

// ActivityByAccount rolls up debit/credit totals per account over the
// optional date range
func (r *GormTransactionRepository) ActivityByAccount(ctx context.Context, schemeID uuid.UUID, dateRange shared.DateRange) ([]ledger.AccountActivity, error) {
	query := r.db.WithContext(ctx).
		Model(&ledger.TransactionLine{}).
		Select(`transaction_lines.account_id AS account_id,
			COALESCE(SUM(CASE WHEN transaction_lines.line_type = ? THEN transaction_lines.amount ELSE 0 END), 0) AS total_debits,
			COALESCE(SUM(CASE WHEN transaction_lines.line_type = ? THEN transaction_lines.amount ELSE 0 END), 0) AS total_credits`,
			ledger.LineTypeDebit, ledger.LineTypeCredit).
		Joins("JOIN transactions ON transactions.id = transaction_lines.transaction_id").
		Where("transactions.scheme_id = ?", schemeID).
		Where("transactions.deleted_at IS NULL").
		Group("transaction_lines.account_id")

	if dateRange.From != nil {
		query = query.Where("transactions.date >= ?", *dateRange.From)
	}
	if dateRange.To != nil {
		query = query.Where("transactions.date <= ?", *dateRange.To)
	}

	var activity []ledger.AccountActivity
	if err := query.Scan(&activity).Error; err != nil {
		return nil, err
	}
	return activity, nil
}

// MarkReconciled seals a set of transactions in one database transaction
func (r *GormTransactionRepository) MarkReconciled(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&ledger.Transaction{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"is_reconciled": true,
				"updated_at":    time.Now(),
			}).Error
	})
}
