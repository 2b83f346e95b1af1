package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/strataledger/backend/internal/domain/bankrec"
	"github.com/strataledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormStatementRepository implements bankrec.StatementRepository using GORM
type GormStatementRepository struct {
	db *gorm.DB
}

// NewGormStatementRepository creates a new GormStatementRepository
func NewGormStatementRepository(db *gorm.DB) *GormStatementRepository {
	return &GormStatementRepository{db: db}
}

// FindByID finds a bank statement by its ID
func (r *GormStatementRepository) FindByID(ctx context.Context, id uuid.UUID) (*bankrec.BankStatement, error) {
	var statement bankrec.BankStatement
	if err := r.db.WithContext(ctx).First(&statement, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &statement, nil
}

// FindLineByID finds a statement line by its ID
func (r *GormStatementRepository) FindLineByID(ctx context.Context, id uuid.UUID) (*bankrec.BankStatementLine, error) {
	var line bankrec.BankStatementLine
	if err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

// FindLinesForStatement finds all lines of a statement in import order
func (r *GormStatementRepository) FindLinesForStatement(ctx context.Context, statementID uuid.UUID) ([]*bankrec.BankStatementLine, error) {
	var lines []*bankrec.BankStatementLine
	if err := r.db.WithContext(ctx).
		Where("statement_id = ?", statementID).
		Order("line_date ASC, created_at ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// CountUnmatchedLines counts a statement's lines without a pairing
func (r *GormStatementRepository) CountUnmatchedLines(ctx context.Context, statementID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&bankrec.BankStatementLine{}).
		Where("statement_id = ? AND matched = ?", statementID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SaveStatementWithLines writes the statement and all its lines in one
// database transaction
func (r *GormStatementRepository) SaveStatementWithLines(ctx context.Context, statement *bankrec.BankStatement, lines []*bankrec.BankStatementLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(statement).Error; err != nil {
			return err
		}
		for _, line := range lines {
			line.StatementID = statement.ID
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveLine persists a single statement line
func (r *GormStatementRepository) SaveLine(ctx context.Context, line *bankrec.BankStatementLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// SaveLines persists a batch of statement lines in one database transaction
func (r *GormStatementRepository) SaveLines(ctx context.Context, lines []*bankrec.BankStatementLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			if err := tx.Save(line).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
