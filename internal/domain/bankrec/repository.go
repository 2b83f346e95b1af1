package bankrec

import (
	"context"

	"github.com/google/uuid"
)

// StatementRepository persists bank statements and their lines
type StatementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BankStatement, error)
	FindLineByID(ctx context.Context, id uuid.UUID) (*BankStatementLine, error)
	FindLinesForStatement(ctx context.Context, statementID uuid.UUID) ([]*BankStatementLine, error)
	CountUnmatchedLines(ctx context.Context, statementID uuid.UUID) (int64, error)

	// SaveStatementWithLines writes the statement and all its lines in one
	// database transaction.
	SaveStatementWithLines(ctx context.Context, statement *BankStatement, lines []*BankStatementLine) error

	SaveLine(ctx context.Context, line *BankStatementLine) error
	SaveLines(ctx context.Context, lines []*BankStatementLine) error
}

// ReconciliationRepository persists the write-once reconciliation records.
// There is deliberately no update or delete.
type ReconciliationRepository interface {
	FindByStatement(ctx context.Context, statementID uuid.UUID) (*Reconciliation, error)

	// SealReconciliation inserts the reconciliation and marks the matched
	// transactions reconciled in one database transaction.
	SealReconciliation(ctx context.Context, rec *Reconciliation, matchedTxnIDs []uuid.UUID) error
}
