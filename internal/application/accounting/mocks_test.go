package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/strataledger/backend/internal/domain/bankrec"
	"github.com/strataledger/backend/internal/domain/ledger"
	"github.com/strataledger/backend/internal/domain/levy"
	"github.com/strataledger/backend/internal/domain/registry"
	"github.com/strataledger/backend/internal/domain/shared"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) ChartForScheme(ctx context.Context, schemeID uuid.UUID) (*ledger.ChartOfAccounts, error) {
	args := m.Called(ctx, schemeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ChartOfAccounts), args.Error(1)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAll(ctx context.Context, accounts []ledger.Account) error {
	args := m.Called(ctx, accounts)
	return args.Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindAllForScheme(ctx context.Context, schemeID uuid.UUID, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	args := m.Called(ctx, schemeID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Save(ctx context.Context, txn *ledger.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) ReplaceLines(ctx context.Context, txn *ledger.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTransactionRepository) AccountBalance(ctx context.Context, schemeID, accountID uuid.UUID, asOf *time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, schemeID, accountID, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) AccountBalanceBefore(ctx context.Context, schemeID, accountID uuid.UUID, before time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, schemeID, accountID, before)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) ActivityByAccount(ctx context.Context, schemeID uuid.UUID, dateRange shared.DateRange) ([]ledger.AccountActivity, error) {
	args := m.Called(ctx, schemeID, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.AccountActivity), args.Error(1)
}

func (m *MockTransactionRepository) MarkReconciled(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*levy.LevySchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*levy.LevySchedule), args.Error(1)
}

func (m *MockScheduleRepository) FindActiveForScheme(ctx context.Context, schemeID uuid.UUID) (*levy.LevySchedule, error) {
	args := m.Called(ctx, schemeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*levy.LevySchedule), args.Error(1)
}

func (m *MockScheduleRepository) Save(ctx context.Context, schedule *levy.LevySchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

type MockPeriodRepository struct {
	mock.Mock
}

func (m *MockPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*levy.LevyPeriod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*levy.LevyPeriod), args.Error(1)
}

func (m *MockPeriodRepository) FindForSchedule(ctx context.Context, scheduleID uuid.UUID) ([]levy.LevyPeriod, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]levy.LevyPeriod), args.Error(1)
}

func (m *MockPeriodRepository) Save(ctx context.Context, period *levy.LevyPeriod) error {
	args := m.Called(ctx, period)
	return args.Error(0)
}

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*levy.LevyItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*levy.LevyItem), args.Error(1)
}

func (m *MockItemRepository) CountForPeriod(ctx context.Context, periodID uuid.UUID) (int64, error) {
	args := m.Called(ctx, periodID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemRepository) FindOutstandingForLot(ctx context.Context, schemeID, lotID uuid.UUID) ([]*levy.LevyItem, error) {
	args := m.Called(ctx, schemeID, lotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*levy.LevyItem), args.Error(1)
}

func (m *MockItemRepository) FindForPeriod(ctx context.Context, periodID uuid.UUID) ([]levy.LevyItem, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]levy.LevyItem), args.Error(1)
}

func (m *MockItemRepository) FindOutstandingForScheme(ctx context.Context, schemeID uuid.UUID) ([]levy.LevyItem, error) {
	args := m.Called(ctx, schemeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]levy.LevyItem), args.Error(1)
}

func (m *MockItemRepository) InsertItemsActivatePeriod(ctx context.Context, items []levy.LevyItem, period *levy.LevyPeriod) error {
	args := m.Called(ctx, items, period)
	return args.Error(0)
}

func (m *MockItemRepository) Save(ctx context.Context, item *levy.LevyItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) SaveAll(ctx context.Context, items []*levy.LevyItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockItemRepository) MarkOverdue(ctx context.Context, schemeID uuid.UUID, asOf time.Time) (int64, error) {
	args := m.Called(ctx, schemeID, asOf)
	return args.Get(0).(int64), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*levy.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*levy.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllocationsForPayment(ctx context.Context, paymentID uuid.UUID) ([]levy.PaymentAllocation, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]levy.PaymentAllocation), args.Error(1)
}

func (m *MockPaymentRepository) AllocationsReferencingTransaction(ctx context.Context, txnID uuid.UUID) (int64, error) {
	args := m.Called(ctx, txnID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) SavePaymentWithAllocations(ctx context.Context, payment *levy.Payment, allocations []levy.PaymentAllocation, items []*levy.LevyItem) error {
	args := m.Called(ctx, payment, allocations, items)
	return args.Error(0)
}

func (m *MockPaymentRepository) LinkAllocationsToTransaction(ctx context.Context, allocationIDs []uuid.UUID, txnID uuid.UUID) error {
	args := m.Called(ctx, allocationIDs, txnID)
	return args.Error(0)
}

type MockLotRegistry struct {
	mock.Mock
}

func (m *MockLotRegistry) LotsForScheme(ctx context.Context, schemeID uuid.UUID) ([]registry.Lot, error) {
	args := m.Called(ctx, schemeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]registry.Lot), args.Error(1)
}

func (m *MockLotRegistry) FindLot(ctx context.Context, schemeID, lotID uuid.UUID) (*registry.Lot, error) {
	args := m.Called(ctx, schemeID, lotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.Lot), args.Error(1)
}

type MockStatementRepository struct {
	mock.Mock
}

func (m *MockStatementRepository) FindByID(ctx context.Context, id uuid.UUID) (*bankrec.BankStatement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bankrec.BankStatement), args.Error(1)
}

func (m *MockStatementRepository) FindLineByID(ctx context.Context, id uuid.UUID) (*bankrec.BankStatementLine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bankrec.BankStatementLine), args.Error(1)
}

func (m *MockStatementRepository) FindLinesForStatement(ctx context.Context, statementID uuid.UUID) ([]*bankrec.BankStatementLine, error) {
	args := m.Called(ctx, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bankrec.BankStatementLine), args.Error(1)
}

func (m *MockStatementRepository) CountUnmatchedLines(ctx context.Context, statementID uuid.UUID) (int64, error) {
	args := m.Called(ctx, statementID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatementRepository) SaveStatementWithLines(ctx context.Context, statement *bankrec.BankStatement, lines []*bankrec.BankStatementLine) error {
	args := m.Called(ctx, statement, lines)
	return args.Error(0)
}

func (m *MockStatementRepository) SaveLine(ctx context.Context, line *bankrec.BankStatementLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockStatementRepository) SaveLines(ctx context.Context, lines []*bankrec.BankStatementLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

type MockReconciliationRepository struct {
	mock.Mock
}

func (m *MockReconciliationRepository) FindByStatement(ctx context.Context, statementID uuid.UUID) (*bankrec.Reconciliation, error) {
	args := m.Called(ctx, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bankrec.Reconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) SealReconciliation(ctx context.Context, rec *bankrec.Reconciliation, matchedTxnIDs []uuid.UUID) error {
	args := m.Called(ctx, rec, matchedTxnIDs)
	return args.Error(0)
}
