package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/strataledger/backend/internal/domain/ledger"
	"github.com/strataledger/backend/internal/domain/levy"
	"github.com/strataledger/backend/internal/domain/registry"
	"github.com/strataledger/backend/internal/domain/shared"
)

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

func testAccounts(t *testing.T, schemeID uuid.UUID) *ledger.ChartOfAccounts {
	t.Helper()
	adminFund := ledger.FundAdmin
	capitalFund := ledger.FundCapitalWorks
	entries := []struct {
		code string
		name string
		typ  ledger.AccountType
		fund *ledger.Fund
	}{
		{ledger.TrustAccountCodeAdmin, "Admin Fund Trust Account", ledger.AccountTypeAsset, &adminFund},
		{ledger.TrustAccountCodeCapitalWorks, "Capital Works Trust Account", ledger.AccountTypeAsset, &capitalFund},
		{ledger.LevyIncomeCodeAdmin, "Levy Income - Admin", ledger.AccountTypeIncome, &adminFund},
		{ledger.LevyIncomeCodeCapitalWorks, "Levy Income - Capital Works", ledger.AccountTypeIncome, &capitalFund},
		{"6100", "Repairs & Maintenance", ledger.AccountTypeExpense, &adminFund},
	}
	accounts := make([]ledger.Account, 0, len(entries))
	for _, e := range entries {
		a, err := ledger.NewAccount(schemeID, e.code, e.name, e.typ, e.fund)
		require.NoError(t, err)
		accounts = append(accounts, *a)
	}
	return ledger.NewChartOfAccounts(accounts)
}

func newReportService(t *testing.T) (*Service, *MockAccountRepository, *MockTransactionRepository, *MockItemRepository, *MockLotRegistry) {
	t.Helper()
	accountRepo := new(MockAccountRepository)
	txnRepo := new(MockTransactionRepository)
	itemRepo := new(MockItemRepository)
	lots := new(MockLotRegistry)
	return NewService(accountRepo, txnRepo, itemRepo, lots), accountRepo, txnRepo, itemRepo, lots
}

func TestTrialBalance(t *testing.T) {
	ctx := context.Background()
	schemeID := uuid.New()

	t.Run("rolls up per-account activity and balances overall", func(t *testing.T) {
		svc, accountRepo, txnRepo, _, _ := newReportService(t)
		chart := testAccounts(t, schemeID)
		trust, err := chart.ByCode(ledger.TrustAccountCodeAdmin)
		require.NoError(t, err)
		income, err := chart.ByCode(ledger.LevyIncomeCodeAdmin)
		require.NoError(t, err)

		accountRepo.On("ChartForScheme", ctx, schemeID).Return(chart, nil)
		txnRepo.On("ActivityByAccount", ctx, schemeID, mock.Anything).Return([]ledger.AccountActivity{
			{AccountID: income.ID, TotalDebits: decimal.Zero, TotalCredits: decimal.RequireFromString("990.00")},
			{AccountID: trust.ID, TotalDebits: decimal.RequireFromString("990.00"), TotalCredits: decimal.Zero},
		}, nil)

		tb, err := svc.TrialBalance(ctx, schemeID, nil)
		require.NoError(t, err)
		require.Len(t, tb.Rows, 2)
		// Sorted by account code
		assert.Equal(t, ledger.TrustAccountCodeAdmin, tb.Rows[0].Code)
		assert.Equal(t, "990.00", tb.Rows[0].Balance.StringFixed(2))
		assert.Equal(t, "-990.00", tb.Rows[1].Balance.StringFixed(2))
		assert.Equal(t, "990.00", tb.TotalDebits.StringFixed(2))
		assert.Equal(t, "990.00", tb.TotalCredits.StringFixed(2))
		assert.True(t, tb.IsBalanced)
	})

	t.Run("empty ledger balances trivially", func(t *testing.T) {
		svc, accountRepo, txnRepo, _, _ := newReportService(t)
		accountRepo.On("ChartForScheme", ctx, schemeID).Return(testAccounts(t, schemeID), nil)
		txnRepo.On("ActivityByAccount", ctx, schemeID, mock.Anything).Return([]ledger.AccountActivity{}, nil)

		tb, err := svc.TrialBalance(ctx, schemeID, nil)
		require.NoError(t, err)
		assert.Empty(t, tb.Rows)
		assert.True(t, tb.IsBalanced)
	})
}

func TestFundBalanceSummary(t *testing.T) {
	ctx := context.Background()
	schemeID := uuid.New()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	receipt := func(t *testing.T, fund ledger.Fund, amount string) ledger.Transaction {
		t.Helper()
		chart := testAccounts(t, schemeID)
		income, err := chart.ByCode(ledger.LevyIncomeCodeAdmin)
		require.NoError(t, err)
		txn, err := ledger.NewPostingService(chart).BuildReceipt(ledger.ReceiptInput{
			SchemeID:          schemeID,
			Fund:              fund,
			CategoryAccountID: income.ID,
			Amount:            decimal.RequireFromString(amount),
			Date:              from.AddDate(0, 0, 5),
		})
		require.NoError(t, err)
		return *txn
	}

	t.Run("opening plus receipts minus payments per fund", func(t *testing.T) {
		svc, accountRepo, txnRepo, _, _ := newReportService(t)
		accountRepo.On("ChartForScheme", ctx, schemeID).Return(testAccounts(t, schemeID), nil)
		txnRepo.On("AccountBalanceBefore", ctx, schemeID, mock.Anything, from).Return(
			decimal.RequireFromString("10000.00"), nil)

		adminTxns := []ledger.Transaction{receipt(t, ledger.FundAdmin, "440.50")}
		txnRepo.On("FindAllForScheme", ctx, schemeID, mock.MatchedBy(func(f ledger.TransactionFilter) bool {
			return f.Fund != nil && *f.Fund == ledger.FundAdmin
		})).Return(adminTxns, nil)
		txnRepo.On("FindAllForScheme", ctx, schemeID, mock.MatchedBy(func(f ledger.TransactionFilter) bool {
			return f.Fund != nil && *f.Fund == ledger.FundCapitalWorks
		})).Return([]ledger.Transaction{}, nil)

		summary, err := svc.FundBalanceSummary(ctx, schemeID, shared.DateRange{From: &from, To: &to})
		require.NoError(t, err)
		require.Len(t, summary.Funds, 2)

		admin := summary.Funds[0]
		assert.Equal(t, "ADMIN", admin.Fund)
		assert.Equal(t, "10000.00", admin.OpeningBalance.StringFixed(2))
		assert.Equal(t, "440.50", admin.Receipts.StringFixed(2))
		assert.Equal(t, "10440.50", admin.ClosingBalance.StringFixed(2))
	})

	t.Run("receipt dated on the window start counts once", func(t *testing.T) {
		svc, accountRepo, txnRepo, _, _ := newReportService(t)
		accountRepo.On("ChartForScheme", ctx, schemeID).Return(testAccounts(t, schemeID), nil)

		// The opening balance query excludes the window start itself, so
		// a receipt dated exactly on From contributes to receipts only.
		txnRepo.On("AccountBalanceBefore", ctx, schemeID, mock.Anything, from).Return(
			decimal.Zero, nil)

		boundary := receipt(t, ledger.FundAdmin, "200.00")
		boundary.Date = from
		txnRepo.On("FindAllForScheme", ctx, schemeID, mock.MatchedBy(func(f ledger.TransactionFilter) bool {
			return f.Fund != nil && *f.Fund == ledger.FundAdmin
		})).Return([]ledger.Transaction{boundary}, nil)
		txnRepo.On("FindAllForScheme", ctx, schemeID, mock.MatchedBy(func(f ledger.TransactionFilter) bool {
			return f.Fund != nil && *f.Fund == ledger.FundCapitalWorks
		})).Return([]ledger.Transaction{}, nil)

		summary, err := svc.FundBalanceSummary(ctx, schemeID, shared.DateRange{From: &from, To: &to})
		require.NoError(t, err)

		admin := summary.Funds[0]
		assert.Equal(t, "0.00", admin.OpeningBalance.StringFixed(2))
		assert.Equal(t, "200.00", admin.Receipts.StringFixed(2))
		assert.Equal(t, "200.00", admin.ClosingBalance.StringFixed(2))
		txnRepo.AssertNotCalled(t, "AccountBalance", ctx, schemeID, mock.Anything, &from)
	})
}

func TestIncomeStatement(t *testing.T) {
	ctx := context.Background()
	schemeID := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	t.Run("income minus expenses over the window", func(t *testing.T) {
		svc, accountRepo, txnRepo, _, _ := newReportService(t)
		chart := testAccounts(t, schemeID)
		income, err := chart.ByCode(ledger.LevyIncomeCodeAdmin)
		require.NoError(t, err)
		repairs, err := chart.ByCode("6100")
		require.NoError(t, err)

		accountRepo.On("ChartForScheme", ctx, schemeID).Return(chart, nil)
		txnRepo.On("ActivityByAccount", ctx, schemeID, mock.Anything).Return([]ledger.AccountActivity{
			{AccountID: income.ID, TotalDebits: decimal.Zero, TotalCredits: decimal.RequireFromString("5000.00")},
			{AccountID: repairs.ID, TotalDebits: decimal.RequireFromString("1200.00"), TotalCredits: decimal.Zero},
		}, nil)

		stmt, err := svc.IncomeStatement(ctx, schemeID, from, to)
		require.NoError(t, err)
		require.Len(t, stmt.Income, 1)
		require.Len(t, stmt.Expenses, 1)
		assert.Equal(t, "5000.00", stmt.TotalIncome.StringFixed(2))
		assert.Equal(t, "1200.00", stmt.TotalExpenses.StringFixed(2))
		assert.Equal(t, "3800.00", stmt.NetResult.StringFixed(2))
	})

	t.Run("totals roll up per fund and combined", func(t *testing.T) {
		svc, accountRepo, txnRepo, _, _ := newReportService(t)
		chart := testAccounts(t, schemeID)
		adminIncome, err := chart.ByCode(ledger.LevyIncomeCodeAdmin)
		require.NoError(t, err)
		capitalIncome, err := chart.ByCode(ledger.LevyIncomeCodeCapitalWorks)
		require.NoError(t, err)
		repairs, err := chart.ByCode("6100")
		require.NoError(t, err)

		accountRepo.On("ChartForScheme", ctx, schemeID).Return(chart, nil)
		txnRepo.On("ActivityByAccount", ctx, schemeID, mock.Anything).Return([]ledger.AccountActivity{
			{AccountID: adminIncome.ID, TotalDebits: decimal.Zero, TotalCredits: decimal.RequireFromString("5000.00")},
			{AccountID: capitalIncome.ID, TotalDebits: decimal.Zero, TotalCredits: decimal.RequireFromString("800.00")},
			{AccountID: repairs.ID, TotalDebits: decimal.RequireFromString("1200.00"), TotalCredits: decimal.Zero},
		}, nil)

		stmt, err := svc.IncomeStatement(ctx, schemeID, from, to)
		require.NoError(t, err)
		require.Len(t, stmt.Funds, 2)

		admin := stmt.Funds[0]
		assert.Equal(t, "ADMIN", admin.Fund)
		assert.Equal(t, "5000.00", admin.TotalIncome.StringFixed(2))
		assert.Equal(t, "1200.00", admin.TotalExpenses.StringFixed(2))
		assert.Equal(t, "3800.00", admin.NetResult.StringFixed(2))

		capital := stmt.Funds[1]
		assert.Equal(t, "CAPITAL_WORKS", capital.Fund)
		assert.Equal(t, "800.00", capital.TotalIncome.StringFixed(2))
		assert.Equal(t, "0.00", capital.TotalExpenses.StringFixed(2))
		assert.Equal(t, "800.00", capital.NetResult.StringFixed(2))

		assert.Equal(t, "5800.00", stmt.TotalIncome.StringFixed(2))
		assert.Equal(t, "4600.00", stmt.NetResult.StringFixed(2))
	})

	t.Run("the window is mandatory", func(t *testing.T) {
		svc, _, _, _, _ := newReportService(t)
		_, err := svc.IncomeStatement(ctx, schemeID, time.Time{}, to)
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "VALIDATION_ERROR"))
	})

	t.Run("an inverted window is rejected", func(t *testing.T) {
		svc, _, _, _, _ := newReportService(t)
		_, err := svc.IncomeStatement(ctx, schemeID, to, from)
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "VALIDATION_ERROR"))
	})
}

func TestArrearsSummary(t *testing.T) {
	ctx := context.Background()
	schemeID := uuid.New()
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	item := func(t *testing.T, lotID uuid.UUID, amount, paid string, dueDate time.Time) levy.LevyItem {
		t.Helper()
		it, err := levy.NewLevyItem(schemeID, lotID, uuid.New(),
			decimal.RequireFromString(amount), decimal.Zero, dueDate)
		require.NoError(t, err)
		if paid != "0" {
			require.NoError(t, it.ApplyAllocation(decimal.RequireFromString(paid)))
		}
		return *it
	}

	t.Run("groups outstanding balances per lot, largest first", func(t *testing.T) {
		svc, _, _, itemRepo, lots := newReportService(t)
		lotA, lotB := uuid.New(), uuid.New()

		itemRepo.On("FindOutstandingForScheme", ctx, schemeID).Return([]levy.LevyItem{
			item(t, lotA, "300.00", "100.00", due),
			item(t, lotA, "300.00", "0", due.AddDate(0, 3, 0)),
			item(t, lotB, "150.00", "0", due.AddDate(0, 1, 0)),
		}, nil)
		lots.On("LotsForScheme", ctx, schemeID).Return([]registry.Lot{
			{ID: lotA, SchemeID: schemeID, LotNumber: "1", Active: true},
			{ID: lotB, SchemeID: schemeID, LotNumber: "2", Active: true},
		}, nil)

		summary, err := svc.ArrearsSummary(ctx, schemeID)
		require.NoError(t, err)
		require.Len(t, summary.Rows, 2)

		first := summary.Rows[0]
		assert.Equal(t, "1", first.LotNumber)
		assert.Equal(t, 2, first.ItemCount)
		assert.Equal(t, "500.00", first.TotalOwing.StringFixed(2))
		assert.Equal(t, due, first.OldestDueDate)

		assert.Equal(t, "150.00", summary.Rows[1].TotalOwing.StringFixed(2))
		assert.Equal(t, "650.00", summary.TotalOwing.StringFixed(2))
	})

	t.Run("no arrears yields an empty summary", func(t *testing.T) {
		svc, _, _, itemRepo, lots := newReportService(t)
		itemRepo.On("FindOutstandingForScheme", ctx, schemeID).Return([]levy.LevyItem{}, nil)
		lots.On("LotsForScheme", ctx, schemeID).Return([]registry.Lot{}, nil)

		summary, err := svc.ArrearsSummary(ctx, schemeID)
		require.NoError(t, err)
		assert.Empty(t, summary.Rows)
		assert.True(t, summary.TotalOwing.IsZero())
	})
}
