package accounting

import (
	"context"
	"errors"
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
	"github.com/strataledger/backend/internal/infrastructure/lock"
	"go.uber.org/zap"
)

func chartFixture(t *testing.T, schemeID uuid.UUID) *ledger.ChartOfAccounts {
	t.Helper()
	accounts, err := defaultChart(schemeID)
	require.NoError(t, err)
	return ledger.NewChartOfAccounts(accounts)
}

func outstandingItemFixture(t *testing.T, schemeID, lotID uuid.UUID, amount string, dueDate time.Time) *levy.LevyItem {
	t.Helper()
	item, err := levy.NewLevyItem(schemeID, lotID, uuid.New(),
		decimal.RequireFromString(amount), decimal.Zero, dueDate)
	require.NoError(t, err)
	return item
}

type levyServiceMocks struct {
	scheduleRepo *MockScheduleRepository
	periodRepo   *MockPeriodRepository
	itemRepo     *MockItemRepository
	paymentRepo  *MockPaymentRepository
	accountRepo  *MockAccountRepository
	txnRepo      *MockTransactionRepository
	lots         *MockLotRegistry
}

func newLevyService(t *testing.T) (*LevyService, *levyServiceMocks) {
	t.Helper()
	return newLevyServiceWithLocks(t, lock.NewKeyedMutex())
}

func newLevyServiceWithLocks(t *testing.T, locks *lock.KeyedMutex) (*LevyService, *levyServiceMocks) {
	t.Helper()
	m := &levyServiceMocks{
		scheduleRepo: new(MockScheduleRepository),
		periodRepo:   new(MockPeriodRepository),
		itemRepo:     new(MockItemRepository),
		paymentRepo:  new(MockPaymentRepository),
		accountRepo:  new(MockAccountRepository),
		txnRepo:      new(MockTransactionRepository),
		lots:         new(MockLotRegistry),
	}
	svc := NewLevyService(
		m.scheduleRepo, m.periodRepo, m.itemRepo, m.paymentRepo,
		m.accountRepo, m.txnRepo, m.lots,
		locks, zap.NewNop(),
	)
	return svc, m
}

func TestLevyServiceCalculateLevies(t *testing.T) {
	ctx := context.Background()
	schemeID := uuid.New()
	dueDate := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	newFixtures := func(t *testing.T) (*levy.LevySchedule, *levy.LevyPeriod) {
		t.Helper()
		schedule, err := levy.NewLevySchedule(schemeID,
			decimal.RequireFromString("40000"), decimal.RequireFromString("20000"), 4)
		require.NoError(t, err)
		period, err := levy.NewLevyPeriod(schedule.ID, dueDate)
		require.NoError(t, err)
		return schedule, period
	}

	t.Run("calculates, persists items and activates the period", func(t *testing.T) {
		svc, m := newLevyService(t)
		schedule, period := newFixtures(t)
		lots := []registry.Lot{
			{ID: uuid.New(), SchemeID: schemeID, LotNumber: "1", UnitEntitlement: decimal.NewFromInt(50), Active: true},
			{ID: uuid.New(), SchemeID: schemeID, LotNumber: "2", UnitEntitlement: decimal.NewFromInt(50), Active: true},
		}

		m.periodRepo.On("FindByID", ctx, period.ID).Return(period, nil)
		m.scheduleRepo.On("FindByID", ctx, schedule.ID).Return(schedule, nil)
		m.lots.On("LotsForScheme", ctx, schemeID).Return(lots, nil)
		m.itemRepo.On("CountForPeriod", ctx, period.ID).Return(int64(0), nil)
		m.itemRepo.On("InsertItemsActivatePeriod", ctx, mock.Anything, period).Return(nil)

		result, err := svc.CalculateLevies(ctx, schemeID, period.ID)
		require.NoError(t, err)
		assert.Len(t, result.Items, 2)
		assert.Equal(t, levy.LevyPeriodStatusActive, period.Status)
		m.itemRepo.AssertExpectations(t)
	})

	t.Run("rejects a second run for the same period", func(t *testing.T) {
		svc, m := newLevyService(t)
		schedule, period := newFixtures(t)

		m.periodRepo.On("FindByID", ctx, period.ID).Return(period, nil)
		m.scheduleRepo.On("FindByID", ctx, schedule.ID).Return(schedule, nil)
		m.lots.On("LotsForScheme", ctx, schemeID).Return([]registry.Lot{
			{ID: uuid.New(), SchemeID: schemeID, LotNumber: "1", UnitEntitlement: decimal.NewFromInt(100), Active: true},
		}, nil)
		m.itemRepo.On("CountForPeriod", ctx, period.ID).Return(int64(1), nil)

		_, err := svc.CalculateLevies(ctx, schemeID, period.ID)
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "ALREADY_CALCULATED"))
		m.itemRepo.AssertNotCalled(t, "InsertItemsActivatePeriod", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("runs for the same period are serialized", func(t *testing.T) {
		locks := lock.NewKeyedMutex()
		svc, m := newLevyServiceWithLocks(t, locks)
		schedule, period := newFixtures(t)
		lots := []registry.Lot{
			{ID: uuid.New(), SchemeID: schemeID, LotNumber: "1", UnitEntitlement: decimal.NewFromInt(100), Active: true},
		}

		m.periodRepo.On("FindByID", ctx, period.ID).Return(period, nil)
		m.scheduleRepo.On("FindByID", ctx, schedule.ID).Return(schedule, nil)
		m.lots.On("LotsForScheme", ctx, schemeID).Return(lots, nil)
		m.itemRepo.On("CountForPeriod", ctx, period.ID).Return(int64(0), nil)
		m.itemRepo.On("InsertItemsActivatePeriod", ctx, mock.Anything, period).Return(nil)

		unlock := locks.Lock("period:" + period.ID.String())
		done := make(chan error, 1)
		go func() {
			_, err := svc.CalculateLevies(ctx, schemeID, period.ID)
			done <- err
		}()

		select {
		case <-done:
			t.Fatal("calculation ran while the period was held")
		case <-time.After(50 * time.Millisecond):
		}
		m.itemRepo.AssertNotCalled(t, "CountForPeriod", ctx, period.ID)

		unlock()
		require.NoError(t, <-done)
		m.itemRepo.AssertExpectations(t)
	})

	t.Run("period of another scheme is not found", func(t *testing.T) {
		svc, m := newLevyService(t)
		schedule, period := newFixtures(t)
		schedule.SchemeID = uuid.New()

		m.periodRepo.On("FindByID", ctx, period.ID).Return(period, nil)
		m.scheduleRepo.On("FindByID", ctx, schedule.ID).Return(schedule, nil)

		_, err := svc.CalculateLevies(ctx, schemeID, period.ID)
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "NOT_FOUND"))
	})
}

func TestLevyServiceRecordPayment(t *testing.T) {
	ctx := context.Background()
	schemeID := uuid.New()
	lotID := uuid.New()
	lot := &registry.Lot{ID: lotID, SchemeID: schemeID, LotNumber: "3", UnitEntitlement: decimal.NewFromInt(10), Active: true}
	payDate := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	request := func(amount string) RecordPaymentRequest {
		return RecordPaymentRequest{
			LotID:       lotID,
			Amount:      decimal.RequireFromString(amount),
			PaymentDate: payDate,
			Method:      "EFT",
			Reference:   "RCPT-77",
		}
	}

	t.Run("records, allocates and posts the ledger receipt", func(t *testing.T) {
		svc, m := newLevyService(t)
		items := []*levy.LevyItem{
			outstandingItemFixture(t, schemeID, lotID, "350.75", payDate.AddDate(0, -3, 0)),
		}

		m.lots.On("FindLot", ctx, schemeID, lotID).Return(lot, nil)
		m.itemRepo.On("FindOutstandingForLot", ctx, schemeID, lotID).Return(items, nil)
		m.paymentRepo.On("SavePaymentWithAllocations", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.accountRepo.On("ChartForScheme", ctx, schemeID).Return(chartFixture(t, schemeID), nil)
		m.txnRepo.On("Save", ctx, mock.Anything).Return(nil)
		m.paymentRepo.On("LinkAllocationsToTransaction", ctx, mock.Anything, mock.Anything).Return(nil)

		result, err := svc.RecordPayment(ctx, schemeID, request("350.75"))
		require.NoError(t, err)
		assert.Empty(t, result.LedgerError)
		require.NotNil(t, result.TransactionID)
		require.Len(t, result.Allocations, 1)
		assert.Equal(t, "350.75", result.TotalAllocated.StringFixed(2))
		assert.True(t, result.UnallocatedAmount.IsZero())
		require.NotNil(t, result.Allocations[0].TransactionID)
		assert.Equal(t, *result.TransactionID, *result.Allocations[0].TransactionID)

		// The posted receipt debits trust and credits levy income for the
		// allocated amount.
		savedTxn := m.txnRepo.Calls[0].Arguments.Get(1).(*ledger.Transaction)
		assert.Equal(t, ledger.TransactionTypeReceipt, savedTxn.Type)
		assert.Equal(t, "350.75", savedTxn.Amount.StringFixed(2))
		assert.True(t, savedTxn.IsBalanced())
		m.paymentRepo.AssertExpectations(t)
	})

	t.Run("ledger failure reports partial success instead of failing", func(t *testing.T) {
		svc, m := newLevyService(t)
		items := []*levy.LevyItem{
			outstandingItemFixture(t, schemeID, lotID, "350.75", payDate.AddDate(0, -3, 0)),
		}

		m.lots.On("FindLot", ctx, schemeID, lotID).Return(lot, nil)
		m.itemRepo.On("FindOutstandingForLot", ctx, schemeID, lotID).Return(items, nil)
		m.paymentRepo.On("SavePaymentWithAllocations", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.accountRepo.On("ChartForScheme", ctx, schemeID).Return(chartFixture(t, schemeID), nil)
		m.txnRepo.On("Save", ctx, mock.Anything).Return(errors.New("connection reset"))

		result, err := svc.RecordPayment(ctx, schemeID, request("350.75"))
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Contains(t, result.LedgerError, "connection reset")
		assert.Nil(t, result.TransactionID)
		// Payment and allocations stand even though the receipt never posted
		require.Len(t, result.Allocations, 1)
		assert.Nil(t, result.Allocations[0].TransactionID)
		assert.Equal(t, "350.75", result.TotalAllocated.StringFixed(2))
		m.paymentRepo.AssertCalled(t, "SavePaymentWithAllocations", ctx, mock.Anything, mock.Anything, mock.Anything)
		m.paymentRepo.AssertNotCalled(t, "LinkAllocationsToTransaction", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("surplus payment posts only the allocated portion", func(t *testing.T) {
		svc, m := newLevyService(t)
		items := []*levy.LevyItem{
			outstandingItemFixture(t, schemeID, lotID, "100.00", payDate.AddDate(0, -3, 0)),
		}

		m.lots.On("FindLot", ctx, schemeID, lotID).Return(lot, nil)
		m.itemRepo.On("FindOutstandingForLot", ctx, schemeID, lotID).Return(items, nil)
		m.paymentRepo.On("SavePaymentWithAllocations", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.accountRepo.On("ChartForScheme", ctx, schemeID).Return(chartFixture(t, schemeID), nil)
		m.txnRepo.On("Save", ctx, mock.Anything).Return(nil)
		m.paymentRepo.On("LinkAllocationsToTransaction", ctx, mock.Anything, mock.Anything).Return(nil)

		result, err := svc.RecordPayment(ctx, schemeID, request("150.00"))
		require.NoError(t, err)
		assert.Equal(t, "100.00", result.TotalAllocated.StringFixed(2))
		assert.Equal(t, "50.00", result.UnallocatedAmount.StringFixed(2))

		savedTxn := m.txnRepo.Calls[0].Arguments.Get(1).(*ledger.Transaction)
		assert.Equal(t, "100.00", savedTxn.Amount.StringFixed(2))
	})

	t.Run("no outstanding items skips the ledger entirely", func(t *testing.T) {
		svc, m := newLevyService(t)

		m.lots.On("FindLot", ctx, schemeID, lotID).Return(lot, nil)
		m.itemRepo.On("FindOutstandingForLot", ctx, schemeID, lotID).Return([]*levy.LevyItem{}, nil)
		m.paymentRepo.On("SavePaymentWithAllocations", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := svc.RecordPayment(ctx, schemeID, request("75.00"))
		require.NoError(t, err)
		assert.Equal(t, "75.00", result.UnallocatedAmount.StringFixed(2))
		assert.Nil(t, result.TransactionID)
		m.txnRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("invalid method is rejected before any write", func(t *testing.T) {
		svc, m := newLevyService(t)

		req := request("75.00")
		req.Method = "CARRIER_PIGEON"
		_, err := svc.RecordPayment(ctx, schemeID, req)
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "VALIDATION_ERROR"))
		m.paymentRepo.AssertNotCalled(t, "SavePaymentWithAllocations", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLevyServiceCreateSchedule(t *testing.T) {
	ctx := context.Background()
	schemeID := uuid.New()

	t.Run("deactivates the current schedule before saving the new one", func(t *testing.T) {
		svc, m := newLevyService(t)
		current, err := levy.NewLevySchedule(schemeID,
			decimal.RequireFromString("30000"), decimal.RequireFromString("15000"), 4)
		require.NoError(t, err)

		m.scheduleRepo.On("FindActiveForScheme", ctx, schemeID).Return(current, nil)
		m.scheduleRepo.On("Save", ctx, mock.Anything).Return(nil)

		created, err := svc.CreateSchedule(ctx, schemeID, CreateScheduleRequest{
			AdminFundTotal:        decimal.RequireFromString("40000"),
			CapitalWorksFundTotal: decimal.RequireFromString("20000"),
			PeriodsPerYear:        4,
		})
		require.NoError(t, err)
		assert.True(t, created.Active)
		assert.False(t, current.Active)
		m.scheduleRepo.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("first schedule for a scheme needs no deactivation", func(t *testing.T) {
		svc, m := newLevyService(t)

		m.scheduleRepo.On("FindActiveForScheme", ctx, schemeID).Return(nil, shared.ErrNotFound)
		m.scheduleRepo.On("Save", ctx, mock.Anything).Return(nil)

		created, err := svc.CreateSchedule(ctx, schemeID, CreateScheduleRequest{
			AdminFundTotal:        decimal.RequireFromString("40000"),
			CapitalWorksFundTotal: decimal.RequireFromString("20000"),
			PeriodsPerYear:        4,
		})
		require.NoError(t, err)
		assert.True(t, created.Active)
		m.scheduleRepo.AssertNumberOfCalls(t, "Save", 1)
	})
}

func TestLevyServiceMarkOverdue(t *testing.T) {
	ctx := context.Background()
	schemeID := uuid.New()
	asOf := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	svc, m := newLevyService(t)
	m.itemRepo.On("MarkOverdue", ctx, schemeID, asOf).Return(int64(3), nil)

	count, err := svc.MarkOverdue(ctx, schemeID, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
