package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/levy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLevyTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&levy.LevySchedule{}, &levy.LevyPeriod{}, &levy.LevyItem{},
		&levy.Payment{}, &levy.PaymentAllocation{},
	)
	require.NoError(t, err)

	return db
}

func newTestItem(t *testing.T, schemeID, lotID, periodID uuid.UUID, admin, capital string, dueDate time.Time) *levy.LevyItem {
	t.Helper()
	item, err := levy.NewLevyItem(schemeID, lotID, periodID,
		decimal.RequireFromString(admin), decimal.RequireFromString(capital), dueDate)
	require.NoError(t, err)
	return item
}

func TestGormItemRepository_InsertItemsActivatePeriod(t *testing.T) {
	db := setupLevyTestDB(t)
	repo := NewGormItemRepository(db)
	periodRepo := NewGormPeriodRepository(db)
	ctx := context.Background()

	schemeID := uuid.New()
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	period, err := levy.NewLevyPeriod(uuid.New(), due)
	require.NoError(t, err)
	require.NoError(t, periodRepo.Save(ctx, period))

	items := []levy.LevyItem{
		*newTestItem(t, schemeID, uuid.New(), period.ID, "250.00", "125.00", due),
		*newTestItem(t, schemeID, uuid.New(), period.ID, "500.00", "250.00", due),
	}
	require.NoError(t, period.Activate())

	require.NoError(t, repo.InsertItemsActivatePeriod(ctx, items, period))

	count, err := repo.CountForPeriod(ctx, period.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	saved, err := periodRepo.FindByID(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, levy.LevyPeriodStatusActive, saved.Status)

	t.Run("second item for a lot and period is rejected", func(t *testing.T) {
		dup := []levy.LevyItem{
			*newTestItem(t, schemeID, items[0].LotID, period.ID, "250.00", "125.00", due),
		}
		err := repo.InsertItemsActivatePeriod(ctx, dup, period)
		require.Error(t, err)

		count, err := repo.CountForPeriod(ctx, period.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count, "duplicate insert must not land")
	})
}

func TestGormItemRepository_FindOutstandingForLot_Ordering(t *testing.T) {
	db := setupLevyTestDB(t)
	repo := NewGormItemRepository(db)
	ctx := context.Background()

	schemeID := uuid.New()
	lotID := uuid.New()

	q2 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	q1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	later := newTestItem(t, schemeID, lotID, uuid.New(), "250.00", "125.00", q2)
	earlier := newTestItem(t, schemeID, lotID, uuid.New(), "250.00", "125.00", q1)
	paid := newTestItem(t, schemeID, lotID, uuid.New(), "100.00", "0.00", q1)
	require.NoError(t, paid.ApplyAllocation(decimal.RequireFromString("100.00")))

	require.NoError(t, repo.Save(ctx, later))
	require.NoError(t, repo.Save(ctx, earlier))
	require.NoError(t, repo.Save(ctx, paid))

	// Another lot's debt must not surface
	require.NoError(t, repo.Save(ctx, newTestItem(t, schemeID, uuid.New(), uuid.New(), "99.00", "0.00", q1)))

	items, err := repo.FindOutstandingForLot(ctx, schemeID, lotID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, earlier.ID, items[0].ID, "oldest due date first")
	assert.Equal(t, later.ID, items[1].ID)
}

func TestGormItemRepository_MarkOverdue(t *testing.T) {
	db := setupLevyTestDB(t)
	repo := NewGormItemRepository(db)
	ctx := context.Background()

	schemeID := uuid.New()
	periodID := uuid.New()
	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

	overdue := newTestItem(t, schemeID, uuid.New(), periodID, "250.00", "0.00", past)
	current := newTestItem(t, schemeID, uuid.New(), periodID, "250.00", "0.00", future)
	settled := newTestItem(t, schemeID, uuid.New(), periodID, "100.00", "0.00", past)
	require.NoError(t, settled.ApplyAllocation(decimal.RequireFromString("100.00")))

	require.NoError(t, repo.Save(ctx, overdue))
	require.NoError(t, repo.Save(ctx, current))
	require.NoError(t, repo.Save(ctx, settled))

	changed, err := repo.MarkOverdue(ctx, schemeID, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	flagged, err := repo.FindByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, levy.LevyItemStatusOverdue, flagged.Status)

	untouched, err := repo.FindByID(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, levy.LevyItemStatusPending, untouched.Status)

	t.Run("second run changes nothing", func(t *testing.T) {
		changed, err := repo.MarkOverdue(ctx, schemeID, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.EqualValues(t, 0, changed)
	})
}

func TestGormPaymentRepository_SavePaymentWithAllocations(t *testing.T) {
	db := setupLevyTestDB(t)
	repo := NewGormPaymentRepository(db)
	itemRepo := NewGormItemRepository(db)
	ctx := context.Background()

	schemeID := uuid.New()
	lotID := uuid.New()
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	item := newTestItem(t, schemeID, lotID, uuid.New(), "250.00", "125.00", due)
	require.NoError(t, itemRepo.Save(ctx, item))

	payment, err := levy.NewPayment(schemeID, lotID, decimal.RequireFromString("200.00"),
		due, levy.PaymentMethodEFT, "RCPT-001")
	require.NoError(t, err)

	require.NoError(t, item.ApplyAllocation(decimal.RequireFromString("200.00")))
	allocation := levy.NewPaymentAllocation(payment.ID, item.ID, decimal.RequireFromString("200.00"))

	require.NoError(t, repo.SavePaymentWithAllocations(ctx, payment,
		[]levy.PaymentAllocation{allocation}, []*levy.LevyItem{item}))

	savedItem, err := itemRepo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, savedItem.AmountPaid.Equal(decimal.RequireFromString("200.00")))
	assert.Equal(t, levy.LevyItemStatusPartial, savedItem.Status)

	allocations, err := repo.FindAllocationsForPayment(ctx, payment.ID)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Nil(t, allocations[0].TransactionID)

	t.Run("link allocations to ledger receipt", func(t *testing.T) {
		txnID := uuid.New()
		require.NoError(t, repo.LinkAllocationsToTransaction(ctx, []uuid.UUID{allocation.ID}, txnID))

		allocations, err := repo.FindAllocationsForPayment(ctx, payment.ID)
		require.NoError(t, err)
		require.Len(t, allocations, 1)
		require.NotNil(t, allocations[0].TransactionID)
		assert.Equal(t, txnID, *allocations[0].TransactionID)

		count, err := repo.AllocationsReferencingTransaction(ctx, txnID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}
