package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/ledger"
	"github.com/strataledger/backend/internal/domain/levy"
	"github.com/strataledger/backend/internal/domain/registry"
	"github.com/strataledger/backend/internal/domain/shared"
	"github.com/strataledger/backend/internal/infrastructure/lock"
	"github.com/strataledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LevyService provides application-level levy operations: schedules,
// periods, calculation runs and payment recording with FIFO allocation.
type LevyService struct {
	scheduleRepo levy.ScheduleRepository
	periodRepo   levy.PeriodRepository
	itemRepo     levy.ItemRepository
	paymentRepo  levy.PaymentRepository
	accountRepo  ledger.AccountRepository
	txnRepo      ledger.TransactionRepository
	lots         registry.LotRegistry
	calculator   *levy.Calculator
	allocator    *levy.Allocator
	locks        *lock.KeyedMutex
	logger       *zap.Logger
}

// NewLevyService creates a new LevyService
func NewLevyService(
	scheduleRepo levy.ScheduleRepository,
	periodRepo levy.PeriodRepository,
	itemRepo levy.ItemRepository,
	paymentRepo levy.PaymentRepository,
	accountRepo ledger.AccountRepository,
	txnRepo ledger.TransactionRepository,
	lots registry.LotRegistry,
	locks *lock.KeyedMutex,
	logger *zap.Logger,
) *LevyService {
	return &LevyService{
		scheduleRepo: scheduleRepo,
		periodRepo:   periodRepo,
		itemRepo:     itemRepo,
		paymentRepo:  paymentRepo,
		accountRepo:  accountRepo,
		txnRepo:      txnRepo,
		lots:         lots,
		calculator:   levy.NewCalculator(),
		allocator:    levy.NewAllocator(),
		locks:        locks,
		logger:       logger,
	}
}

// CreateScheduleRequest describes a new annual levy schedule
type CreateScheduleRequest struct {
	AdminFundTotal        decimal.Decimal `json:"admin_fund_total" binding:"required"`
	CapitalWorksFundTotal decimal.Decimal `json:"capital_works_fund_total" binding:"required"`
	PeriodsPerYear        int             `json:"periods_per_year" binding:"required,min=1"`
}

// CreatePeriodRequest describes a new levy period under a schedule
type CreatePeriodRequest struct {
	ScheduleID uuid.UUID `json:"schedule_id" binding:"required"`
	DueDate    time.Time `json:"due_date" binding:"required"`
}

// RecordPaymentRequest describes an owner payment to record and allocate
type RecordPaymentRequest struct {
	LotID       uuid.UUID       `json:"lot_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate time.Time       `json:"payment_date" binding:"required"`
	Method      string          `json:"method" binding:"required"`
	Reference   string          `json:"reference"`
}

// PaymentResult is the outcome of recording a payment. When the ledger
// posting step fails after the payment and allocations were written,
// LedgerError carries the failure and the rest of the result still stands.
type PaymentResult struct {
	Payment           *levy.Payment            `json:"payment"`
	Allocations       []levy.PaymentAllocation `json:"allocations"`
	TotalAllocated    decimal.Decimal          `json:"total_allocated"`
	UnallocatedAmount decimal.Decimal          `json:"unallocated_amount"`
	TransactionID     *uuid.UUID               `json:"transaction_id,omitempty"`
	LedgerError       string                   `json:"ledger_error,omitempty"`
}

// CreateSchedule creates a levy schedule, deactivating any schedule
// currently active for the scheme.
func (s *LevyService) CreateSchedule(ctx context.Context, schemeID uuid.UUID, req CreateScheduleRequest) (*levy.LevySchedule, error) {
	schedule, err := levy.NewLevySchedule(schemeID, req.AdminFundTotal, req.CapitalWorksFundTotal, req.PeriodsPerYear)
	if err != nil {
		return nil, err
	}

	current, err := s.scheduleRepo.FindActiveForScheme(ctx, schemeID)
	if err != nil && !shared.IsDomainError(err, "NOT_FOUND") {
		return nil, err
	}
	if current != nil {
		current.Deactivate()
		if err := s.scheduleRepo.Save(ctx, current); err != nil {
			return nil, err
		}
	}

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// CreatePeriod creates a pending levy period under a schedule
func (s *LevyService) CreatePeriod(ctx context.Context, schemeID uuid.UUID, req CreatePeriodRequest) (*levy.LevyPeriod, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.SchemeID != schemeID {
		return nil, shared.ErrNotFound
	}

	period, err := levy.NewLevyPeriod(schedule.ID, req.DueDate)
	if err != nil {
		return nil, err
	}
	if err := s.periodRepo.Save(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

// CalculateLevies runs the levy calculation for a period and persists the
// items, activating the period in the same unit of work. A period that
// already has items refuses a second run. Runs for the same period are
// serialized so the items-exist check and the insert cannot interleave.
func (s *LevyService) CalculateLevies(ctx context.Context, schemeID, periodID uuid.UUID) (*levy.CalculationResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "levy.calculate")
	defer span.End()

	unlock := s.locks.Lock("period:" + periodID.String())
	defer unlock()

	period, err := s.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.scheduleRepo.FindByID(ctx, period.ScheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.SchemeID != schemeID {
		return nil, shared.ErrNotFound
	}

	lots, err := s.lots.LotsForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	count, err := s.itemRepo.CountForPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	result, err := s.calculator.Calculate(levy.CalculationInput{
		Schedule:   schedule,
		Period:     period,
		Lots:       lots,
		ItemsExist: count > 0,
	})
	if err != nil {
		return nil, err
	}

	if err := period.Activate(); err != nil {
		return nil, err
	}
	if err := s.itemRepo.InsertItemsActivatePeriod(ctx, result.Items, period); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("levy calculation complete",
		zap.String("scheme_id", schemeID.String()),
		zap.String("period_id", periodID.String()),
		zap.Int("items", len(result.Items)),
		zap.String("rounding_difference", result.RoundingDifference.String()))
	return result, nil
}

// RecordPayment records an owner payment, allocates it FIFO across the
// lot's outstanding levy items, posts the matching ledger receipt and links
// the allocations to it. The payment and allocations commit first; a
// failure in the ledger step is reported on the result, never rolled back.
func (s *LevyService) RecordPayment(ctx context.Context, schemeID uuid.UUID, req RecordPaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "levy.record_payment")
	defer span.End()

	method := levy.PaymentMethod(req.Method)
	if !method.IsValid() {
		return nil, shared.NewValidationError("invalid payment method: " + req.Method)
	}

	lot, err := s.lots.FindLot(ctx, schemeID, req.LotID)
	if err != nil {
		return nil, err
	}

	payment, err := levy.NewPayment(schemeID, lot.ID, req.Amount, req.PaymentDate, method, req.Reference)
	if err != nil {
		return nil, err
	}

	// Serialize allocation per lot: two concurrent payments must not both
	// read the same outstanding balances.
	unlock := s.locks.Lock("lot:" + lot.ID.String())
	defer unlock()

	items, err := s.itemRepo.FindOutstandingForLot(ctx, schemeID, lot.ID)
	if err != nil {
		return nil, err
	}

	allocation, err := s.allocator.Allocate(payment, items)
	if err != nil {
		return nil, err
	}

	if err := s.paymentRepo.SavePaymentWithAllocations(ctx, payment, allocation.Allocations, allocation.UpdatedItems); err != nil {
		return nil, err
	}

	result := &PaymentResult{
		Payment:           payment,
		Allocations:       allocation.Allocations,
		TotalAllocated:    allocation.TotalAllocated,
		UnallocatedAmount: allocation.UnallocatedAmount,
	}

	if allocation.TotalAllocated.IsPositive() {
		txnID, err := s.postLevyReceipt(ctx, schemeID, payment, allocation)
		if err != nil {
			// Payment and allocations are already committed; surface the
			// linkage failure instead of failing the whole operation.
			s.logger.Warn("ledger receipt failed after allocation commit",
				zap.String("scheme_id", schemeID.String()),
				zap.String("payment_id", payment.ID.String()),
				zap.Error(err))
			result.LedgerError = err.Error()
			return result, nil
		}
		result.TransactionID = txnID
		for i := range result.Allocations {
			result.Allocations[i].LinkTransaction(*txnID)
		}
	}
	return result, nil
}

// postLevyReceipt posts the double-entry receipt for the allocated portion
// of a payment and stamps the transaction id onto the allocation rows.
func (s *LevyService) postLevyReceipt(ctx context.Context, schemeID uuid.UUID, payment *levy.Payment, allocation *levy.AllocationResult) (*uuid.UUID, error) {
	chart, err := s.accountRepo.ChartForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	income, err := chart.LevyIncomeAccount(ledger.FundAdmin)
	if err != nil {
		return nil, err
	}

	lotID := payment.LotID
	txn, err := ledger.NewPostingService(chart).BuildReceipt(ledger.ReceiptInput{
		SchemeID:          schemeID,
		Fund:              ledger.FundAdmin,
		CategoryAccountID: income.ID,
		Amount:            allocation.TotalAllocated,
		Date:              payment.PaymentDate,
		LotID:             &lotID,
		Description:       "Levy payment",
		Reference:         payment.Reference,
	})
	if err != nil {
		return nil, err
	}
	if err := s.txnRepo.Save(ctx, txn); err != nil {
		return nil, err
	}

	allocationIDs := make([]uuid.UUID, 0, len(allocation.Allocations))
	for _, a := range allocation.Allocations {
		allocationIDs = append(allocationIDs, a.ID)
	}
	if err := s.paymentRepo.LinkAllocationsToTransaction(ctx, allocationIDs, txn.ID); err != nil {
		return nil, err
	}
	return &txn.ID, nil
}

// MarkItemSent flags a pending levy item as issued to the owner
func (s *LevyService) MarkItemSent(ctx context.Context, schemeID, itemID uuid.UUID) (*levy.LevyItem, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.SchemeID != schemeID {
		return nil, shared.ErrNotFound
	}
	if err := item.MarkSent(); err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// MarkOverdue flags the scheme's outstanding items past their due date,
// returning how many changed.
func (s *LevyService) MarkOverdue(ctx context.Context, schemeID uuid.UUID, asOf time.Time) (int64, error) {
	count, err := s.itemRepo.MarkOverdue(ctx, schemeID, asOf)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info("levy items marked overdue",
			zap.String("scheme_id", schemeID.String()),
			zap.Int64("count", count))
	}
	return count, nil
}

// ListItemsForPeriod returns the items generated for a period
func (s *LevyService) ListItemsForPeriod(ctx context.Context, schemeID, periodID uuid.UUID) ([]levy.LevyItem, error) {
	period, err := s.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.scheduleRepo.FindByID(ctx, period.ScheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.SchemeID != schemeID {
		return nil, shared.ErrNotFound
	}
	return s.itemRepo.FindForPeriod(ctx, periodID)
}

// ListOutstandingForLot returns the lot's open items, oldest due first
func (s *LevyService) ListOutstandingForLot(ctx context.Context, schemeID, lotID uuid.UUID) ([]*levy.LevyItem, error) {
	if _, err := s.lots.FindLot(ctx, schemeID, lotID); err != nil {
		return nil, err
	}
	return s.itemRepo.FindOutstandingForLot(ctx, schemeID, lotID)
}
