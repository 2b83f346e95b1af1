// Package report builds the read-only financial views: trial balance, fund
// balances, income statement and levy arrears. Reports aggregate posted
// ledger lines and levy items; they never write.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/ledger"
	"github.com/strataledger/backend/internal/domain/levy"
	"github.com/strataledger/backend/internal/domain/registry"
	"github.com/strataledger/backend/internal/domain/shared"
	"github.com/strataledger/backend/internal/domain/shared/valueobject"
)

// Service provides the reporting queries
type Service struct {
	accountRepo ledger.AccountRepository
	txnRepo     ledger.TransactionRepository
	itemRepo    levy.ItemRepository
	lots        registry.LotRegistry
}

// NewService creates a reporting service
func NewService(
	accountRepo ledger.AccountRepository,
	txnRepo ledger.TransactionRepository,
	itemRepo levy.ItemRepository,
	lots registry.LotRegistry,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		itemRepo:    itemRepo,
		lots:        lots,
	}
}

// TrialBalanceRow is one account's debit/credit roll-up
type TrialBalanceRow struct {
	AccountID   uuid.UUID       `json:"account_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	AccountType string          `json:"account_type"`
	Fund        *string         `json:"fund,omitempty"`
	Debits      decimal.Decimal `json:"debits"`
	Credits     decimal.Decimal `json:"credits"`
	Balance     decimal.Decimal `json:"balance"`
}

// TrialBalance lists every account with activity plus the debit/credit
// totals. Total debits always equal total credits when every posted
// transaction balanced.
type TrialBalance struct {
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  decimal.Decimal   `json:"total_debits"`
	TotalCredits decimal.Decimal   `json:"total_credits"`
	IsBalanced   bool              `json:"is_balanced"`
	AsOf         *time.Time        `json:"as_of,omitempty"`
}

// FundBalance is one fund's cash movement over a window
type FundBalance struct {
	Fund           string          `json:"fund"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Receipts       decimal.Decimal `json:"receipts"`
	Payments       decimal.Decimal `json:"payments"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// FundBalanceSummary is the two-fund cash position
type FundBalanceSummary struct {
	Funds []FundBalance   `json:"funds"`
	Total decimal.Decimal `json:"total"`
}

// IncomeStatementLine is one account's contribution to the income statement
type IncomeStatementLine struct {
	AccountID uuid.UUID       `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Fund      *string         `json:"fund,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// IncomeStatementFund rolls one fund's lines up to a net result
type IncomeStatementFund struct {
	Fund          string          `json:"fund"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetResult     decimal.Decimal `json:"net_result"`
}

// IncomeStatement is income versus expenses over a mandatory window,
// totalled per fund and combined
type IncomeStatement struct {
	From          time.Time             `json:"from"`
	To            time.Time             `json:"to"`
	Income        []IncomeStatementLine `json:"income"`
	Expenses      []IncomeStatementLine `json:"expenses"`
	Funds         []IncomeStatementFund `json:"funds"`
	TotalIncome   decimal.Decimal       `json:"total_income"`
	TotalExpenses decimal.Decimal       `json:"total_expenses"`
	NetResult     decimal.Decimal       `json:"net_result"`
}

// ArrearsRow is one lot's outstanding levy position
type ArrearsRow struct {
	LotID         uuid.UUID       `json:"lot_id"`
	LotNumber     string          `json:"lot_number"`
	ItemCount     int             `json:"item_count"`
	TotalOwing    decimal.Decimal `json:"total_owing"`
	OldestDueDate time.Time       `json:"oldest_due_date"`
}

// ArrearsSummary lists lots carrying outstanding levies, largest debt first
type ArrearsSummary struct {
	Rows       []ArrearsRow    `json:"rows"`
	TotalOwing decimal.Decimal `json:"total_owing"`
}

// TrialBalance rolls up every account's debits and credits, optionally as
// of a date.
func (s *Service) TrialBalance(ctx context.Context, schemeID uuid.UUID, asOf *time.Time) (*TrialBalance, error) {
	chart, err := s.accountRepo.ChartForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	activity, err := s.txnRepo.ActivityByAccount(ctx, schemeID, shared.DateRange{To: asOf})
	if err != nil {
		return nil, err
	}

	rows := make([]TrialBalanceRow, 0, len(activity))
	totalDebits, totalCredits := decimal.Zero, decimal.Zero
	for _, a := range activity {
		account, err := chart.ByID(a.AccountID)
		if err != nil {
			return nil, err
		}
		row := TrialBalanceRow{
			AccountID:   a.AccountID,
			Code:        account.Code,
			Name:        account.Name,
			AccountType: account.Type.String(),
			Debits:      a.TotalDebits,
			Credits:     a.TotalCredits,
			Balance:     a.Balance(),
		}
		if account.Fund != nil {
			f := account.Fund.String()
			row.Fund = &f
		}
		rows = append(rows, row)
		totalDebits = totalDebits.Add(a.TotalDebits)
		totalCredits = totalCredits.Add(a.TotalCredits)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })

	totalDebits = valueobject.RoundCents(totalDebits)
	totalCredits = valueobject.RoundCents(totalCredits)
	return &TrialBalance{
		Rows:         rows,
		TotalDebits:  totalDebits,
		TotalCredits: totalCredits,
		IsBalanced:   totalDebits.Equal(totalCredits),
		AsOf:         asOf,
	}, nil
}

// FundBalanceSummary reports each fund's trust cash over the optional
// window: opening balance before it, receipts and payments within it, and
// the resulting closing balance.
func (s *Service) FundBalanceSummary(ctx context.Context, schemeID uuid.UUID, dateRange shared.DateRange) (*FundBalanceSummary, error) {
	chart, err := s.accountRepo.ChartForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}

	summary := &FundBalanceSummary{Total: decimal.Zero}
	for _, fund := range ledger.AllFunds() {
		trust, err := chart.TrustAccount(fund)
		if err != nil {
			return nil, err
		}

		// Strictly-before bound: a transaction dated on the window start
		// belongs to the window's activity, not the opening balance.
		opening := decimal.Zero
		if dateRange.From != nil {
			opening, err = s.txnRepo.AccountBalanceBefore(ctx, schemeID, trust.ID, *dateRange.From)
			if err != nil {
				return nil, err
			}
		}

		f := fund
		txns, err := s.txnRepo.FindAllForScheme(ctx, schemeID, ledger.TransactionFilter{
			Fund:      &f,
			DateRange: dateRange,
		})
		if err != nil {
			return nil, err
		}

		receipts, payments := decimal.Zero, decimal.Zero
		for i := range txns {
			switch txns[i].Type {
			case ledger.TransactionTypeReceipt:
				receipts = receipts.Add(txns[i].Amount)
			case ledger.TransactionTypePayment:
				payments = payments.Add(txns[i].Amount)
			}
		}
		receipts = valueobject.RoundCents(receipts)
		payments = valueobject.RoundCents(payments)
		closing := valueobject.RoundCents(opening.Add(receipts).Sub(payments))

		summary.Funds = append(summary.Funds, FundBalance{
			Fund:           fund.String(),
			OpeningBalance: opening,
			Receipts:       receipts,
			Payments:       payments,
			ClosingBalance: closing,
		})
		summary.Total = summary.Total.Add(closing)
	}
	summary.Total = valueobject.RoundCents(summary.Total)
	return summary, nil
}

// IncomeStatement reports income and expenses over a mandatory window.
// Income accounts contribute credits minus debits, expense accounts debits
// minus credits.
func (s *Service) IncomeStatement(ctx context.Context, schemeID uuid.UUID, from, to time.Time) (*IncomeStatement, error) {
	if from.IsZero() || to.IsZero() {
		return nil, shared.NewValidationError("income statement requires a date range")
	}
	if to.Before(from) {
		return nil, shared.NewValidationError("date range end precedes its start")
	}

	chart, err := s.accountRepo.ChartForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	activity, err := s.txnRepo.ActivityByAccount(ctx, schemeID, shared.DateRange{From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	stmt := &IncomeStatement{
		From:          from,
		To:            to,
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	byFund := make(map[ledger.Fund]*IncomeStatementFund, 2)
	for _, fund := range ledger.AllFunds() {
		byFund[fund] = &IncomeStatementFund{
			Fund:          fund.String(),
			TotalIncome:   decimal.Zero,
			TotalExpenses: decimal.Zero,
		}
	}
	for _, a := range activity {
		account, err := chart.ByID(a.AccountID)
		if err != nil {
			return nil, err
		}
		line := IncomeStatementLine{
			AccountID: a.AccountID,
			Code:      account.Code,
			Name:      account.Name,
		}
		if account.Fund != nil {
			f := account.Fund.String()
			line.Fund = &f
		}

		switch account.Type {
		case ledger.AccountTypeIncome:
			line.Amount = valueobject.RoundCents(a.TotalCredits.Sub(a.TotalDebits))
			stmt.Income = append(stmt.Income, line)
			stmt.TotalIncome = stmt.TotalIncome.Add(line.Amount)
			if account.Fund != nil {
				if fund, ok := byFund[*account.Fund]; ok {
					fund.TotalIncome = fund.TotalIncome.Add(line.Amount)
				}
			}
		case ledger.AccountTypeExpense:
			line.Amount = valueobject.RoundCents(a.TotalDebits.Sub(a.TotalCredits))
			stmt.Expenses = append(stmt.Expenses, line)
			stmt.TotalExpenses = stmt.TotalExpenses.Add(line.Amount)
			if account.Fund != nil {
				if fund, ok := byFund[*account.Fund]; ok {
					fund.TotalExpenses = fund.TotalExpenses.Add(line.Amount)
				}
			}
		}
	}
	sort.Slice(stmt.Income, func(i, j int) bool { return stmt.Income[i].Code < stmt.Income[j].Code })
	sort.Slice(stmt.Expenses, func(i, j int) bool { return stmt.Expenses[i].Code < stmt.Expenses[j].Code })

	for _, fund := range ledger.AllFunds() {
		f := byFund[fund]
		f.TotalIncome = valueobject.RoundCents(f.TotalIncome)
		f.TotalExpenses = valueobject.RoundCents(f.TotalExpenses)
		f.NetResult = f.TotalIncome.Sub(f.TotalExpenses)
		stmt.Funds = append(stmt.Funds, *f)
	}
	stmt.TotalIncome = valueobject.RoundCents(stmt.TotalIncome)
	stmt.TotalExpenses = valueobject.RoundCents(stmt.TotalExpenses)
	stmt.NetResult = stmt.TotalIncome.Sub(stmt.TotalExpenses)
	return stmt, nil
}

// ArrearsSummary lists every lot still owing levies, with its open item
// count and oldest due date. Sorted by amount owing, largest first.
func (s *Service) ArrearsSummary(ctx context.Context, schemeID uuid.UUID) (*ArrearsSummary, error) {
	items, err := s.itemRepo.FindOutstandingForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	lots, err := s.lots.LotsForScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	numbers := make(map[uuid.UUID]string, len(lots))
	for _, lot := range lots {
		numbers[lot.ID] = lot.LotNumber
	}

	byLot := make(map[uuid.UUID]*ArrearsRow)
	for i := range items {
		item := &items[i]
		balance := item.Balance()
		if !balance.IsPositive() {
			continue
		}
		row, ok := byLot[item.LotID]
		if !ok {
			row = &ArrearsRow{
				LotID:         item.LotID,
				LotNumber:     numbers[item.LotID],
				TotalOwing:    decimal.Zero,
				OldestDueDate: item.DueDate,
			}
			byLot[item.LotID] = row
		}
		row.ItemCount++
		row.TotalOwing = row.TotalOwing.Add(balance)
		if item.DueDate.Before(row.OldestDueDate) {
			row.OldestDueDate = item.DueDate
		}
	}

	summary := &ArrearsSummary{TotalOwing: decimal.Zero}
	for _, row := range byLot {
		row.TotalOwing = valueobject.RoundCents(row.TotalOwing)
		summary.Rows = append(summary.Rows, *row)
		summary.TotalOwing = summary.TotalOwing.Add(row.TotalOwing)
	}
	sort.Slice(summary.Rows, func(i, j int) bool {
		if !summary.Rows[i].TotalOwing.Equal(summary.Rows[j].TotalOwing) {
			return summary.Rows[i].TotalOwing.GreaterThan(summary.Rows[j].TotalOwing)
		}
		return summary.Rows[i].LotNumber < summary.Rows[j].LotNumber
	})
	summary.TotalOwing = valueobject.RoundCents(summary.TotalOwing)
	return summary, nil
}
