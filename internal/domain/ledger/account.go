package ledger

import (
	"github.com/google/uuid"
	"github.com/strataledger/backend/internal/domain/shared"
)

// AccountType classifies a ledger account
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
	AccountTypeEquity    AccountType = "EQUITY"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeIncome, AccountTypeExpense, AccountTypeEquity:
		return true
	}
	return false
}

// String returns the string representation
func (t AccountType) String() string {
	return string(t)
}

// Fund identifies one of the two segregated cash pools of a scheme
type Fund string

const (
	FundAdmin        Fund = "ADMIN"
	FundCapitalWorks Fund = "CAPITAL_WORKS"
)

// IsValid checks if the fund is valid
func (f Fund) IsValid() bool {
	return f == FundAdmin || f == FundCapitalWorks
}

// String returns the string representation
func (f Fund) String() string {
	return string(f)
}

// AllFunds returns both funds
func AllFunds() []Fund {
	return []Fund{FundAdmin, FundCapitalWorks}
}

// Well-known account codes. Each fund has exactly one trust account, which is
// the cash side of every receipt and payment, and one levy income account,
// which is the income side of levy receipts.
const (
	TrustAccountCodeAdmin        = "1100"
	TrustAccountCodeCapitalWorks = "1200"
	LevyIncomeCodeAdmin          = "4100"
	LevyIncomeCodeCapitalWorks   = "4200"
)

// TrustAccountCode returns the trust account code for a fund
func TrustAccountCode(f Fund) string {
	if f == FundCapitalWorks {
		return TrustAccountCodeCapitalWorks
	}
	return TrustAccountCodeAdmin
}

// LevyIncomeCode returns the levy income account code for a fund
func LevyIncomeCode(f Fund) string {
	if f == FundCapitalWorks {
		return LevyIncomeCodeCapitalWorks
	}
	return LevyIncomeCodeAdmin
}

// Account is an immutable catalogue entry in the chart of accounts
type Account struct {
	shared.SchemeEntity
	Code string      `gorm:"size:16;not null;index" json:"code"`
	Name string      `gorm:"size:255;not null" json:"name"`
	Type AccountType `gorm:"size:16;not null" json:"type"`
	Fund *Fund       `gorm:"size:32" json:"fund,omitempty"`
}

// NewAccount creates a new account catalogue entry
func NewAccount(schemeID uuid.UUID, code, name string, accountType AccountType, fund *Fund) (*Account, error) {
	if code == "" {
		return nil, shared.NewValidationError("account code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewValidationError("account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewValidationError("invalid account type: " + string(accountType))
	}
	if fund != nil && !fund.IsValid() {
		return nil, shared.NewValidationError("invalid fund: " + string(*fund))
	}
	return &Account{
		SchemeEntity: shared.NewSchemeEntity(schemeID),
		Code:         code,
		Name:         name,
		Type:         accountType,
		Fund:         fund,
	}, nil
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// IsTrustAccount reports whether this is one of the two trust accounts
func (a *Account) IsTrustAccount() bool {
	return a.Code == TrustAccountCodeAdmin || a.Code == TrustAccountCodeCapitalWorks
}

// ChartOfAccounts is the per-scheme account catalogue, read-only to the core
type ChartOfAccounts struct {
	accounts []Account
	byCode   map[string]*Account
	byID     map[uuid.UUID]*Account
}

// NewChartOfAccounts builds a chart from catalogue entries
func NewChartOfAccounts(accounts []Account) *ChartOfAccounts {
	c := &ChartOfAccounts{
		accounts: accounts,
		byCode:   make(map[string]*Account, len(accounts)),
		byID:     make(map[uuid.UUID]*Account, len(accounts)),
	}
	for i := range c.accounts {
		a := &c.accounts[i]
		c.byCode[a.Code] = a
		c.byID[a.ID] = a
	}
	return c
}

// Accounts returns all catalogue entries
func (c *ChartOfAccounts) Accounts() []Account {
	return c.accounts
}

// ByCode looks up an account by code
func (c *ChartOfAccounts) ByCode(code string) (*Account, error) {
	if a, ok := c.byCode[code]; ok {
		return a, nil
	}
	return nil, shared.NewDomainErrorf("NOT_FOUND", "account with code %s not found in chart", code)
}

// ByID looks up an account by ID
func (c *ChartOfAccounts) ByID(id uuid.UUID) (*Account, error) {
	if a, ok := c.byID[id]; ok {
		return a, nil
	}
	return nil, shared.NewDomainErrorf("NOT_FOUND", "account %s not found in chart", id)
}

// TrustAccount returns the trust account for a fund
func (c *ChartOfAccounts) TrustAccount(f Fund) (*Account, error) {
	return c.ByCode(TrustAccountCode(f))
}

// LevyIncomeAccount returns the levy income account for a fund
func (c *ChartOfAccounts) LevyIncomeAccount(f Fund) (*Account, error) {
	return c.ByCode(LevyIncomeCode(f))
}
