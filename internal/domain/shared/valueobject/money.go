package valueobject

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	AUD Currency = "AUD" // Australian Dollar (default)
	NZD Currency = "NZD" // New Zealand Dollar
)

// DefaultCurrency is the default currency for the system. Strata trust
// accounts are AUD; the currency field exists so amounts are never mixed
// silently, not to support FX.
const DefaultCurrency = AUD

// Money is a value object representing monetary amounts.
// It is immutable - all operations return new Money instances.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyAUD creates Money in AUD
func NewMoneyAUD(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: AUD}
}

// NewMoneyAUDFromString creates Money in AUD from a string representation
func NewMoneyAUDFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return Money{amount: d, currency: AUD}, nil
}

// ZeroAUD returns a zero-value Money in AUD
func ZeroAUD() Money {
	return Money{amount: decimal.Zero, currency: AUD}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns a new Money with the sum of both amounts.
// Returns error if currencies don't match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns a new Money with the difference.
// Returns error if currencies don't match.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot subtract money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// RoundCents returns the Money rounded to whole cents
func (m Money) RoundCents() Money {
	return Money{amount: RoundCents(m.amount), currency: m.currency}
}

// Equal returns true if both amount and currency are equal
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String returns a formatted representation, e.g. "AUD 1234.50"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.currency, m.amount.StringFixed(2))
}

// Value implements driver.Valuer so Money can be stored in a numeric column
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// RoundCents rounds a decimal to 2 places, half away from zero. This is the
// single rounding policy of the ledger: every per-lot levy split, allocation
// amount, and aggregated report figure passes through it. Banker's rounding
// was considered and rejected; NSW strata levies are invoiced with
// half-away-from-zero cents.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SameCents reports whether two decimals are equal once rounded to cents
func SameCents(a, b decimal.Decimal) bool {
	return RoundCents(a).Equal(RoundCents(b))
}
