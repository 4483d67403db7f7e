package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Date is a calendar date without time-of-day semantics. It accepts either
// "2006-01-02" or an RFC3339 timestamp when decoding and always encodes as
// "2006-01-02".
type Date struct {
	time.Time
}

// NewDate truncates t to midnight UTC of its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a wire-format date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", s)
	}
	return NewDate(t), nil
}

// MustParseDate is ParseDate for fixtures and constants; it panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DaysSince returns the whole number of days from other to d. It counts
// calendar days, so it holds for any pair of dates time.Duration cannot span.
func (d Date) DaysSince(other Date) int {
	return d.julianDay() - other.julianDay()
}

// julianDay is the Julian day number of d's proleptic Gregorian date.
func (d Date) julianDay() int {
	year, month, day := d.Date()
	a := (14 - int(month)) / 12
	y := year + 4800 - a
	m := int(month) + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Transaction is a single immutable entry of a user's history. Amount is an
// unsigned magnitude; its cash-flow direction comes from Type.
type Transaction struct {
	Amount      float64         `json:"amount" binding:"gte=0"`
	Date        Date            `json:"date"`
	Type        TransactionType `json:"type" binding:"required,oneof=income expense"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
}

// ErrMissingDate is returned when a decoded transaction has no date.
var ErrMissingDate = errors.New("transaction date is required")

// UnmarshalJSON decodes a transaction and rejects one without a date, which
// would otherwise become 0001-01-01 and skew every date-derived feature.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type wireTransaction Transaction
	var w wireTransaction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Date.IsZero() {
		return ErrMissingDate
	}
	*t = Transaction(w)
	return nil
}

// SignedAmount returns the transaction's contribution to net cash flow:
// positive for income, negative for expenses.
func (t Transaction) SignedAmount() float64 {
	if t.Type == TransactionTypeExpense {
		if t.Amount < 0 {
			return t.Amount
		}
		return -t.Amount
	}
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// IsExpense reports whether the transaction is an expense.
func (t Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// IsIncome reports whether the transaction is income.
func (t Transaction) IsIncome() bool {
	return t.Type == TransactionTypeIncome
}

// BudgetPreferences carries optional user budgeting settings.
type BudgetPreferences struct {
	SavingsTarget float64            `json:"savingsTarget,omitempty"`
	MonthlyBudget float64            `json:"monthlyBudget,omitempty"`
	CategoryCaps  map[string]float64 `json:"categoryCaps,omitempty"`
}

// Profile is the user context supplied alongside the transaction history.
type Profile struct {
	MonthlyIncome     float64            `json:"monthlyIncome" binding:"gte=0"`
	Currency          string             `json:"currency"`
	BudgetPreferences *BudgetPreferences `json:"budgetPreferences,omitempty"`
}

// SavingsTarget returns the preferred savings rate in percent, or fallback
// when none is configured.
func (p Profile) SavingsTarget(fallback float64) float64 {
	if p.BudgetPreferences != nil && p.BudgetPreferences.SavingsTarget > 0 {
		return p.BudgetPreferences.SavingsTarget
	}
	return fallback
}
