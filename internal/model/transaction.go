package model

import (
	"fmt"
	"time"

	"github.com/Veraticus/kakeibo/internal/textnorm"
	"github.com/shopspring/decimal"
)

// TransactionRecord is a single financial event handed to the classifier.
// A negative Amount is an expense, a positive one is revenue.
type TransactionRecord struct {
	Date         time.Time
	TimeOfDay    *TimeOfDay
	Amount       decimal.Decimal
	Description  string
	MerchantName string // optional
	OCRText      string // optional, raw receipt text
}

// IsExpense reports whether the record is money going out.
func (r TransactionRecord) IsExpense() bool {
	return r.Amount.IsNegative()
}

// IsRevenue reports whether the record is money coming in.
func (r TransactionRecord) IsRevenue() bool {
	return r.Amount.IsPositive()
}

// Admits reports whether c can hold the record: revenue only goes to income
// categories and expenses never do. A zero amount fits anywhere.
func (r TransactionRecord) Admits(c Category) bool {
	switch {
	case r.IsRevenue():
		return c.Type == CategoryTypeIncome
	case r.IsExpense():
		return c.Type != CategoryTypeIncome
	default:
		return true
	}
}

// AdmitsID is Admits for a registered category ID. Unknown IDs are never admitted.
func (r TransactionRecord) AdmitsID(id CategoryID) bool {
	c, ok := LookupCategory(id)
	return ok && r.Admits(c)
}

// Magnitude returns the absolute amount.
func (r TransactionRecord) Magnitude() decimal.Decimal {
	return r.Amount.Abs()
}

// SearchText returns the normalized concatenation of description, merchant and OCR text.
func (r TransactionRecord) SearchText() string {
	return textnorm.Join(r.Description, r.MerchantName, r.OCRText)
}

// HasText reports whether any text field carries content.
func (r TransactionRecord) HasText() bool {
	return r.SearchText() != ""
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q (use HH:MM): %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MustTimeOfDay parses s and panics on failure. Intended for defaults and tests.
func MustTimeOfDay(s string) TimeOfDay {
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return tod
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// TimeWindow is a half-open [Start, End) range within a day.
type TimeWindow struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t TimeOfDay) bool {
	m := t.Minutes()
	return m >= w.Start.Minutes() && m < w.End.Minutes()
}

func (w TimeWindow) String() string {
	return w.Start.String() + "-" + w.End.String()
}
