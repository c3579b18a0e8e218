package pricing

import (
	"database/sql/driver"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for money amounts.
const Scale = 2

// MaxAmount is the largest amount the order and transaction columns hold
var MaxAmount = MustParse("9999999999.99")

// Money is a fixed-point amount in the marketplace currency. It renders as a
// two-decimal string on the wire and in storage.
type Money struct {
	d decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{d: d.Round(Scale)}
}

// Parse reads an amount such as "12.50"
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoney(d), nil
}

// MustParse is Parse for constants and fixtures
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

// Times multiplies by an item count
func (m Money) Times(quantity int) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(int64(quantity)))}
}

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// Exceeds reports whether m is greater than limit
func (m Money) Exceeds(limit Money) bool { return m.d.GreaterThan(limit.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) String() string { return m.d.StringFixed(Scale) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	m.d = d.Round(Scale)
	return nil
}

// Scan implements sql.Scanner for NUMERIC and TEXT columns
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	m.d = d.Round(Scale)
	return nil
}

// Value implements driver.Valuer
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}
