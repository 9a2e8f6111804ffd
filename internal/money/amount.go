// Package money provides the fixed-point Amount used for every posting and
// balance. Values are backed by shopspring/decimal so repeated additions never
// drift the way binary floating point does.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultScale is the number of fractional digits used for minor currency units.
const DefaultScale int32 = 2

// Amount is a signed fixed-point quantity. The zero value is zero.
type Amount struct {
	value decimal.Decimal
}

// Zero is the additive identity.
var Zero = Amount{}

// New parses a decimal string such as "500" or "-12.34".
func New(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{value: d}, nil
}

// MustNew is New for literals in tests and fixtures; it panics on bad input.
func MustNew(s string) Amount {
	a, err := New(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromInt returns a whole-unit amount.
func FromInt(n int64) Amount {
	return Amount{value: decimal.NewFromInt(n)}
}

// FromMinor builds an amount from integer minor units, e.g. FromMinor(1234, 2) is 12.34.
func FromMinor(units int64, scale int32) Amount {
	return Amount{value: decimal.New(units, -scale)}
}

// FromDecimal wraps an existing decimal.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{value: d}
}

// Decimal exposes the underlying decimal.
func (a Amount) Decimal() decimal.Decimal { return a.value }

func (a Amount) Add(b Amount) Amount { return Amount{value: a.value.Add(b.value)} }
func (a Amount) Sub(b Amount) Amount { return Amount{value: a.value.Sub(b.value)} }
func (a Amount) Neg() Amount         { return Amount{value: a.value.Neg()} }

// Sign returns -1, 0 or +1.
func (a Amount) Sign() int { return a.value.Sign() }

func (a Amount) IsZero() bool     { return a.value.IsZero() }
func (a Amount) IsPositive() bool { return a.value.IsPositive() }
func (a Amount) IsNegative() bool { return a.value.IsNegative() }

// Cmp compares a and b numerically.
func (a Amount) Cmp(b Amount) int { return a.value.Cmp(b.value) }

// Equal reports numeric equality, so 5 and 5.00 are equal.
func (a Amount) Equal(b Amount) bool { return a.value.Equal(b.value) }

// FitsScale reports whether a has no more than scale fractional digits.
func (a Amount) FitsScale(scale int32) bool {
	return a.value.Equal(a.value.Truncate(scale))
}

// MinorUnits returns a as an integer count of minor units at scale, truncating
// anything finer. ok is false when the count does not fit in an int64.
func (a Amount) MinorUnits(scale int32) (units int64, ok bool) {
	n := a.value.Shift(scale).BigInt()
	if !n.IsInt64() {
		return 0, false
	}
	return n.Int64(), true
}

// String renders the amount without trailing zero padding.
func (a Amount) String() string { return a.value.String() }

// StringFixed renders the amount with exactly scale fractional digits.
func (a Amount) StringFixed(scale int32) string { return a.value.StringFixed(scale) }

// Sum adds all amounts.
func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Value implements driver.Valuer. Amounts are stored as decimal strings so no
// driver ever routes them through float64.
func (a Amount) Value() (driver.Value, error) {
	return a.value.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}
	a.value = d
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return a.value.MarshalJSON()
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.value.UnmarshalJSON(b)
}

func (a Amount) MarshalText() ([]byte, error) {
	return a.value.MarshalText()
}

func (a *Amount) UnmarshalText(b []byte) error {
	return a.value.UnmarshalText(b)
}
