package domain

import (
	"github.com/shopspring/decimal"
)

// Amount is a money magnitude. It is encoded as a bare JSON number, which is
// what the ledger API and the review file both expect.
type Amount struct {
	d decimal.Decimal
}

// NewAmount wraps a decimal value.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// AmountFromString parses a decimal string such as "12.50".
func AmountFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{d: d}, nil
}

// MustAmount is AmountFromString for constants and tests.
func MustAmount(s string) Amount {
	a, err := AmountFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) IsZero() bool { return a.d.IsZero() }

func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// Equal compares numerically, so 12.5 equals 12.50.
func (a Amount) Equal(other Amount) bool { return a.d.Equal(other.d) }

func (a Amount) String() string { return a.d.String() }

// MarshalJSON writes the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.d.UnmarshalJSON(data)
}
