// Package core provides money parsing and handling utilities.
//
// Amounts are kept as whole currency units. Club currencies in use (pesos)
// have no minor unit in practice, so fractional input is rounded half away
// from zero.
package core

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Validate reports ErrInvalidAmount unless the amount is strictly positive.
func (m Money) Validate() error {
	if m.Units <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Units: m.Units + o.Units} }
func (m Money) Sub(o Money) Money { return Money{Units: m.Units - o.Units} }

// ClampZero returns m, or zero when m is negative.
func (m Money) ClampZero() Money {
	if m.Units < 0 {
		return Money{}
	}
	return m
}

func (m Money) IsZero() bool { return m.Units == 0 }

// ParseAmount converts a user-entered amount into whole units.
//
// Grouping separators are accepted in either convention: "1.500.000",
// "1,500,000" and "1500000" are all 1500000. A single separator followed by
// one or two digits is treated as decimal ("1500,5" -> 1501). The result must
// be positive.
//
// Examples:
//
//	ParseAmount("250000")     -> 250000, nil
//	ParseAmount("1.500.000")  -> 1500000, nil
//	ParseAmount("99,50")      -> 100, nil
//	ParseAmount("-3")         -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return 0, ErrInvalidAmount
		}
	}

	intPart, fracPart := splitDecimal(s)
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	if intPart == "" {
		intPart = "0"
	}

	if fracPart != "" {
		intPart += "." + fracPart
	}
	d, err := decimal.NewFromString(intPart)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return AmountFromDecimal(d)
}

var maxUnits = decimal.NewFromInt(math.MaxInt64)

// AmountFromDecimal rounds d to whole units, half away from zero. The
// result must be positive and fit in an int64.
func AmountFromDecimal(d decimal.Decimal) (int64, error) {
	r := d.Round(0)
	if !r.IsPositive() || r.GreaterThan(maxUnits) {
		return 0, ErrInvalidAmount
	}
	return r.IntPart(), nil
}

// splitDecimal separates a trailing decimal part when the last separator is
// followed by one or two digits and is the only separator of its kind.
func splitDecimal(s string) (string, string) {
	idx := strings.LastIndexAny(s, ".,")
	if idx < 0 {
		return s, ""
	}
	sep := s[idx]
	tail := s[idx+1:]
	if len(tail) == 0 || len(tail) > 2 || strings.Count(s, string(sep)) > 1 {
		return s, ""
	}
	return s[:idx], tail
}
