// Package types provides common value types shared across the domain.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnits represents a monetary value in minor currency units (cents).
// All ledger arithmetic is integer arithmetic; floats never touch money.
// int64 is sufficient for ±92 quadrillion cents.
type MinorUnits int64

func (m MinorUnits) IsZero() bool     { return m == 0 }
func (m MinorUnits) IsPositive() bool { return m > 0 }
func (m MinorUnits) IsNegative() bool { return m < 0 }
func (m MinorUnits) Neg() MinorUnits  { return -m }

func (m MinorUnits) Abs() MinorUnits {
	if m < 0 {
		return -m
	}
	return m
}

// ClampNonNegative floors the value at zero. Used for per-item profit and
// balance reversals that must never go below zero.
func (m MinorUnits) ClampNonNegative() MinorUnits {
	if m < 0 {
		return 0
	}
	return m
}

// minorPerMajor is the scale between major and minor units (2 decimal places).
var minorPerMajor = decimal.NewFromInt(100)

// ParseAmount converts a decimal major-unit string ("123.45") into minor units.
// Rejects values with more than two fractional digits rather than rounding,
// so malformed client input never silently loses cents.
func ParseAmount(s string) (MinorUnits, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	scaled := d.Mul(minorPerMajor)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than 2 decimal places", s)
	}
	return MinorUnits(scaled.IntPart()), nil
}

// String renders the value as a major-unit decimal string ("123.45").
func (m MinorUnits) String() string {
	return decimal.NewFromInt(int64(m)).Div(minorPerMajor).StringFixed(2)
}
