// Package money wraps github.com/shopspring/decimal with the rounding
// semantics and guarded division AmFn's amortization math depends on.
// Amounts and rates are held as decimal.Decimal values; only Exp and the
// fractional-exponent path of Pow compute in float64 and convert the
// result back to a decimal.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RoundingMode is the closed set of rounding strategies a schedule can ask
// for when posting interest or snapping a balance to its display precision.
type RoundingMode uint8

const (
	// RoundNone performs no rounding; the residual carries forward exactly.
	RoundNone RoundingMode = iota
	// RoundBankers rounds half to even.
	RoundBankers
	// RoundBiasUp rounds half away from zero.
	RoundBiasUp
	// RoundBiasDown rounds half toward zero.
	RoundBiasDown
	// RoundUp always rounds away from zero when any remainder exists.
	RoundUp
	// RoundTruncate rounds toward zero, discarding any remainder.
	RoundTruncate
)

// ParseRoundingMode maps a schema-level round-balance token to a
// RoundingMode. "yes" and "no" are legacy aliases for "bankers" and "none"
// respectively (see DESIGN.md for why they are treated as true aliases
// rather than distinct modes).
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch s {
	case "none":
		return RoundNone, nil
	case "bankers", "yes":
		return RoundBankers, nil
	case "bias-up":
		return RoundBiasUp, nil
	case "bias-down":
		return RoundBiasDown, nil
	case "up":
		return RoundUp, nil
	case "truncate":
		return RoundTruncate, nil
	case "no":
		return RoundNone, nil
	default:
		return RoundNone, fmt.Errorf("money: unknown rounding mode %q", s)
	}
}

func (m RoundingMode) String() string {
	switch m {
	case RoundNone:
		return "none"
	case RoundBankers:
		return "bankers"
	case RoundBiasUp:
		return "bias-up"
	case RoundBiasDown:
		return "bias-down"
	case RoundUp:
		return "up"
	case RoundTruncate:
		return "truncate"
	default:
		return "unknown"
	}
}

// Round applies mode to d at the given number of decimal digits. digits may
// be negative (rounding to a power of ten above the unit) though in
// practice amortization schedules round to a small non-negative scale.
func Round(d decimal.Decimal, digits int32, mode RoundingMode) decimal.Decimal {
	switch mode {
	case RoundNone:
		return d
	case RoundBankers:
		return d.RoundBank(digits)
	case RoundBiasUp:
		return roundHalfAwayFromZero(d, digits)
	case RoundBiasDown:
		return roundHalfTowardZero(d, digits)
	case RoundUp:
		return roundAwayFromZero(d, digits)
	case RoundTruncate:
		return d.Truncate(digits)
	default:
		return d
	}
}

// roundAwayFromZero rounds any non-zero remainder away from zero.
func roundAwayFromZero(d decimal.Decimal, digits int32) decimal.Decimal {
	abs := d.Abs()
	truncated := abs.Truncate(digits)
	if abs.Equal(truncated) {
		return d
	}
	step := decimal.New(1, -digits)
	result := truncated.Add(step)
	if d.IsNegative() {
		return result.Neg()
	}
	return result
}

// roundHalfAwayFromZero rounds ties away from zero (commonly called
// "round half up" for positive numbers, "round half down" for negatives).
func roundHalfAwayFromZero(d decimal.Decimal, digits int32) decimal.Decimal {
	if d.IsNegative() {
		return d.Abs().Round(digits).Neg()
	}
	return d.Round(digits)
}

// roundHalfTowardZero rounds ties toward zero.
func roundHalfTowardZero(d decimal.Decimal, digits int32) decimal.Decimal {
	abs := d.Abs()
	scaled := abs.Shift(digits)
	floor := scaled.Truncate(0)
	frac := scaled.Sub(floor)
	half := decimal.NewFromFloat(0.5)
	if frac.GreaterThan(half) {
		floor = floor.Add(decimal.NewFromInt(1))
	}
	result := floor.Shift(-digits)
	if d.IsNegative() {
		return result.Neg()
	}
	return result
}
