package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MaxDivisionScale guards Div against runaway precision growth on
// non-terminating decimal divisions (e.g. 1/3). It mirrors the guard
// maximum scale spec.md §4.1 calls for.
const MaxDivisionScale = 34

// Div divides a by b, guarding the result to MaxDivisionScale decimal
// digits. Returns an error instead of shopspring's panic-on-zero behavior
// so callers can surface ExprArithError / BalanceOverflow per spec.md §7.
func Div(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, fmt.Errorf("money: division by zero")
	}
	return a.DivRound(b, MaxDivisionScale), nil
}

// Pow raises base to exponent, where exponent may be fractional (used for
// rate-frequency conversion, spec.md §4.7). shopspring/decimal only
// supports integer exponents exactly; for fractional exponents we fall
// back to float64 math.Pow and convert back, which is sufficient precision
// for interest-rate conversion (rates are never summed across this
// boundary without re-entering decimal arithmetic).
func Pow(base, exponent decimal.Decimal) decimal.Decimal {
	if exponent.IsInteger() && exponent.Abs().LessThanOrEqual(decimal.NewFromInt(1<<20)) {
		return base.Pow(exponent)
	}

	b, _ := base.Float64()
	e, _ := exponent.Float64()
	return decimal.NewFromFloat(math.Pow(b, e))
}

// Exp returns e^x using float64 math.Exp, used by the continuous day-count
// basis (spec.md §4.7: "continuous uses e^{r·τ}−1").
func Exp(x decimal.Decimal) decimal.Decimal {
	v, _ := x.Float64()
	return decimal.NewFromFloat(math.Exp(v))
}

// Equal reports whether a and b differ by no more than tolerance, the same
// tolerance-based equality check the teacher's ledger.AmountEqual uses for
// balance assertions, repurposed here for solver convergence checks and
// balance-consistency property tests.
func Equal(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
