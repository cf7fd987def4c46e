// Package solve implements the numeric solver (C9): finding the scalar
// unknown that makes a cashflow evaluation hit a target value, by secant
// iteration with a bisection fallback when the secant step fails to
// bracket (spec.md §4.9).
package solve

import (
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/amfnerr"
)

// MaxIterations bounds the solver the way spec.md §4.9 requires ("max 64
// iterations").
const MaxIterations = 64

// EvaluateFunc computes the residual f(x) = evaluation(x) - target for a
// candidate value of the unknown. The caller closes over the cashflow's
// C6-C7 re-evaluation (expansion and balance walk) and over the target, substituting x into the
// symbol table under the reserved name `@target` before re-running the
// pipeline (spec.md §4.9); this package only ever sees the residual.
type EvaluateFunc func(x decimal.Decimal) (decimal.Decimal, error)

// Problem describes one root-find.
type Problem struct {
	Evaluate EvaluateFunc

	// X0, X1 seed the secant iteration. If both are zero, 0 and 1 are
	// used, which is a reasonable default for rate-like unknowns but a
	// poor one for principal-like unknowns; callers solving for a large
	// magnitude should seed explicitly.
	X0, X1 decimal.Decimal

	// Lower and Upper, if LowerSet/UpperSet, clamp each secant step into
	// [Lower, Upper]; when both are set, their midpoint is the bisection
	// fallback used when the secant denominator is zero.
	Lower, Upper       decimal.Decimal
	LowerSet, UpperSet bool

	// DecimalDigits derives the convergence tolerance epsilon =
	// 5 * 10^-(DecimalDigits+1), spec.md §4.9's "ε derived from
	// decimal-digits". Defaults to 6 if zero.
	DecimalDigits int32

	// IntegerUnknown requests the continuous relaxation be solved first,
	// then the floor and ceiling candidates compared by residual
	// magnitude and the closer one returned (spec.md §4.9's integer-
	// unknown handling).
	IntegerUnknown bool
}

// Result is the solver's output.
type Result struct {
	X          decimal.Decimal
	Residual   decimal.Decimal
	Iterations int
}

// Solve runs secant iteration, falling back to bisection within
// [Lower, Upper] when the secant step is unusable, until convergence or
// MaxIterations is exhausted. Convergence is declared when
// |f(x_n)| < epsilon or |x_n - x_{n-1}| < delta (spec.md §4.9), with
// delta one order of magnitude tighter than epsilon.
func Solve(p Problem) (Result, error) {
	if p.IntegerUnknown {
		return solveInteger(p)
	}
	return solveContinuous(p)
}

func solveContinuous(p Problem) (Result, error) {
	eps, delta := tolerances(p.DecimalDigits)

	x0, x1 := p.X0, p.X1
	if x0.IsZero() && x1.IsZero() {
		x1 = decimal.NewFromInt(1)
	}

	f0, err := p.Evaluate(x0)
	if err != nil {
		return Result{}, err
	}
	if f0.Abs().LessThan(eps) {
		return Result{X: x0, Residual: f0, Iterations: 1}, nil
	}

	x, fx := x1, decimal.Zero

	for iter := 1; iter <= MaxIterations; iter++ {
		fx, err = p.Evaluate(x)
		if err != nil {
			return Result{}, err
		}

		if fx.Abs().LessThan(eps) {
			return Result{X: x, Residual: fx, Iterations: iter}, nil
		}
		if iter > 1 && x.Sub(x0).Abs().LessThan(delta) {
			return Result{X: x, Residual: fx, Iterations: iter}, nil
		}

		denom := fx.Sub(f0)
		var next decimal.Decimal
		if denom.IsZero() {
			next, err = bisectStep(p, x0, x, f0, fx)
			if err != nil {
				return Result{}, amfnerr.NewSolverNoConvergence(iter, fx.Abs().String())
			}
		} else {
			next = x.Sub(fx.Mul(x.Sub(x0)).Div(denom))
			if p.LowerSet && next.LessThan(p.Lower) {
				next = p.Lower
			}
			if p.UpperSet && next.GreaterThan(p.Upper) {
				next = p.Upper
			}
		}

		x0, f0 = x, fx
		x = next
	}

	return Result{}, amfnerr.NewSolverNoConvergence(MaxIterations, fx.Abs().String())
}

// bisectStep produces the midpoint of the best available bracket when
// the secant denominator degenerates. It requires an explicit [Lower,
// Upper] bracket and the two most recent residuals to straddle zero;
// otherwise it reports failure so the caller surfaces SolverNoConvergence.
func bisectStep(p Problem, xa, xb, fa, fb decimal.Decimal) (decimal.Decimal, error) {
	if !p.LowerSet || !p.UpperSet {
		return decimal.Zero, amfnerr.NewSolverNoConvergence(0, "no bracket available for bisection fallback")
	}
	if fa.Sign() == fb.Sign() {
		return decimal.Zero, amfnerr.NewSolverNoConvergence(0, "bracket does not straddle zero")
	}
	return p.Lower.Add(p.Upper).Div(decimal.NewFromInt(2)), nil
}

// solveInteger solves the continuous relaxation, then compares the floor
// and ceiling integer candidates by residual magnitude, returning
// whichever is closer to the target (spec.md §4.9), with its residual.
func solveInteger(p Problem) (Result, error) {
	relaxed := p
	relaxed.IntegerUnknown = false
	cont, err := solveContinuous(relaxed)
	if err != nil {
		return Result{}, err
	}

	floor := cont.X.Truncate(0)
	ceil := floor.Add(decimal.NewFromInt(1))
	if cont.X.Equal(floor) {
		ceil = floor
	}

	fFloor, err := p.Evaluate(floor)
	if err != nil {
		return Result{}, err
	}
	fCeil := fFloor
	if !ceil.Equal(floor) {
		fCeil, err = p.Evaluate(ceil)
		if err != nil {
			return Result{}, err
		}
	}

	best, bestF := floor, fFloor
	if fCeil.Abs().LessThan(fFloor.Abs()) {
		best, bestF = ceil, fCeil
	}

	return Result{X: best, Residual: bestF, Iterations: cont.Iterations}, nil
}

func tolerances(decimalDigits int32) (eps, delta decimal.Decimal) {
	digits := decimalDigits
	if digits == 0 {
		digits = 6
	}
	eps = decimal.New(5, -(digits + 1))
	delta = decimal.New(5, -(digits + 2))
	return eps, delta
}
