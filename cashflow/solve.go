package cashflow

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/amfn/engine/amfnerr"
	"github.com/amfn/engine/amortize"
	"github.com/amfn/engine/event"
	"github.com/amfn/engine/expr"
	"github.com/amfn/engine/prefs"
	"github.com/amfn/engine/solve"
	"github.com/amfn/engine/telemetry"
)

// TargetField is the closed set of unknowns spec.md §4.9 allows the
// solver to drive: an event's value, the rate on a named interest-
// change, or the periods count on a named event.
type TargetField string

const (
	TargetValue   TargetField = "value"
	TargetRate    TargetField = "rate"
	TargetPeriods TargetField = "periods"
)

// Target names what the solver is driving to what (spec.md §4.9):
// which unknown field, read back through which statistic-value or
// current-value marker, to reach DesiredValue. The unknown field is
// wired into cf's events purely through the reserved "@target" scope
// symbol — any event-date/value/periods expression in cf may reference
// "@target", and the solver substitutes the current candidate there on
// every iteration, re-running expansion and the balance walk (C6–C7) each
// time; the compressor (C8) is not run during solving.
type Target struct {
	Field TargetField

	// StatisticName is the name of the statistic-value marker to read
	// the residual from. Leave empty and set CurrentValue=true to read
	// a current-value element's Value instead: the last element flagged
	// Present if there is one, otherwise the last current-value element.
	StatisticName string
	CurrentValue  bool

	DesiredValue decimal.Decimal

	X0, X1             decimal.Decimal
	Lower, Upper       decimal.Decimal
	LowerSet, UpperSet bool
	DecimalDigits      int32
}

// Solve runs C9 over cf (spec.md §6's `solve(cashflow, target) →
// decimal`): iteratively substitutes a candidate value for the reserved
// "@target" symbol, re-expands and re-accrues cf, and reads the named
// statistic or current-value marker back, until the residual against
// target.DesiredValue converges or the iteration cap is reached.
func Solve(ctx context.Context, cf *Cashflow, global prefs.Preferences, target Target) (solve.Result, error) {
	timer := telemetry.FromContext(ctx).Start("solve-iterate")
	defer timer.End()

	baseScope, err := scopeFor(cf, global)
	if err != nil {
		return solve.Result{}, err
	}

	evaluate := func(x decimal.Decimal) (decimal.Decimal, error) {
		iterTimer := timer.Child("iteration")
		defer iterTimer.End()

		scope := expr.NewScopeChain(expr.MapScope{"@target": expr.DecimalValue(x)}, baseScope)

		elements, err := amortize.ExpandWithTable(cf.Events, scope, descriptorTable())
		if err != nil {
			return decimal.Zero, err
		}
		pass1, err := amortize.AccrueAndBalance(elements, decimal.Zero, scope, nil)
		if err != nil {
			return decimal.Zero, err
		}
		if hasDeferred(elements) {
			if _, err := amortize.ResolveDeferred(elements, scope, pass1); err != nil {
				return decimal.Zero, err
			}
		}

		value, err := readTarget(elements, target)
		if err != nil {
			return decimal.Zero, err
		}
		return value.Sub(target.DesiredValue), nil
	}

	problem := solve.Problem{
		Evaluate:       evaluate,
		X0:             target.X0,
		X1:             target.X1,
		Lower:          target.Lower,
		Upper:          target.Upper,
		LowerSet:       target.LowerSet,
		UpperSet:       target.UpperSet,
		DecimalDigits:  target.DecimalDigits,
		IntegerUnknown: target.Field == TargetPeriods,
	}

	return solve.Solve(problem)
}

// readTarget finds the statistic-value or current-value element target
// names and returns its resolved Value.
func readTarget(elements []*amortize.Element, target Target) (decimal.Decimal, error) {
	if target.CurrentValue {
		for i := len(elements) - 1; i >= 0; i-- {
			if elements[i].Present {
				return elements[i].Value, nil
			}
		}
		for i := len(elements) - 1; i >= 0; i-- {
			if elements[i].EventType == event.KindCurrentValue {
				return elements[i].Value, nil
			}
		}
		return decimal.Zero, amfnerr.NewSolverTargetUnreachable("no current-value marker found")
	}

	// amortize.AccrueAndBalance already defers a Final statistic's own
	// Value to the end-of-walk reading, so any matching element (final
	// or not) already carries the correct resolved value here.
	for _, el := range elements {
		if el.StatisticName == target.StatisticName && el.StatisticName != "" {
			return el.Value, nil
		}
	}
	return decimal.Zero, amfnerr.NewSolverTargetUnreachable(fmt.Sprintf("statistic %q not found in amortization list", target.StatisticName))
}
