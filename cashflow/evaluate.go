package cashflow

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/amfn/engine/amortize"
	"github.com/amfn/engine/compress"
	"github.com/amfn/engine/prefs"
	"github.com/amfn/engine/telemetry"
)

// Expand runs C6 and C7 against cf, producing the dated amortization
// list with balances, accrued interest, and statistics filled in, plus
// the balance-result roll-up (spec.md §6's `expand(cashflow) → am-list`,
// which "stops after C6/C7").
func Expand(ctx context.Context, cf *Cashflow, global prefs.Preferences) ([]*amortize.Element, amortize.BalanceResult, error) {
	timer := telemetry.FromContext(ctx).Start("expand")
	defer timer.End()

	scope, err := scopeFor(cf, global)
	if err != nil {
		return nil, amortize.BalanceResult{}, err
	}

	expandTimer := timer.Child("expand-events")
	elements, err := amortize.ExpandWithTable(cf.Events, scope, descriptorTable())
	expandTimer.End()
	if err != nil {
		return nil, amortize.BalanceResult{}, err
	}

	accrueTimer := timer.Child("accrue")
	balance, err := amortize.AccrueAndBalance(elements, decimal.Zero, scope, nil)
	accrueTimer.End()
	if err != nil {
		return nil, amortize.BalanceResult{}, err
	}

	if hasDeferred(elements) {
		resolveTimer := timer.Child("resolve-deferred")
		balance, err = amortize.ResolveDeferred(elements, scope, balance)
		resolveTimer.End()
		if err != nil {
			return nil, amortize.BalanceResult{}, err
		}
	}

	return elements, balance, nil
}

// hasDeferred reports whether any element still awaits its second,
// forward-statistic-aware resolution pass (spec.md §4.6 step 5).
func hasDeferred(elements []*amortize.Element) bool {
	for _, el := range elements {
		if el.IsDeferred() {
			return true
		}
	}
	return false
}

// Compress runs C8 over an already-expanded amortization list (spec.md
// §6's `compress(am-list, preferences) → compress-list`). Preferences
// are accepted for interface symmetry with the language-neutral API;
// the compressor itself has no preference-dependent behavior beyond
// what is already baked into the elements' posted interest.
func Compress(ctx context.Context, elements []*amortize.Element, _ prefs.Preferences) []compress.Run {
	timer := telemetry.FromContext(ctx).Start("compress")
	defer timer.End()

	return compress.Compress(elements)
}

// Evaluate runs the full pipeline (spec.md §6's `evaluate(cashflow) →
// result`): expand, accrue, and compress, under one root "evaluate"
// telemetry timer tagged with a fresh evaluation id for trace
// correlation (spec.md §5).
func Evaluate(ctx context.Context, cf *Cashflow, global prefs.Preferences) (Result, error) {
	eval := newEvaluation()

	root := telemetry.FromContext(ctx).Start("evaluate")
	defer root.End()

	elements, balance, err := Expand(ctx, cf, global)
	if err != nil {
		return Result{EvaluationID: eval.id}, err
	}

	runs := Compress(ctx, elements, effectivePreferences(cf, global))

	return Result{
		EvaluationID: eval.id,
		Elements:     elements,
		Runs:         runs,
		Balance:      balance,
	}, nil
}
