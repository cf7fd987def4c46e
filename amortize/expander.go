package amortize

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/amfn/engine/amfnerr"
	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/descriptor"
	"github.com/amfn/engine/event"
	"github.com/amfn/engine/expr"
)

// Expand runs the C6 algorithm's first pass against a fresh descriptor
// table. See ExpandWithTable for the full signature; most callers have no
// need to keep the descriptor table around after expansion.
func Expand(events event.List, baseScope expr.Scope) ([]*Element, error) {
	return ExpandWithTable(events, baseScope, descriptor.NewTable())
}

// ExpandWithTable resolves each event's deterministic fields, sorts the
// events into canonical (event-date, sort-order, stable-original-index)
// order (spec.md §4.6 step 1), then enumerates each event's dated
// positions via C2, applies its skip-mask, propagates its descriptors
// through table in that canonical order, and emits one Element per
// surviving position. Events whose value expression cannot be resolved
// yet (an undefined identifier, which on pass one means a forward
// statistic reference) are emitted with a zero placeholder value and
// flagged deferred; the caller resolves them in a second pass once
// AccrueAndBalance has run once (spec.md §4.6 steps 1-4; step 5 is
// ResolveDeferred). table carries descriptor propagation state across the
// whole event list in emission order (spec.md §4.4); pass the same table
// to a caller that expands several related event lists in sequence.
func ExpandWithTable(events event.List, baseScope expr.Scope, table *descriptor.Table) ([]*Element, error) {
	var elements []*Element

	// Resolving an event's date/periods/value only ever consults that
	// event's own parameters and baseScope, never another event's
	// resolved fields, so resolution order doesn't matter; it runs in
	// the caller's original order before the canonical sort below
	// because the sort key (e.Date) doesn't exist yet until resolved.
	// Events stay immutable apart from these resolved fields (spec.md
	// §3's lifecycle invariant), so which positions are deferred is
	// tracked out-of-band by pointer rather than as a field on Event.
	deferredByEvent := make(map[*event.Event]bool, len(events))
	for _, e := range events {
		scope := expr.NewScopeChain(e.Parameters.Scope(), baseScope)

		if err := resolveDate(e, scope); err != nil {
			return nil, err
		}
		if err := resolvePeriods(e, scope); err != nil {
			return nil, err
		}

		if !e.ExprBalance {
			resolved, err := resolveValue(e, scope)
			if err != nil {
				return nil, err
			}
			deferredByEvent[e] = !resolved
		} else {
			deferredByEvent[e] = true
		}
	}

	// Descriptor propagation (spec.md §4.4, §3 invariant 5) is a
	// last-writer-wins walk over emission order, so events must be in
	// canonical order *before* table.Apply runs, not just in the output
	// elements — sortElements below only reorders the already-emitted
	// elements and cannot undo descriptor propagation that happened in
	// the wrong order.
	sorted := append(event.List{}, events...)
	sorted.Sort()

	for _, e := range sorted {
		eom := eomFlag(e)
		dates, err := caldate.Enumerate(e.Date, e.Frequency, e.Intervals, e.Periods, eom)
		if err != nil {
			return nil, amfnerr.NewFrequencyInvalid(e.OriginIndex, string(e.Frequency))
		}

		snapshot := table.Apply(e.Descriptors)

		for i, d := range dates {
			if e.Skipped(i) {
				continue
			}
			el := buildElement(e, d, i, deferredByEvent[e])
			el.Descriptors = snapshot
			elements = append(elements, el)
		}
	}

	sortElements(elements)
	return elements, nil
}

func eomFlag(e *event.Event) bool {
	switch ext := e.Extension.(type) {
	case *event.PrincipalChange:
		return ext.EOM
	case *event.StatisticValue:
		return ext.EOM
	case *event.CurrentValue:
		return ext.EOM
	default:
		return false
	}
}

func resolveDate(e *event.Event, scope expr.Scope) error {
	if e.DateExpr == "" {
		return nil
	}
	node, err := expr.Parse(e.DateExpr)
	if err != nil {
		return amfnerr.NewExprParse(e.OriginIndex, spanOf(err), "%v", err)
	}
	v, err := expr.Eval(node, scope)
	if err != nil {
		return wrapEvalErr(e.OriginIndex, err)
	}
	if v.Kind != expr.KindDate {
		return amfnerr.NewExprTypeError(e.OriginIndex, amfnerr.Span{}, "event-date must evaluate to a date, got %s", v.Kind)
	}
	e.Date = v.Dt
	return nil
}

func resolvePeriods(e *event.Event, scope expr.Scope) error {
	if e.PeriodsExpr == "" {
		return nil
	}
	node, err := expr.Parse(e.PeriodsExpr)
	if err != nil {
		return amfnerr.NewExprParse(e.OriginIndex, spanOf(err), "%v", err)
	}
	v, err := expr.Eval(node, scope)
	if err != nil {
		return wrapEvalErr(e.OriginIndex, err)
	}
	if v.Kind != expr.KindDecimal {
		return amfnerr.NewExprTypeError(e.OriginIndex, amfnerr.Span{}, "event-periods must evaluate to a number, got %s", v.Kind)
	}
	e.Periods = int(v.Dec.IntPart())
	return nil
}

// resolveValue resolves e.ValueExpr, returning resolved=false (rather
// than an error) when the expression is merely unresolved — the
// recoverable deferral spec.md §7 calls for during pass one.
func resolveValue(e *event.Event, scope expr.Scope) (resolved bool, err error) {
	if e.ValueExpr == "" {
		return true, nil
	}
	node, perr := expr.Parse(e.ValueExpr)
	if perr != nil {
		return false, amfnerr.NewExprParse(e.OriginIndex, spanOf(perr), "%v", perr)
	}
	v, eerr := expr.Eval(node, scope)
	if eerr != nil {
		if _, ok := eerr.(*expr.UnresolvedError); ok {
			return false, nil
		}
		return false, wrapEvalErr(e.OriginIndex, eerr)
	}
	if v.Kind != expr.KindDecimal {
		return false, amfnerr.NewExprTypeError(e.OriginIndex, amfnerr.Span{}, "event-value must evaluate to a number, got %s", v.Kind)
	}
	e.Value = v.Dec
	return true, nil
}

func wrapEvalErr(eventIndex int, err error) error {
	switch e := err.(type) {
	case *expr.UnresolvedError:
		return amfnerr.NewExprUnresolved(eventIndex, amfnerr.Span{Start: e.Span.Start, End: e.Span.End}, e.Identifier)
	case *expr.TypeError:
		return amfnerr.NewExprTypeError(eventIndex, amfnerr.Span{Start: e.Span.Start, End: e.Span.End}, e.Message)
	case *expr.ArithError:
		return amfnerr.NewExprArithError(eventIndex, amfnerr.Span{Start: e.Span.Start, End: e.Span.End}, e.Message)
	case *expr.RecursionError:
		return amfnerr.NewExprRecursion(eventIndex, amfnerr.Span{Start: e.Span.Start, End: e.Span.End}, e.MaxDepth)
	case *expr.ParseError:
		return amfnerr.NewExprParse(eventIndex, amfnerr.Span{Start: e.Span.Start, End: e.Span.End}, "%v", e.Message)
	default:
		return amfnerr.NewExprTypeError(eventIndex, amfnerr.Span{}, "%v", err)
	}
}

func spanOf(err error) amfnerr.Span {
	if pe, ok := err.(*expr.ParseError); ok {
		return amfnerr.Span{Start: pe.Span.Start, End: pe.Span.End}
	}
	return amfnerr.Span{}
}

func buildElement(e *event.Event, d caldate.Date, periodIndex int, deferred bool) *Element {
	el := &Element{
		Date:             d,
		EventType:        e.Extension.ExtensionKind(),
		Frequency:        e.Frequency,
		Intervals:        e.Intervals,
		PeriodIndex:      periodIndex,
		SortOrder:        e.SortOrder,
		EventOriginIndex: e.OriginIndex,
		Event:            e,
		Parameters:       e.Parameters,
		Value:            e.Value,
	}
	if deferred {
		el.deferred = e
	}

	switch ext := e.Extension.(type) {
	case *event.PrincipalChange:
		applyPrincipalPolarity(el, ext, e.Value)
	case *event.StatisticValue:
		el.StatisticName = ext.Name
		el.Final = ext.Final
	case *event.CurrentValue:
		el.Present = ext.Present
	case *event.InterestChange:
		// No direct balance impact; the balance engine reads the event's
		// extension fields off el.Event when it reaches this element.
	}

	return el
}

// applyPrincipalPolarity fills in the element's reported increase/decrease
// magnitude for the four principal-change polarities. Positive/Negative
// also flag PrincipalReset: unlike Increase/Decrease, which adjust the
// running balance, these replace it outright (balance.go's applyPrincipal
// does the actual reset once the running balance is in scope).
func applyPrincipalPolarity(el *Element, ext *event.PrincipalChange, value decimal.Decimal) {
	abs := value.Abs()
	switch ext.Type {
	case event.PrincipalPositive:
		el.PrincipalIncrease = abs
		el.PrincipalReset = true
	case event.PrincipalNegative:
		el.PrincipalDecrease = abs
		el.PrincipalReset = true
	case event.PrincipalIncrease:
		el.PrincipalIncrease = abs
	case event.PrincipalDecrease:
		el.PrincipalDecrease = abs
	}
}

// sortElements implements spec.md §4.6 step 4's re-sort and same-date
// tie-break: principal-first-true elements first, else interest-change
// elements last, else by sort-order, with (date, sort-order,
// event-origin-index, period-index) as the underlying deterministic key.
func sortElements(elements []*Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		a, b := elements[i], elements[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}

		aPF, bPF := a.Event.IsPrincipalFirst(), b.Event.IsPrincipalFirst()
		if aPF != bPF {
			return aPF
		}

		aIC, bIC := a.Event.IsInterestChange(), b.Event.IsInterestChange()
		if aIC != bIC {
			return !aIC
		}

		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if a.EventOriginIndex != b.EventOriginIndex {
			return a.EventOriginIndex < b.EventOriginIndex
		}
		return a.PeriodIndex < b.PeriodIndex
	})
}
