package amortize

import (
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/amfnerr"
	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/event"
	"github.com/amfn/engine/expr"
	"github.com/amfn/engine/money"
)

// BalanceResult is the roll-up over an amortization list (spec.md §3).
type BalanceResult struct {
	FinalBalance   decimal.Decimal
	FinalDate      caldate.Date
	AccruedBalance decimal.Decimal

	InterestTotal   decimal.Decimal
	SLInterestTotal decimal.Decimal

	PrincipalTotalIncrease decimal.Decimal
	PrincipalTotalDecrease decimal.Decimal

	AuxiliaryActiveIncrease  decimal.Decimal
	AuxiliaryActiveDecrease  decimal.Decimal
	AuxiliaryPassiveIncrease decimal.Decimal
	AuxiliaryPassiveDecrease decimal.Decimal

	// Positive reports the balance's polarity at the end of the walk.
	Positive bool

	RuleOf78Seen       bool
	AccruedBalanceSeen bool

	// Statistics carries every named statistic-value marker's resolved
	// value, keyed by name, so a second pass (see ResolveDeferred) can
	// see statistics computed anywhere in the first pass regardless of
	// date order.
	Statistics map[string]decimal.Decimal
}

// governingInterest tracks the interest-change regime currently in
// effect as the walk crosses interest-change elements.
type governingInterest struct {
	basis    caldate.Basis
	daysYear int
	method   event.InterestMethod
	round    money.RoundingMode
	digits   int32
	rate     decimal.Decimal
	freq     caldate.Frequency
}

// AccrueAndBalance walks elements in order, maintaining balance, accrued
// balance, and rolling statistics per spec.md §4.7. It mutates elements
// in place (filling Balance/AccruedBalance/Interest/SLInterest) and
// returns the roll-up BalanceResult. initialBalance seeds the running
// balance (normally zero; nonzero when re-running a partial schedule).
//
// priorPass is nil on the first pass. A deferred element whose value
// expression references a statistic or aggregate the walk has not yet
// reached is left deferred rather than erroring. Passing the first
// pass's BalanceResult as priorPass (see ResolveDeferred) runs a second,
// final pass: deferred elements additionally resolve against the first
// pass's complete statistics/aggregates (spec.md §4.6 step 5), and any
// expression still unresolved at that point is a genuine error.
func AccrueAndBalance(elements []*Element, initialBalance decimal.Decimal, baseScope expr.Scope, priorPass *BalanceResult) (BalanceResult, error) {
	state := &runtimeState{balance: initialBalance, namedStatistics: map[string]decimal.Decimal{}}
	rtScope := newRuntimeScope(state)
	result := BalanceResult{}

	finalPass := priorPass != nil
	var priorScope expr.Scope
	if finalPass {
		priorScope = priorPassScope(priorPass)
	}

	var gov governingInterest
	haveGov := false
	var rollingNames []string
	prevDate := caldate.Date{}
	havePrevDate := false

	for idx, el := range elements {
		state.eventIndex = el.EventOriginIndex
		state.periodsRemaining = len(elements) - idx - 1
		rtScope.setDate(expr.DateValue(el.Date))

		if el.IsDeferred() {
			if err := resolveDeferredElement(el, rtScope, priorScope, baseScope, finalPass); err != nil {
				return result, err
			}
		}

		switch el.EventType {
		case event.KindInterestChange:
			ic := el.Event.Extension.(*event.InterestChange)
			gov = governingInterest{
				basis:    ic.DayCountBasis,
				daysYear: ic.DaysInYear,
				method:   ic.Method,
				round:    ic.RoundBalance,
				digits:   ic.RoundDecimalDigits,
				rate:     el.Value,
				freq:     el.Frequency,
			}
			haveGov = true
			rollingNames = ic.Statistics
			state.rate = gov.rate
			state.ear, state.dr = governingRateStatistics(gov)
			recordRollingStatistics(rollingNames, state)
		}

		principalFirst := el.Event.IsPrincipalFirst()

		if principalFirst {
			applyPrincipal(el, state, &result)
			recomputeRollingStatistics(el, rollingNames, state)
		}

		if havePrevDate && haveGov && el.EventType != event.KindInterestChange {
			if gov.freq == caldate.FreqContinuous {
				accrueContinuous(el, &gov, prevDate, state)
			} else {
				accrue(el, &gov, prevDate, state)
			}
			postInterest(el, &gov, state, &result)
		}

		applyValueAdjustments(el, state)

		if !principalFirst {
			applyPrincipal(el, state, &result)
			recomputeRollingStatistics(el, rollingNames, state)
		}

		el.Balance = state.balance
		el.AccruedBalance = state.accruedBalance
		if !state.accruedBalance.IsZero() {
			result.AccruedBalanceSeen = true
		}

		if el.EventType == event.KindStatisticValue || el.EventType == event.KindCurrentValue {
			recordStatistics(el, state, rtScope)
		}

		prevDate = el.Date
		havePrevDate = true
	}

	result.FinalBalance = state.balance
	if len(elements) > 0 {
		result.FinalDate = elements[len(elements)-1].Date
	}
	result.AccruedBalance = state.accruedBalance
	result.InterestTotal = state.interestTotal
	result.SLInterestTotal = state.slInterestTotal
	result.PrincipalTotalIncrease = state.principalTotalIncrease
	result.PrincipalTotalDecrease = state.principalTotalDecrease
	result.Positive = state.balance.GreaterThanOrEqual(decimal.Zero)

	// Statistics marked final are deferred to this point (spec.md §4.7
	// step 8): their reading reflects the state at the end of the whole
	// walk, not the mid-walk snapshot at their own position.
	resolveFinalStatistics(elements, state, rtScope)
	result.Statistics = state.namedStatistics

	return result, nil
}

func applyPrincipal(el *Element, state *runtimeState, result *BalanceResult) {
	pc, ok := el.Event.Extension.(*event.PrincipalChange)
	if !ok {
		return
	}

	if el.PrincipalReset {
		// Positive/Negative replace the running balance outright and
		// discard any interest accrued but not yet posted, rather than
		// adjusting it the way Increase/Decrease do.
		if pc.Type == event.PrincipalPositive {
			state.balance = el.PrincipalIncrease
		} else {
			state.balance = el.PrincipalDecrease.Neg()
		}
		state.accruedBalance = decimal.Zero
		el.Interest = decimal.Zero
		el.SLInterest = decimal.Zero
	} else {
		state.balance = state.balance.Add(el.PrincipalIncrease).Sub(el.PrincipalDecrease)
	}

	if pc.Auxiliary {
		if pc.Passive {
			result.AuxiliaryPassiveIncrease = result.AuxiliaryPassiveIncrease.Add(el.PrincipalIncrease)
			result.AuxiliaryPassiveDecrease = result.AuxiliaryPassiveDecrease.Add(el.PrincipalDecrease)
		} else {
			result.AuxiliaryActiveIncrease = result.AuxiliaryActiveIncrease.Add(el.PrincipalIncrease)
			result.AuxiliaryActiveDecrease = result.AuxiliaryActiveDecrease.Add(el.PrincipalDecrease)
		}
		return
	}

	state.principalTotalIncrease = state.principalTotalIncrease.Add(el.PrincipalIncrease)
	state.principalTotalDecrease = state.principalTotalDecrease.Add(el.PrincipalDecrease)
}

// accrue computes the day fraction tau from prevDate to el.Date under the
// governing basis, and accrues interest (actuarial) or simple interest
// (simple-interest) per spec.md §4.7 steps 2-3.
func accrue(el *Element, gov *governingInterest, prevDate caldate.Date, state *runtimeState) {
	periodsPerYear, err := gov.freq.PeriodsPerYear()
	if err != nil {
		periodsPerYear = 1
	}
	tau, err := caldate.Fraction(gov.basis, prevDate, el.Date, periodsPerYear, gov.daysYear)
	if err != nil {
		return
	}
	interest := state.balance.Mul(gov.rate).Mul(decimal.NewFromFloat(tau))
	if gov.basis == caldate.BasisPeriodic && periodsPerYear > 0 {
		// 1/periodsPerYear has no exact binary form; divide in decimal.
		interest = state.balance.Mul(gov.rate).Div(decimal.NewFromFloat(periodsPerYear))
	}

	switch gov.method {
	case event.MethodSimpleInterest:
		sl := interest
		state.slInterestTotal = state.slInterestTotal.Add(sl)
		el.SLInterest = sl
	default:
		accrued := interest
		state.accruedBalance = state.accruedBalance.Add(accrued)
	}
}

// accrueContinuous handles the continuous-frequency degenerate element:
// a single analytical accrual over the span since the previous element
// using e^{r·τ}−1 (spec.md §4.7), τ being that span's year fraction.
func accrueContinuous(el *Element, gov *governingInterest, prevDate caldate.Date, state *runtimeState) {
	tau, err := caldate.Fraction(gov.basis, prevDate, el.Date, 1, gov.daysYear)
	if err != nil {
		return
	}
	rateTau := gov.rate.Mul(decimal.NewFromFloat(tau))
	accrued := state.balance.Mul(money.Exp(rateTau).Sub(decimal.NewFromInt(1)))
	state.accruedBalance = state.accruedBalance.Add(accrued)
}

// postInterest realizes this period's accrued_balance into posted
// interest, capitalizing it onto the running balance (spec.md §4.7 step
// 4): the period's interest becomes part of the balance a same-date or
// later principal payment then draws down.
func postInterest(el *Element, gov *governingInterest, state *runtimeState, result *BalanceResult) {
	if gov.method == event.MethodSimpleInterest {
		return
	}
	posted := money.Round(state.accruedBalance, gov.digits, gov.round)
	residual := state.accruedBalance.Sub(posted)

	el.Interest = posted
	state.interestTotal = state.interestTotal.Add(posted)
	state.balance = state.balance.Add(posted)

	if gov.round == money.RoundNone {
		state.accruedBalance = residual
	} else {
		state.accruedBalance = decimal.Zero
	}
}

// applyValueAdjustments applies value-to-interest then value-to-principal
// overrides an element may carry (spec.md §4.7 step 5). Nothing in this
// module sets either field (the expander, compressor and solver all leave
// them zero), so an adjustment applies only when a caller sets it on an
// element before the walk.
func applyValueAdjustments(el *Element, state *runtimeState) {
	if !el.ValueToInterest.IsZero() {
		el.Interest = el.Interest.Sub(el.ValueToInterest)
		state.interestTotal = state.interestTotal.Sub(el.ValueToInterest)
	}
	if !el.ValueToPrincipal.IsZero() {
		state.balance = state.balance.Sub(el.ValueToPrincipal)
	}
}

// recordStatistics fills in a statistic-value or current-value element's
// marker reading: balance, accrued-balance, or a named rolling statistic
// resolved through the runtime scope (spec.md §4.7 step 8). A
// StatisticValue marked Final is skipped here; resolveFinalStatistics
// fills it in once the whole walk has finished.
func recordStatistics(el *Element, state *runtimeState, rtScope *RuntimeScope) {
	cv, isCurrent := el.Event.Extension.(*event.CurrentValue)
	if isCurrent {
		if cv.Present {
			el.Value = presentValue(state)
		} else {
			el.Value = state.balance
		}
		return
	}

	sv := el.Event.Extension.(*event.StatisticValue)
	if sv.Final {
		return
	}

	if v, ok := rtScope.Lookup(sv.Name); ok {
		el.Value = v.Dec
	} else {
		el.Value = state.balance
	}
	if sv.Name != "" {
		state.namedStatistics[sv.Name] = el.Value
	}
}

// resolveFinalStatistics fills in every Final statistic-value element now
// that the walk has finished and state holds the end-of-walk totals
// (spec.md §4.7 step 8: "final statistics are deferred to the last
// element").
func resolveFinalStatistics(elements []*Element, state *runtimeState, rtScope *RuntimeScope) {
	for _, el := range elements {
		if el.EventType != event.KindStatisticValue {
			continue
		}
		sv := el.Event.Extension.(*event.StatisticValue)
		if !sv.Final {
			continue
		}

		if v, ok := rtScope.Lookup(sv.Name); ok {
			el.Value = v.Dec
		} else {
			el.Value = state.balance
		}
		if sv.Name != "" {
			state.namedStatistics[sv.Name] = el.Value
		}
	}
}

// presentValue produces a present-value snapshot of the running balance.
// With no discounting rate supplied beyond the governing nominal rate,
// the snapshot is the raw balance; callers wanting a discounted present
// value supply a rate parameter and drive that through a current-value
// event's own ValueExpr instead.
func presentValue(state *runtimeState) decimal.Decimal {
	return state.balance
}

// resolveDeferredElement evaluates a deferred element's value expression
// now that the runtime scope carries live running totals, for both
// expr-balance events (re-evaluated every time they're reached) and
// forward statistic references. priorScope, present only on the second
// pass (see AccrueAndBalance), additionally exposes the first pass's
// complete statistics/aggregates. An identifier still unresolved after
// consulting rtScope and priorScope is left deferred on the first pass
// (finalPass=false) for the second pass to retry; on the second pass it
// is a genuine ExprUnresolved error, per spec.md §7.
func resolveDeferredElement(el *Element, rtScope *RuntimeScope, priorScope expr.Scope, baseScope expr.Scope, finalPass bool) error {
	e := el.deferred
	layers := []expr.Scope{e.Parameters.Scope(), rtScope}
	if priorScope != nil {
		layers = append(layers, priorScope)
	}
	layers = append(layers, baseScope)
	scope := expr.NewScopeChain(layers...)

	node, err := expr.Parse(e.ValueExpr)
	if err != nil {
		return amfnerr.NewExprParse(e.OriginIndex, amfnerr.Span{}, "%v", err)
	}
	v, err := expr.Eval(node, scope)
	if err != nil {
		if _, ok := err.(*expr.UnresolvedError); ok && !finalPass {
			return nil
		}
		return wrapEvalErr(e.OriginIndex, err)
	}
	if v.Kind != expr.KindDecimal {
		return amfnerr.NewExprTypeError(e.OriginIndex, amfnerr.Span{}, "event-value must evaluate to a number, got %s", v.Kind)
	}

	el.Value = v.Dec
	if pc, ok := e.Extension.(*event.PrincipalChange); ok {
		applyPrincipalPolarity(el, pc, v.Dec)
	}
	el.deferred = nil
	return nil
}

// priorPassScope exposes a finished pass's named statistics and
// end-of-walk aggregates as an expr.Scope layer, so a second pass's
// deferred elements can resolve a forward reference the first pass only
// learns the value of by the time it reaches the end of the walk
// (spec.md §4.6 step 5, §4.3's "statistic names").
func priorPassScope(pass *BalanceResult) expr.Scope {
	m := expr.MapScope{
		"balance":                  expr.DecimalValue(pass.FinalBalance),
		"accrued-balance":          expr.DecimalValue(pass.AccruedBalance),
		"interest-total":           expr.DecimalValue(pass.InterestTotal),
		"sl-interest-total":        expr.DecimalValue(pass.SLInterestTotal),
		"principal-total-increase": expr.DecimalValue(pass.PrincipalTotalIncrease),
		"principal-total-decrease": expr.DecimalValue(pass.PrincipalTotalDecrease),
	}
	for name, v := range pass.Statistics {
		m[name] = expr.DecimalValue(v)
	}
	return m
}

// ResolveDeferred re-runs AccrueAndBalance from scratch, passing pass1
// forward as priorPass, so that deferred elements (those whose value
// expression needed a forward statistic not yet known during the first
// walk) are resolved against the statistics and aggregates the first
// pass established, per spec.md §4.6 step 5. It returns the final
// BalanceResult; an identifier still unresolved at this point is a
// genuine ExprUnresolved error.
func ResolveDeferred(elements []*Element, baseScope expr.Scope, pass1 BalanceResult) (BalanceResult, error) {
	return AccrueAndBalance(elements, decimal.Zero, baseScope, &pass1)
}

// ConvertRate converts a nominal rate r quoted at frequency from to the
// periodic rate at frequency to, per spec.md §4.7's frequency-conversion
// formulas.
func ConvertRate(r decimal.Decimal, from, to caldate.Frequency, method event.InterestMethod) (decimal.Decimal, error) {
	if from == caldate.FreqContinuous || to == caldate.FreqContinuous {
		return decimal.Zero, amfnerr.NewDayCountUnsupported(-1, "continuous frequency rate conversion requires Exp/Log, use money.Exp directly")
	}
	pFrom, err := from.PeriodsPerYear()
	if err != nil {
		return decimal.Zero, amfnerr.NewFrequencyInvalid(-1, string(from))
	}
	pTo, err := to.PeriodsPerYear()
	if err != nil {
		return decimal.Zero, amfnerr.NewFrequencyInvalid(-1, string(to))
	}

	if method == event.MethodSimpleInterest {
		return r.Mul(decimal.NewFromFloat(pFrom / pTo)), nil
	}

	base := decimal.NewFromInt(1).Add(r.Div(decimal.NewFromFloat(pFrom)))
	exponent := decimal.NewFromFloat(pFrom / pTo)
	return money.Pow(base, exponent).Sub(decimal.NewFromInt(1)), nil
}

// EffectiveAnnualRate computes EAR = (1+periodic)^periods_per_year - 1.
func EffectiveAnnualRate(periodic decimal.Decimal, periodsPerYear float64) decimal.Decimal {
	base := decimal.NewFromInt(1).Add(periodic)
	return money.Pow(base, decimal.NewFromFloat(periodsPerYear)).Sub(decimal.NewFromInt(1))
}

// DailyRate computes DR = (1+periodic)^(1/days_in_period) - 1.
func DailyRate(periodic decimal.Decimal, daysInPeriod float64) decimal.Decimal {
	if daysInPeriod == 0 {
		return decimal.Zero
	}
	base := decimal.NewFromInt(1).Add(periodic)
	return money.Pow(base, decimal.NewFromFloat(1/daysInPeriod)).Sub(decimal.NewFromInt(1))
}

// recomputeRollingStatistics re-asserts the governing regime's rolling
// statistics into state.namedStatistics when el's own principal-change
// extension requests it (PrincipalChange.Statistics, spec.md §3: "flags
// ... statistics"). EAR/DR/PR do not change between interest-change
// boundaries, so this is a no-op on the values themselves; what it does
// is let an element that isn't itself a statistic-value marker still
// pin the current rolling statistics into scope at its own position.
func recomputeRollingStatistics(el *Element, rollingNames []string, state *runtimeState) {
	pc, ok := el.Event.Extension.(*event.PrincipalChange)
	if !ok || !pc.Statistics || rollingNames == nil {
		return
	}
	recordRollingStatistics(rollingNames, state)
}

// recordRollingStatistics writes the governing regime's EAR/DR/PR into
// state.namedStatistics under each name an interest-change event's
// rolling statistics block requested (event/extension.go's
// InterestChange.Statistics, spec.md §3's "rolling statistics block").
// Doing this at every interest-change boundary, rather than only
// exposing ear/dr/pr as fixed RuntimeScope built-ins, is what lets these
// values survive into BalanceResult.Statistics and so be visible to a
// second pass's forward references via priorPassScope. Names outside the
// known set are ignored rather than erroring; spec.md §4.7 only defines
// EAR, DR, and PR as statistic outputs of the balance walk.
func recordRollingStatistics(names []string, state *runtimeState) {
	for _, name := range names {
		switch name {
		case "ear":
			state.namedStatistics["ear"] = state.ear
		case "dr":
			state.namedStatistics["dr"] = state.dr
		case "pr", "rate":
			state.namedStatistics[name] = state.rate
		}
	}
}

// governingRateStatistics derives EAR and DR from the currently governing
// interest-change regime (spec.md §4.7): PR is emitted as-is (state.rate,
// read directly off RuntimeScope.Lookup), EAR and DR are computed here and
// refreshed every time a new interest-change element takes effect. A
// zero/unset days-in-year on the governing event falls back to 365, the
// same default caldate.Fraction's actual-basis conventions use.
func governingRateStatistics(gov governingInterest) (ear, dr decimal.Decimal) {
	periodsPerYear, err := gov.freq.PeriodsPerYear()
	if err != nil || periodsPerYear == 0 {
		return decimal.Zero, decimal.Zero
	}
	daysInYear := float64(gov.daysYear)
	if daysInYear == 0 {
		daysInYear = 365
	}
	return EffectiveAnnualRate(gov.rate, periodsPerYear), DailyRate(gov.rate, daysInYear/periodsPerYear)
}
