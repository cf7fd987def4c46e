package amortize

import (
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/expr"
)

// runtimeState tracks the mutable running totals the balance walk
// updates as it processes elements in date order. A *RuntimeScope wraps a
// pointer to this state, so expressions evaluated mid-walk (expr-balance
// events, statistic markers, deferred forward references) always see the
// latest values.
type runtimeState struct {
	balance                decimal.Decimal
	accruedBalance         decimal.Decimal
	interestTotal          decimal.Decimal
	slInterestTotal        decimal.Decimal
	principalTotalIncrease decimal.Decimal
	principalTotalDecrease decimal.Decimal
	eventIndex             int
	periodsRemaining       int
	rate                   decimal.Decimal // current nominal/periodic rate, set by the governing interest-change
	ear, dr                decimal.Decimal // effective annual rate, daily rate, recomputed on every interest-change
	exchangeRate           decimal.Decimal

	// namedStatistics carries every statistic-value marker's resolved
	// value back into the scope under its own name, so a later event's
	// expression (or a deferred element resolved against a prior pass,
	// see priorPassScope) can reference a statistic by name rather than
	// only the fixed built-in symbols below.
	namedStatistics map[string]decimal.Decimal
}

// RuntimeScope exposes the built-in symbols spec.md §4.3 lists (balance,
// accrued-balance, interest-total, sl-interest-total, principal-total-
// increase, principal-total-decrease, statistic names, event-date,
// event-index, periods-remaining, current exchange rate) as an
// expr.Scope layer, meant to sit innermost-but-one in the scope chain
// (after event-local parameters, before cashflow/global preferences).
type RuntimeScope struct {
	state *runtimeState
	date  expr.Value
}

func newRuntimeScope(state *runtimeState) *RuntimeScope {
	return &RuntimeScope{state: state}
}

func (r *RuntimeScope) setDate(v expr.Value) { r.date = v }

func (r *RuntimeScope) Lookup(name string) (expr.Value, bool) {
	s := r.state
	switch name {
	case "balance":
		return expr.DecimalValue(s.balance), true
	case "accrued-balance":
		return expr.DecimalValue(s.accruedBalance), true
	case "interest-total":
		return expr.DecimalValue(s.interestTotal), true
	case "sl-interest-total":
		return expr.DecimalValue(s.slInterestTotal), true
	case "principal-total-increase":
		return expr.DecimalValue(s.principalTotalIncrease), true
	case "principal-total-decrease":
		return expr.DecimalValue(s.principalTotalDecrease), true
	case "event-index":
		return expr.DecimalValue(decimal.NewFromInt(int64(s.eventIndex))), true
	case "periods-remaining":
		return expr.DecimalValue(decimal.NewFromInt(int64(s.periodsRemaining))), true
	case "event-date":
		if r.date.Kind == expr.KindDate {
			return r.date, true
		}
		return expr.Value{}, false
	case "ear":
		return expr.DecimalValue(s.ear), true
	case "dr":
		return expr.DecimalValue(s.dr), true
	case "pr", "rate":
		return expr.DecimalValue(s.rate), true
	case "exchange-rate":
		return expr.DecimalValue(s.exchangeRate), true
	}
	if v, ok := s.namedStatistics[name]; ok {
		return expr.DecimalValue(v), true
	}
	return expr.Value{}, false
}
