// Package event implements AmFn's event model (C5): events, skip-masks,
// and the four mutually-exclusive extension kinds spec.md §3 defines.
package event

import (
	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/money"
)

// ExtensionKind tags which of the four extension kinds an Event carries.
type ExtensionKind uint8

const (
	KindPrincipalChange ExtensionKind = iota
	KindInterestChange
	KindStatisticValue
	KindCurrentValue
)

// Extension is implemented by exactly one concrete extension type per
// Event, mirroring the teacher's tagged-directive pattern (a closed
// interface over a handful of concrete struct types) generalized from
// beancount's Transaction/Balance/Open/... directives to AmFn's four
// event extensions.
type Extension interface {
	ExtensionKind() ExtensionKind
}

// PrincipalType is the closed set of principal-change polarities.
type PrincipalType string

const (
	PrincipalPositive PrincipalType = "positive"
	PrincipalNegative PrincipalType = "negative"
	PrincipalIncrease PrincipalType = "increase"
	PrincipalDecrease PrincipalType = "decrease"
)

// PrincipalChange is the extension for an event that moves the running
// principal balance.
type PrincipalChange struct {
	Type PrincipalType

	// Auxiliary marks a side-ledger principal movement excluded from the
	// primary principal totals (e.g. a fee capitalized separately).
	Auxiliary bool
	// Passive routes an auxiliary movement into the passive rather than
	// the active auxiliary totals; the movement still changes the running
	// balance like any other.
	Passive bool
	// PrincipalFirst, when true, applies this change before interest
	// accrual on the same date (spec.md §3 invariant 4).
	PrincipalFirst bool
	// Statistics requests rolling-statistic recomputation at this
	// element.
	Statistics bool
	// EOM requests end-of-month carry when this event's frequency steps
	// land on a month-end anchor.
	EOM bool
}

func (*PrincipalChange) ExtensionKind() ExtensionKind { return KindPrincipalChange }

// InterestMethod is the closed set of interest accrual methods.
type InterestMethod string

const (
	MethodActuarial      InterestMethod = "actuarial"
	MethodSimpleInterest InterestMethod = "simple-interest"
)

// InterestChange is the extension for an event that alters the interest
// regime: day-count basis, rounding, or rate sub-frequency.
type InterestChange struct {
	DayCountBasis       caldate.Basis
	DaysInYear          int
	Method              InterestMethod
	RoundBalance        money.RoundingMode
	RoundDecimalDigits  int32

	// EffectiveFrequency and InterestFrequency are optional sub-
	// frequencies for a nominal rate whose compounding frequency differs
	// from the event's own stepping frequency. A nil pointer means "same
	// as the event's frequency". The balance engine does not read them:
	// accrual and the EAR/DR statistics always use the event's own
	// frequency.
	EffectiveFrequency *caldate.Frequency
	InterestFrequency  *caldate.Frequency

	// Statistics lists the rolling statistic names this interest-change
	// should (re)compute at each element it governs (EAR, DR, PR; spec.md
	// §4.7).
	Statistics []string
}

func (*InterestChange) ExtensionKind() ExtensionKind { return KindInterestChange }

// StatisticValue is the extension for a named marker that anchors solver
// targets or emits aggregate statistics.
type StatisticValue struct {
	Name string
	// Final defers this marker's computation to the last amortization
	// element rather than the element at its own date.
	Final bool
	EOM   bool
}

func (*StatisticValue) ExtensionKind() ExtensionKind { return KindStatisticValue }

// CurrentValue is the zero-impact extension used by the solver to read
// the projected balance at a point in time.
type CurrentValue struct {
	EOM     bool
	Passive bool
	// Present marks this marker as a present-value reading. The balance
	// engine applies no discounting, so its Value is the running balance,
	// the same figure a non-present marker reads.
	Present bool
}

func (*CurrentValue) ExtensionKind() ExtensionKind { return KindCurrentValue }
