// Package amortize implements the expander (C6) and balance & interest
// engine (C7): turning an ordered event.List into a dated amortization
// list, then walking that list to compute running balances, accrued
// interest, and rolling statistics (spec.md §4.6, §4.7).
package amortize

import (
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/descriptor"
	"github.com/amfn/engine/event"
)

// Element is one expanded amortization line (spec.md §3).
type Element struct {
	Date        caldate.Date
	EventType   event.ExtensionKind
	Frequency   caldate.Frequency
	Intervals   int
	PeriodIndex int

	PrincipalIncrease decimal.Decimal
	PrincipalDecrease decimal.Decimal
	// PrincipalReset marks a Positive/Negative principal change: the
	// balance engine replaces the running balance outright (balance =
	// value, or -value) instead of adding/subtracting it, and clears
	// accrued-but-unposted interest.
	PrincipalReset   bool
	Interest         decimal.Decimal
	SLInterest       decimal.Decimal
	ValueToInterest  decimal.Decimal
	ValueToPrincipal decimal.Decimal
	Value            decimal.Decimal

	Balance        decimal.Decimal
	AccruedBalance decimal.Decimal

	SortOrder   int
	Descriptors descriptor.Snapshot
	Parameters  descriptor.ParameterList

	// EventOriginIndex and event-type-specific sub-fields carry enough
	// context for the balance engine (C7) and compressor (C8) to
	// classify and merge elements without walking back to the source
	// event.
	EventOriginIndex int
	Event            *event.Event

	// StatisticName is set when this element anchors a named statistic
	// or current-value marker.
	StatisticName string
	// Final defers this element's statistic computation to the last
	// element in the list.
	Final bool
	// Present marks a present-value current-value marker (current-value
	// extension only); its Value is the undiscounted running balance, as
	// presentValue in balance.go returns it.
	Present bool

	// deferred holds the event whose value expression could not be
	// resolved on pass one because it referenced a forward statistic;
	// nil once resolved.
	deferred *event.Event
}

// IsDeferred reports whether this element's value still awaits pass two.
func (e *Element) IsDeferred() bool { return e.deferred != nil }
