// Package compress implements the compressor (C8): merging a maximal run
// of consecutive amortization elements that share event-type, frequency,
// intervals, descriptor-view, and a constant periodic delta in principal
// and interest back into a single compact record (spec.md §4.8).
package compress

import (
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/amortize"
	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/descriptor"
	"github.com/amfn/engine/event"
	"github.com/amfn/engine/money"
)

// Run is one compressed record: a contiguous span of amortization
// elements sharing a constant per-period principal and interest delta.
type Run struct {
	StartDate caldate.Date
	EndDate   caldate.Date
	Periods   int

	EventType event.ExtensionKind
	Frequency caldate.Frequency
	Intervals int

	PrincipalDelta decimal.Decimal
	InterestDelta  decimal.Decimal

	// StartBalance and EndBalance are the running balance just before
	// the run's first element and just after its last, letting a caller
	// reconstruct any element's balance within the run without
	// re-expanding (StartBalance + n*(PrincipalDelta+InterestDelta) after
	// the nth element, to within the merge tolerance).
	StartBalance decimal.Decimal
	EndBalance   decimal.Decimal

	EventOriginIndex int
	Descriptors      descriptor.Snapshot
}

// tolerance bounds how close two periods' deltas must be to be treated as
// the "constant periodic delta" spec.md §4.8 requires. It absorbs
// sub-cent arithmetic noise only: a one-cent difference between two
// rounded postings exceeds it and ends the run.
var tolerance = decimal.New(1, -6)

// Compress merges elements into the maximal runs spec.md §4.8 describes.
// Elements not merged into any multi-element run are returned as
// single-element runs.
func Compress(elements []*amortize.Element) []Run {
	var runs []Run

	i := 0
	for i < len(elements) {
		j := i + 1
		for j < len(elements) && mergeable(elements[i], elements[j-1], elements[j]) {
			j++
		}
		runs = append(runs, buildRun(elements[i:j]))
		i = j
	}

	return runs
}

// mergeable reports whether next can extend a run whose most recent
// member is prev, given the run's anchor element first (for event-type,
// frequency, intervals, and descriptor-view comparisons). Per spec.md
// §4.8, a rate change, descriptor change, skip-mask gap, statistic
// emission, or balance-rounding discontinuity all end a run; each is
// detected here as a mismatch on one of the merge keys below.
func mergeable(first, prev, next *amortize.Element) bool {
	if next.EventType != first.EventType {
		return false
	}
	if next.EventType == event.KindStatisticValue || next.EventType == event.KindCurrentValue {
		return false // statistic emission never merges
	}
	if next.EventOriginIndex != first.EventOriginIndex {
		return false // a different source event is always a hard boundary
	}
	if next.Frequency != first.Frequency || next.Intervals != first.Intervals {
		return false
	}
	if !next.Descriptors.Equal(first.Descriptors) {
		return false // descriptor change
	}
	if next.PeriodIndex != prev.PeriodIndex+1 {
		return false // skip-mask gap
	}

	prevPrincipalDelta := prev.PrincipalIncrease.Sub(prev.PrincipalDecrease)
	nextPrincipalDelta := next.PrincipalIncrease.Sub(next.PrincipalDecrease)
	if !money.Equal(prevPrincipalDelta, nextPrincipalDelta, tolerance) {
		return false
	}
	if !money.Equal(prev.Interest, next.Interest, tolerance) {
		return false // rate change or balance-rounding discontinuity
	}

	return true
}

func buildRun(elements []*amortize.Element) Run {
	first, last := elements[0], elements[len(elements)-1]

	principalDelta := first.PrincipalIncrease.Sub(first.PrincipalDecrease)

	// StartBalance is the balance just before the first element in the
	// run applied its own delta: undo interest-then-principal for a
	// single period from the first element's own posted Balance.
	startBalance := first.Balance.Sub(principalDelta).Sub(first.Interest)

	return Run{
		StartDate:        first.Date,
		EndDate:          last.Date,
		Periods:          len(elements),
		EventType:        first.EventType,
		Frequency:        first.Frequency,
		Intervals:        first.Intervals,
		PrincipalDelta:   principalDelta,
		InterestDelta:    first.Interest,
		StartBalance:     startBalance,
		EndBalance:       last.Balance,
		EventOriginIndex: first.EventOriginIndex,
		Descriptors:      first.Descriptors,
	}
}
