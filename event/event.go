package event

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/descriptor"
)

// Event is one declarative cashflow event (spec.md §3). DateExpr,
// ValueExpr, and PeriodsExpr hold the textual expressions a fixture or
// JSON boundary adapter supplied; Date, Value, and Periods hold the
// cached resolved results the expander (C6) fills in. A literal field
// (as opposed to an expression) is represented by leaving the Expr string
// empty and setting the resolved field directly before expansion.
type Event struct {
	DateExpr string
	Date     caldate.Date

	ValueExpr string
	Value     decimal.Decimal
	// ExprBalance means "re-evaluate ValueExpr against the running
	// balance at emit time" rather than once up front (used for payoff
	// events).
	ExprBalance bool

	PeriodsExpr string
	Periods     int

	Frequency caldate.Frequency
	Intervals int
	SortOrder int

	// SkipMask is a cyclic bit pattern: the nth generated element
	// (0-indexed) within this event's expansion is skipped iff bit n is
	// set.
	SkipMask uint64

	Parameters  descriptor.ParameterList
	Descriptors []descriptor.Descriptor

	Extension Extension

	// OriginIndex is this event's position in the original input list,
	// used as the final tie-break in deterministic ordering (spec.md §3
	// invariant 1).
	OriginIndex int
}

// Skipped reports whether the nth (0-indexed) position generated by this
// event's expansion is skipped under its skip-mask.
func (e *Event) Skipped(n int) bool {
	if e.SkipMask == 0 {
		return false
	}
	bit := n % 64
	return e.SkipMask&(1<<uint(bit)) != 0
}

// SurvivingCount returns how many of total generated positions survive
// the skip-mask, matching spec.md §8 property 5:
// count = periods − popcount(mask ∧ (2^periods − 1)).
func (e *Event) SurvivingCount(total int) int {
	count := 0
	for i := 0; i < total; i++ {
		if !e.Skipped(i) {
			count++
		}
	}
	return count
}

// List is an ordered collection of events, sortable by the deterministic
// rule spec.md §3 invariant 1 and §4.6 step 4 define: (event-date,
// sort-order, stable-original-index). Principal-first is not part of this
// order; the expander applies it in step 4's element-level tie-break.
type List []*Event

func (l List) Len() int      { return len(l) }
func (l List) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

func (l List) Less(i, j int) bool {
	a, b := l[i], l[j]
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	return a.OriginIndex < b.OriginIndex
}

// Sort orders the event list in place by (event-date, sort-order,
// stable-original-index).
func (l List) Sort() {
	sort.Sort(l)
}

// IsPrincipalFirst reports whether e carries a principal-change extension
// with PrincipalFirst set, used by the expander's same-date tie-break
// (spec.md §4.6 step 4).
func (e *Event) IsPrincipalFirst() bool {
	pc, ok := e.Extension.(*PrincipalChange)
	return ok && pc.PrincipalFirst
}

// IsInterestChange reports whether e carries an interest-change
// extension, used by the expander's same-date tie-break (interest-change
// elements sort last among same-date, same-sort-order ties that aren't
// principal-first).
func (e *Event) IsInterestChange() bool {
	_, ok := e.Extension.(*InterestChange)
	return ok
}
