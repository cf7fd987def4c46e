// Package cashflow implements the top-level orchestration layer: the
// Cashflow value and the five language-neutral operations (spec.md §6)
// — evaluate, expand, compress, solve, convert — wiring together C1–C10
// and the C15 preferences loader into one pipeline, instrumented with
// C14 telemetry.
package cashflow

import (
	"github.com/google/uuid"

	"github.com/amfn/engine/amortize"
	"github.com/amfn/engine/compress"
	"github.com/amfn/engine/descriptor"
	"github.com/amfn/engine/event"
	"github.com/amfn/engine/expr"
	"github.com/amfn/engine/prefs"
)

// Cashflow is one declarative cashflow document: a named, ordered event
// list plus the cashflow-level preferences that shadow the global
// defaults for this cashflow alone (spec.md §3, §4.3).
type Cashflow struct {
	Name        string
	Currency    string
	Events      event.List
	Preferences prefs.Preferences
}

// Result is the full roll-up of evaluating a cashflow (spec.md §6's
// "am-list", optional "compress-list", and "balance-result").
type Result struct {
	EvaluationID string
	Elements     []*amortize.Element
	Runs         []compress.Run
	Balance      amortize.BalanceResult
}

// evaluation carries the per-call identifier threaded through telemetry
// and error traces (spec.md §5's "per-evaluation arena"). AmFn has no
// production arena allocator in its dependency pack, so this is a plain
// tagged value rather than a pooled allocator — see DESIGN.md.
type evaluation struct {
	id string
}

func newEvaluation() evaluation {
	return evaluation{id: uuid.NewString()}
}

// scope builds the cashflow-preferences-then-global-preferences layer of
// the C4 scope chain (spec.md §4.3): event-local parameters are layered
// on top of this by C6 itself, and the built-in running-total symbols
// are layered beneath it by C7's runtime scope.
func scopeFor(cf *Cashflow, global prefs.Preferences) (expr.Scope, error) {
	cfScope, err := cf.Preferences.Scope()
	if err != nil {
		return nil, err
	}
	globalScope, err := global.Scope()
	if err != nil {
		return nil, err
	}
	return expr.NewScopeChain(cfScope, globalScope), nil
}

// effectivePreferences merges the cashflow's own preferences onto the
// global defaults, cashflow-level values winning (spec.md §4's C15
// shadowing rule).
func effectivePreferences(cf *Cashflow, global prefs.Preferences) prefs.Preferences {
	return global.Merge(cf.Preferences)
}

// descriptorTable is a fresh propagation table for one evaluation pass;
// every pass starts from an empty view (spec.md §5: "the symbol table is
// constructed per evaluation and not shared").
func descriptorTable() *descriptor.Table {
	return descriptor.NewTable()
}
