// Package prefs implements the global preferences loader (C15): a
// YAML-backed document feeding the "global preferences parameters" layer
// of C4's scope chain (spec.md §4.3), shadowed by any cashflow-level
// preferences the caller supplies.
package prefs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/amfn/engine/descriptor"
	"github.com/amfn/engine/expr"
	"github.com/amfn/engine/money"
)

// Preferences is the global default set of evaluation preferences: the
// rounding regime used when no event-local or cashflow-level preference
// overrides it, and an arbitrary named-parameter layer for the scope
// chain.
type Preferences struct {
	RoundBalance       string         `yaml:"round_balance"`
	RoundDecimalDigits int32          `yaml:"round_decimal_digits"`
	Currency           string         `yaml:"currency"`
	Locale             string         `yaml:"locale"`
	Parameters         []ParameterDoc `yaml:"parameters"`
}

// ParameterDoc is the YAML-level representation of a named global
// parameter, lowered into a descriptor.Parameter via ParseParameter.
type ParameterDoc struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// Default returns the built-in preferences used when no YAML document is
// supplied: bankers rounding at 2 decimal digits, USD, en-US.
func Default() Preferences {
	return Preferences{
		RoundBalance:       "bankers",
		RoundDecimalDigits: 2,
		Currency:           "USD",
		Locale:             "en-US",
	}
}

// Load reads a YAML preferences document from path. A missing file is
// not an error: Default() is returned unchanged, matching the teacher's
// config.Load "file absent means defaults" behavior.
func Load(path string) (Preferences, error) {
	p := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return Preferences{}, fmt.Errorf("prefs: read %s: %w", path, err)
	}

	loaded := Preferences{}
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Preferences{}, fmt.Errorf("prefs: parse %s: %w", path, err)
	}

	if loaded.RoundBalance != "" {
		p.RoundBalance = loaded.RoundBalance
	}
	if loaded.RoundDecimalDigits != 0 {
		p.RoundDecimalDigits = loaded.RoundDecimalDigits
	}
	if loaded.Currency != "" {
		p.Currency = loaded.Currency
	}
	if loaded.Locale != "" {
		p.Locale = loaded.Locale
	}
	if len(loaded.Parameters) > 0 {
		p.Parameters = loaded.Parameters
	}

	return p, nil
}

// RoundingMode parses RoundBalance into a money.RoundingMode.
func (p Preferences) RoundingMode() (money.RoundingMode, error) {
	return money.ParseRoundingMode(p.RoundBalance)
}

// ParameterList lowers the YAML parameter docs into typed
// descriptor.Parameter values, for use as a scope-chain layer beneath
// cashflow-level preferences and above built-in symbols (spec.md §4.3).
func (p Preferences) ParameterList() (descriptor.ParameterList, error) {
	out := make(descriptor.ParameterList, 0, len(p.Parameters))
	for _, doc := range p.Parameters {
		param, err := descriptor.ParseParameter(doc.Name, doc.Type, doc.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, param)
	}
	return out, nil
}

// Scope adapts the global parameter layer to expr.Scope.
func (p Preferences) Scope() (expr.Scope, error) {
	list, err := p.ParameterList()
	if err != nil {
		return nil, err
	}
	return list.Scope(), nil
}

// Merge overlays cashflow-level preferences onto the global defaults:
// any non-zero-value field in override wins, matching spec.md §4.3's
// scope-chain shadowing ("cashflow preferences parameters" closer to the
// event than "global preferences parameters").
func (p Preferences) Merge(override Preferences) Preferences {
	merged := p
	if override.RoundBalance != "" {
		merged.RoundBalance = override.RoundBalance
	}
	if override.RoundDecimalDigits != 0 {
		merged.RoundDecimalDigits = override.RoundDecimalDigits
	}
	if override.Currency != "" {
		merged.Currency = override.Currency
	}
	if override.Locale != "" {
		merged.Locale = override.Locale
	}
	if len(override.Parameters) > 0 {
		merged.Parameters = append(append([]ParameterDoc{}, p.Parameters...), override.Parameters...)
	}
	return merged
}
