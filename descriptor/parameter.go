// Package descriptor implements AmFn's symbol & descriptor table (C4):
// typed parameters that compose into the expression evaluator's scope
// chain, and propagatable group/name descriptors snapshotted per
// amortization element (spec.md §4.4). Design note §9 directs both to be
// modeled as a stack of flat maps rather than an inheritance hierarchy.
package descriptor

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/amfn/engine/expr"
)

// ParamType is the closed set of parameter value types spec.md §4.4
// allows.
type ParamType uint8

const (
	ParamInteger ParamType = iota
	ParamFloat
	ParamString
)

func (t ParamType) String() string {
	switch t {
	case ParamInteger:
		return "integer"
	case ParamFloat:
		return "float"
	case ParamString:
		return "string"
	default:
		return "unknown"
	}
}

// Parameter is a named, typed local symbol belonging to an event's
// parameter-list, a cashflow's preferences, or the global preferences.
type Parameter struct {
	Name    string
	Type    ParamType
	IntVal  int64
	FltVal  float64
	StrVal  string
}

// NewIntegerParameter builds an integer-typed parameter.
func NewIntegerParameter(name string, v int64) Parameter {
	return Parameter{Name: name, Type: ParamInteger, IntVal: v}
}

// NewFloatParameter builds a float-typed parameter.
func NewFloatParameter(name string, v float64) Parameter {
	return Parameter{Name: name, Type: ParamFloat, FltVal: v}
}

// NewStringParameter builds a string-typed parameter.
func NewStringParameter(name string, v string) Parameter {
	return Parameter{Name: name, Type: ParamString, StrVal: v}
}

// ToValue converts a Parameter into the expression evaluator's tagged
// Value, so parameter layers can be plugged directly into an
// expr.ChainScope.
func (p Parameter) ToValue() expr.Value {
	switch p.Type {
	case ParamInteger:
		return expr.DecimalValue(decimal.NewFromInt(p.IntVal))
	case ParamFloat:
		return expr.DecimalValue(decimal.NewFromFloat(p.FltVal))
	case ParamString:
		return expr.StringValue(p.StrVal)
	default:
		return expr.Value{}
	}
}

// ParameterList is an event-local, cashflow-level, or global flat map of
// named parameters, usable directly as one layer of an expr.ChainScope.
type ParameterList []Parameter

// Scope adapts the list to expr.Scope, materializing a lookup map once.
func (l ParameterList) Scope() expr.Scope {
	m := make(expr.MapScope, len(l))
	for _, p := range l {
		m[p.Name] = p.ToValue()
	}
	return m
}

// ParseParameter builds a Parameter from a textual type tag and value,
// the form a fixture or JSON boundary adapter would hand the core after
// schema validation (spec.md §6 treats ingress schema validation as a
// boundary concern; this is the typed-construction path the core itself
// exposes).
func ParseParameter(name, typ, value string) (Parameter, error) {
	switch typ {
	case "integer":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Parameter{}, fmt.Errorf("descriptor: invalid integer parameter %q: %w", name, err)
		}
		return NewIntegerParameter(name, v), nil
	case "float":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return Parameter{}, fmt.Errorf("descriptor: invalid float parameter %q: %w", name, err)
		}
		return NewFloatParameter(name, v), nil
	case "string":
		return NewStringParameter(name, value), nil
	default:
		return Parameter{}, fmt.Errorf("descriptor: unknown parameter type %q", typ)
	}
}
