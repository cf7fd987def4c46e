package expr

import (
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/caldate"
)

// ValueKind is the tag of a Value's four-way union (spec.md §4.3).
type ValueKind uint8

const (
	KindDecimal ValueKind = iota
	KindString
	KindDate
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a tagged evaluation result. Only the field matching Kind is
// meaningful.
type Value struct {
	Kind ValueKind
	Dec  decimal.Decimal
	Str  string
	Dt   caldate.Date
	B    bool
}

func DecimalValue(d decimal.Decimal) Value { return Value{Kind: KindDecimal, Dec: d} }
func StringValue(s string) Value           { return Value{Kind: KindString, Str: s} }
func DateValue(d caldate.Date) Value       { return Value{Kind: KindDate, Dt: d} }
func BoolValue(b bool) Value               { return Value{Kind: KindBool, B: b} }

// boolOf reports the truth value of v: a bool is itself, a decimal is true
// when non-zero, and any other kind is false. and/or/not read their
// operands through it.
func boolOf(v Value) bool {
	switch v.Kind {
	case KindBool:
		return v.B
	case KindDecimal:
		return !v.Dec.IsZero()
	default:
		return false
	}
}

func decimalOf(b bool) decimal.Decimal {
	if b {
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}
