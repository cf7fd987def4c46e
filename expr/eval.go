package expr

import (
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/caldate"
)

// MaxRecursionDepth is the default nesting limit the evaluator enforces
// (spec.md §5) to keep a pathological expression from blowing the Go
// call stack.
const MaxRecursionDepth = 128

// UnresolvedError reports an identifier with no binding anywhere in the
// scope chain. During an expansion pass's first sweep this is recoverable
// (the cashflow layer defers and retries after statistics are known); on
// the final pass the cashflow layer promotes it to amfnerr.ExprUnresolved.
type UnresolvedError struct {
	Span       Span
	Identifier string
}

func (e *UnresolvedError) Error() string {
	return "undefined identifier " + e.Identifier
}

// RecursionError reports the evaluator exceeding its depth guard.
type RecursionError struct {
	Span     Span
	MaxDepth int
}

func (e *RecursionError) Error() string {
	return "recursion depth exceeded"
}

// Eval walks node under scope, returning its tagged Value or one of
// *UnresolvedError, *TypeError, *ArithError, *RecursionError,
// or *ParseError (for a number or date literal that does not convert, or
// an unknown node kind or operator).
func Eval(node *Node, scope Scope) (Value, error) {
	return evalDepth(node, scope, 0)
}

func evalDepth(node *Node, scope Scope, depth int) (Value, error) {
	if depth > MaxRecursionDepth {
		return Value{}, &RecursionError{Span: node.Span, MaxDepth: MaxRecursionDepth}
	}

	switch node.Kind {
	case NodeNumber:
		d, err := decimal.NewFromString(node.Text)
		if err != nil {
			return Value{}, &ParseError{Span: node.Span, Message: "invalid number literal: " + node.Text}
		}
		return DecimalValue(d), nil

	case NodeString:
		return StringValue(node.Text), nil

	case NodeDate:
		d, err := caldate.Parse(node.Text)
		if err != nil {
			return Value{}, &ParseError{Span: node.Span, Message: err.Error()}
		}
		return DateValue(d), nil

	case NodeIdent:
		v, ok := scope.Lookup(node.Text)
		if !ok {
			return Value{}, &UnresolvedError{Span: node.Span, Identifier: node.Text}
		}
		return v, nil

	case NodeUnary:
		return evalUnary(node, scope, depth)

	case NodeBinary:
		return evalBinary(node, scope, depth)

	case NodeCall:
		return evalCall(node, scope, depth)
	}

	return Value{}, &ParseError{Span: node.Span, Message: "unknown node kind"}
}

func evalUnary(node *Node, scope Scope, depth int) (Value, error) {
	if node.Text == "not" {
		v, err := evalDepth(node.Operand, scope, depth+1)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(!boolOf(v)), nil
	}

	v, err := evalDepth(node.Operand, scope, depth+1)
	if err != nil {
		return Value{}, err
	}
	d, err := asDecimal(v, node.Span, 0)
	if err != nil {
		return Value{}, err
	}
	return DecimalValue(d.Neg()), nil
}

func evalBinary(node *Node, scope Scope, depth int) (Value, error) {
	if node.Op == identOp {
		left, err := evalDepth(node.Left, scope, depth+1)
		if err != nil {
			return Value{}, err
		}
		switch node.Text {
		case "and":
			if !boolOf(left) {
				return BoolValue(false), nil
			}
			right, err := evalDepth(node.Right, scope, depth+1)
			if err != nil {
				return Value{}, err
			}
			return BoolValue(boolOf(right)), nil
		case "or":
			if boolOf(left) {
				return BoolValue(true), nil
			}
			right, err := evalDepth(node.Right, scope, depth+1)
			if err != nil {
				return Value{}, err
			}
			return BoolValue(boolOf(right)), nil
		}
	}

	left, err := evalDepth(node.Left, scope, depth+1)
	if err != nil {
		return Value{}, err
	}
	right, err := evalDepth(node.Right, scope, depth+1)
	if err != nil {
		return Value{}, err
	}

	switch node.Op {
	case PLUS:
		return evalArith(left, right, node.Span, func(a, b decimal.Decimal) decimal.Decimal { return a.Add(b) })
	case MINUS:
		return evalArith(left, right, node.Span, func(a, b decimal.Decimal) decimal.Decimal { return a.Sub(b) })
	case ASTERISK:
		return evalArith(left, right, node.Span, func(a, b decimal.Decimal) decimal.Decimal { return a.Mul(b) })
	case SLASH:
		a, err := asDecimal(left, node.Span, 0)
		if err != nil {
			return Value{}, err
		}
		b, err := asDecimal(right, node.Span, 1)
		if err != nil {
			return Value{}, err
		}
		if b.IsZero() {
			return Value{}, arithErr(node.Span, "division by zero")
		}
		return DecimalValue(a.DivRound(b, 34)), nil
	case AMP:
		return evalConcat(left, right, node.Span)
	case LT, LE, EQ, NE, GE, GT:
		return evalCompare(node.Op, left, right, node.Span)
	}

	return Value{}, &ParseError{Span: node.Span, Message: "unknown binary operator"}
}

func evalArith(left, right Value, span Span, op func(a, b decimal.Decimal) decimal.Decimal) (Value, error) {
	a, err := asDecimal(left, span, 0)
	if err != nil {
		return Value{}, err
	}
	b, err := asDecimal(right, span, 1)
	if err != nil {
		return Value{}, err
	}
	return DecimalValue(op(a, b)), nil
}

func evalConcat(left, right Value, span Span) (Value, error) {
	a, err := stringOf(left, span, 0)
	if err != nil {
		return Value{}, err
	}
	b, err := stringOf(right, span, 1)
	if err != nil {
		return Value{}, err
	}
	return StringValue(a + b), nil
}

// stringOf coerces any Value to its display string for the & operator,
// which spec.md §4.3 scopes to descriptor text assembly and so accepts
// any operand type rather than strings only.
func stringOf(v Value, span Span, argPos int) (string, error) {
	switch v.Kind {
	case KindString:
		return v.Str, nil
	case KindDecimal:
		return v.Dec.String(), nil
	case KindDate:
		return v.Dt.String(), nil
	case KindBool:
		if v.B {
			return "true", nil
		}
		return "false", nil
	}
	return "", typeErr(span, "argument %d: cannot concatenate value of kind %s", argPos, v.Kind)
}

func evalCompare(op TokenType, left, right Value, span Span) (Value, error) {
	if left.Kind != right.Kind {
		return Value{}, typeErr(span, "cannot compare %s with %s", left.Kind, right.Kind)
	}

	var cmp int
	switch left.Kind {
	case KindDecimal:
		cmp = left.Dec.Cmp(right.Dec)
	case KindString:
		switch {
		case left.Str < right.Str:
			cmp = -1
		case left.Str > right.Str:
			cmp = 1
		}
	case KindDate:
		cmp = left.Dt.Compare(right.Dt)
	case KindBool:
		cmp = boolCmp(left.B, right.B)
	}

	switch op {
	case LT:
		return BoolValue(cmp < 0), nil
	case LE:
		return BoolValue(cmp <= 0), nil
	case EQ:
		return BoolValue(cmp == 0), nil
	case NE:
		return BoolValue(cmp != 0), nil
	case GE:
		return BoolValue(cmp >= 0), nil
	case GT:
		return BoolValue(cmp > 0), nil
	}
	return Value{}, typeErr(span, "unknown comparison operator")
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func evalCall(node *Node, scope Scope, depth int) (Value, error) {
	if node.Callee == "if" {
		cond, err := evalDepth(node.Args[0], scope, depth+1)
		if err != nil {
			return Value{}, err
		}
		if boolOf(cond) {
			return evalDepth(node.Args[1], scope, depth+1)
		}
		return evalDepth(node.Args[2], scope, depth+1)
	}

	if !isBuiltin(node.Callee) {
		return Value{}, &UnresolvedError{Span: node.Span, Identifier: node.Callee}
	}

	arity := builtinArities[node.Callee]
	if len(node.Args) < arity.min || len(node.Args) > arity.max {
		return Value{}, typeErr(node.Span, "%s: expected %d-%d arguments, got %d", node.Callee, arity.min, arity.max, len(node.Args))
	}

	args := make([]Value, len(node.Args))
	for i, a := range node.Args {
		v, err := evalDepth(a, scope, depth+1)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}

	return callBuiltin(node.Callee, args, node.Span)
}
