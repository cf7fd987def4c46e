package amfnerr

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestErrorMessageIncludesEventIndex(t *testing.T) {
	err := NewExprTypeError(3, Span{Start: 5, End: 9}, "expected decimal, got %s", "string")
	assert.Equal(t, "ExprTypeError: event 3: expected decimal, got string", err.Error())
	assert.Equal(t, "ExprTypeError", err.Kind())
}

func TestErrorMessageWithoutEventIndex(t *testing.T) {
	err := NewNoExchangeRate("USD", "XYZ")
	assert.Equal(t, "NoExchangeRate: no exchange rate path from USD to XYZ", err.Error())
}

func TestUnwrapReturnsCause(t *testing.T) {
	err := &Error{K: KindBalanceOverflow, Cause: assertErr{}}
	assert.Equal(t, error(assertErr{}), err.Unwrap())
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
