package expr

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/caldate"
)

func evalStr(t *testing.T, src string, scope Scope) Value {
	t.Helper()
	node, err := Parse(src)
	assert.NoError(t, err)
	v, err := Eval(node, scope)
	assert.NoError(t, err)
	return v
}

func TestArithmeticPrecedence(t *testing.T) {
	v := evalStr(t, "2 + 3 * 4", MapScope{})
	assert.Equal(t, "14", v.Dec.String())

	v = evalStr(t, "(2 + 3) * 4", MapScope{})
	assert.Equal(t, "20", v.Dec.String())

	v = evalStr(t, "-5 + 3", MapScope{})
	assert.Equal(t, "-2", v.Dec.String())
}

func TestDivisionByZero(t *testing.T) {
	_, err := Eval(mustParse(t, "1 / 0"), MapScope{})
	assert.Error(t, err)
	var ae *ArithError
	assert.True(t, asArith(err, &ae))
}

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	n, err := Parse(src)
	assert.NoError(t, err)
	return n
}

func asArith(err error, target **ArithError) bool {
	if ae, ok := err.(*ArithError); ok {
		*target = ae
		return true
	}
	return false
}

func TestComparisonAndLogical(t *testing.T) {
	v := evalStr(t, "3 < 5 and not (2 = 3)", MapScope{})
	assert.Equal(t, KindBool, v.Kind)
	assert.True(t, v.B)

	v = evalStr(t, "3 > 5 or 1 = 1", MapScope{})
	assert.True(t, v.B)
}

func TestConditional(t *testing.T) {
	v := evalStr(t, `if(1 = 1, "yes", "no")`, MapScope{})
	assert.Equal(t, "yes", v.Str)
}

func TestIdentifierResolutionThroughChain(t *testing.T) {
	local := MapScope{"x": DecimalValue(decimal.NewFromInt(10))}
	global := MapScope{"x": DecimalValue(decimal.NewFromInt(999)), "y": DecimalValue(decimal.NewFromInt(5))}
	scope := NewScopeChain(local, global)

	v := evalStr(t, "x + y", scope)
	assert.Equal(t, "15", v.Dec.String())
}

func TestUndefinedIdentifier(t *testing.T) {
	_, err := Eval(mustParse(t, "unknown-symbol"), MapScope{})
	assert.Error(t, err)
	_, ok := err.(*UnresolvedError)
	assert.True(t, ok)
}

func TestStringConcat(t *testing.T) {
	v := evalStr(t, `"rate: " & round(6.125, 2, "bankers")`, MapScope{})
	assert.Equal(t, "rate: 6.12", v.Str)
}

func TestBuiltinRoundAndAbsAndMinMax(t *testing.T) {
	assert.Equal(t, "1.01", evalStr(t, `round(1.005, 2, "bias-up")`, MapScope{}).Dec.String())
	assert.Equal(t, "5", evalStr(t, "abs(-5)", MapScope{}).Dec.String())
	assert.Equal(t, "2", evalStr(t, "min(2, 9)", MapScope{}).Dec.String())
	assert.Equal(t, "9", evalStr(t, "max(2, 9)", MapScope{}).Dec.String())
}

func TestBuiltinDateFunctions(t *testing.T) {
	v := evalStr(t, "date(2020, 1, 31)", MapScope{})
	assert.Equal(t, "2020-01-31", v.Dt.String())

	v = evalStr(t, `date-diff(date(2020,1,1), date(2020,2,1), "actual")`, MapScope{})
	assert.True(t, v.Dec.GreaterThan(decimal.Zero))

	v = evalStr(t, `date-add(date(2020,1,31), 1, "1-month", 1, 1)`, MapScope{})
	assert.Equal(t, "2020-02-29", v.Dt.String())
}

func TestBuiltinPMT(t *testing.T) {
	// 100000 loan, 360 months, 0.5% monthly -> payment ~ 599.55
	v := evalStr(t, "pmt(0.005, 360, 100000, 0)", MapScope{})
	rounded := v.Dec.Neg().Round(2)
	assert.True(t, rounded.GreaterThan(decimal.NewFromFloat(599)) && rounded.LessThan(decimal.NewFromFloat(600)))
}

func TestRecursionDepthGuard(t *testing.T) {
	src := "1"
	for i := 0; i < MaxRecursionDepth+5; i++ {
		src = "-(" + src + ")"
	}
	node, err := Parse(src)
	assert.NoError(t, err)
	_, err = Eval(node, MapScope{})
	assert.Error(t, err)
	_, ok := err.(*RecursionError)
	assert.True(t, ok)
}

func TestIdentifiersWithHyphens(t *testing.T) {
	scope := MapScope{"event-date": DateValue(mustDate(t, "2021-06-01"))}
	v := evalStr(t, "event-date", scope)
	assert.Equal(t, "2021-06-01", v.Dt.String())
}

func mustDate(t *testing.T, s string) caldate.Date {
	t.Helper()
	node, err := Parse(s)
	assert.NoError(t, err)
	v, err := Eval(node, MapScope{})
	assert.NoError(t, err)
	return v.Dt
}
