package fixture

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/cashflow"
	"github.com/amfn/engine/event"
	"github.com/amfn/engine/prefs"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestParseLowersCashflowPrefAndEvents(t *testing.T) {
	src := `
cashflow "30yr fixed" currency USD
pref round-balance bankers round-decimal-digits 2

event principal 2020-01-01 positive amount 100000.00 principal-first
event interest  2020-01-01 rate 6% basis 30 freq 1-month
event principal 2020-02-01 decrease amount 599.55 freq 1-month periods 360
`
	cashflows, err := Parse(src)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(cashflows))

	cf := cashflows[0]
	assert.Equal(t, "30yr fixed", cf.Name)
	assert.Equal(t, "USD", cf.Currency)
	assert.Equal(t, "bankers", cf.Preferences.RoundBalance)
	assert.Equal(t, int32(2), cf.Preferences.RoundDecimalDigits)
	assert.Equal(t, 3, len(cf.Events))

	principal, ok := cf.Events[0].Extension.(*event.PrincipalChange)
	assert.True(t, ok)
	assert.Equal(t, event.PrincipalPositive, principal.Type)
	assert.True(t, principal.PrincipalFirst)
	assert.True(t, d("100000.00").Equal(cf.Events[0].Value))

	interest, ok := cf.Events[1].Extension.(*event.InterestChange)
	assert.True(t, ok)
	assert.True(t, d("0.06").Equal(cf.Events[1].Value))
	assert.Equal(t, "30", string(interest.DayCountBasis))

	decrease, ok := cf.Events[2].Extension.(*event.PrincipalChange)
	assert.True(t, ok)
	assert.Equal(t, event.PrincipalDecrease, decrease.Type)
	assert.Equal(t, 360, cf.Events[2].Periods)
}

func TestParseLowersTargetExpressionsAndCurrentValueMarker(t *testing.T) {
	src := `
cashflow "solve for payment"

event principal 2020-01-01 positive amount 1000 principal-first
event principal 2020-02-01 decrease amount @target freq 1-month periods 2
event current-value 2020-03-01 sort-order 1
`
	cashflows, err := Parse(src)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(cashflows))

	cf := cashflows[0]
	assert.Equal(t, "@target", cf.Events[1].ValueExpr)

	_, ok := cf.Events[2].Extension.(*event.CurrentValue)
	assert.True(t, ok)
	assert.Equal(t, 1, cf.Events[2].SortOrder)
}

func TestParseEvaluatesThroughCashflowPipeline(t *testing.T) {
	src := `
cashflow "two payment loan" currency USD

event principal 2020-01-01 positive amount 1000.00 principal-first
event interest  2020-01-01 rate 12% basis periodic
event principal 2020-02-01 decrease amount 200.00
event principal 2020-03-01 decrease amount 200.00
`
	cashflows, err := Parse(src)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(cashflows))

	result, err := cashflow.Evaluate(context.Background(), cashflows[0], prefs.Default())
	assert.NoError(t, err)
	assert.Equal(t, 4, len(result.Elements))
}

func TestParseAllAccumulatesRateStatementsIntoAGraph(t *testing.T) {
	src := `
cashflow "30yr fixed" currency USD

event principal 2020-01-01 positive amount 1000.00 principal-first

rate 2020-01-01 USD EUR 0.9
rate 2020-01-01 EUR JPY 150
`
	cashflows, graph, err := ParseAll(src)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(cashflows))

	date, err := caldate.Parse("2020-01-01")
	assert.NoError(t, err)

	rate, err := graph.Rate(date, "USD", "EUR")
	assert.NoError(t, err)
	assert.True(t, d("0.9").Equal(rate))

	transitive, err := graph.Rate(date, "USD", "JPY")
	assert.NoError(t, err)
	assert.True(t, decimal.NewFromInt(135).Equal(transitive))
}

func TestParseIgnoresRateStatements(t *testing.T) {
	src := `
cashflow "30yr fixed" currency USD
event principal 2020-01-01 positive amount 1000.00 principal-first
rate 2020-01-01 USD EUR 0.9
`
	cashflows, err := Parse(src)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(cashflows))
	assert.Equal(t, 1, len(cashflows[0].Events))
}
