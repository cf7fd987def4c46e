package cashflow

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/event"
	"github.com/amfn/engine/money"
	"github.com/amfn/engine/prefs"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func literalEvent(date caldate.Date, value decimal.Decimal, ext event.Extension, sortOrder, originIndex int) *event.Event {
	return &event.Event{
		Date:        date,
		Value:       value,
		Frequency:   caldate.Freq1Month,
		SortOrder:   sortOrder,
		Extension:   ext,
		OriginIndex: originIndex,
	}
}

func twoPaymentLoan() *Cashflow {
	return &Cashflow{
		Name:     "two payment loan",
		Currency: "USD",
		Events: event.List{
			literalEvent(caldate.New(2020, 1, 1), d("1000"),
				&event.PrincipalChange{Type: event.PrincipalIncrease, PrincipalFirst: true}, 0, 0),
			literalEvent(caldate.New(2020, 1, 1), d("0.12"),
				&event.InterestChange{
					DayCountBasis:      caldate.BasisPeriodic,
					Method:             event.MethodActuarial,
					RoundBalance:       money.RoundBankers,
					RoundDecimalDigits: 2,
				}, 0, 1),
			literalEvent(caldate.New(2020, 2, 1), d("200"),
				&event.PrincipalChange{Type: event.PrincipalDecrease}, 0, 2),
			literalEvent(caldate.New(2020, 3, 1), d("200"),
				&event.PrincipalChange{Type: event.PrincipalDecrease}, 0, 3),
		},
	}
}

func TestExpandProducesBalancedAmortizationList(t *testing.T) {
	cf := twoPaymentLoan()
	elements, balance, err := Expand(context.Background(), cf, prefs.Default())
	assert.NoError(t, err)
	assert.Equal(t, 4, len(elements))
	assert.True(t, d("618.10").Equal(balance.FinalBalance))
	assert.True(t, d("18.10").Equal(balance.InterestTotal))
}

func TestEvaluateRunsFullPipelineAndCompresses(t *testing.T) {
	cf := twoPaymentLoan()
	result, err := Evaluate(context.Background(), cf, prefs.Default())
	assert.NoError(t, err)
	assert.Equal(t, 4, len(result.Elements))
	assert.True(t, len(result.Runs) > 0)
	assert.True(t, d("618.10").Equal(result.Balance.FinalBalance))
	assert.True(t, len(result.EvaluationID) > 0)
}

func TestEvaluateUsesCashflowPreferencesOverGlobalDefaults(t *testing.T) {
	cf := twoPaymentLoan()
	cf.Preferences = prefs.Preferences{RoundBalance: "truncate"}

	merged := effectivePreferences(cf, prefs.Default())
	assert.Equal(t, "truncate", merged.RoundBalance)
}
