package fx

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/caldate"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestDirectRateAndInverse(t *testing.T) {
	g := NewGraph()
	assert.NoError(t, g.AddRate(caldate.New(2024, 1, 15), "USD", "EUR", d("0.92")))

	rate, err := g.Rate(caldate.New(2024, 1, 15), "USD", "EUR")
	assert.NoError(t, err)
	assert.True(t, d("0.92").Equal(rate))

	inverse, err := g.Rate(caldate.New(2024, 1, 15), "EUR", "USD")
	assert.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1).Div(d("0.92")).Equal(inverse))
}

func TestSameCurrencyIsIdentity(t *testing.T) {
	g := NewGraph()
	amount, err := g.Convert(caldate.New(2024, 1, 1), d("100"), "USD", "USD")
	assert.NoError(t, err)
	assert.True(t, d("100").Equal(amount))
}

func TestTransitiveConversionThroughIntermediateCurrency(t *testing.T) {
	g := NewGraph()
	assert.NoError(t, g.AddRate(caldate.New(2024, 1, 1), "USD", "EUR", d("0.9")))
	assert.NoError(t, g.AddRate(caldate.New(2024, 1, 1), "EUR", "GBP", d("0.8")))

	rate, err := g.Rate(caldate.New(2024, 1, 1), "USD", "GBP")
	assert.NoError(t, err)
	assert.True(t, d("0.72").Equal(rate))
}

func TestForwardFillUsesMostRecentRateOnOrBeforeDate(t *testing.T) {
	g := NewGraph()
	assert.NoError(t, g.AddRate(caldate.New(2024, 1, 1), "USD", "EUR", d("0.9")))
	assert.NoError(t, g.AddRate(caldate.New(2024, 2, 1), "USD", "EUR", d("0.95")))

	rate, err := g.Rate(caldate.New(2024, 1, 15), "USD", "EUR")
	assert.NoError(t, err)
	assert.True(t, d("0.9").Equal(rate))

	rate, err = g.Rate(caldate.New(2024, 3, 1), "USD", "EUR")
	assert.NoError(t, err)
	assert.True(t, d("0.95").Equal(rate))
}

func TestNoPathReturnsNoExchangeRate(t *testing.T) {
	g := NewGraph()
	assert.NoError(t, g.AddRate(caldate.New(2024, 1, 1), "USD", "EUR", d("0.9")))

	_, err := g.Rate(caldate.New(2024, 1, 1), "USD", "JPY")
	assert.Error(t, err)
}

func TestZeroRateRejected(t *testing.T) {
	g := NewGraph()
	err := g.AddRate(caldate.New(2024, 1, 1), "USD", "EUR", decimal.Zero)
	assert.Error(t, err)
}
