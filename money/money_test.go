package money

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestRoundModes(t *testing.T) {
	tests := []struct {
		mode RoundingMode
		in   string
		want string
	}{
		{RoundNone, "1.005", "1.005"},
		{RoundBankers, "1.005", "1.00"},
		{RoundBankers, "1.015", "1.02"},
		{RoundBiasUp, "1.005", "1.01"},
		{RoundBiasUp, "-1.005", "-1.01"},
		{RoundBiasDown, "1.005", "1.00"},
		{RoundBiasDown, "-1.005", "-1.00"},
		{RoundUp, "1.001", "1.01"},
		{RoundUp, "-1.001", "-1.01"},
		{RoundUp, "1.00", "1.00"},
		{RoundTruncate, "1.009", "1.00"},
		{RoundTruncate, "-1.009", "-1.00"},
	}

	for _, tt := range tests {
		got := Round(d(tt.in), 2, tt.mode)
		assert.Equal(t, d(tt.want).String(), got.String())
	}
}

func TestParseRoundingModeAliases(t *testing.T) {
	yes, err := ParseRoundingMode("yes")
	assert.NoError(t, err)
	assert.Equal(t, RoundBankers, yes)

	no, err := ParseRoundingMode("no")
	assert.NoError(t, err)
	assert.Equal(t, RoundNone, no)

	_, err = ParseRoundingMode("bogus")
	assert.Error(t, err)
}

func TestDivGuardsZero(t *testing.T) {
	_, err := Div(d("10"), decimal.Zero)
	assert.Error(t, err)

	got, err := Div(d("10"), d("3"))
	assert.NoError(t, err)
	assert.True(t, got.Round(4).Equal(d("3.3333")))
}

func TestPowFractionalExponent(t *testing.T) {
	got := Pow(d("1.06"), d("0.5"))
	assert.True(t, got.Round(6).Equal(d("1.029563")))
}

func TestEqualWithinTolerance(t *testing.T) {
	assert.True(t, Equal(d("100.001"), d("100.002"), d("0.01")))
	assert.False(t, Equal(d("100.00"), d("100.02"), d("0.01")))
}
