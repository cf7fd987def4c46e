package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/amfn/engine/money"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestLoadOverridesOnlySetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	err := os.WriteFile(path, []byte(`
round_balance: truncate
currency: EUR
`), 0o644)
	assert.NoError(t, err)

	p, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "truncate", p.RoundBalance)
	assert.Equal(t, "EUR", p.Currency)
	assert.Equal(t, Default().RoundDecimalDigits, p.RoundDecimalDigits)
	assert.Equal(t, Default().Locale, p.Locale)
}

func TestLoadParsesParameterList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	err := os.WriteFile(path, []byte(`
parameters:
  - name: inflation-rate
    type: float
    value: "0.03"
  - name: default-term-months
    type: integer
    value: "360"
`), 0o644)
	assert.NoError(t, err)

	p, err := Load(path)
	assert.NoError(t, err)

	list, err := p.ParameterList()
	assert.NoError(t, err)
	assert.Equal(t, 2, len(list))
	assert.Equal(t, "inflation-rate", list[0].Name)
	assert.Equal(t, "default-term-months", list[1].Name)

	scope, err := p.Scope()
	assert.NoError(t, err)
	_, ok := scope.Lookup("inflation-rate")
	assert.True(t, ok)
}

func TestRoundingModeParsesDefault(t *testing.T) {
	mode, err := Default().RoundingMode()
	assert.NoError(t, err)
	assert.Equal(t, money.RoundBankers, mode)
}

func TestMergeCashflowPreferencesShadowGlobalDefaults(t *testing.T) {
	global := Default()
	cashflowLevel := Preferences{
		RoundBalance: "truncate",
		Parameters: []ParameterDoc{
			{Name: "local-rate", Type: "float", Value: "0.05"},
		},
	}

	merged := global.Merge(cashflowLevel)
	assert.Equal(t, "truncate", merged.RoundBalance)
	assert.Equal(t, global.Currency, merged.Currency)
	assert.Equal(t, 1, len(merged.Parameters))
	assert.Equal(t, "local-rate", merged.Parameters[0].Name)
}
