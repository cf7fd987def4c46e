package cashflow

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/fx"
	"github.com/amfn/engine/telemetry"
)

// Convert runs C10 (spec.md §6's `convert(amount, from, to, rates) →
// decimal`): a thin, telemetry-instrumented pass-through to the
// exchange-rate graph, kept as its own pipeline stage so a caller
// driving the language-neutral API never has to reach past cashflow
// into the fx package directly.
func Convert(ctx context.Context, rates *fx.Graph, date caldate.Date, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	timer := telemetry.FromContext(ctx).Start("convert")
	defer timer.End()

	return rates.Convert(date, amount, from, to)
}
