package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/repr"

	"github.com/amfn/engine/cashflow"
	"github.com/amfn/engine/fixture"
	"github.com/amfn/engine/prefs"
	"github.com/amfn/engine/telemetry"
)

// RunCmd implements `amfn run <fixture-file>`: parse a C11 fixture, run
// evaluate on every cashflow it declares, and print the amortization
// schedule and balance-result for each.
type RunCmd struct {
	File   string `arg:"" type:"existingfile" help:"Fixture file to evaluate."`
	Prefs  string `help:"Path to a YAML global preferences document." optional:""`
	Debug  bool   `help:"Dump the parsed cashflow with repr before evaluating."`
	Timing bool   `help:"Print a per-stage timing tree (expand/accrue/compress) after each cashflow."`
}

func (c *RunCmd) Run() error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}

	cashflows, err := fixture.Parse(string(raw))
	if err != nil {
		return err
	}
	if len(cashflows) == 0 {
		return fmt.Errorf("amfn: %s contains no cashflow statement", c.File)
	}

	global, err := loadGlobalPrefs(c.Prefs)
	if err != nil {
		return err
	}

	for _, cf := range cashflows {
		if c.Debug {
			repr.Println(cf)
		}

		ctx := context.Background()
		var collector telemetry.Collector
		if c.Timing {
			collector = telemetry.NewTimingCollector()
			ctx = telemetry.WithCollector(ctx, collector)
		}

		result, err := cashflow.Evaluate(ctx, cf, global)
		if err != nil {
			return fmt.Errorf("amfn: evaluating %q: %w", cf.Name, err)
		}

		printSchedule(os.Stdout, cf.Name, result.Elements)
		fmt.Printf("final balance: %s on %s (interest total %s)\n\n",
			result.Balance.FinalBalance.String(),
			result.Balance.FinalDate.String(),
			result.Balance.InterestTotal.String(),
		)

		if collector != nil {
			collector.Report(os.Stdout, nil)
			fmt.Println()
		}
	}

	return nil
}

func loadGlobalPrefs(path string) (prefs.Preferences, error) {
	if path == "" {
		return prefs.Default(), nil
	}
	return prefs.Load(path)
}
