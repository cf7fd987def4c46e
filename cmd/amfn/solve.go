package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/amfn/engine/cashflow"
	"github.com/amfn/engine/fixture"
)

// SolveCmd implements `amfn solve <fixture-file> --field ... --desired ...`
// (with --statistic or --current-value choosing the marker): parse a
// C11 fixture whose events reference `@target`, and solve for the value
// that drives the requested statistic or current-value marker to the
// desired outcome.
type SolveCmd struct {
	File string `arg:"" type:"existingfile" help:"Fixture file whose events reference @target."`

	Field        string `enum:"value,rate,periods" default:"value" help:"Which kind of unknown @target represents."`
	Statistic    string `help:"Statistic name to target." optional:""`
	CurrentValue bool   `help:"Target the current-value marker instead of a named statistic."`
	Desired      string `default:"0" help:"Desired value the target should converge to."`
	X0           string `default:"0" help:"First secant seed."`
	X1           string `default:"1" help:"Second secant seed."`
	Digits       int32  `default:"6" help:"Convergence precision in decimal digits."`
	Prefs        string `optional:"" help:"Path to a YAML global preferences document."`
}

func (c *SolveCmd) Run() error {
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

	desired, err := decimal.NewFromString(c.Desired)
	if err != nil {
		return fmt.Errorf("amfn: invalid --desired %q: %w", c.Desired, err)
	}
	x0, err := decimal.NewFromString(c.X0)
	if err != nil {
		return fmt.Errorf("amfn: invalid --x0 %q: %w", c.X0, err)
	}
	x1, err := decimal.NewFromString(c.X1)
	if err != nil {
		return fmt.Errorf("amfn: invalid --x1 %q: %w", c.X1, err)
	}

	target := cashflow.Target{
		Field:         cashflow.TargetField(c.Field),
		StatisticName: c.Statistic,
		CurrentValue:  c.CurrentValue,
		DesiredValue:  desired,
		X0:            x0,
		X1:            x1,
		DecimalDigits: c.Digits,
	}

	result, err := cashflow.Solve(context.Background(), cashflows[0], global, target)
	if err != nil {
		return fmt.Errorf("amfn: solve: %w", err)
	}

	fmt.Printf("@target = %s (residual %s, %d iterations)\n", result.X.String(), result.Residual.String(), result.Iterations)
	return nil
}
