package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/cashflow"
	"github.com/amfn/engine/fixture"
)

// ConvertCmd implements `amfn convert <amount> <from> <to> --rates
// <rate-file> --date <date>`. The rate file is C11 fixture source
// containing only `rate` statements (cashflow/pref/event statements are
// accepted too and simply ignored for this command).
type ConvertCmd struct {
	Amount string `arg:"" help:"Amount to convert."`
	From   string `arg:"" help:"Source currency code."`
	To     string `arg:"" help:"Destination currency code."`

	Rates string `required:"" type:"existingfile" help:"Fixture file containing rate statements."`
	Date  string `required:"" help:"Conversion date (YYYY-MM-DD)."`
}

func (c *ConvertCmd) Run() error {
	raw, err := os.ReadFile(c.Rates)
	if err != nil {
		return err
	}

	_, graph, err := fixture.ParseAll(string(raw))
	if err != nil {
		return fmt.Errorf("amfn: %s: %w", c.Rates, err)
	}

	date, err := caldate.Parse(c.Date)
	if err != nil {
		return fmt.Errorf("amfn: invalid --date %q: %w", c.Date, err)
	}
	amount, err := decimal.NewFromString(c.Amount)
	if err != nil {
		return fmt.Errorf("amfn: invalid amount %q: %w", c.Amount, err)
	}

	converted, err := cashflow.Convert(context.Background(), graph, date, amount, c.From, c.To)
	if err != nil {
		return fmt.Errorf("amfn: convert: %w", err)
	}

	fmt.Printf("%s %s = %s %s\n", c.Amount, c.From, converted.String(), c.To)
	return nil
}
