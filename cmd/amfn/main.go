// Command amfn is C13: a small CLI exercising the cashflow engine end to
// end, matching the teacher's cmd/beancount in spirit (kong flag parsing,
// repr-based --debug dumps) but grown into three subcommands instead of
// one, since spec.md §6 names three distinct operations worth driving
// from a terminal.
package main

import (
	"github.com/alecthomas/kong"
)

var cli struct {
	Run     RunCmd     `cmd:"" help:"Evaluate a fixture and print its amortization schedule."`
	Solve   SolveCmd   `cmd:"" help:"Solve a fixture's @target unknown for a desired outcome."`
	Convert ConvertCmd `cmd:"" help:"Convert an amount between currencies using a rate table."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("amfn"),
		kong.Description("AmFn amortization and cashflow engine."),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
