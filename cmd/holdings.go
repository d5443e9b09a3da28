package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/renderer"
	"github.com/google/subcommands"
)

// holdingsCmd holds the flags for the 'holdings' subcommand.
type holdingsCmd struct {
	date string
	full bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display the open positions on a date, without prices" }
func (*holdingsCmd) Usage() string {
	return `tbk holdings [-d <date>] [-full]

  Displays quantity, average cost, invested amount and realized profit of
  every instrument on a given date.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date for the holdings report. See the user manual for supported date formats.")
	f.BoolVar(&c.full, "full", false, "replay the full history instead of resolving from the latest snapshot")
}

func (c *holdingsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}

	as, anomalies, err := openAccounting(cfg, c.full)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	h, err := as.Holdings(on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	h.Anomalies = append(anomalies, h.Anomalies...)

	printMarkdown(renderer.RenderHoldings(renderer.NewHoldings(h, on, as.Options)))
	return subcommands.ExitSuccess
}
