package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/renderer"
	"github.com/google/subcommands"
)

// verifyCmd holds the flags for the 'verify' subcommand.
type verifyCmd struct {
	year int
}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "check a saved snapshot against the ledger" }
func (*verifyCmd) Usage() string {
	return `tbk verify [-y <year>]

  Displays a saved snapshot and rebuilds it from the ledger. It fails when the
  saved snapshot no longer matches the ledger.
`
}

func (c *verifyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "y", 0, "Year of the snapshot, 0 for the latest")
}

func (c *verifyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}

	as, _, err := openAccounting(cfg, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	var saved *tradebook.Snapshot
	if c.year == 0 {
		saved, err = as.Store.Latest()
	} else {
		saved, err = as.Store.Load(c.year)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.RenderSnapshot(renderer.NewSnapshot(saved, 5)))

	if err := verifySnapshot(as, saved); err != nil {
		fmt.Fprintf(os.Stderr, "Snapshot %d is stale, run rebuild: %v\n", saved.Year(), err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// verifySnapshot rebuilds the snapshot of saved from the ledger and reports
// every difference.
func verifySnapshot(as *tradebook.AccountingSystem, saved *tradebook.Snapshot) error {
	fresh, ok, err := tradebook.BuildSnapshot(as.Ledger, saved.Cutoff, as.Options)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no trade before the cutoff anymore")
	}
	var errs []error
	if fresh.TradeCount != saved.TradeCount {
		errs = append(errs, fmt.Errorf("%d trades, ledger has %d", saved.TradeCount, fresh.TradeCount))
	}
	if len(fresh.Positions) != len(saved.Positions) {
		errs = append(errs, fmt.Errorf("%d holdings, ledger gives %d", len(saved.Positions), len(fresh.Positions)))
	}
	if got, want := saved.Invested(), fresh.Invested(); !got.Equal(want) {
		errs = append(errs, fmt.Errorf("invested %v, ledger gives %v", got, want))
	}
	if got, want := saved.Realized(), fresh.Realized(); !got.Equal(want) {
		errs = append(errs, fmt.Errorf("realized %v, ledger gives %v", got, want))
	}
	return errors.Join(errs...)
}
