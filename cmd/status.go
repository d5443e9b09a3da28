package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/renderer"
	"github.com/google/subcommands"
)

type statusCmd struct{}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "display the state of the ledger and of the snapshots" }
func (*statusCmd) Usage() string {
	return `tbk status

  Lists the ledger files, the trade range and the snapshots, and tells whether
  the snapshots need a rebuild.
`
}

func (*statusCmd) SetFlags(f *flag.FlagSet) {}

func (*statusCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}

	as, anomalies, err := openAccounting(cfg, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	status, err := newStatus(as, ledgerFiles(cfg), date.Today())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading snapshots: %v\n", err)
		return subcommands.ExitFailure
	}
	status.Anomalies = anomalies

	printMarkdown(renderer.RenderStatus(status))
	return subcommands.ExitSuccess
}

// newStatus describes the ledger and the snapshots of as on date on.
func newStatus(as *tradebook.AccountingSystem, files []string, on date.Date) (*renderer.Status, error) {
	status := &renderer.Status{
		Files:  files,
		Trades: as.Ledger.Len(),
		First:  as.Ledger.First(),
		Last:   as.Ledger.Last(),
	}
	years, err := as.Store.Years()
	if err != nil {
		return nil, err
	}
	status.Snapshots = years

	latest, err := as.Store.Latest()
	switch {
	case errors.Is(err, tradebook.ErrNoSnapshot):
	case err != nil:
		return nil, err
	default:
		status.Stale = as.Stale(latest)
	}

	h, err := as.Holdings(on)
	if err != nil {
		return nil, err
	}
	status.Resolution = h.Source
	return status, nil
}
