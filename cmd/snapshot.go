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

// snapshotCmd holds the flags for the 'snapshot' subcommand.
type snapshotCmd struct {
	year int
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "build and save the year-end snapshot of one year" }
func (*snapshotCmd) Usage() string {
	return `tbk snapshot [-y <year>]

  Replays the ledger up to December 31 of the year and saves the positions and
  cash flows into the snapshot directory. Other years are left untouched.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "y", date.Today().Year()-1, "Year of the snapshot")
}

func (c *snapshotCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	s, err := as.Snapshot(c.year)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building snapshot %d: %v\n", c.year, err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.RenderSnapshot(renderer.NewSnapshot(s, 5)))
	return subcommands.ExitSuccess
}
