package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/logger"
	"github.com/google/subcommands"
)

// rebuildCmd holds the flags for the 'rebuild' subcommand.
type rebuildCmd struct {
	from int
	to   int
}

func (*rebuildCmd) Name() string     { return "rebuild" }
func (*rebuildCmd) Synopsis() string { return "rebuild every year-end snapshot from the ledger" }
func (*rebuildCmd) Usage() string {
	return `tbk rebuild [-from <year>] [-to <year>]

  Rebuilds the snapshots of every year in range and replaces the snapshot
  directory at once. The range defaults to FIRST_SNAPSHOT_YEAR, or the year of
  the first trade, up to last year.
`
}

func (c *rebuildCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.from, "from", 0, "First year to snapshot, 0 for the configured one")
	f.IntVar(&c.to, "to", date.Today().Year()-1, "Last year to snapshot")
}

func (c *rebuildCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if as.Ledger.Len() == 0 {
		fmt.Fprintln(os.Stderr, "Error: the ledger has no trade")
		return subcommands.ExitFailure
	}

	from := c.from
	if from == 0 {
		from = cfg.Snapshot.FirstYear
	}
	if first := as.Ledger.First().Year(); from < first {
		from = first
	}
	if c.to < from {
		fmt.Fprintf(os.Stderr, "Error: nothing to rebuild from %d to %d\n", from, c.to)
		return subcommands.ExitUsageError
	}

	years, anomalies, err := as.Store.Rebuild(as.Ledger, from, c.to, as.Options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rebuilding snapshots: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, a := range anomalies {
		logger.L().Warn().Str("instrument", a.Instrument).Str("kind", string(a.Kind)).Msg(a.String())
	}

	fmt.Printf("Rebuilt %d snapshots in %s: %v\n", len(years), as.Store.Dir, years)
	return subcommands.ExitSuccess
}
