package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/config"
	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/logger"
	"github.com/etnz/tradebook/renderer"
	"github.com/google/subcommands"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	date    string
	offline bool
	full    bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the portfolio valuation with current prices" }
func (*summaryCmd) Usage() string {
	return `tbk summary [-d <date>] [-offline] [-full]

  Displays the open holdings valued with the latest prices: invested amount,
  market value, unrealized and realized profit, daily change and XIRR.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date of the holdings. See the user manual for supported date formats.")
	f.BoolVar(&c.offline, "offline", false, "only use the local closing prices")
	f.BoolVar(&c.full, "full", false, "replay the full history instead of resolving from the latest snapshot")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	summary, err := summarize(ctx, cfg, on, c.offline, c.full)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing summary: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderSummary(&summary))
	return subcommands.ExitSuccess
}

// summarize values the holdings on date on. The anomalies found while reading
// the ledger come first in the summary anomalies.
func summarize(ctx context.Context, cfg config.Config, on date.Date, offline, full bool) (tradebook.Summary, error) {
	as, anomalies, err := openAccounting(cfg, full)
	if err != nil {
		return tradebook.Summary{}, fmt.Errorf("loading ledger: %w", err)
	}

	src, backup := priceSource(cfg, offline)
	summary, err := as.Summary(ctx, src, on, cfg.Fetch())
	if err != nil {
		return tradebook.Summary{}, err
	}
	if err := backup.Save(); err != nil {
		logger.L().Warn().Err(err).Str("file", backup.Path).Msg("cannot save closing prices")
	}
	summary.Anomalies = append(anomalies, summary.Anomalies...)
	return summary, nil
}
