package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook"
	"github.com/google/subcommands"
)

type formatLedgerCmd struct {
	output string
}

func (*formatLedgerCmd) Name() string     { return "format-ledger" }
func (*formatLedgerCmd) Synopsis() string { return "formats the tradebook file into a canonical form" }
func (*formatLedgerCmd) Usage() string {
	return `tbk format-ledger [-o <file>]

  Rewrites LEDGER_FILE sorted in processing order, with canonical dates, sides
  and every exchange rate filled. Malformed rows are reported and dropped.
`
}

func (c *formatLedgerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file, defaults to rewriting LEDGER_FILE")
}

func (c *formatLedgerCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	output := c.output
	if output == "" {
		output = cfg.Ledger.File
	}

	// 1. Read the ledger
	ledger, anomalies, err := tradebook.DecodeLedgerFile(cfg.Ledger.File, cfg.Rates())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, a := range anomalies {
		fmt.Fprintf(os.Stderr, "warning: %v\n", a)
	}

	// 2. Write the ledger back
	if err := tradebook.EncodeLedgerFile(output, ledger); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Ledger file '%s' has been formatted.\n", output)
	return subcommands.ExitSuccess
}
