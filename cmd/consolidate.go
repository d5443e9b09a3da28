package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook"
	"github.com/google/subcommands"
)

// consolidateCmd holds the flags for the 'consolidate' subcommand.
type consolidateCmd struct {
	output string
}

func (*consolidateCmd) Name() string { return "consolidate" }
func (*consolidateCmd) Synopsis() string {
	return "merge the raw trade files into the consolidated tradebook"
}
func (*consolidateCmd) Usage() string {
	return `tbk consolidate [-o <file>]

  Reads every file matching LEDGER_GLOB, fills the missing exchange rates and
  bond flags, and writes them sorted into a single tradebook file.
`
}

func (c *consolidateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file, defaults to LEDGER_FILE")
}

func (c *consolidateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	output := c.output
	if output == "" {
		output = cfg.Ledger.File
	}

	ledger, anomalies, err := tradebook.DecodeLedgerFiles(cfg.Rates(), cfg.Ledger.Globs...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding trade files: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, a := range anomalies {
		fmt.Fprintf(os.Stderr, "warning: %v\n", a)
	}

	if err := tradebook.EncodeLedgerFile(output, ledger); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing tradebook: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Consolidated %d trades into %s\n", ledger.Len(), output)
	return subcommands.ExitSuccess
}
