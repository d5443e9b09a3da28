// Package cmd implements the tbk command line to account for a trade ledger.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/config"
	"github.com/etnz/tradebook/logger"
	"github.com/etnz/tradebook/quote"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&summaryCmd{}, "reports")
	c.Register(&holdingsCmd{}, "reports")
	c.Register(&statusCmd{}, "reports")
	c.Register(&topicCmd{}, "help")

	c.Register(&snapshotCmd{}, "snapshots")
	c.Register(&rebuildCmd{}, "snapshots")
	c.Register(&verifyCmd{}, "snapshots")

	c.Register(&consolidateCmd{}, "ledger")
	c.Register(&formatLedgerCmd{}, "ledger")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var envFile = flag.String("env", ".env", "Path to an optional .env file with the TRADEBOOK_ settings")
var raw = flag.Bool("raw", false, "print the reports as plain markdown")

// loadConfig loads the configuration and sets the logger up accordingly.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return cfg, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}

// ledgerFiles lists the raw trade files, in reading order.
func ledgerFiles(cfg config.Config) []string {
	var files []string
	for _, p := range cfg.Ledger.Globs {
		matches, _ := filepath.Glob(p)
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files)
}

// decodeLedger reads the raw trade files, or the consolidated tradebook when
// none is found.
func decodeLedger(cfg config.Config) (*tradebook.Ledger, []tradebook.Anomaly, error) {
	l, anomalies, err := tradebook.DecodeLedgerFiles(cfg.Rates(), cfg.Ledger.Globs...)
	if errors.Is(err, fs.ErrNotExist) && cfg.Ledger.File != "" {
		logger.L().Info().Str("file", cfg.Ledger.File).Msg("no raw trade file, reading the consolidated tradebook")
		return tradebook.DecodeLedgerFile(cfg.Ledger.File, cfg.Rates())
	}
	return l, anomalies, err
}

// openAccounting decodes the ledger and opens the snapshot store. With full,
// the snapshots are ignored and every report replays the whole history.
func openAccounting(cfg config.Config, full bool) (*tradebook.AccountingSystem, []tradebook.Anomaly, error) {
	ledger, anomalies, err := decodeLedger(cfg)
	if err != nil {
		return nil, nil, err
	}
	for _, a := range anomalies {
		logger.L().Warn().Str("instrument", a.Instrument).Str("kind", string(a.Kind)).Msg(a.String())
	}
	var store *tradebook.SnapshotStore
	if !full {
		store = tradebook.NewSnapshotStore(cfg.Snapshot.Dir)
	}
	as, err := tradebook.NewAccountingSystem(ledger, store, cfg.Options())
	return as, anomalies, err
}

// priceSource returns the price providers: Yahoo for listed instruments, NSE
// for bonds, both backed by the local closing prices. Offline only reads the
// local closing prices.
func priceSource(cfg config.Config, offline bool) (tradebook.PriceSource, *quote.Backup) {
	backup := quote.NewBackup(cfg.Price.BackupFile)
	if offline {
		return backup, backup
	}
	return &quote.Chain{
		Market: quote.NewCache(quote.NewYahoo(cfg.Price.Rate, cfg.Price.Timeout), cfg.Price.CacheTTL),
		Bonds:  quote.NewCache(quote.NewNSE(cfg.Price.Rate, cfg.Price.Timeout), cfg.Price.CacheTTL),
		Backup: backup,
	}, backup
}

// printMarkdown renders md for the terminal, or prints it as is with -raw.
func printMarkdown(md string) {
	if *raw {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
