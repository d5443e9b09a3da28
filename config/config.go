// Package config loads the tradebook settings from defaults, an optional .env
// file and TRADEBOOK_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/tradebook"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. TRADEBOOK_SNAPSHOT_DIR.
const EnvPrefix = "TRADEBOOK"

// Config holds the full configuration of the tradebook tools.
//
// Example .env equivalent:
//
//	LEDGER_GLOB=archivesCSV/trades*.csv,archivesCSV/SGBs.csv
//	LEDGER_FILE=archivesCSV/tradebook.csv
//	SNAPSHOT_DIR=archivesCSV/snapshots
//	BASE_CURRENCY=INR
//	OVERSELL_POLICY=lenient
type Config struct {
	Ledger   LedgerConfig
	Snapshot SnapshotConfig
	Price    PriceConfig
	Log      LogConfig
}

// LedgerConfig locates the trades and tunes the accounting.
type LedgerConfig struct {
	Globs           []string // raw trade files, merged
	File            string   // consolidated tradebook
	BaseCurrency    string
	DustThreshold   decimal.Decimal
	OversellPolicy  string
	FallbackUSDRate decimal.Decimal // used for USD rows without exchange rate
}

// SnapshotConfig locates the year-end snapshots.
type SnapshotConfig struct {
	Dir       string
	FirstYear int // 0 for the first year of the ledger
	ExactLots bool
}

// PriceConfig bounds the price fetching.
type PriceConfig struct {
	Timeout    time.Duration // per instrument
	Parallel   int
	Rate       float64 // requests per second to a remote provider
	CacheTTL   time.Duration
	BackupFile string
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads the configuration.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from envFile (if present, "" for none).
//  3. Environment variables, prefixed with TRADEBOOK_.
func Load(envFile string) (Config, error) {
	v := viper.New()
	v.SetDefault("LEDGER_GLOB", "archivesCSV/trades*.csv,archivesCSV/SGBs.csv")
	v.SetDefault("LEDGER_FILE", "archivesCSV/tradebook.csv")
	v.SetDefault("SNAPSHOT_DIR", "archivesCSV/snapshots")
	v.SetDefault("BASE_CURRENCY", tradebook.DefaultBaseCurrency)
	v.SetDefault("DUST_THRESHOLD", "0.001")
	v.SetDefault("OVERSELL_POLICY", "lenient")
	v.SetDefault("EXACT_LOTS", false)
	v.SetDefault("FIRST_SNAPSHOT_YEAR", 0)
	v.SetDefault("PRICE_TIMEOUT", "10s")
	v.SetDefault("PRICE_PARALLEL", 8)
	v.SetDefault("PRICE_RATE", 2.0)
	v.SetDefault("PRICE_CACHE_TTL", "15m")
	v.SetDefault("BACKUP_PRICES_FILE", "archivesCSV/backupPrices.csv")
	v.SetDefault("FALLBACK_USD_INR_RATE", "90")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		_ = v.ReadInConfig() // ignore error if no .env
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var errs []error
	dec := func(key string) decimal.Decimal {
		d, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	dur := func(key string) time.Duration {
		d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	c := Config{
		Ledger: LedgerConfig{
			Globs:           splitList(v.GetString("LEDGER_GLOB")),
			File:            v.GetString("LEDGER_FILE"),
			BaseCurrency:    strings.ToUpper(v.GetString("BASE_CURRENCY")),
			DustThreshold:   dec("DUST_THRESHOLD"),
			OversellPolicy:  v.GetString("OVERSELL_POLICY"),
			FallbackUSDRate: dec("FALLBACK_USD_INR_RATE"),
		},
		Snapshot: SnapshotConfig{
			Dir:       v.GetString("SNAPSHOT_DIR"),
			FirstYear: v.GetInt("FIRST_SNAPSHOT_YEAR"),
			ExactLots: v.GetBool("EXACT_LOTS"),
		},
		Price: PriceConfig{
			Timeout:    dur("PRICE_TIMEOUT"),
			Parallel:   v.GetInt("PRICE_PARALLEL"),
			Rate:       v.GetFloat64("PRICE_RATE"),
			CacheTTL:   dur("PRICE_CACHE_TTL"),
			BackupFile: v.GetString("BACKUP_PRICES_FILE"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
		},
	}
	if len(errs) > 0 {
		return c, errors.Join(errs...)
	}
	return c, c.validate()
}

// validate reports every invalid field at once.
func (c Config) validate() error {
	var invalid []string
	if len(c.Ledger.Globs) == 0 && c.Ledger.File == "" {
		invalid = append(invalid, "LEDGER_GLOB")
	}
	if c.Snapshot.Dir == "" {
		invalid = append(invalid, "SNAPSHOT_DIR")
	}
	if len(c.Ledger.BaseCurrency) != 3 {
		invalid = append(invalid, "BASE_CURRENCY")
	}
	if c.Ledger.DustThreshold.IsNegative() {
		invalid = append(invalid, "DUST_THRESHOLD")
	}
	if _, err := tradebook.ParseOversellPolicy(c.Ledger.OversellPolicy); err != nil {
		invalid = append(invalid, "OVERSELL_POLICY")
	}
	if c.Price.Timeout < 0 {
		invalid = append(invalid, "PRICE_TIMEOUT")
	}
	if c.Price.Parallel < 0 {
		invalid = append(invalid, "PRICE_PARALLEL")
	}
	if c.Price.Rate < 0 {
		invalid = append(invalid, "PRICE_RATE")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// Options returns the accounting options.
func (c Config) Options() tradebook.Options {
	policy, _ := tradebook.ParseOversellPolicy(c.Ledger.OversellPolicy)
	return tradebook.Options{
		BaseCurrency:  c.Ledger.BaseCurrency,
		DustThreshold: tradebook.Q(c.Ledger.DustThreshold),
		Oversell:      policy,
		ExactLots:     c.Snapshot.ExactLots,
	}
}

// Rates returns the exchange rates for ledger rows without one.
func (c Config) Rates() tradebook.RateProvider {
	return tradebook.DefaultRates(c.Ledger.BaseCurrency, c.Ledger.FallbackUSDRate)
}

// Fetch returns the price fetching bounds.
func (c Config) Fetch() tradebook.FetchOptions {
	return tradebook.FetchOptions{Timeout: c.Price.Timeout, Parallel: c.Price.Parallel}
}

func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
