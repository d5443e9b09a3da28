package tradebook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
)

var ledgerHeader = []string{"Date", "Ticker", "Country", "Type", "Qty", "Price", "Currency", "Exchange_Rate", "Is_SGB"}

// required ledger columns, matched case-insensitively.
var requiredColumns = []string{"date", "ticker", "type", "qty", "price"}

// DecodeLedger decodes trades from a CSV stream with a header row.
//
// name is the file name the stream comes from, used to locate anomalies and to
// infer bond-like instruments when it contains "SGB". Rows without an
// Exchange_Rate get one from rates. Malformed rows are skipped and reported as
// anomalies; a missing required column is an error.
func DecodeLedger(r io.Reader, name string, rates RateProvider) (*Ledger, []Anomaly, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return NewLedger(), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: cannot read header: %w", name, err)
	}
	col := make(map[string]int)
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, h := range requiredColumns {
		if _, ok := col[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%s: missing columns %s", name, strings.Join(missing, ", "))
	}

	sgbFile := strings.Contains(strings.ToUpper(filepath.Base(name)), "SGB")
	var (
		trades    []Trade
		anomalies []Anomaly
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				anomalies = append(anomalies, Anomaly{Kind: MalformedRow, Source: name, Line: perr.Line, Detail: perr.Err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("%s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		get := func(h string) string {
			i, ok := col[h]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if slices.IndexFunc(rec, func(s string) bool { return strings.TrimSpace(s) != "" }) < 0 {
			continue // blank line
		}

		t, hasRate, err := decodeTrade(get, sgbFile)
		t.Source, t.Line = name, line
		if err == nil {
			err = t.Validate()
		}
		if err != nil {
			anomalies = append(anomalies, Anomaly{Kind: MalformedRow, Instrument: t.Instrument, Date: t.Date, Source: name, Line: line, Detail: err.Error()})
			continue
		}
		if !hasRate {
			if a, ok := fillRate(rates, &t); ok {
				anomalies = append(anomalies, a)
			}
		}
		trades = append(trades, t)
	}
	return NewLedger(trades...), anomalies, nil
}

// decodeTrade reads one row through get.
func decodeTrade(get func(string) string, sgbFile bool) (t Trade, hasRate bool, err error) {
	var errs []error
	t.Instrument = get("ticker")
	t.Country = get("country")
	t.Currency = strings.ToUpper(get("currency"))
	if t.Currency == "" {
		t.Currency = DefaultBaseCurrency
	}
	if t.Date, err = date.Parse(get("date")); err != nil {
		errs = append(errs, err)
	}
	if t.Side, err = ParseSide(get("type")); err != nil {
		errs = append(errs, err)
	}
	if t.Quantity, err = ParseQuantity(get("qty")); err != nil {
		errs = append(errs, fmt.Errorf("invalid quantity %q", get("qty")))
	}
	if t.Price, err = decimal.NewFromString(get("price")); err != nil {
		errs = append(errs, fmt.Errorf("invalid price %q", get("price")))
	}
	if s := get("exchange_rate"); s != "" {
		if t.FxRate, err = decimal.NewFromString(s); err != nil {
			errs = append(errs, fmt.Errorf("invalid exchange rate %q", s))
		}
		hasRate = err == nil && t.FxRate.IsPositive()
	}
	t.BondLike = sgbFile
	if s := get("is_sgb"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			t.BondLike = b
		} else {
			t.BondLike = strings.EqualFold(s, "yes") || strings.EqualFold(s, "y")
		}
	}
	return t, hasRate, errors.Join(errs...)
}

// DecodeLedgerFile decodes a single ledger CSV file.
func DecodeLedgerFile(path string, rates RateProvider) (*Ledger, []Anomaly, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load error: %w", err)
	}
	defer f.Close()
	return DecodeLedger(f, filepath.Base(path), rates)
}

// DecodeLedgerFiles decodes and merges every file matching any of the glob
// patterns. Files are read in name order, trades keep their per file order
// within a day. No matching file is an error wrapping fs.ErrNotExist.
func DecodeLedgerFiles(rates RateProvider, patterns ...string) (*Ledger, []Anomaly, error) {
	var files []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid ledger pattern %q: %w", p, err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	files = slices.Compact(files)
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no ledger file matching %s: %w", strings.Join(patterns, ", "), fs.ErrNotExist)
	}

	ledger := NewLedger()
	var anomalies []Anomaly
	for _, file := range files {
		l, a, err := DecodeLedgerFile(file, rates)
		if err != nil {
			return nil, nil, err
		}
		ledger.Append(l.trades...)
		anomalies = append(anomalies, a...)
	}
	return ledger, anomalies, nil
}

// EncodeLedger writes the ledger as CSV in processing order, with every
// exchange rate filled.
func EncodeLedger(w io.Writer, l *Ledger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerHeader); err != nil {
		return err
	}
	for _, t := range l.trades {
		err := cw.Write([]string{
			t.Date.String(),
			t.Instrument,
			t.Country,
			t.Side.String(),
			t.Quantity.String(),
			t.Price.String(),
			t.Currency,
			t.FxRate.String(),
			strconv.FormatBool(t.BondLike),
		})
		if err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeLedgerFile writes the ledger to path, replacing it atomically.
func EncodeLedgerFile(path string, l *Ledger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	if err := writeFile(path, func(w io.Writer) error { return EncodeLedger(w, l) }); err != nil {
		return fmt.Errorf("persist error: cannot write %q: %w", path, err)
	}
	return nil
}
