package tradebook

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// cmpIgnoreLocation ignores where trades were read from.
var cmpIgnoreLocation = cmpopts.IgnoreFields(Trade{}, "Source", "Line")

func TestDecodeLedger(t *testing.T) {
	input := "\ufeffDate, Ticker, Country, Type, Qty, Price, Currency, Exchange_Rate\n" +
		"2023-01-02,TCS.NS,IN,BUY,10,3300.5,INR,\n" +
		"2023-01-03,AAPL,US,buy,2,150,USD,\n" +
		"2023-01-04,SAP,DE,BUY,1,120,EUR,\n" +
		"2023-01-05,MSFT,US,SELL,-1,300,USD,82\n" +
		"\n" +
		"not-a-date,INFY.NS,IN,BUY,1,1500,INR,1\n" +
		"2023-01-06,INFY.NS,IN,HOLD,1,1500,INR,1\n" +
		"2023-01-02,TCS.NS,IN,SELL,4,3400,INR,1\n"

	l, anomalies, err := DecodeLedger(strings.NewReader(input), "trades1.csv", DefaultRates("INR", D(83)))
	if err != nil {
		t.Fatalf("DecodeLedger() error = %v", err)
	}
	if got, want := l.Len(), 4; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}

	trades := l.Trades()
	// buys come first on the same day.
	if got := trades[0]; got.Instrument != "TCS.NS" || got.Side != Buy || got.Line != 2 {
		t.Errorf("trades[0] = %v %v line %d, want the TCS.NS buy of line 2", got.Instrument, got.Side, got.Line)
	}
	if got := trades[1]; got.Side != Sell || got.Line != 9 {
		t.Errorf("trades[1] = %v line %d, want the TCS.NS sell of line 9", got.Side, got.Line)
	}
	if got, want := trades[2].FxRate, D(83); !got.Equal(want) {
		t.Errorf("AAPL exchange rate = %v, want %v", got, want)
	}
	if got, want := trades[3].FxRate, D(1); !got.Equal(want) {
		t.Errorf("SAP exchange rate = %v, want %v", got, want)
	}
	if got, want := trades[0].Source, "trades1.csv"; got != want {
		t.Errorf("Source = %q, want %q", got, want)
	}

	var kinds []string
	for _, a := range anomalies {
		kinds = append(kinds, fmt.Sprintf("%s@%s:%d", a.Kind, a.Source, a.Line))
	}
	want := []string{
		"missing-fx-rate@trades1.csv:4",
		"malformed-row@trades1.csv:5",
		"malformed-row@trades1.csv:7",
		"malformed-row@trades1.csv:8",
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("anomalies mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeLedger_MissingColumn(t *testing.T) {
	_, _, err := DecodeLedger(strings.NewReader("Date,Ticker,Qty,Price\n"), "bad.csv", nil)
	if err == nil || !strings.Contains(err.Error(), "type") {
		t.Errorf("DecodeLedger() error = %v, want a missing type column", err)
	}
}

func TestDecodeLedger_Empty(t *testing.T) {
	l, anomalies, err := DecodeLedger(strings.NewReader(""), "empty.csv", nil)
	if err != nil || l.Len() != 0 || len(anomalies) != 0 {
		t.Errorf("DecodeLedger(empty) = %d trades, %v, %v", l.Len(), anomalies, err)
	}
}

func TestDecodeLedger_BondLike(t *testing.T) {
	input := "Date,Ticker,Type,Qty,Price,Is_SGB\n" +
		"2023-01-02,SGBAUG28,BUY,2,5000,\n" +
		"2023-01-02,GOLDBEES,BUY,2,50,no\n" +
		"2023-01-02,SGBMAR29,BUY,2,5100,yes\n"

	tests := []struct {
		file string
		want []bool // in ledger order: SGBAUG28, GOLDBEES, SGBMAR29
	}{
		{"trades_SGB.csv", []bool{true, false, true}},
		{"trades1.csv", []bool{false, false, true}},
	}
	for _, tc := range tests {
		t.Run(tc.file, func(t *testing.T) {
			l, _, err := DecodeLedger(strings.NewReader(input), tc.file, nil)
			if err != nil {
				t.Fatal(err)
			}
			var got []bool
			for tr := range l.All() {
				got = append(got, tr.BondLike)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("BondLike mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeLedgerFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"trades1.csv":    "Date,Ticker,Type,Qty,Price\n2023-02-01,TCS.NS,SELL,1,110\n",
		"trades2.csv":    "Date,Ticker,Type,Qty,Price\n2023-01-01,TCS.NS,BUY,2,100\n",
		"trades_SGB.csv": "Date,Ticker,Type,Qty,Price\n2023-03-01,SGBAUG28,BUY,1,5000\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	l, anomalies, err := DecodeLedgerFiles(BaseRate("INR"), filepath.Join(dir, "trades*.csv"), filepath.Join(dir, "trades1.csv"))
	if err != nil {
		t.Fatalf("DecodeLedgerFiles() error = %v", err)
	}
	if len(anomalies) != 0 {
		t.Errorf("anomalies = %v, want none", anomalies)
	}
	if got, want := l.Len(), 3; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	if got, want := l.First(), day("2023-01-01"); got != want {
		t.Errorf("First() = %v, want %v", got, want)
	}
	if got, want := l.Instruments(), []string{"SGBAUG28", "TCS.NS"}; !cmp.Equal(got, want) {
		t.Errorf("Instruments() = %v, want %v", got, want)
	}

	if _, _, err := DecodeLedgerFiles(nil, filepath.Join(dir, "none*.csv")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("DecodeLedgerFiles(none) error = %v, want %v", err, fs.ErrNotExist)
	}
}

func TestEncodeLedger(t *testing.T) {
	b := buy("2023-01-02", "AAPL", 2, 150.25)
	b.Country, b.Currency, b.FxRate = "US", "USD", D(82.5)
	l := NewLedger(sell("2023-01-03", "TCS.NS", 1, 3400), b)

	var buf bytes.Buffer
	if err := EncodeLedger(&buf, l); err != nil {
		t.Fatalf("EncodeLedger() error = %v", err)
	}
	want := "Date,Ticker,Country,Type,Qty,Price,Currency,Exchange_Rate,Is_SGB\n" +
		"2023-01-02,AAPL,US,BUY,2,150.25,USD,82.5,false\n" +
		"2023-01-03,TCS.NS,,SELL,1,3400,INR,1,false\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("EncodeLedger() mismatch (-want +got):\n%s", diff)
	}

	// the encoded ledger decodes back to the same trades.
	back, anomalies, err := DecodeLedger(&buf, "ledger.csv", nil)
	if err != nil || len(anomalies) != 0 {
		t.Fatalf("DecodeLedger() = %v, %v", anomalies, err)
	}
	if diff := cmp.Diff(l.Trades(), back.Trades(), equateDates, cmpIgnoreLocation); diff != "" {
		t.Errorf("decoded ledger mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeLedgerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "ledger.csv")
	if err := EncodeLedgerFile(path, NewLedger(buy("2023-01-02", "TCS.NS", 1, 10))); err != nil {
		t.Fatalf("EncodeLedgerFile() error = %v", err)
	}
	l, _, err := DecodeLedgerFile(path, nil)
	if err != nil {
		t.Fatalf("DecodeLedgerFile() error = %v", err)
	}
	if got, want := l.Len(), 1; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
	if _, _, err := DecodeLedgerFile(filepath.Join(t.TempDir(), "missing.csv"), nil); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("DecodeLedgerFile(missing) error = %v, want %v", err, fs.ErrNotExist)
	}
}
