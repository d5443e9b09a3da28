package quote

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
)

func writeBackup(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backupPrices.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBackup_Quote(t *testing.T) {
	path := writeBackup(t, "Ticker,Date,Closing Price\n"+
		"TCS.NS,2024-01-01,3400\n"+
		"TCS.NS,2024-01-03,3500\n"+
		"TCS.NS,2024-01-02,3450\n"+
		"INFY.NS,2024-01-02,1500\n"+
		"BAD,2024-01-02,n/a\n"+
		"BAD,someday,10\n")
	b := NewBackup(path)

	tests := []struct {
		ticker      string
		price, prev int64
	}{
		{"TCS.NS", 3500, 3450},
		{"INFY.NS", 1500, 1500},
	}
	for _, tc := range tests {
		t.Run(tc.ticker, func(t *testing.T) {
			q, err := b.Quote(context.Background(), tradebook.Instrument{Ticker: tc.ticker})
			if err != nil {
				t.Fatalf("Quote() error = %v", err)
			}
			if !q.Price.Equal(decimal.NewFromInt(tc.price)) || !q.PreviousClose.Equal(decimal.NewFromInt(tc.prev)) {
				t.Errorf("Quote() = %v / %v, want %d / %d", q.Price, q.PreviousClose, tc.price, tc.prev)
			}
			if q.Source != "cached" {
				t.Errorf("Source = %q, want cached", q.Source)
			}
		})
	}

	if _, err := b.Quote(context.Background(), tradebook.Instrument{Ticker: "BAD"}); !errors.Is(err, tradebook.ErrNoPrice) {
		t.Errorf("Quote(BAD) error = %v, want %v", err, tradebook.ErrNoPrice)
	}
}

func TestBackup_LegacyLayout(t *testing.T) {
	b := NewBackup(writeBackup(t, "Ticker,Current Price\nTCS.NS,3500\n"))
	q, err := b.Quote(context.Background(), tradebook.Instrument{Ticker: "TCS.NS"})
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if want := decimal.NewFromInt(3500); !q.Price.Equal(want) {
		t.Errorf("Price = %v, want %v", q.Price, want)
	}
}

func TestBackup_RecordSave(t *testing.T) {
	path := writeBackup(t, "Ticker,Date,Closing Price\nTCS.NS,2024-01-01,3400\n")
	b := NewBackup(path)
	if err := b.Record("TCS.NS", date.New(2024, 1, 2), decimal.NewFromInt(3450)); err != nil {
		t.Fatal(err)
	}
	if err := b.Record("TCS.NS", date.New(2024, 1, 1), decimal.NewFromInt(3410)); err != nil {
		t.Fatal(err)
	}
	if err := b.Record("AAPL", date.New(2024, 1, 2), decimal.RequireFromString("185.5")); err != nil {
		t.Fatal(err)
	}
	if err := b.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "Ticker,Date,Closing Price\n" +
		"AAPL,2024-01-02,185.5\n" +
		"TCS.NS,2024-01-02,3450\n" +
		"TCS.NS,2024-01-01,3410\n"
	if string(got) != want {
		t.Errorf("saved backup:\n%s\nwant:\n%s", got, want)
	}

	// nothing recorded, nothing written.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := NewBackup(path).Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Save() without record wrote %s", path)
	}
}

func TestBackup_Corrupt(t *testing.T) {
	b := NewBackup(writeBackup(t, "Symbol,Price\nTCS.NS,3500\n"))
	if _, err := b.Quote(context.Background(), tradebook.Instrument{Ticker: "TCS.NS"}); err == nil {
		t.Errorf("Quote() error = nil, want a load error")
	}
}
