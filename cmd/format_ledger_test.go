package cmd

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
)

// workspace is a temporary tbk setup with its files.
type workspace struct {
	dir       string
	book      string
	snapshots string
}

// setupWorkspace points the configuration to a temporary directory and writes
// the raw trade files in it.
func setupWorkspace(t *testing.T, files map[string]string) workspace {
	t.Helper()
	w := workspace{dir: t.TempDir()}
	w.book = filepath.Join(w.dir, "tradebook.csv")
	w.snapshots = filepath.Join(w.dir, "snapshots")
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(w.dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	t.Setenv("TRADEBOOK_LEDGER_GLOB", filepath.Join(w.dir, "trades*.csv"))
	t.Setenv("TRADEBOOK_LEDGER_FILE", w.book)
	t.Setenv("TRADEBOOK_SNAPSHOT_DIR", w.snapshots)
	t.Setenv("TRADEBOOK_BACKUP_PRICES_FILE", filepath.Join(w.dir, "backupPrices.csv"))
	t.Setenv("TRADEBOOK_LOG_LEVEL", "off")

	oldEnvFile, oldRaw := envFile, raw
	empty, yes := "", true
	envFile, raw = &empty, &yes
	t.Cleanup(func() { envFile, raw = oldEnvFile, oldRaw })
	return w
}

func execute(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("invalid flags %v: %v", args, err)
	}
	return cmd.Execute(context.Background(), f)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(content)
}

func TestFormatLedger(t *testing.T) {
	w := setupWorkspace(t, map[string]string{
		"tradebook.csv": `date,ticker,type,qty,price,currency
2024-03-01,TCS.NS,sell,5,150,inr
2024-01-02,TCS.NS,b,10,100,INR
2024-03-01,TCS.NS,Buy,1,149,INR
`,
	})
	want := `Date,Ticker,Country,Type,Qty,Price,Currency,Exchange_Rate,Is_SGB
2024-01-02,TCS.NS,,BUY,10,100,INR,1,false
2024-03-01,TCS.NS,,BUY,1,149,INR,1,false
2024-03-01,TCS.NS,,SELL,5,150,INR,1,false
`

	if status := execute(t, &formatLedgerCmd{}); status != subcommands.ExitSuccess {
		t.Fatalf("format-ledger = %v, want ExitSuccess", status)
	}
	if got := readFile(t, w.book); got != want {
		t.Errorf("format-ledger output mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}
}

func TestFormatLedgerToFileOutput(t *testing.T) {
	original := `Date,Ticker,Type,Qty,Price
2024-01-02,TCS.NS,BUY,10,100
`
	w := setupWorkspace(t, map[string]string{"tradebook.csv": original})
	out := filepath.Join(w.dir, "out", "formatted.csv")

	if status := execute(t, &formatLedgerCmd{}, "-o", out); status != subcommands.ExitSuccess {
		t.Fatalf("format-ledger = %v, want ExitSuccess", status)
	}
	if got := readFile(t, w.book); got != original {
		t.Errorf("format-ledger -o modified the tradebook:\n%s", got)
	}
	if got := readFile(t, out); !strings.HasPrefix(got, "Date,Ticker,Country,Type") {
		t.Errorf("format-ledger -o output:\n%s", got)
	}
}

func TestConsolidate(t *testing.T) {
	w := setupWorkspace(t, map[string]string{
		"trades1.csv": `Date,Ticker,Type,Qty,Price
2024-01-02,TCS.NS,buy,10,100
2024-03-01,TCS.NS,sell,5,150
`,
		"trades2.csv": `Date,Ticker,Type,Qty,Price,Currency
2024-02-01,AAPL,BUY,2,180.5,USD
`,
		"SGBs.csv": `Date,Ticker,Type,Qty,Price
2024-01-01,SGBAUG28,BUY,1,5000
`,
	})
	want := `Date,Ticker,Country,Type,Qty,Price,Currency,Exchange_Rate,Is_SGB
2024-01-02,TCS.NS,,BUY,10,100,INR,1,false
2024-02-01,AAPL,,BUY,2,180.5,USD,90,false
2024-03-01,TCS.NS,,SELL,5,150,INR,1,false
`

	if status := execute(t, &consolidateCmd{}); status != subcommands.ExitSuccess {
		t.Fatalf("consolidate = %v, want ExitSuccess", status)
	}
	if got := readFile(t, w.book); got != want {
		t.Errorf("consolidate output mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}
}

func TestConsolidateNoFile(t *testing.T) {
	setupWorkspace(t, nil)
	if status := execute(t, &consolidateCmd{}); status != subcommands.ExitFailure {
		t.Errorf("consolidate = %v, want ExitFailure", status)
	}
}
