package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got, want := c.Ledger.Globs, []string{"archivesCSV/trades*.csv", "archivesCSV/SGBs.csv"}; !cmp.Equal(got, want) {
		t.Errorf("Ledger.Globs mismatch (-got +want):\n%s", cmp.Diff(got, want))
	}
	if got, want := c.Ledger.BaseCurrency, "INR"; got != want {
		t.Errorf("BaseCurrency = %q, want %q", got, want)
	}
	if got, want := c.Price.Timeout, 10*time.Second; got != want {
		t.Errorf("Price.Timeout = %v, want %v", got, want)
	}
	if got, want := c.Ledger.FallbackUSDRate.String(), "90"; got != want {
		t.Errorf("FallbackUSDRate = %s, want %s", got, want)
	}

	opts := c.Options()
	if opts.Oversell != tradebook.Lenient || opts.ExactLots {
		t.Errorf("Options() = %+v, want lenient without exact lots", opts)
	}
	if got, want := opts.DustThreshold.String(), "0.001"; got != want {
		t.Errorf("DustThreshold = %s, want %s", got, want)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TRADEBOOK_SNAPSHOT_DIR", "/tmp/snaps")
	t.Setenv("TRADEBOOK_OVERSELL_POLICY", "strict")
	t.Setenv("TRADEBOOK_EXACT_LOTS", "true")
	t.Setenv("TRADEBOOK_PRICE_PARALLEL", "3")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got, want := c.Snapshot.Dir, "/tmp/snaps"; got != want {
		t.Errorf("Snapshot.Dir = %q, want %q", got, want)
	}
	opts := c.Options()
	if opts.Oversell != tradebook.Strict || !opts.ExactLots {
		t.Errorf("Options() = %+v, want strict with exact lots", opts)
	}
	if got, want := c.Fetch().Parallel, 3; got != want {
		t.Errorf("Fetch().Parallel = %d, want %d", got, want)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	env := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(env, []byte("BASE_CURRENCY=usd\nFIRST_SNAPSHOT_YEAR=2022\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(env)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got, want := c.Ledger.BaseCurrency, "USD"; got != want {
		t.Errorf("BaseCurrency = %q, want %q", got, want)
	}
	if got, want := c.Snapshot.FirstYear, 2022; got != want {
		t.Errorf("FirstYear = %d, want %d", got, want)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("TRADEBOOK_OVERSELL_POLICY", "sometimes")
	t.Setenv("TRADEBOOK_BASE_CURRENCY", "RUPEE")

	_, err := Load("")
	if err == nil {
		t.Fatal("Load() expected an error")
	}
	for _, key := range []string{"OVERSELL_POLICY", "BASE_CURRENCY"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("TRADEBOOK_PRICE_TIMEOUT", "soon")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "PRICE_TIMEOUT") {
		t.Errorf("Load() error = %v, want a PRICE_TIMEOUT error", err)
	}
}

func TestRates(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	rates := c.Rates()
	if r, ok := rates.Rate("INR", date.Today()); !ok || r.String() != "1" {
		t.Errorf("Rate(INR) = %v, %v, want 1, true", r, ok)
	}
	if r, ok := rates.Rate("USD", date.Today()); !ok || r.String() != "90" {
		t.Errorf("Rate(USD) = %v, %v, want 90, true", r, ok)
	}
	if _, ok := rates.Rate("EUR", date.Today()); ok {
		t.Errorf("Rate(EUR) should be unknown")
	}
}
