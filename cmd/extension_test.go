package cmd

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/etnz/tradebook/config"
	"github.com/google/subcommands"
)

func TestKnown(t *testing.T) {
	c := subcommands.NewCommander(flag.NewFlagSet("tbk", flag.ContinueOnError), "tbk")
	Register(c)
	for _, name := range []string{"summary", "holdings", "status", "snapshot", "rebuild", "verify", "consolidate"} {
		if !Known(c, name) {
			t.Errorf("Known(%q) = false, want true", name)
		}
	}
	if Known(c, "hello") {
		t.Errorf("Known(hello) = true, want false")
	}
}

func TestExtensionEnv(t *testing.T) {
	t.Setenv("TRADEBOOK_LEDGER_FILE", "book.csv")
	t.Setenv("TRADEBOOK_SNAPSHOT_DIR", "snaps")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	env := extensionEnv(cfg)
	for _, want := range []string{EnvLedgerFile + "=book.csv", EnvSnapshotDir + "=snaps", EnvBaseCurrency + "=INR", EnvRaw + "=false"} {
		if !slices.Contains(env, want) {
			t.Errorf("extensionEnv() = %v, missing %q", env, want)
		}
	}
}

func TestRunExtension(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script extensions")
	}
	tempDir := t.TempDir()
	out := filepath.Join(tempDir, "out.txt")
	script := "#!/bin/sh\necho \"$TRADEBOOK_LEDGER_FILE $1\" > " + out + "\nexit 3\n"
	if err := os.WriteFile(filepath.Join(tempDir, "tbk-hello"), []byte(script), 0o755); err != nil {
		t.Fatalf("Failed to write extension: %v", err)
	}
	t.Setenv("PATH", tempDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("TRADEBOOK_LEDGER_FILE", "book.csv")

	oldEnvFile := envFile
	empty := ""
	envFile = &empty
	defer func() { envFile = oldEnvFile }()

	found, code := RunExtension("hello", []string{"world"})
	if !found {
		t.Fatalf("RunExtension() found = false, want true")
	}
	if code != 3 {
		t.Errorf("RunExtension() exit code = %d, want 3", code)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("extension did not run: %v", err)
	}
	if want := "book.csv world\n"; string(got) != want {
		t.Errorf("extension output = %q, want %q", got, want)
	}

	if found, _ := RunExtension("missing-extension", nil); found {
		t.Errorf("RunExtension(missing) found = true, want false")
	}
}
