package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/etnz/tradebook/config"
	"github.com/etnz/tradebook/logger"
	"github.com/google/subcommands"
)

// Environment passed to extensions, with the resolved configuration.
const (
	EnvEnvFile      = config.EnvPrefix + "_ENV_FILE"
	EnvLedgerFile   = config.EnvPrefix + "_LEDGER_FILE"
	EnvSnapshotDir  = config.EnvPrefix + "_SNAPSHOT_DIR"
	EnvBaseCurrency = config.EnvPrefix + "_BASE_CURRENCY"
	EnvRaw          = config.EnvPrefix + "_RAW"
)

// Known tells whether name is a subcommand registered in c.
func Known(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		if cmd.Name() == name {
			found = true
		}
	})
	return found
}

// RunExtension attempts to find and execute an external tbk-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found or executed.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "tbk-" + subcommand

	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		logger.L().Debug().Err(err).Str("extension", externalCmdName).Msg("extension not found in PATH")
		return false, 0
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return true, int(subcommands.ExitUsageError)
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), extensionEnv(cfg)...)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}
	return true, 0
}

// extensionEnv returns the global settings as environment variables.
func extensionEnv(cfg config.Config) []string {
	return []string{
		EnvEnvFile + "=" + *envFile,
		EnvLedgerFile + "=" + cfg.Ledger.File,
		EnvSnapshotDir + "=" + cfg.Snapshot.Dir,
		EnvBaseCurrency + "=" + cfg.Ledger.BaseCurrency,
		EnvRaw + "=" + strconv.FormatBool(*raw),
	}
}
