package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/moldyngo/internal/app"
	"github.com/specialistvlad/moldyngo/internal/ledger"
)

// Exit codes used by the command.
const (
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("moldyngo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
moldyngo - score a batch of molecules with a pluggable objective.

Usage:
  moldyngo -config OBJECTIVE.hcl [options] [MOLECULE_ID ...]

Arguments:
  MOLECULE_ID
    Molecule identifiers to score, in addition to those read from -ids.

The resulting scores are printed to stdout as a JSON object; molecules that
could not be scored are null.

Options:
`)
		flagSet.PrintDefaults()
	}

	objectiveFlag := flagSet.String("objective", "moldynam", "Objective kind. Options: 'moldynam', 'lookup'.")
	configFlag := flagSet.String("config", "", "Path to the objective configuration file (HCL).")
	cFlag := flagSet.String("c", "", "Path to the objective configuration file (shorthand).")
	minimizeFlag := flagSet.Bool("minimize", true, "Negate raw metric values so that higher scores are better.")
	iterationFlag := flagSet.Int("iteration", 0, "Active-learning iteration number; names the batch log.")
	outputDirFlag := flagSet.String("output-dir", ".", "Directory batch logs are written under.")
	idsFlag := flagSet.String("ids", "", "File with one molecule id per line.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	ledgerDriverFlag := flagSet.String("ledger-driver", "", "Record scores in a ledger. Options: "+ledger.Drivers()+".")
	ledgerDSNFlag := flagSet.String("ledger-dsn", "", "Ledger data source: a file path for sqlite, a URL for postgres.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = *cFlag
	}
	if configPath == "" {
		flagSet.Usage()
		return nil, false, &ExitError{Code: ExitUsage, Message: "missing required flag: -config"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		Objective:       strings.ToLower(*objectiveFlag),
		ConfigPath:      configPath,
		Minimize:        *minimizeFlag,
		Iteration:       *iterationFlag,
		OutputDir:       *outputDirFlag,
		IDsPath:         *idsFlag,
		IDs:             flagSet.Args(),
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		LedgerDriver:    strings.ToLower(*ledgerDriverFlag),
		LedgerDSN:       *ledgerDSNFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return config, false, nil
}
