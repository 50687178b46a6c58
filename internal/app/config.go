package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/moldyngo/internal/ledger"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Objective  string // registry kind
	ConfigPath string // objective configuration file
	Minimize   bool

	Iteration int
	OutputDir string

	IDsPath string   // file with one molecule id per line
	IDs     []string // ids given on the command line

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	LedgerDriver string
	LedgerDSN    string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Objective == "" {
		return nil, errors.New("Objective is a required configuration field and cannot be empty")
	}
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.Iteration < 0 {
		return nil, fmt.Errorf("Iteration must not be negative, got %d", cfg.Iteration)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if (cfg.LedgerDriver == "") != (cfg.LedgerDSN == "") {
		return nil, errors.New("LedgerDriver and LedgerDSN must be set together")
	}
	if cfg.LedgerDriver != "" && cfg.LedgerDriver != ledger.DriverSQLite && cfg.LedgerDriver != ledger.DriverPostgres {
		return nil, fmt.Errorf("LedgerDriver must be one of: %s", ledger.Drivers())
	}
	return &cfg, nil
}
