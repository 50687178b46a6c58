package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/specialistvlad/moldyngo/internal/ctxlog"
	"github.com/specialistvlad/moldyngo/internal/ledger"
	"github.com/specialistvlad/moldyngo/internal/objective"
	"github.com/specialistvlad/moldyngo/internal/registry"
)

// Run constructs the configured objective, scores one batch, writes the
// ScoreMap as JSON to the output writer, and records it in the ledger when
// one is configured.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer func() { _ = a.closeHealthCheckServer() }()

	ids, err := a.readIDs()
	if err != nil {
		return err
	}

	var store *ledger.Store
	if a.config.LedgerDriver != "" {
		store, err = ledger.Open(ctx, a.config.LedgerDriver, a.config.LedgerDSN)
		if err != nil {
			return fmt.Errorf("failed to open score ledger: %w", err)
		}
		defer store.Close()
	}

	kind := registry.Kind(a.config.Objective)
	obj, err := a.registry.New(ctx, kind, a.config.ConfigPath, registry.Options{
		Minimize: a.config.Minimize,
		Loader:   a.loader,
		Metrics:  a.metrics,
	})
	if err != nil {
		return err
	}

	a.logger.Info("Scoring batch.", "objective", kind, "molecules", len(ids), "iteration", a.config.Iteration)
	scores, err := obj.Forward(ctx, ids, objective.RunContext{
		Iteration: a.config.Iteration,
		OutputDir: a.config.OutputDir,
	})
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	present, missing := scores.Counts()
	a.logger.Info("Batch scored.", "scored", present, "missing", missing)

	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	if err := enc.Encode(scores); err != nil {
		return fmt.Errorf("failed to write scores: %w", err)
	}

	if store != nil {
		if err := store.Record(ctx, string(kind), a.config.Iteration, scores); err != nil {
			return fmt.Errorf("failed to record scores: %w", err)
		}
		a.logger.Debug("Scores recorded in ledger.", "driver", a.config.LedgerDriver)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// readIDs merges ids from the ids file (one per line, blank lines and lines
// starting with '#' skipped) with the ids given as arguments.
func (a *App) readIDs() ([]string, error) {
	var ids []string
	if a.config.IDsPath != "" {
		f, err := os.Open(a.config.IDsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open ids file: %w", err)
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			ids = append(ids, line)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("failed to read ids file: %w", err)
		}
	}
	return append(ids, a.config.IDs...), nil
}
