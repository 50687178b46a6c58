// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package moldynam

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/moldyngo/internal/archive"
	"github.com/specialistvlad/moldyngo/internal/ctxlog"
	"github.com/specialistvlad/moldyngo/internal/driver"
	"github.com/specialistvlad/moldyngo/internal/harvest"
	"github.com/specialistvlad/moldyngo/internal/hcl_adapter"
	"github.com/specialistvlad/moldyngo/internal/logsink"
	"github.com/specialistvlad/moldyngo/internal/metrics"
	"github.com/specialistvlad/moldyngo/internal/objective"
	"github.com/specialistvlad/moldyngo/internal/registry"
	"github.com/specialistvlad/moldyngo/internal/workspace"
)

const kind = string(registry.KindMoldynam)

// archiver stores a finished batch log somewhere durable.
type archiver interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// Objective scores molecules by running the molecular-dynamics batch driver
// over their workspaces and reading back one result file per workspace.
type Objective struct {
	// mu serialises Forward; the manifest is a single shared file.
	mu sync.Mutex

	cfg       *resolved
	index     *workspace.Index
	invoker   *driver.Invoker
	harvester *harvest.Harvester
	metrics   *metrics.Recorder
	archiver  archiver
}

var _ objective.Objective = (*Objective)(nil)

// New loads the configuration at path, checks the driver script, and indexes
// the workspace root. All failures are reported as *config.Error.
func New(ctx context.Context, path string, opts registry.Options) (*Objective, error) {
	logger := ctxlog.FromContext(ctx).With("objective", kind)

	loader := opts.Loader
	if loader == nil {
		loader = hcl_adapter.NewLoader()
	}
	cfg := DefaultConfig()
	if err := loader.Load(ctx, path, &cfg); err != nil {
		return nil, err
	}
	res, err := cfg.resolve(path)
	if err != nil {
		return nil, err
	}

	index, err := workspace.Build(ctx, res.root, workspace.Options{
		Pattern:        res.WorkspacePattern,
		IdentifierFile: res.IdentifierFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Found molecules in workspace root.", "molecules", index.Len(), "root", res.root)

	o := &Objective{
		cfg:   res,
		index: index,
		invoker: &driver.Invoker{
			Script:       res.scriptPath,
			Shell:        res.Shell,
			ManifestPath: res.manifestPath,
			Grace:        res.grace,
			OnLine:       opts.Metrics.LineObserver(kind),
		},
		harvester: harvest.New(res.ResultFile, opts.Minimize),
		metrics:   opts.Metrics,
	}

	if res.Archive != nil {
		up, err := archive.New(ctx, *res.Archive)
		if err != nil {
			return nil, fmt.Errorf("failed to configure log archive: %w", err)
		}
		o.archiver = up
	}
	return o, nil
}

// Index returns the workspace index built at construction.
func (o *Objective) Index() *workspace.Index { return o.index }

// LogPath returns the driver log location for rc.
func (o *Objective) LogPath(rc objective.RunContext) string {
	return o.cfg.logPath(rc.OutputDir, rc.Iteration)
}

// Forward runs one batch over ids and returns one score per distinct id.
// Every id must be known to the index; otherwise nothing is launched. A
// driver that exits nonzero still has its results harvested. Cancelling ctx
// terminates the driver and returns the cancellation error.
func (o *Objective) Forward(ctx context.Context, ids []string, rc objective.RunContext) (objective.ScoreMap, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ctx = ctxlog.With(ctx, "objective", kind, "iteration", rc.Iteration)
	logger := ctxlog.FromContext(ctx)

	ids = objective.Dedupe(ids)
	if len(ids) == 0 {
		logger.Info("No molecules requested, skipping batch.")
		return objective.ScoreMap{}, nil
	}

	entries, err := o.index.Resolve(ids)
	if err != nil {
		return nil, err
	}

	logPath := o.LogPath(rc)
	sink, err := o.openSink(ctx, logPath, rc)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	status, runErr := o.invoker.Run(ctx, workspace.Workspaces(entries), driver.Destination{Path: logPath, Sink: sink})
	if err := sink.Close(); err != nil {
		logger.Warn("Failed to close batch log.", "path", logPath, "error", err)
	}
	if runErr != nil {
		outcome := metrics.StatusFailed
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			outcome = metrics.StatusCanceled
		}
		o.metrics.ObserveBatch(kind, outcome, time.Since(started))
		return nil, runErr
	}
	if err := ctx.Err(); err != nil {
		o.metrics.ObserveBatch(kind, metrics.StatusCanceled, time.Since(started))
		return nil, fmt.Errorf("driver interrupted: %w", err)
	}

	scores := o.harvester.Collect(ctx, entries)

	outcome := metrics.StatusSucceeded
	if !status.Success() {
		outcome = metrics.StatusNonzeroExit
	}
	o.metrics.ObserveBatch(kind, outcome, time.Since(started))
	o.metrics.ObserveScores(kind, scores)

	if o.archiver != nil {
		if _, err := o.archiver.Upload(ctx, logPath); err != nil {
			logger.Warn("Failed to archive batch log.", "path", logPath, "error", err)
		}
	}
	return scores, nil
}

// openSink opens the per-iteration log file and, when configured, the relay.
// A relay that cannot connect is reported and skipped.
func (o *Objective) openSink(ctx context.Context, logPath string, rc objective.RunContext) (logsink.LineSink, error) {
	file, err := logsink.OpenFile(logPath)
	if err != nil {
		return nil, err
	}
	if o.cfg.Relay == nil {
		return file, nil
	}

	batch := fmt.Sprintf("%s_%d", o.cfg.LogPrefix, rc.Iteration)
	relay, err := logsink.DialRelay(ctx, *o.cfg.Relay, batch)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Relay unavailable, logging to file only.", "error", err)
		return file, nil
	}
	return logsink.Multi{file, relay}, nil
}
