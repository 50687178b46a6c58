package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/moldyngo/internal/config"
	"github.com/specialistvlad/moldyngo/internal/ctxlog"
	"github.com/specialistvlad/moldyngo/internal/metrics"
	"github.com/specialistvlad/moldyngo/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	ctx        context.Context
	logger     *slog.Logger
	registry   *registry.Registry
	config     *Config
	loader     config.Loader
	metrics    *metrics.Recorder
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Results are written to
// outW and logs to logW. It returns a fully initialized App instance,
// including its own isolated logger, registry and metrics.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All objective modules registered.", "count", len(modules), "kinds", reg.Kinds())

	return &App{
		outW:     outW,
		ctx:      ctx,
		logger:   logger,
		registry: reg,
		config:   appConfig,
		loader:   loader,
		metrics:  metrics.New(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the application's metrics recorder.
func (a *App) Metrics() *metrics.Recorder {
	return a.metrics
}
