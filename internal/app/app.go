package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/conceptc/internal/compiler"
	"github.com/vk/conceptc/internal/ctxlog"
	"github.com/vk/conceptc/internal/manifest"
	"github.com/vk/conceptc/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config
	result   *compiler.Lazy
}

// NewApp builds an App with its own logger and a frozen registry holding
// modules (the core modules when none are given) and every manifest found
// under cfg.Manifests. Compiled output goes to outW, logs to logW.
func NewApp(outW, logW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	reg.Load(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	if len(cfg.Manifests) > 0 {
		m, err := manifest.Load(ctx, cfg.Manifests...)
		if err != nil {
			return nil, fmt.Errorf("failed to load manifests: %w", err)
		}
		reg.Load(m)
		logger.Debug("Manifests registered.", "files", len(m.Files), "types", len(m.Types()), "rules", len(m.Rules()))
	}

	if err := reg.Freeze(ctx); err != nil {
		return nil, err
	}

	a := &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfg,
	}
	a.result = compiler.NewLazy(a.build)
	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
