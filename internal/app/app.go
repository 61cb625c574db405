// Package app loads a descriptor and runs it against the catalog.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/NVIDIA/confinject"
	"github.com/NVIDIA/confinject/internal/ctxlog"
	"github.com/NVIDIA/confinject/internal/loader"
)

// App runs descriptors with its own logger and catalog.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	catalog *confinject.Catalog
}

// NewApp returns an App logging to logW and printing to outW.
func NewApp(outW, logW io.Writer, cfg *Config, catalog *confinject.Catalog) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured.", "level", cfg.LogLevel, "format", cfg.LogFormat)
	return &App{outW: outW, logger: logger, catalog: catalog}
}

// Run executes the configured action.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if cfg.List {
		return a.list()
	}

	raw, err := loader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load descriptor: %w", err)
	}

	a.logger.Info("Running descriptor.", "path", cfg.ConfigPath)
	return confinject.Run(ctx, raw,
		confinject.WithCatalog(a.catalog),
		confinject.WithSubscribe(confinject.InstanceConstructed, func(event confinject.Event) error {
			a.logger.Debug("Instance constructed.", "interface", fmt.Sprint(event.Args()[0]))
			return nil
		}),
	)
}

// list prints every catalog type as `namespace:Type (kind)`.
func (a *App) list() error {
	for _, name := range a.catalog.Namespaces() {
		namespace, err := a.catalog.Lookup(name)
		if err != nil {
			return err
		}
		for _, typeName := range namespace.Types() {
			handle, err := a.catalog.LoadString(name + ":" + typeName)
			if err != nil {
				return err
			}
			kind := "struct"
			if handle.IsInterface() {
				kind = "interface"
			}
			if _, err := fmt.Fprintf(a.outW, "%s (%s)\n", handle.Name(), kind); err != nil {
				return err
			}
		}
	}
	return nil
}
