package resolver

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kingrea/lattice-bot/container"
	"github.com/kingrea/lattice-bot/internal/graph"
	"github.com/kingrea/lattice-bot/internal/metrics"
	"github.com/kingrea/lattice-bot/module"
	"github.com/kingrea/lattice-bot/plugins"
)

// LoadOptions configures a full load pass.
type LoadOptions struct {
	Providers  []plugins.Provider
	Enabled    []string
	Duplicates module.DuplicatePolicy
	Config     ConfigFunc
	ExportPath string
	Logger     *zap.Logger
	Metrics    *metrics.Collectors
	// Container receives registrations. A fresh one is created when nil.
	Container *container.Container
}

// Result is everything a load pass produced.
type Result struct {
	Registry  *module.Registry
	Graph     *graph.Graph
	Container *container.Container
	Report    Report
	Warnings  []plugins.Warning
}

// Load discovers modules, builds the registry and graph, rejects cycles,
// activates the enabled modules and exports the graph. The returned Result
// is non-nil even on failure so callers can inspect what was discovered.
func Load(ctx context.Context, opts LoadOptions) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	services := opts.Container
	if services == nil {
		services = container.New()
	}
	reg := module.NewRegistry(
		module.WithDuplicatePolicy(opts.Duplicates),
		module.WithLogger(logger.Named("registry")),
	)
	result := &Result{Registry: reg, Container: services}

	candidates, warnings := plugins.Discover(ctx, logger.Named("discovery"), opts.Metrics, opts.Providers...)
	result.Warnings = warnings
	for _, candidate := range candidates {
		if err := reg.Add(candidate.Source, candidate.Module); err != nil {
			var dup *module.DuplicateError
			if errors.As(err, &dup) {
				opts.Metrics.Failed(string(module.KindDuplicate))
				return result, err
			}
			w := plugins.Warning{Source: candidate.Source, Err: err}
			logger.Warn("module rejected", zap.String("source", candidate.Source), zap.Error(err))
			opts.Metrics.DiscoveryWarning()
			result.Warnings = append(result.Warnings, w)
		}
	}
	logger.Info("modules discovered",
		zap.Int("count", reg.Len()),
		zap.Int("warnings", len(result.Warnings)),
		zap.Strings("modules", reg.Names()))

	r, err := New(reg, services,
		WithConfig(opts.Config),
		WithLogger(logger.Named("resolver")),
		WithMetrics(opts.Metrics),
		WithExportPath(opts.ExportPath),
	)
	if err != nil {
		return result, err
	}
	result.Graph = r.Graph()
	report, err := r.Resolve(ctx, opts.Enabled)
	result.Report = report
	if err != nil {
		return result, err
	}
	return result, nil
}
