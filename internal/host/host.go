// Package host assembles a running bot: it discovers modules from the binary
// and the plugins directory, resolves the enabled set into a service
// container and hands the container to an fx application.
package host

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/kingrea/lattice-bot/internal/config"
	"github.com/kingrea/lattice-bot/internal/diagnostics"
	"github.com/kingrea/lattice-bot/internal/metrics"
	"github.com/kingrea/lattice-bot/internal/modules"
	"github.com/kingrea/lattice-bot/internal/modules/status"
	"github.com/kingrea/lattice-bot/internal/resolver"
	"github.com/kingrea/lattice-bot/module"
	"github.com/kingrea/lattice-bot/plugins"
)

// Host owns one load pass and the application built from it.
type Host struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *metrics.Collectors
	enabled    []string
	builtins   []module.BotModule
	providers  []plugins.Provider
	exportPath string

	mu      sync.RWMutex
	result  *resolver.Result
	loadErr error
}

// Option customizes a Host.
type Option func(*Host)

// WithLogger overrides the default no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics sets the collectors shared with the Status module.
func WithMetrics(c *metrics.Collectors) Option {
	return func(h *Host) {
		if c != nil {
			h.metrics = c
		}
	}
}

// WithEnabled replaces the configured resolution roots.
func WithEnabled(names ...string) Option {
	return func(h *Host) {
		if len(names) > 0 {
			h.enabled = append([]string(nil), names...)
		}
	}
}

// WithExportPath overrides where Load writes the dependency graph. An empty
// path skips the export.
func WithExportPath(path string) Option {
	return func(h *Host) {
		h.exportPath = path
	}
}

// WithBuiltins replaces the in-process module catalog.
func WithBuiltins(mods ...module.BotModule) Option {
	return func(h *Host) {
		h.builtins = mods
	}
}

// WithProviders appends extra discovery providers after the defaults.
func WithProviders(providers ...plugins.Provider) Option {
	return func(h *Host) {
		h.providers = append(h.providers, providers...)
	}
}

// New prepares a host for cfg.
func New(cfg *config.Config, opts ...Option) (*Host, error) {
	if cfg == nil {
		return nil, fmt.Errorf("host: config is required")
	}
	h := &Host{
		cfg:        cfg,
		logger:     zap.NewNop(),
		enabled:    cfg.EnabledModules(),
		builtins:   modules.Builtins(),
		exportPath: cfg.GraphExportPath(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.metrics == nil {
		h.metrics = metrics.New()
	}
	return h, nil
}

// Providers returns the discovery providers in precedence order: built-ins,
// the plugins directory, then any extras.
func (h *Host) Providers() []plugins.Provider {
	out := []plugins.Provider{
		plugins.InProcess(h.builtins...),
		plugins.Directory(h.cfg.PluginsDir()),
	}
	return append(out, h.providers...)
}

// Enabled returns the resolution roots. Status is appended when diagnostics
// are switched on in the config and it is not already listed.
func (h *Host) Enabled() []string {
	out := append([]string(nil), h.enabled...)
	if !h.cfg.Project.Diagnostics.Enabled {
		return out
	}
	for _, name := range out {
		if module.KeyOf(name) == module.KeyOf(status.ModuleName) {
			return out
		}
	}
	return append(out, status.ModuleName)
}

// Load runs discovery and resolution once, bounded by the configured
// startup timeout. The result is kept for Snapshot even when err is non-nil.
func (h *Host) Load(ctx context.Context) (*resolver.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := h.cfg.StartupTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	result, err := resolver.Load(ctx, resolver.LoadOptions{
		Providers:  h.Providers(),
		Enabled:    h.Enabled(),
		Duplicates: h.cfg.DuplicatePolicy(),
		Config:     h.cfg.ModuleSettings,
		ExportPath: h.exportPath,
		Logger:     h.logger,
		Metrics:    h.metrics,
	})
	h.mu.Lock()
	h.result, h.loadErr = result, err
	h.mu.Unlock()
	return result, err
}

// Snapshot summarizes the last load pass.
func (h *Host) Snapshot() diagnostics.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return diagnostics.NewSnapshot(h.result, h.loadErr)
}

// Options returns the fx options for the loaded container plus the host
// services every module may depend on.
func (h *Host) Options() ([]fx.Option, error) {
	h.mu.RLock()
	result, loadErr := h.result, h.loadErr
	h.mu.RUnlock()
	if result == nil {
		return nil, fmt.Errorf("host: Load has not run")
	}
	if loadErr != nil {
		return nil, loadErr
	}
	logger := h.logger
	opts := []fx.Option{
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Supply(logger, h.cfg, h.metrics),
		fx.Provide(func() diagnostics.SnapshotFunc { return h.Snapshot }),
	}
	return append(opts, result.Container.Options()...), nil
}

// App builds the fx application from the last load pass.
func (h *Host) App() (*fx.App, error) {
	opts, err := h.Options()
	if err != nil {
		return nil, err
	}
	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("host: build app: %w", err)
	}
	return app, nil
}

// Run loads modules, starts the application and blocks until ctx is done.
func (h *Host) Run(ctx context.Context) error {
	result, err := h.Load(ctx)
	if err != nil {
		return err
	}
	app, err := h.App()
	if err != nil {
		return err
	}
	startCtx, cancel := context.WithTimeout(ctx, h.startTimeout(app.StartTimeout()))
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("host: start: %w", err)
	}
	h.logger.Info("latticebot running",
		zap.String("modules", strings.Join(result.Report.Names(), ", ")))

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("host: stop: %w", err)
	}
	h.logger.Info("latticebot stopped")
	return nil
}

func (h *Host) startTimeout(fallback time.Duration) time.Duration {
	if timeout := h.cfg.StartupTimeout(); timeout > 0 {
		return timeout
	}
	return fallback
}
