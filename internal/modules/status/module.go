// Package status provides the Status bot module, which serves the
// diagnostics endpoints (/health, /metrics, /modules, /graph) for as long as
// the application runs.
package status

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kingrea/lattice-bot/container"
	"github.com/kingrea/lattice-bot/internal/config"
	"github.com/kingrea/lattice-bot/internal/diagnostics"
	"github.com/kingrea/lattice-bot/internal/metrics"
	"github.com/kingrea/lattice-bot/internal/modules/core"
	"github.com/kingrea/lattice-bot/module"
)

const (
	// ModuleName is the registry name of the status module.
	ModuleName    = "Status"
	moduleVersion = "1.0.0"
)

// Module registers the diagnostics server.
type Module struct {
	module.Base
}

// New constructs the status module.
func New() *Module {
	base := module.NewBase(module.Metadata{
		Name:        ModuleName,
		Version:     moduleVersion,
		Author:      "lattice",
		Description: "Health, metrics and module graph over HTTP.",
	})
	base.Requires(core.ModuleName)
	return &Module{Base: base}
}

// ServerParams are the host services the diagnostics server reads.
type ServerParams struct {
	fx.In

	Config     *config.Config           `optional:"true"`
	Collectors *metrics.Collectors      `optional:"true"`
	Snapshot   diagnostics.SnapshotFunc `optional:"true"`
	Logger     *zap.Logger
}

// RegisterServices implements module.BotModule. Module settings "host" and
// "port" override the diagnostics section of the host config.
func (m *Module) RegisterServices(services *container.Scope, cfg module.Config) error {
	host := cfg.String("host")
	port := cfg.Int("port", -1)
	services.Provide(func(p ServerParams) *diagnostics.Server {
		settings := diagnostics.SettingsFromConfig(p.Config)
		settings.Enabled = true
		if host != "" {
			settings.Host = host
		}
		if port >= 0 {
			settings.Port = port
		}
		opts := []diagnostics.Option{
			diagnostics.WithLogger(p.Logger.Named("diagnostics")),
			diagnostics.WithSnapshot(p.Snapshot),
		}
		if p.Collectors != nil {
			opts = append(opts, diagnostics.WithGatherer(p.Collectors.Registry))
		}
		return diagnostics.NewServer(settings, opts...)
	})
	services.Invoke(func(lc fx.Lifecycle, srv *diagnostics.Server) {
		lc.Append(fx.Hook{
			OnStart: srv.Start,
			OnStop:  srv.Shutdown,
		})
	})
	return nil
}
