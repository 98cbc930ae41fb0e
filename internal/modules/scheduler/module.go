// Package scheduler provides the Scheduler bot module: a cron job runner
// other modules use for periodic work such as heartbeats.
package scheduler

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kingrea/lattice-bot/container"
	"github.com/kingrea/lattice-bot/internal/modules/core"
	"github.com/kingrea/lattice-bot/internal/modules/status"
	"github.com/kingrea/lattice-bot/module"
)

const (
	// ModuleName is the registry name of the scheduler module.
	ModuleName    = "Scheduler"
	moduleVersion = "1.0.0"
)

// Module registers a *Scheduler tied to the application lifecycle.
type Module struct {
	module.Base
}

// New constructs the scheduler module.
func New() *Module {
	base := module.NewBase(module.Metadata{
		Name:        ModuleName,
		Version:     moduleVersion,
		Author:      "lattice",
		Description: "Cron job runner for periodic bot work.",
	})
	base.Requires(core.ModuleName)
	base.Prefers(status.ModuleName)
	return &Module{Base: base}
}

// RegisterServices implements module.BotModule.
func (m *Module) RegisterServices(services *container.Scope, _ module.Config) error {
	services.Provide(func(logger *zap.Logger) *Scheduler {
		return NewScheduler(logger.Named("scheduler"))
	})
	services.Invoke(func(lc fx.Lifecycle, s *Scheduler) {
		lc.Append(fx.Hook{
			OnStart: s.Start,
			OnStop:  s.Stop,
		})
	})
	return nil
}
