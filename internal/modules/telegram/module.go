// Package telegram provides the Telegram bot module.
package telegram

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kingrea/lattice-bot/container"
	"github.com/kingrea/lattice-bot/internal/modules/core"
	"github.com/kingrea/lattice-bot/module"
)

const (
	// ModuleName is the registry name of the Telegram module.
	ModuleName    = "Telegram"
	moduleVersion = "1.0.0"
)

// Module registers a *Bot.
type Module struct {
	module.Base
}

// New constructs the Telegram module.
func New() *Module {
	base := module.NewBase(module.Metadata{
		Name:        ModuleName,
		Version:     moduleVersion,
		Author:      "lattice",
		Description: "Telegram Bot API channel.",
	})
	base.Requires(core.ModuleName)
	return &Module{Base: base}
}

// SettingsFrom reads token, endpoint and verify.
func SettingsFrom(cfg module.Config) (Settings, error) {
	settings := Settings{
		Token:    cfg.String("token"),
		Endpoint: cfg.String("endpoint"),
		Verify:   cfg.Bool("verify", true),
	}
	if settings.Token == "" {
		return Settings{}, fmt.Errorf("telegram: token is required")
	}
	return settings, nil
}

// RegisterServices implements module.BotModule.
func (m *Module) RegisterServices(services *container.Scope, cfg module.Config) error {
	settings, err := SettingsFrom(cfg)
	if err != nil {
		return err
	}
	timeout := cfg.Duration("timeout", 30*time.Second)
	services.Provide(func(logger *zap.Logger) *Bot {
		return NewBot(settings, &http.Client{Timeout: timeout}, logger.Named("telegram"))
	})
	services.Invoke(func(lc fx.Lifecycle, bot *Bot) {
		lc.Append(fx.Hook{OnStart: bot.Verify, OnStop: bot.Stop})
	})
	return nil
}
