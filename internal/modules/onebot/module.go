// Package onebot provides the OneBot bot module: a OneBot v11 forward
// websocket connection (go-cqhttp, NapCat, Lagrange) opened with the app and
// kept alive by a scheduler heartbeat when the Scheduler module is active.
// A heartbeat that finds the connection dropped redials before polling.
package onebot

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kingrea/lattice-bot/container"
	"github.com/kingrea/lattice-bot/internal/modules/core"
	"github.com/kingrea/lattice-bot/internal/modules/scheduler"
	"github.com/kingrea/lattice-bot/module"
)

const (
	// ModuleName is the registry name of the OneBot module.
	ModuleName    = "OneBot"
	moduleVersion = "1.0.0"

	// HeartbeatJob is the scheduler job name used for keepalive.
	HeartbeatJob     = "onebot.heartbeat"
	defaultHeartbeat = "* * * * *"
)

// Module registers the OneBot client.
type Module struct {
	module.Base
}

// New constructs the OneBot module.
func New() *Module {
	base := module.NewBase(module.Metadata{
		Name:        ModuleName,
		Version:     moduleVersion,
		Author:      "lattice",
		Description: "OneBot v11 websocket channel.",
	})
	base.Requires(core.ModuleName)
	base.Prefers(scheduler.ModuleName)
	return &Module{Base: base}
}

// SettingsFrom reads ws_url, access_token and handshake_timeout.
func SettingsFrom(cfg module.Config) (Settings, error) {
	settings := Settings{
		WSURL:            cfg.String("ws_url"),
		AccessToken:      cfg.String("access_token"),
		HandshakeTimeout: cfg.Duration("handshake_timeout", 0),
	}
	if settings.WSURL == "" {
		return Settings{}, fmt.Errorf("onebot: ws_url is required")
	}
	parsed, err := url.Parse(settings.WSURL)
	if err != nil {
		return Settings{}, fmt.Errorf("onebot: ws_url: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return Settings{}, fmt.Errorf("onebot: ws_url must use ws or wss, got %q", parsed.Scheme)
	}
	return settings, nil
}

type wiring struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
	Scheduler *scheduler.Scheduler `optional:"true"`
	Logger    *zap.Logger
}

// RegisterServices implements module.BotModule.
func (m *Module) RegisterServices(services *container.Scope, cfg module.Config) error {
	settings, err := SettingsFrom(cfg)
	if err != nil {
		return err
	}
	heartbeat := cfg.StringOr("heartbeat_cron", defaultHeartbeat)
	services.Provide(func(logger *zap.Logger) *Client {
		return NewClient(settings, logger.Named("onebot"))
	})
	services.Invoke(func(w wiring) error {
		w.Lifecycle.Append(fx.Hook{
			OnStart: w.Client.Connect,
			OnStop:  func(context.Context) error { return w.Client.Close() },
		})
		if w.Scheduler == nil {
			w.Logger.Debug("onebot heartbeat disabled, no scheduler")
			return nil
		}
		return w.Scheduler.Add(HeartbeatJob, heartbeat, w.Client.Heartbeat)
	})
	return nil
}
