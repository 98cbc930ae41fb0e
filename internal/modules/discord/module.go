// Package discord provides the Discord bot module: a gateway session opened
// and closed with the application.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kingrea/lattice-bot/container"
	"github.com/kingrea/lattice-bot/internal/modules/core"
	"github.com/kingrea/lattice-bot/module"
)

const (
	// ModuleName is the registry name of the Discord module.
	ModuleName    = "Discord"
	moduleVersion = "1.0.0"
)

// Module registers a *discordgo.Session.
type Module struct {
	module.Base
}

// New constructs the Discord module.
func New() *Module {
	base := module.NewBase(module.Metadata{
		Name:        ModuleName,
		Version:     moduleVersion,
		Author:      "lattice",
		Description: "Discord gateway channel.",
	})
	base.Requires(core.ModuleName)
	return &Module{Base: base}
}

// Settings configure the gateway session.
type Settings struct {
	Token          string
	MessageContent bool
}

// Intents returns the gateway intents implied by s.
func (s Settings) Intents() discordgo.Intent {
	intents := discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages
	if s.MessageContent {
		intents |= discordgo.IntentsMessageContent
	}
	return intents
}

// SettingsFrom reads token and message_content.
func SettingsFrom(cfg module.Config) (Settings, error) {
	settings := Settings{
		Token:          cfg.String("token"),
		MessageContent: cfg.Bool("message_content", true),
	}
	if settings.Token == "" {
		return Settings{}, fmt.Errorf("discord: token is required")
	}
	return settings, nil
}

// NewSession builds an unopened session for settings.
func NewSession(settings Settings, logger *zap.Logger) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + settings.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: session: %w", err)
	}
	session.Identify.Intents = settings.Intents()
	session.AddHandler(func(_ *discordgo.Session, ready *discordgo.Ready) {
		logger.Info("discord ready",
			zap.String("user", ready.User.Username),
			zap.Int("guilds", len(ready.Guilds)))
	})
	return session, nil
}

// RegisterServices implements module.BotModule.
func (m *Module) RegisterServices(services *container.Scope, cfg module.Config) error {
	settings, err := SettingsFrom(cfg)
	if err != nil {
		return err
	}
	services.Provide(func(logger *zap.Logger) (*discordgo.Session, error) {
		return NewSession(settings, logger.Named("discord"))
	})
	services.Invoke(func(lc fx.Lifecycle, session *discordgo.Session) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				if err := session.Open(); err != nil {
					return fmt.Errorf("discord: open gateway: %w", err)
				}
				return nil
			},
			OnStop: func(context.Context) error { return session.Close() },
		})
	})
	return nil
}
