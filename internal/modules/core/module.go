package core

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/kingrea/lattice-bot/container"
	"github.com/kingrea/lattice-bot/module"
)

const (
	// ModuleName is the registry name of the core module.
	ModuleName    = "Core"
	moduleVersion = "1.0.0"

	defaultBotName = "latticebot"
	defaultPrefix  = "/"
)

// Identity describes the running bot.
type Identity struct {
	BotName       string
	Owners        []string
	CommandPrefix string
}

// IsOwner reports whether userID is listed as an owner.
func (id Identity) IsOwner(userID string) bool {
	userID = strings.TrimSpace(userID)
	for _, owner := range id.Owners {
		if owner == userID {
			return true
		}
	}
	return false
}

// Module registers the bot identity.
type Module struct {
	module.Base
}

// New constructs the core module.
func New() *Module {
	return &Module{Base: module.NewBase(module.Metadata{
		Name:        ModuleName,
		Version:     moduleVersion,
		Author:      "lattice",
		Description: "Bot identity and shared services.",
	})}
}

// IdentityFrom reads the identity settings, applying defaults.
func IdentityFrom(cfg module.Config) (Identity, error) {
	id := Identity{
		BotName:       cfg.StringOr("bot_name", defaultBotName),
		Owners:        cfg.Strings("owners"),
		CommandPrefix: cfg.StringOr("command_prefix", defaultPrefix),
	}
	if strings.IndexFunc(id.CommandPrefix, unicode.IsSpace) >= 0 {
		return Identity{}, fmt.Errorf("core: command_prefix %q contains whitespace", id.CommandPrefix)
	}
	return id, nil
}

// RegisterServices implements module.BotModule.
func (m *Module) RegisterServices(services *container.Scope, cfg module.Config) error {
	id, err := IdentityFrom(cfg)
	if err != nil {
		return err
	}
	services.Provide(func() Identity { return id })
	services.Invoke(func(logger *zap.Logger, id Identity) {
		logger.Info("bot identity",
			zap.String("name", id.BotName),
			zap.Int("owners", len(id.Owners)),
			zap.String("prefix", id.CommandPrefix))
	})
	return nil
}
