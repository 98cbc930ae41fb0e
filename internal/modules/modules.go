// Package modules lists the bot modules compiled into the binary.
package modules

import (
	"github.com/kingrea/lattice-bot/internal/modules/core"
	"github.com/kingrea/lattice-bot/internal/modules/discord"
	"github.com/kingrea/lattice-bot/internal/modules/onebot"
	"github.com/kingrea/lattice-bot/internal/modules/scheduler"
	"github.com/kingrea/lattice-bot/internal/modules/status"
	"github.com/kingrea/lattice-bot/internal/modules/telegram"
	"github.com/kingrea/lattice-bot/module"
)

// Builtins returns a fresh instance of every built-in module.
func Builtins() []module.BotModule {
	return []module.BotModule{
		core.New(),
		status.New(),
		scheduler.New(),
		onebot.New(),
		telegram.New(),
		discord.New(),
	}
}
