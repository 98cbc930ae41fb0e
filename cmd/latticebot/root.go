package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/lattice-bot/internal/config"
	"github.com/kingrea/lattice-bot/internal/host"
	"github.com/kingrea/lattice-bot/internal/logging"
)

var (
	// Version is set via -ldflags.
	Version = "dev"
	// Commit is set via -ldflags.
	Commit = "unknown"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	project  string
	enable   []string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "latticebot",
		Short: "A modular chat bot host",
		Long: titleStyle.Render("latticebot") + mutedStyle.Render(" - a modular chat bot host") + `

Modules declare the modules they require and prefer. latticebot discovers
built-in modules and plugins from .lattice/plugins, orders them by their
dependencies and activates the enabled set, each exactly once.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.project, "project", "p", "", "project directory (default is the working directory)")
	root.PersistentFlags().StringSliceVarP(&opts.enable, "enable", "e", nil, "modules to enable instead of modules.enabled")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newModulesCmd(opts))
	return root
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// loadConfig prepares .lattice in the project directory and loads it.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	project := o.project
	if project == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		project = wd
	}
	project, err := filepath.Abs(project)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}
	if err := config.InitLatticeDir(project); err != nil {
		return nil, fmt.Errorf("init %s: %w", config.LatticeDir, err)
	}
	return config.NewConfig(project)
}

// logger builds the process logger. Introspection commands pass fileLog
// false and default to warn so their output stays readable.
func (o *rootOptions) logger(cfg *config.Config, console io.Writer, fileLog bool) (*zap.Logger, func() error, error) {
	opts := logging.FromConfig(cfg)
	opts.Console = console
	if !fileLog {
		opts.Dir = ""
		opts.Level = "warn"
	}
	if o.logLevel != "" {
		opts.Level = o.logLevel
	}
	return logging.New(opts)
}

func (o *rootOptions) newHost(cfg *config.Config, logger *zap.Logger, extra ...host.Option) (*host.Host, error) {
	opts := append([]host.Option{host.WithLogger(logger), host.WithEnabled(o.enable...)}, extra...)
	return host.New(cfg, opts...)
}
