package main

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/lattice-bot/internal/config"
	"github.com/kingrea/lattice-bot/internal/diagnostics"
	"github.com/kingrea/lattice-bot/internal/graph"
	"github.com/kingrea/lattice-bot/internal/host"
	"github.com/kingrea/lattice-bot/internal/resolver"
	"github.com/kingrea/lattice-bot/internal/tui"
	"github.com/kingrea/lattice-bot/module"
)

func newModulesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Inspect and select bot modules",
	}
	cmd.AddCommand(
		newModulesListCmd(opts),
		newModulesGraphCmd(opts),
		newModulesCheckCmd(opts),
		newModulesInspectCmd(opts),
		newModulesEnableCmd(opts, true),
		newModulesEnableCmd(opts, false),
	)
	return cmd
}

// session is one loaded project used by the introspection commands.
type session struct {
	cfg      *config.Config
	host     *host.Host
	closeLog func() error
}

func (o *rootOptions) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := o.logger(cfg, cmd.ErrOrStderr(), false)
	if err != nil {
		return nil, err
	}
	// Introspection never rewrites the exported graph; only run does.
	h, err := o.newHost(cfg, logger, host.WithExportPath(""))
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	return &session{cfg: cfg, host: h, closeLog: closeLog}, nil
}

func (s *session) close() {
	_ = s.closeLog()
}

func newModulesListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered modules and which ones activate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			// A failed pass still lists what was discovered.
			_, _ = s.host.Load(cmd.Context())
			renderSnapshot(cmd.OutOrStdout(), s.host.Snapshot())
			return nil
		},
	}
}

func newModulesGraphCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the module dependency graph in DOT format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			result, _ := s.host.Load(cmd.Context())
			g := fullGraph(result)
			if out == "" {
				return graph.WriteDOT(cmd.OutOrStdout(), g)
			}
			if err := graph.ExportDOT(out, g); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("wrote ")+out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the graph to this file instead of stdout")
	return cmd
}

func newModulesCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Resolve the enabled modules without starting them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			result, err := s.host.Load(cmd.Context())
			w := cmd.OutOrStdout()
			for _, warning := range result.Warnings {
				fmt.Fprintln(w, warningStyle.Render("warning: ")+warning.Error())
			}
			if err != nil {
				fmt.Fprintln(w, errorStyle.Render(string(module.KindOf(err))+": ")+err.Error())
				return err
			}
			if _, err := s.host.App(); err != nil {
				fmt.Fprintln(w, errorStyle.Render("wiring: ")+err.Error())
				return err
			}
			fmt.Fprintln(w, successStyle.Render("ok: ")+strings.Join(result.Report.Names(), " -> "))
			return nil
		},
	}
}

func newModulesInspectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Browse modules and the dependency graph interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			loader := func() diagnostics.Snapshot {
				_, _ = s.host.Load(cmd.Context())
				return s.host.Snapshot()
			}
			p := tea.NewProgram(tui.NewApp(loader), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

func newModulesEnableCmd(opts *rootOptions, enable bool) *cobra.Command {
	use, short := "enable", "Add modules to modules.enabled"
	if !enable {
		use, short = "disable", "Remove modules from modules.enabled"
	}
	return &cobra.Command{
		Use:   use + " NAME...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			names := toggleNames(cfg.EnabledModules(), args, enable)
			if err := cfg.SetEnabledModules(names); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("enabled: ")+strings.Join(cfg.EnabledModules(), ", "))
			return nil
		},
	}
}

// toggleNames adds or removes args from current, matching case-insensitively
// and keeping the existing order.
func toggleNames(current, args []string, enable bool) []string {
	if enable {
		return append(current, args...)
	}
	drop := make(map[string]bool, len(args))
	for _, name := range args {
		drop[module.KeyOf(name)] = true
	}
	out := current[:0]
	for _, name := range current {
		if !drop[module.KeyOf(name)] {
			out = append(out, name)
		}
	}
	return out
}

func fullGraph(result *resolver.Result) *graph.Graph {
	if result == nil {
		return graph.New()
	}
	if result.Graph != nil {
		return result.Graph
	}
	return graph.Build(result.Registry.All())
}

func renderSnapshot(w io.Writer, snap diagnostics.Snapshot) {
	fmt.Fprintln(w, titleStyle.Render("Modules"))
	for _, info := range snap.Modules {
		marker := mutedStyle.Render("·")
		if info.Active {
			marker = successStyle.Render(fmt.Sprintf("%d", info.Order))
		}
		line := fmt.Sprintf("  %s %s", marker, nameStyle.Render(info.Name))
		if info.Version != "" {
			line += " " + info.Version
		}
		line += mutedStyle.Render("  " + info.Source)
		if len(info.Requires) > 0 {
			line += mutedStyle.Render("  requires " + strings.Join(info.Requires, ", "))
		}
		if len(info.Optional) > 0 {
			line += mutedStyle.Render("  prefers " + strings.Join(info.Optional, ", "))
		}
		fmt.Fprintln(w, line)
	}
	for _, warning := range snap.Warnings {
		fmt.Fprintln(w, warningStyle.Render("warning: ")+warning)
	}
	if snap.Error != "" {
		fmt.Fprintln(w, errorStyle.Render("error: ")+snap.Error)
	}
}
