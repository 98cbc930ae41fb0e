package main

import (
	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Activate the enabled modules and run until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, closeLog, err := opts.logger(cfg, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()
			h, err := opts.newHost(cfg, logger)
			if err != nil {
				return err
			}
			return h.Run(cmd.Context())
		},
	}
}
