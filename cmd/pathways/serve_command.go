package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pathways/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout API and static file server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if b := strings.TrimSpace(bind); b != "" {
				cfg.Server.Bind = b
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
				Ready: func(addr string) {
					fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", addr)
				},
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (overrides logging.level)")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log output")
	return cmd
}
