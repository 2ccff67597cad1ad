package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pathways/internal/api"
	"pathways/internal/preflight"
)

var errChecksFailed = errors.New("one or more required checks failed")

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the data directory, workbook, layout documents and listen address",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, ctx.documentStore())

			if jsonOutput {
				payload := make([]api.CheckResult, 0, len(results))
				for _, r := range results {
					payload = append(payload, api.CheckResult{
						Name:     r.Name,
						Passed:   r.Passed,
						Optional: r.Optional,
						Detail:   r.Detail,
					})
				}
				if err := writeJSON(cmd, payload); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				if ctx.configSeen {
					fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
				} else {
					fmt.Fprintln(out, "Config: defaults (no config file found)")
				}
				for _, r := range results {
					kind := statusOK
					switch {
					case !r.Passed && r.Optional:
						kind = statusWarn
					case !r.Passed:
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}

			if preflight.Failed(results) {
				return errChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	return cmd
}
