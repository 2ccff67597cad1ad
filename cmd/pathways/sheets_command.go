package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pathways/internal/api"
	"pathways/internal/workbook"
)

func newSheetsCommand(ctx *commandContext) *cobra.Command {
	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Browse the configured workbook",
	}
	sheetsCmd.AddCommand(newSheetsListCommand(ctx))
	sheetsCmd.AddCommand(newSheetsShowCommand(ctx))
	return sheetsCmd
}

func newSheetsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sheet names in tab order",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := ctx.workbookReader()
			if err != nil {
				return err
			}
			sheets, err := reader.Sheets(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				if sheets == nil {
					sheets = []string{}
				}
				return writeJSON(cmd, api.SheetsResponse{Sheets: sheets})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workbook: %s\n", reader.Path())
			for i, name := range sheets {
				fmt.Fprintf(out, "  %d. %s\n", i+1, name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newSheetsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "show <sheet>",
		Short: "Print the rows of a sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := ctx.workbookReader()
			if err != nil {
				return err
			}
			rows, err := reader.Rows(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			total := len(rows)
			if limit > 0 && len(rows) > limit {
				rows = rows[:limit]
			}
			if jsonOutput {
				if rows == nil {
					rows = []workbook.Row{}
				}
				return writeJSON(cmd, rows)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintf(out, "Sheet %q has no data rows\n", args[0])
				return nil
			}
			headers := rows[0].Keys()
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				line := make([]string, len(headers))
				for i, key := range headers {
					if v, ok := row.Get(key); ok {
						line[i] = formatCell(v)
					}
				}
				table = append(table, line)
			}
			fmt.Fprintln(out, renderTable(out, headers, table, nil))
			if len(rows) < total {
				fmt.Fprintf(out, "Showing %d of %d rows\n", len(rows), total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output rows as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows to print (0 for all)")
	return cmd
}

func formatCell(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case nil:
		return ""
	default:
		return fmt.Sprint(value)
	}
}
