package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"pathways/internal/api"
	"pathways/internal/docstore"
	"pathways/internal/layout"
)

func newLayoutCommand(ctx *commandContext) *cobra.Command {
	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "Inspect or clear the saved node positions",
	}
	layoutCmd.AddCommand(newLayoutShowCommand(ctx))
	layoutCmd.AddCommand(newLayoutResetCommand(ctx))
	return layoutCmd
}

func newLayoutShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var raw bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List saved node positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.positionsStore()
			if err != nil {
				return err
			}
			positions, err := store.Get(cmd.Context())
			if errors.Is(err, docstore.ErrNotFound) {
				if jsonOutput {
					return writeJSON(cmd, []api.PositionEntry{})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "No positions layout saved at %s\n", store.Path())
				return nil
			}
			if err != nil {
				return err
			}
			if raw {
				return writeJSON(cmd, positions)
			}

			entries := positionEntries(positions)
			if jsonOutput {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Positions layout: %s (%d nodes)\n", store.Path(), len(entries))
			if len(entries) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				x, y := "-", "-"
				if e.Valid {
					x = strconv.FormatFloat(*e.X, 'f', -1, 64)
					y = strconv.FormatFloat(*e.Y, 'f', -1, 64)
				}
				rows = append(rows, []string{e.ID, x, y})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Node", "X", "Y"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output entries as JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored document unchanged")
	return cmd
}

func newLayoutResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved node positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.positionsStore()
			if err != nil {
				return err
			}
			if err := store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Positions layout cleared (%s)\n", store.Path())
			return nil
		},
	}
}

func newOrganellesCommand(ctx *commandContext) *cobra.Command {
	organellesCmd := &cobra.Command{
		Use:   "organelles",
		Short: "Inspect or reset the organelle overlay layout",
	}
	organellesCmd.AddCommand(newOrganellesShowCommand(ctx))
	organellesCmd.AddCommand(newOrganellesResetCommand(ctx))
	return organellesCmd
}

func newOrganellesShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var raw bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Summarize the organelle layout, creating the default one if absent",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.organelleStore()
			if err != nil {
				return err
			}
			if raw {
				doc, err := store.Get(cmd.Context())
				if err != nil {
					return err
				}
				return writeRawJSON(cmd, doc)
			}

			doc, err := store.Document(cmd.Context())
			if err != nil {
				return err
			}
			summary := organelleSummary(store.Path(), doc)
			if jsonOutput {
				return writeJSON(cmd, summary)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Organelle layout: %s\n", summary.Path)
			fmt.Fprintf(out, "  Version:    %d\n", summary.Version)
			fmt.Fprintf(out, "  Coord mode: %s\n", summary.CoordMode)
			fmt.Fprintf(out, "  Opacity:    %s\n", strconv.FormatFloat(summary.Opacity, 'f', -1, 64))
			if len(summary.Organelles) == 0 {
				fmt.Fprintln(out, "  Organelles: none")
				return nil
			}
			fmt.Fprintf(out, "  Organelles: %d\n", len(summary.Organelles))
			for _, name := range summary.Organelles {
				fmt.Fprintf(out, "    - %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the summary as JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored document unchanged")
	return cmd
}

func newOrganellesResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default organelle layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.organelleStore()
			if err != nil {
				return err
			}
			if err := store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Organelle layout reset to default (%s)\n", store.Path())
			return nil
		},
	}
}

func positionEntries(positions layout.Positions) []api.PositionEntry {
	ids := make([]string, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	entries := make([]api.PositionEntry, 0, len(ids))
	for _, id := range ids {
		entry := api.PositionEntry{ID: id}
		if pt, ok := positions.Point(id); ok {
			x, y := pt.X, pt.Y
			entry.X, entry.Y, entry.Valid = &x, &y, true
		}
		entries = append(entries, entry)
	}
	return entries
}

func organelleSummary(path string, doc layout.OrganelleDocument) api.OrganelleSummary {
	names := make([]string, 0, len(doc.Organelles))
	for name := range doc.Organelles {
		names = append(names, name)
	}
	slices.Sort(names)
	return api.OrganelleSummary{
		Path:       path,
		Version:    doc.Version,
		CoordMode:  doc.CoordMode,
		Opacity:    doc.Opacity,
		Organelles: names,
	}
}
