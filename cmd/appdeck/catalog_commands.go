package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"appdeck/internal/catalogaccess"
	"appdeck/internal/engine"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a full discovery scan and print the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(func(access catalogaccess.Access) error {
				snap, err := access.Scan(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, snap)
				}
				printSnapshot(cmd, snap, true)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		search string
		asJSON bool
		issues bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(func(access catalogaccess.Access) error {
				snap, err := access.List(cmd.Context(), search)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, snap.Entries)
				}
				if len(snap.Entries) == 0 && search != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "No apps match %q\n", search)
					return nil
				}
				printSnapshot(cmd, snap, issues)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name or publisher (case-insensitive)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	cmd.Flags().BoolVar(&issues, "issues", false, "Also print data-quality issues from the last scan")
	return cmd
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Recompute which apps are running",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(func(access catalogaccess.Access) error {
				snap, err := access.Refresh(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, snap.Entries)
				}
				printRunning(cmd, snap)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

func printRunning(cmd *cobra.Command, snap engine.Snapshot) {
	out := cmd.OutOrStdout()
	running := 0
	for _, entry := range snap.Entries {
		if entry.IsRunning {
			fmt.Fprintf(out, "%s\t%s\n", entry.Name, entry.Path)
			running++
		}
	}
	if running == 0 {
		fmt.Fprintln(out, "No catalog apps are running")
	}
}
