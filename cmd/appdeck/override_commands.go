package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"appdeck/internal/catalogaccess"
)

func newSetPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-path <id> <path>",
		Short: "Pin the executable used for a catalog entry",
		Long: "Pin the executable used for a catalog entry. The path wins over scanned data " +
			"on every later scan; portable entries have their registration updated instead.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(func(access catalogaccess.Access) error {
				if err := access.SetPath(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Custom path for %s set to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newClearPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-path <id>",
		Short: "Remove a pinned executable so scanned data is used again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(func(access catalogaccess.Access) error {
				if err := access.ClearPath(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Custom path for %s cleared\n", args[0])
				return nil
			})
		},
	}
}
