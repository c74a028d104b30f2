package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"appdeck/internal/catalogaccess"
	"appdeck/internal/overrides"
)

func newPortableCommand(ctx *commandContext) *cobra.Command {
	portableCmd := &cobra.Command{
		Use:   "portable",
		Short: "Manage manually registered apps",
	}
	portableCmd.AddCommand(newPortableAddCommand(ctx))
	portableCmd.AddCommand(newPortableRemoveCommand(ctx))
	portableCmd.AddCommand(newPortableListCommand(ctx))
	portableCmd.AddCommand(newPortableImportCommand(ctx))
	return portableCmd
}

func newPortableAddCommand(ctx *commandContext) *cobra.Command {
	var publisher string
	cmd := &cobra.Command{
		Use:   "add <name> <path>",
		Short: "Register an app that no scanner finds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(func(access catalogaccess.Access) error {
				p, err := access.AddPortable(cmd.Context(), args[0], args[1], publisher)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as %s\n", p.Name, p.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&publisher, "publisher", "", "Publisher shown in listings (default \"Portable\")")
	return cmd
}

func newPortableRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a portable registration",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(func(access catalogaccess.Access) error {
				if err := access.RemovePortable(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newPortableListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List portable registrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(func(access catalogaccess.Access) error {
				portables, err := access.Portables(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, portables)
				}
				if len(portables) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No portable apps registered")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderPortables(portables))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print registrations as JSON")
	return cmd
}

func newPortableImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <manifest.yaml>",
		Short: "Register portable apps and custom paths from a YAML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open manifest: %w", err)
			}
			defer file.Close()
			manifest, err := overrides.ParseManifest(file)
			if err != nil {
				return err
			}

			return ctx.withAccess(func(access catalogaccess.Access) error {
				result, err := access.Import(cmd.Context(), manifest)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %d portable apps and %d custom paths\n", len(result.Portables), len(result.CustomPaths))
				return err
			})
		},
	}
}
