package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"appdeck/internal/catalog"
	"appdeck/internal/catalogaccess"
	"appdeck/internal/launcher"
)

func newLaunchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "launch <id>",
		Short: "Start a catalog app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := ctx.lookupEntry(cmd, args[0])
			if err != nil {
				return err
			}
			if err := ctx.launcher().Launch(entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Launched %s\n", entry.Name)
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop every process running a catalog app's executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := ctx.lookupEntry(cmd, args[0])
			if err != nil {
				return err
			}
			err = ctx.launcher().Stop(cmd.Context(), entry)
			if errors.Is(err, launcher.ErrNotRunning) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not running\n", entry.Name)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s\n", entry.Name)
			return nil
		},
	}
}

func (c *commandContext) lookupEntry(cmd *cobra.Command, id string) (catalog.Entry, error) {
	var entry catalog.Entry
	err := c.withAccess(func(access catalogaccess.Access) error {
		snap, err := access.List(cmd.Context(), "")
		if err != nil {
			return err
		}
		entry, err = snap.Lookup(id)
		return err
	})
	return entry, err
}

func (c *commandContext) launcher() *launcher.Launcher {
	var timeout time.Duration
	if cfg, err := c.ensureConfig(); err == nil {
		timeout = cfg.CommandTimeout()
	}
	return launcher.New(c.cliLogger(), timeout)
}
