package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			client, err := ctx.dialClient()
			if err != nil {
				if asJSON {
					return writeJSON(cmd, map[string]any{"running": false, "socket_path": ctx.socketPath()})
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "not running (commands scan in-process)", colorize))
				return nil
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}

			fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
			fmt.Fprintln(out, renderStatusLine("Socket", statusInfo, status.SocketPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Started", statusInfo, formatTime(status.StartedAt), colorize))
			if status.ScannedAt.IsZero() {
				fmt.Fprintln(out, renderStatusLine("Catalog", statusWarn, "first scan in progress", colorize))
				return nil
			}
			fmt.Fprintln(out, renderStatusLine("Last scan", statusInfo, formatTime(status.ScannedAt), colorize))
			fmt.Fprintln(out, renderStatusLine("Last refresh", statusInfo, formatTime(status.RefreshedAt), colorize))
			fmt.Fprintln(out, renderStatusLine("Catalog", statusOK,
				fmt.Sprintf("%d apps, %d runnable, %d running", status.Entries, status.Stats.Runnable, status.Stats.Running), colorize))
			issueKind := statusOK
			if status.Issues > 0 {
				issueKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Issues", issueKind, fmt.Sprintf("%d", status.Issues), colorize))
			for _, source := range status.Stats.FailedSources {
				fmt.Fprintln(out, renderStatusLine("Source", statusError, source+" unavailable", colorize))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}
