package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"appdeck/internal/catalog"
	"appdeck/internal/engine"
)

var titleCaser = cases.Title(language.English)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// humanize turns snake_case identifiers such as issue kinds into title case.
func humanize(value string) string {
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}

func newTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

func renderCatalog(entries []catalog.Entry, colorize bool) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"Name", "Publisher", "Kind", "Running", "Path", "ID"})
	for _, entry := range entries {
		kind := "Scanned"
		if entry.IsPortable {
			kind = "Portable"
		}
		path := entry.Path
		if path == "" {
			path = "(missing)"
		}
		row := table.Row{entry.Name, entry.Publisher, kind, yesNo(entry.IsRunning), path, entry.ID}
		if colorize {
			switch {
			case entry.IsRunning:
				row = colorRow(row, text.Colors{text.FgGreen})
			case entry.Path == "":
				row = colorRow(row, text.Colors{text.Faint})
			}
		}
		tw.AppendRow(row)
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Path", WidthMax: 60},
		{Name: "ID", WidthMax: 24},
	})
	return tw.Render()
}

func colorRow(row table.Row, colors text.Colors) table.Row {
	out := make(table.Row, len(row))
	for i, cell := range row {
		out[i] = colors.Sprint(cell)
	}
	return out
}

func renderIssues(issues []catalog.Issue) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"Issue", "Name", "Path", "Detail"})
	for _, issue := range issues {
		tw.AppendRow(table.Row{humanize(string(issue.Kind)), issue.Name, issue.Path, issue.Detail})
	}
	return tw.Render()
}

func renderPortables(portables []catalog.Portable) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"ID", "Name", "Publisher", "Path", "Added"})
	for _, p := range portables {
		added := ""
		if !p.AddedAt.IsZero() {
			added = p.AddedAt.Local().Format("2006-01-02 15:04")
		}
		tw.AppendRow(table.Row{p.ID, p.Name, p.Publisher, p.Path, added})
	}
	return tw.Render()
}

func summaryLine(snap engine.Snapshot) string {
	line := fmt.Sprintf("%d apps: %d runnable, %d missing a path, %d running",
		len(snap.Entries), snap.Stats.Runnable, snap.Stats.MissingPath, snap.Stats.Running)
	if len(snap.Stats.FailedSources) > 0 {
		line += fmt.Sprintf(" (unavailable sources: %s)", strings.Join(snap.Stats.FailedSources, ", "))
	}
	return line
}

func printSnapshot(cmd *cobra.Command, snap engine.Snapshot, showIssues bool) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	if len(snap.Entries) > 0 {
		fmt.Fprintln(out, renderCatalog(snap.Entries, colorize))
	}
	fmt.Fprintln(out, summaryLine(snap))
	if showIssues && len(snap.Issues) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderIssues(snap.Issues))
	}
}
