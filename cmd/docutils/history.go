// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docutils/internal/ledger"
	"github.com/pdiddy/docutils/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded conversions from the ledger",
	Long: `History lists the conversions recorded in the ledger, most recent first.
Use --runs to list batch runs with their counts instead.`,
	RunE: runHistory,
}

// parseStatusFilter accepts the statuses the ledger records. Skipped files
// are counted per run but never stored as conversions.
func parseStatusFilter(s string) (types.ConversionStatus, error) {
	switch st := types.ConversionStatus(s); st {
	case "", types.ConversionDone, types.ConversionFailed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q: want %s or %s", s, types.ConversionDone, types.ConversionFailed)
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	toolName, _ := cmd.Flags().GetString("tool")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")
	showRuns, _ := cmd.Flags().GetBool("runs")

	filter, err := parseStatusFilter(status)
	if err != nil {
		return err
	}

	l, err := openLedger()
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("ledger is disabled")
	}
	defer l.Close()

	ctx := context.Background()
	if showRuns {
		runs, err := l.Runs(ctx, limit)
		if err != nil {
			return err
		}
		return formatOutput(os.Stdout, format, runs, func(w io.Writer) { writeRunsTable(w, runs) })
	}

	hist, err := l.History(ctx, ledger.HistoryOptions{
		Tool:   toolName,
		Status: filter,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	return formatOutput(os.Stdout, format, hist, func(w io.Writer) { writeHistoryTable(w, hist) })
}

func formatOutput(w io.Writer, format string, v any, table func(io.Writer)) error {
	switch format {
	case "table", "":
		table(w)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format %q: use table, json or yaml", format)
}

func writeHistoryTable(w io.Writer, hist []ledger.Conversion) {
	if len(hist) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return
	}
	fmt.Fprintf(w, "%-10s  %-9s  %-40s  %-20s  %s\n", "Tool", "Status", "Source", "Converted", "Detail")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, c := range hist {
		fmt.Fprintf(w, "%-10s  %-9s  %-40s  %-20s  %s\n",
			c.Tool, c.Status, truncate(filepath.Base(c.Source), 40),
			c.ConvertedAt.Local().Format("2006-01-02 15:04:05"), truncate(c.Detail, 40))
	}
	fmt.Fprintf(w, "\n%d conversions\n", len(hist))
}

func writeRunsTable(w io.Writer, runs []ledger.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-10s  %-30s  %9s  %7s  %6s\n", "Run", "Tool", "Started", "Converted", "Skipped", "Failed")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-10s  %-30s  %9d  %7d  %6d\n",
			r.ID, r.Tool, r.StartedAt, r.Converted, r.Skipped, r.Failed)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	historyCmd.Flags().String("tool", "", "only show one command: json2excel, pdf2image or doc2pdf")
	historyCmd.Flags().String("status", "", "only show one status: converted or failed")
	historyCmd.Flags().Int("limit", 50, "maximum rows")
	historyCmd.Flags().String("format", "table", "output format: table, json or yaml")
	historyCmd.Flags().Bool("runs", false, "list runs instead of conversions")

	rootCmd.AddCommand(historyCmd)
}
