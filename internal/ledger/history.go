// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/docutils/pkg/types"
)

const defaultHistoryLimit = 50

// HistoryOptions filters History results.
type HistoryOptions struct {
	// Tool restricts results to one command (json2excel, pdf2image, doc2pdf).
	Tool string
	// Status restricts results to one outcome.
	Status types.ConversionStatus
	// Limit caps the number of rows (0 = 50).
	Limit int
}

// History returns recorded conversions, most recent first.
func (l *Ledger) History(ctx context.Context, opts HistoryOptions) ([]Conversion, error) {
	if l == nil {
		return nil, nil
	}

	var (
		where []string
		args  []any
	)
	if opts.Tool != "" {
		where = append(where, "tool = ?")
		args = append(args, opts.Tool)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}

	query := `SELECT tool, source, output, source_mod_time, run_id, status, detail, converted_at FROM conversions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY converted_at DESC, source LIMIT ?"

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Conversion
	for rows.Next() {
		var (
			c                       Conversion
			output, runID, detail   sql.NullString
			status, modTime, doneAt string
		)
		if err := rows.Scan(&c.Tool, &c.Source, &output, &modTime, &runID, &status, &detail, &doneAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		c.Output = output.String
		c.RunID = runID.String
		c.Detail = detail.String
		c.Status = types.ConversionStatus(status)
		c.SourceModTime = parseTime(modTime)
		c.ConvertedAt = parseTime(doneAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// RunSummary is a stored run with its batch counts.
type RunSummary struct {
	ID         string `json:"id" yaml:"id"`
	Tool       string `json:"tool" yaml:"tool"`
	StartedAt  string `json:"started_at" yaml:"started_at"`
	FinishedAt string `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`

	types.BatchResult `yaml:",inline"`
}

// Runs returns the most recent runs, newest first.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if l == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, tool, started_at, finished_at, converted, skipped, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r        RunSummary
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Tool, &r.StartedAt, &finished, &r.Converted, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.FinishedAt = finished.String
		out = append(out, r)
	}
	return out, rows.Err()
}
