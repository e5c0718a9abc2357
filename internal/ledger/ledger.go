// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records conversions in a local SQLite database so that
// repeated runs can skip inputs that have not changed since they were last
// converted.
//
// A nil *Ledger is valid: it records nothing and reports every input as
// changed. Commands use it when the ledger is disabled.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/docutils/pkg/types"
)

// DefaultPath is the ledger location used when none is configured.
const DefaultPath = ".docutils/ledger.db"

// Ledger wraps the SQLite database.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Ledger, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			tool TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			converted INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS conversions (
			tool TEXT NOT NULL,
			source TEXT NOT NULL,
			output TEXT,
			source_mod_time TEXT NOT NULL,
			run_id TEXT REFERENCES runs(id),
			status TEXT NOT NULL,
			detail TEXT,
			converted_at TEXT NOT NULL,
			PRIMARY KEY (tool, source)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_converted_at ON conversions(converted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_tool ON runs(tool)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Conversion is one recorded input.
type Conversion struct {
	Tool          string                 `json:"tool" yaml:"tool"`
	Source        string                 `json:"source" yaml:"source"`
	Output        string                 `json:"output" yaml:"output"`
	SourceModTime time.Time              `json:"source_mod_time" yaml:"source_mod_time"`
	RunID         string                 `json:"run_id" yaml:"run_id"`
	Status        types.ConversionStatus `json:"status" yaml:"status"`
	Detail        string                 `json:"detail,omitempty" yaml:"detail,omitempty"`
	ConvertedAt   time.Time              `json:"converted_at" yaml:"converted_at"`
}

// Run groups the conversions of one command invocation.
type Run struct {
	ID        string
	Tool      string
	StartedAt time.Time

	ledger *Ledger
}

// BeginRun inserts a run row for tool and returns it.
func (l *Ledger) BeginRun(ctx context.Context, tool string) (*Run, error) {
	r := &Run{
		ID:        uuid.NewString(),
		Tool:      tool,
		StartedAt: time.Now().UTC(),
		ledger:    l,
	}
	if l == nil {
		return r, nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, tool, started_at) VALUES (?, ?, ?)`,
		r.ID, r.Tool, formatTime(r.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return r, nil
}

// Record upserts the outcome for c.Source under the run's tool.
func (r *Run) Record(ctx context.Context, c Conversion) error {
	if r == nil || r.ledger == nil {
		return nil
	}
	if c.ConvertedAt.IsZero() {
		c.ConvertedAt = time.Now().UTC()
	}
	_, err := r.ledger.db.ExecContext(ctx,
		`INSERT INTO conversions (tool, source, output, source_mod_time, run_id, status, detail, converted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tool, source) DO UPDATE SET
			output=excluded.output, source_mod_time=excluded.source_mod_time,
			run_id=excluded.run_id, status=excluded.status,
			detail=excluded.detail, converted_at=excluded.converted_at`,
		r.Tool, c.Source, c.Output, formatTime(c.SourceModTime),
		r.ID, string(c.Status), c.Detail, formatTime(c.ConvertedAt),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", c.Source, err)
	}
	return nil
}

// Finish stores the batch counts and the finish time.
func (r *Run) Finish(ctx context.Context, result types.BatchResult) error {
	if r == nil || r.ledger == nil {
		return nil
	}
	_, err := r.ledger.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, converted = ?, skipped = ?, failed = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), result.Converted, result.Skipped, result.Failed, r.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", r.ID, err)
	}
	return nil
}

// Unchanged reports whether source was converted successfully by tool when
// its modification time was modTime, into output, and that output still
// exists. An empty output matches any recorded output.
func (l *Ledger) Unchanged(ctx context.Context, tool, source, output string, modTime time.Time) (bool, error) {
	if l == nil {
		return false, nil
	}
	var stored, status, recorded string
	err := l.db.QueryRowContext(ctx,
		`SELECT source_mod_time, status, output FROM conversions WHERE tool = ? AND source = ?`,
		tool, source,
	).Scan(&stored, &status, &recorded)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up %s: %w", source, err)
	}
	if status != string(types.ConversionDone) || stored != formatTime(modTime) {
		return false, nil
	}
	if output != "" && filepath.Clean(output) != filepath.Clean(recorded) {
		return false, nil
	}
	if recorded != "" {
		if _, err := os.Stat(recorded); err != nil {
			return false, nil
		}
	}
	return true, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
