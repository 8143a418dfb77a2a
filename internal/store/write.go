package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// WriteRun appends run and its diagnostics in one transaction and returns
// the seq assigned to it. run.ID must be unique; a repeated ID is an error.
func (s *Store) WriteRun(ctx context.Context, run Run) (int64, error) {
	if run.ID == "" {
		return 0, fmt.Errorf("write run: id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, deck, status, title, digest, records, keywords,
		 error_code, error_message, tool_version, format_version, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		seq,
		run.Deck,
		string(run.Status),
		run.Title,
		run.Digest,
		run.Records,
		run.Keywords,
		run.ErrorCode,
		run.ErrorMessage,
		run.ToolVersion,
		run.FormatVersion,
		run.ParsedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	if err := writeDiagnostics(ctx, tx, run.ID, run.Diagnostics); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write run: commit: %w", err)
	}
	return seq, nil
}

func writeDiagnostics(ctx context.Context, tx *sql.Tx, runID string, diags []Diagnostic) error {
	for i, d := range diags {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO diagnostics
			(run_id, idx, severity, code, keyword, line, col, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			i,
			string(d.Severity),
			d.Code,
			d.Keyword,
			d.Line,
			d.Column,
			d.Message,
		)
		if err != nil {
			return fmt.Errorf("write diagnostic %d: %w", i, err)
		}
	}
	return nil
}
