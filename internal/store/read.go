package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned by ReadRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, seq, deck, status, title, digest, records, keywords,
	error_code, error_message, tool_version, format_version, parsed_at`

// ReadRuns returns recorded runs ordered by seq. A non-empty deck restricts
// the result to runs of that deck.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadRuns(ctx context.Context, deck string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if deck != "" {
		query += ` WHERE deck = ?`
		args = append(args, deck)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		diags, err := s.readDiagnostics(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Diagnostics = diags
	}
	return runs, nil
}

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	run.Diagnostics, err = s.readDiagnostics(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// LatestRun returns the most recent run of deck, and false if there is none.
func (s *Store) LatestRun(ctx context.Context, deck string) (Run, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM runs WHERE deck = ? ORDER BY seq DESC LIMIT 1
	`, deck).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("query latest run: %w", err)
	}

	run, err := s.ReadRun(ctx, id)
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

func (s *Store) readDiagnostics(ctx context.Context, runID string) ([]Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, code, keyword, line, col, message
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	diags := []Diagnostic{}
	for rows.Next() {
		var d Diagnostic
		var severity string
		if err := rows.Scan(&severity, &d.Code, &d.Keyword, &d.Line, &d.Column, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Severity = Severity(severity)
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return diags, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var status, parsedAt string
	err := sc.Scan(
		&run.ID,
		&run.Seq,
		&run.Deck,
		&status,
		&run.Title,
		&run.Digest,
		&run.Records,
		&run.Keywords,
		&run.ErrorCode,
		&run.ErrorMessage,
		&run.ToolVersion,
		&run.FormatVersion,
		&parsedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Status = Status(status)
	run.ParsedAt, err = time.Parse(time.RFC3339Nano, parsedAt)
	if err != nil {
		return Run{}, fmt.Errorf("scan run %s: parsed_at: %w", run.ID, err)
	}
	return run, nil
}
