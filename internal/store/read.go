package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/datamove/internal/pipeline"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

const stepColumns = `run_id, seq, pass, hash_before, hash_after, modified, inserted, error, tool_version`

// ListSteps returns the most recent steps across all runs, newest first.
// A limit of zero or less returns every step.
func (s *Store) ListSteps(ctx context.Context, limit int) ([]pipeline.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM pass_runs ORDER BY seq DESC, run_id COLLATE BINARY DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.querySteps(ctx, "list steps", query, args...)
}

// StepsForRun returns the steps of one run in execution order.
// Returns an empty slice (not nil) for an unknown run.
func (s *Store) StepsForRun(ctx context.Context, runID string) ([]pipeline.Step, error) {
	return s.querySteps(ctx, "steps for run", `
		SELECT `+stepColumns+`
		FROM pass_runs
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// StepsForPass returns every recorded execution of the named pass, oldest first.
func (s *Store) StepsForPass(ctx context.Context, pass string) ([]pipeline.Step, error) {
	return s.querySteps(ctx, "steps for pass", `
		SELECT `+stepColumns+`
		FROM pass_runs
		WHERE pass = ?
		ORDER BY seq ASC, run_id COLLATE BINARY ASC
	`, pass)
}

// LastSeq returns the highest recorded seq, or 0 for an empty store.
// pipeline.NewClockAt(LastSeq) continues numbering after a restart.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM pass_runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// Graph returns the canonical JSON stored under hash.
func (s *Store) Graph(ctx context.Context, hash string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT canonical FROM graphs WHERE hash = ?`, hash).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("graph %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	return data, nil
}

func (s *Store) querySteps(ctx context.Context, op, query string, args ...any) ([]pipeline.Step, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	steps := []pipeline.Step{}
	for rows.Next() {
		var (
			step     pipeline.Step
			modified int
		)
		if err := rows.Scan(
			&step.RunID,
			&step.Seq,
			&step.Pass,
			&step.HashBefore,
			&step.HashAfter,
			&modified,
			&step.Inserted,
			&step.Error,
			&step.ToolVersion,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		step.Modified = modified != 0
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return steps, nil
}
