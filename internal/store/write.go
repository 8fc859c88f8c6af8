package store

import (
	"context"
	"fmt"

	"github.com/roach88/datamove/internal/ir"
	"github.com/roach88/datamove/internal/pipeline"
)

// RecordStep inserts one pass execution. It implements pipeline.Recorder.
// Uses ON CONFLICT DO NOTHING so re-recording the same (run_id, seq) is a no-op.
func (s *Store) RecordStep(ctx context.Context, step pipeline.Step) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pass_runs
		(run_id, seq, pass, hash_before, hash_after, modified, inserted, error, tool_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		step.RunID,
		step.Seq,
		step.Pass,
		step.HashBefore,
		step.HashAfter,
		boolToInt(step.Modified),
		step.Inserted,
		step.Error,
		step.ToolVersion,
	)
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}
	return nil
}

// WriteGraph stores g's canonical JSON under its content hash and returns the
// hash. Writing the same graph twice is a no-op.
func (s *Store) WriteGraph(ctx context.Context, g *ir.Graph) (string, error) {
	data, err := ir.MarshalCanonical(ir.CanonicalGraph(g))
	if err != nil {
		return "", fmt.Errorf("write graph: %w", err)
	}
	hash, err := ir.GraphHash(g)
	if err != nil {
		return "", fmt.Errorf("write graph: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO graphs (hash, ir_version, canonical)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, ir.IRVersion, data)
	if err != nil {
		return "", fmt.Errorf("write graph: %w", err)
	}
	return hash, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
