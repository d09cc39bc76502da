package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
	"github.com/HezziCode/hackathon-v-research-agent/internal/workflow"
)

// CheckpointDAO is the SQLite-backed workflow.CheckpointStore.
type CheckpointDAO struct {
	db *DB
}

// NewCheckpointDAO creates a checkpoint DAO over an open database.
func NewCheckpointDAO(db *DB) *CheckpointDAO {
	return &CheckpointDAO{db: db}
}

var _ workflow.CheckpointStore = (*CheckpointDAO)(nil)

// Save persists a sealed checkpoint. Re-saving a sequence overwrites
// the previous record, which keeps retried boundaries idempotent.
func (d *CheckpointDAO) Save(ctx context.Context, cp *workflow.Checkpoint) error {
	if cp.InstanceID == "" {
		return types.NewError(types.CHECKPOINT_CORRUPTED, "checkpoint has no instance ID")
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO workflow_checkpoints (instance_id, sequence, name, state, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id, sequence) DO UPDATE SET
			name = excluded.name,
			state = excluded.state,
			checksum = excluded.checksum,
			created_at = excluded.created_at`,
		cp.InstanceID, cp.Sequence, cp.Name, string(cp.State), cp.Checksum, cp.CreatedAt)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to save checkpoint", err)
	}
	return nil
}

// Latest returns the highest-sequence checkpoint, or nil when none
// exists.
func (d *CheckpointDAO) Latest(ctx context.Context, instanceID string) (*workflow.Checkpoint, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT instance_id, sequence, name, state, checksum, created_at
		FROM workflow_checkpoints
		WHERE instance_id = ?
		ORDER BY sequence DESC
		LIMIT 1`, instanceID)

	cp, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load checkpoint", err)
	}
	return cp, nil
}

// List returns all checkpoints for an instance in sequence order.
func (d *CheckpointDAO) List(ctx context.Context, instanceID string) ([]*workflow.Checkpoint, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT instance_id, sequence, name, state, checksum, created_at
		FROM workflow_checkpoints
		WHERE instance_id = ?
		ORDER BY sequence ASC`, instanceID)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list checkpoints", err)
	}
	defer rows.Close()

	var out []*workflow.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan checkpoint row", err)
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to iterate checkpoint rows", err)
	}
	return out, nil
}

// Delete removes all checkpoints for an instance.
func (d *CheckpointDAO) Delete(ctx context.Context, instanceID string) error {
	_, err := d.db.ExecContext(ctx,
		"DELETE FROM workflow_checkpoints WHERE instance_id = ?", instanceID)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to delete checkpoints", err)
	}
	return nil
}

func scanCheckpoint(row scanner) (*workflow.Checkpoint, error) {
	var cp workflow.Checkpoint
	var state string

	if err := row.Scan(&cp.InstanceID, &cp.Sequence, &cp.Name, &state, &cp.Checksum, &cp.CreatedAt); err != nil {
		return nil, err
	}
	cp.State = json.RawMessage(state)
	cp.CreatedAt = cp.CreatedAt.UTC()
	return &cp, nil
}
