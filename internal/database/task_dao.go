package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/HezziCode/hackathon-v-research-agent/internal/task"
	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// TaskDAO is the SQLite-backed task.Store. A process-local mutex
// serializes read-modify-write cycles on top of SQLite's own locking
// so concurrent stage transitions never lose writes.
type TaskDAO struct {
	db *DB
	mu sync.Mutex
}

// NewTaskDAO creates a task DAO over an open database.
func NewTaskDAO(db *DB) *TaskDAO {
	return &TaskDAO{db: db}
}

var _ task.Store = (*TaskDAO)(nil)

// Save persists a task, overwriting any existing row with the same ID.
func (d *TaskDAO) Save(ctx context.Context, t *task.Task) error {
	if err := t.ID.Validate(); err != nil {
		return types.WrapError(types.TASK_VALIDATION_FAILED, "task ID is invalid", err)
	}

	artifactsJSON, metadataJSON, err := marshalTaskJSON(t)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (
			id, query, status, require_approval, budget_limit_usd, priority,
			workflow_instance_id, current_stage, error_message,
			artifacts, metadata, created_at, updated_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			query = excluded.query,
			status = excluded.status,
			require_approval = excluded.require_approval,
			budget_limit_usd = excluded.budget_limit_usd,
			priority = excluded.priority,
			workflow_instance_id = excluded.workflow_instance_id,
			current_stage = excluded.current_stage,
			error_message = excluded.error_message,
			artifacts = excluded.artifacts,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at
	`

	_, err = d.db.ExecContext(ctx, query,
		t.ID,
		t.Query,
		t.Status,
		t.RequireApproval,
		t.BudgetLimitUSD,
		t.Priority,
		t.WorkflowInstanceID,
		string(t.CurrentStage),
		t.ErrorMessage,
		artifactsJSON,
		metadataJSON,
		t.CreatedAt,
		t.UpdatedAt,
		nullableTime(t.CompletedAt),
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to save task", err)
	}
	return nil
}

// Get retrieves a task by ID.
func (d *TaskDAO) Get(ctx context.Context, id types.ID) (*task.Task, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, query, status, require_approval, budget_limit_usd, priority,
			workflow_instance_id, current_stage, error_message,
			artifacts, metadata, created_at, updated_at, completed_at
		FROM tasks WHERE id = ?`, id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewError(types.TASK_NOT_FOUND, "task not found: "+id.String())
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load task", err)
	}
	return t, nil
}

// List returns all tasks ordered by creation time.
func (d *TaskDAO) List(ctx context.Context) ([]*task.Task, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, query, status, require_approval, budget_limit_usd, priority,
			workflow_instance_id, current_stage, error_message,
			artifacts, metadata, created_at, updated_at, completed_at
		FROM tasks ORDER BY created_at ASC`)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list tasks", err)
	}
	defer rows.Close()

	var out []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan task row", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to iterate task rows", err)
	}
	return out, nil
}

// Update applies fn to the task under the DAO mutex, persisting the
// result. Any error from fn aborts the update.
func (d *TaskDAO) Update(ctx context.Context, id types.ID, fn func(*task.Task) error) (*task.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := d.Save(ctx, t); err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*task.Task, error) {
	var t task.Task
	var workflowInstanceID, currentStage, errorMessage sql.NullString
	var artifactsJSON, metadataJSON sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&t.ID,
		&t.Query,
		&t.Status,
		&t.RequireApproval,
		&t.BudgetLimitUSD,
		&t.Priority,
		&workflowInstanceID,
		&currentStage,
		&errorMessage,
		&artifactsJSON,
		&metadataJSON,
		&t.CreatedAt,
		&t.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	t.WorkflowInstanceID = workflowInstanceID.String
	t.CurrentStage = task.PipelineStage(currentStage.String)
	t.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		completed := completedAt.Time.UTC()
		t.CompletedAt = &completed
	}
	if artifactsJSON.Valid && artifactsJSON.String != "" {
		if err := json.Unmarshal([]byte(artifactsJSON.String), &t.Artifacts); err != nil {
			return nil, err
		}
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &t.Metadata); err != nil {
			return nil, err
		}
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func marshalTaskJSON(t *task.Task) (artifacts string, metadata string, err error) {
	if t.Artifacts != nil {
		b, err := json.Marshal(t.Artifacts)
		if err != nil {
			return "", "", types.WrapError(types.DB_QUERY_FAILED, "failed to marshal artifacts", err)
		}
		artifacts = string(b)
	}
	if t.Metadata != nil {
		b, err := json.Marshal(t.Metadata)
		if err != nil {
			return "", "", types.WrapError(types.DB_QUERY_FAILED, "failed to marshal metadata", err)
		}
		metadata = string(b)
	}
	return artifacts, metadata, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
