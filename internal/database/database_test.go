package database

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HezziCode/hackathon-v-research-agent/internal/task"
	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
	"github.com/HezziCode/hackathon-v-research-agent/internal/workflow"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "analyst.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema(context.Background()))
	return db
}

func TestOpenAndHealth(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.Health(context.Background()))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InitSchema(ctx))

	version, err := NewMigrator(db).CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func newDBTask() *task.Task {
	return task.New(task.Request{
		Query:          "adoption of post-quantum cryptography in banking",
		BudgetLimitUSD: 2.5,
		Priority:       "P1",
		Metadata:       map[string]any{"requested_by": "analyst-cli"},
	})
}

func TestTaskDAORoundtrip(t *testing.T) {
	db := openTestDB(t)
	dao := NewTaskDAO(db)
	ctx := context.Background()

	tsk := newDBTask()
	tsk.Artifacts = []task.ArtifactRef{
		{Name: "research-report.md", ContentType: "text/markdown", SizeBytes: 2048, Path: "artifacts/x/research-report.md"},
	}
	require.NoError(t, dao.Save(ctx, tsk))

	got, err := dao.Get(ctx, tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, tsk.ID, got.ID)
	assert.Equal(t, tsk.Query, got.Query)
	assert.Equal(t, task.TaskStatusAccepted, got.Status)
	assert.Equal(t, 2.5, got.BudgetLimitUSD)
	assert.Equal(t, "P1", got.Priority)
	require.Len(t, got.Artifacts, 1)
	assert.Equal(t, "research-report.md", got.Artifacts[0].Name)
	assert.Equal(t, "analyst-cli", got.Metadata["requested_by"])
	assert.Nil(t, got.CompletedAt)
	assert.WithinDuration(t, tsk.CreatedAt, got.CreatedAt, time.Second)
}

func TestTaskDAOGetNotFound(t *testing.T) {
	db := openTestDB(t)
	dao := NewTaskDAO(db)

	_, err := dao.Get(context.Background(), types.NewID())
	require.Error(t, err)
	assert.Equal(t, types.TASK_NOT_FOUND, types.CodeOf(err))
}

func TestTaskDAOSaveOverwrites(t *testing.T) {
	db := openTestDB(t)
	dao := NewTaskDAO(db)
	ctx := context.Background()

	tsk := newDBTask()
	require.NoError(t, dao.Save(ctx, tsk))

	tsk.EnterStage(task.StagePlanner, task.TaskStatusPlanning)
	require.NoError(t, dao.Save(ctx, tsk))

	got, err := dao.Get(ctx, tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.TaskStatusPlanning, got.Status)
	assert.Equal(t, task.StagePlanner, got.CurrentStage)
}

func TestTaskDAOUpdate(t *testing.T) {
	db := openTestDB(t)
	dao := NewTaskDAO(db)
	ctx := context.Background()

	tsk := newDBTask()
	require.NoError(t, dao.Save(ctx, tsk))

	updated, err := dao.Update(ctx, tsk.ID, func(t *task.Task) error {
		t.Advance(task.TaskStatusCompleted)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, task.TaskStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)

	got, err := dao.Get(ctx, tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.TaskStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestTaskDAOUpdateAbortsOnError(t *testing.T) {
	db := openTestDB(t)
	dao := NewTaskDAO(db)
	ctx := context.Background()

	tsk := newDBTask()
	require.NoError(t, dao.Save(ctx, tsk))

	_, err := dao.Update(ctx, tsk.ID, func(t *task.Task) error {
		t.Advance(task.TaskStatusFailed)
		return types.NewError(types.TASK_VALIDATION_FAILED, "rejected update")
	})
	require.Error(t, err)

	got, err := dao.Get(ctx, tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.TaskStatusAccepted, got.Status, "aborted update must not persist")
}

func TestTaskDAOListOrdering(t *testing.T) {
	db := openTestDB(t)
	dao := NewTaskDAO(db)
	ctx := context.Background()

	first := newDBTask()
	require.NoError(t, dao.Save(ctx, first))

	second := newDBTask()
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, dao.Save(ctx, second))

	list, err := dao.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestCheckpointDAORoundtrip(t *testing.T) {
	db := openTestDB(t)
	dao := NewCheckpointDAO(db)
	ctx := context.Background()

	latest, err := dao.Latest(ctx, "research-missing")
	require.NoError(t, err)
	assert.Nil(t, latest)

	instanceID := "research-" + types.NewID().String()
	for seq, name := range []string{"planner", "source_finder", "content_analyzer"} {
		cp := &workflow.Checkpoint{
			InstanceID: instanceID,
			Sequence:   seq + 1,
			Name:       name,
			State:      json.RawMessage(`{"stage":"` + name + `"}`),
		}
		cp.Seal()
		require.NoError(t, dao.Save(ctx, cp))
	}

	latest, err = dao.Latest(ctx, instanceID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 3, latest.Sequence)
	assert.Equal(t, "content_analyzer", latest.Name)
	assert.NoError(t, latest.Verify(), "checksum must survive the database roundtrip")

	list, err := dao.List(ctx, instanceID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 1, list[0].Sequence)

	require.NoError(t, dao.Delete(ctx, instanceID))
	latest, err = dao.Latest(ctx, instanceID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestCheckpointDAOSaveSequenceOverwrites(t *testing.T) {
	db := openTestDB(t)
	dao := NewCheckpointDAO(db)
	ctx := context.Background()

	instanceID := "research-" + types.NewID().String()
	cp := &workflow.Checkpoint{
		InstanceID: instanceID,
		Sequence:   1,
		Name:       "planner",
		State:      json.RawMessage(`{"attempt":1}`),
	}
	cp.Seal()
	require.NoError(t, dao.Save(ctx, cp))

	cp2 := &workflow.Checkpoint{
		InstanceID: instanceID,
		Sequence:   1,
		Name:       "planner",
		State:      json.RawMessage(`{"attempt":2}`),
	}
	cp2.Seal()
	require.NoError(t, dao.Save(ctx, cp2))

	list, err := dao.List(ctx, instanceID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.JSONEq(t, `{"attempt":2}`, string(list[0].State))
}
