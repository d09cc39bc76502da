package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HezziCode/hackathon-v-research-agent/internal/artifact"
	"github.com/HezziCode/hackathon-v-research-agent/internal/llm"
	"github.com/HezziCode/hackathon-v-research-agent/internal/observability"
	"github.com/HezziCode/hackathon-v-research-agent/internal/task"
	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
	"github.com/HezziCode/hackathon-v-research-agent/internal/workflow"
)

// stubEngine records calls and returns canned state.
type stubEngine struct {
	scheduled  []types.ID
	signals    map[string]workflow.ApprovalDecision
	terminated map[string]task.TaskStatus
	state      *workflow.InstanceState
	signalErr  error
}

func newStubEngine() *stubEngine {
	return &stubEngine{
		signals:    make(map[string]workflow.ApprovalDecision),
		terminated: make(map[string]task.TaskStatus),
	}
}

func (e *stubEngine) Schedule(ctx context.Context, t *task.Task) (string, error) {
	e.scheduled = append(e.scheduled, t.ID)
	return workflow.InstanceIDFor(t.ID), nil
}

func (e *stubEngine) Signal(ctx context.Context, instanceID string, d workflow.ApprovalDecision) error {
	if e.signalErr != nil {
		return e.signalErr
	}
	e.signals[instanceID] = d
	return nil
}

func (e *stubEngine) Query(ctx context.Context, instanceID string) (*workflow.InstanceState, error) {
	if e.state == nil {
		return nil, types.NewError(types.WORKFLOW_NOT_FOUND, "workflow instance not found: "+instanceID)
	}
	return e.state, nil
}

func (e *stubEngine) Terminate(ctx context.Context, instanceID string, status task.TaskStatus, reason string) error {
	e.terminated[instanceID] = status
	return nil
}

func newTestServer(t *testing.T, engine workflow.Engine) (*Server, *task.MemoryStore) {
	t.Helper()
	store := task.NewMemoryStore()
	srv := NewServer(Options{
		Tasks:     store,
		Engine:    engine,
		Tracker:   llm.NewCostTracker(llm.DefaultPricing()),
		Artifacts: artifact.NewStore(t.TempDir()),
	})
	return srv, store
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSubmitTaskReturnsReceipt(t *testing.T) {
	engine := newStubEngine()
	srv, store := newTestServer(t, engine)

	rec := doJSON(t, srv, http.MethodPost, "/tasks", map[string]any{
		"query":            "Impact of remote work on software team productivity",
		"require_approval": true,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "accepted", body["status"])
	assert.NotEmpty(t, body["task_id"])
	assert.NotEmpty(t, body["created_at"])

	id, err := types.ParseID(body["task_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, []types.ID{id}, engine.scheduled)
	assert.Equal(t, workflow.InstanceIDFor(id), body["workflow_instance_id"])

	stored, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, stored.RequireApproval)
	assert.Equal(t, task.DefaultBudgetUSD, stored.BudgetLimitUSD)
}

func TestSubmitTaskValidation(t *testing.T) {
	srv, store := newTestServer(t, newStubEngine())

	rec := doJSON(t, srv, http.MethodPost, "/tasks", map[string]any{"query": "short"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(types.TASK_VALIDATION_FAILED), body["code"])

	rec = doJSON(t, srv, http.MethodPost, "/tasks", map[string]any{
		"query":            "a perfectly reasonable research question",
		"budget_limit_usd": 500.0,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/tasks", map[string]any{
		"query":    "a perfectly reasonable research question",
		"priority": "P9",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Rejected submissions must leave no trace in the store.
	tasks, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSubmitTaskGuardrailTrip(t *testing.T) {
	engine := newStubEngine()
	srv, _ := newTestServer(t, engine)

	rec := doJSON(t, srv, http.MethodPost, "/tasks", map[string]any{
		"query": "Research the credit history of SSN 123-45-6789 please",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, string(types.GUARDRAIL_TRIPPED), body["code"])
	detections, ok := body["detections"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, detections, "pii_detector")
	assert.Empty(t, engine.scheduled)
}

func TestSubmitTaskWithoutEngine(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/tasks", map[string]any{
		"query": "Impact of remote work on software team productivity",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "accepted", body["status"])
	_, hasInstance := body["workflow_instance_id"]
	assert.False(t, hasInstance)
}

func TestTaskStatus(t *testing.T) {
	srv, store := newTestServer(t, newStubEngine())

	tk := task.New(task.Request{Query: "what changed in Go 1.23 runtime", BudgetLimitUSD: 1, Priority: "P2"})
	tk.EnterStage(task.StageContentAnalyzer, task.TaskStatusAnalyzing)
	require.NoError(t, store.Save(context.Background(), tk))

	rec := doJSON(t, srv, http.MethodGet, "/tasks/"+tk.ID.String()+"/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "analyzing", body["status"])
	assert.Equal(t, "content_analyzer", body["current_stage"])
	assert.Equal(t, float64(60), body["progress_pct"])

	rec = doJSON(t, srv, http.MethodGet, "/tasks/"+types.NewID().String()+"/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/tasks/not-a-uuid/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArtifactListAndDownload(t *testing.T) {
	store := task.NewMemoryStore()
	artifacts := artifact.NewStore(t.TempDir())
	srv := NewServer(Options{Tasks: store, Artifacts: artifacts})

	tk := task.New(task.Request{Query: "history of the QUIC protocol", BudgetLimitUSD: 1, Priority: "P2"})
	ref, err := artifacts.Write(context.Background(), tk.ID, artifact.ReportMarkdown, []byte("# Report\n\nbody"))
	require.NoError(t, err)
	tk.Artifacts = []task.ArtifactRef{ref}
	require.NoError(t, store.Save(context.Background(), tk))

	rec := doJSON(t, srv, http.MethodGet, "/tasks/"+tk.ID.String()+"/artifacts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	list := body["artifacts"].([]any)
	require.Len(t, list, 1)
	first := list[0].(map[string]any)
	assert.Equal(t, artifact.ReportMarkdown, first["name"])

	rec = doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/tasks/%s/artifacts/%s", tk.ID, artifact.ReportMarkdown), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Report\n\nbody", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "markdown")

	rec = doJSON(t, srv, http.MethodGet,
		"/tasks/"+tk.ID.String()+"/artifacts/missing.bin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveWorkflow(t *testing.T) {
	engine := newStubEngine()
	srv, _ := newTestServer(t, engine)

	rec := doJSON(t, srv, http.MethodPost, "/workflows/research-abc/approve",
		workflow.ApprovalDecision{Approved: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, workflow.ApprovalDecision{Approved: true}, engine.signals["research-abc"])

	engine.signalErr = types.NewError(types.WORKFLOW_NOT_FOUND, "workflow instance not found")
	rec = doJSON(t, srv, http.MethodPost, "/workflows/research-xyz/approve",
		workflow.ApprovalDecision{Approved: false, Reason: "scope too broad"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	engine.signalErr = types.NewError(types.SIGNAL_NOT_DELIVERED, "instance is not waiting for approval")
	rec = doJSON(t, srv, http.MethodPost, "/workflows/research-xyz/approve",
		workflow.ApprovalDecision{Approved: true})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWorkflowStatus(t *testing.T) {
	engine := newStubEngine()
	srv, _ := newTestServer(t, engine)

	rec := doJSON(t, srv, http.MethodGet, "/workflows/research-abc/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	engine.state = &workflow.InstanceState{
		InstanceID: "research-abc",
		Status:     workflow.RuntimeAwaitingApproval,
	}
	rec = doJSON(t, srv, http.MethodGet, "/workflows/research-abc/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "awaiting_approval", body["status"])
}

func rpcCall(t *testing.T, srv *Server, payload map[string]any) map[string]any {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/a2a", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody(t, rec)
}

func TestA2ASend(t *testing.T) {
	engine := newStubEngine()
	srv, store := newTestServer(t, engine)

	resp := rpcCall(t, srv, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tasks/send",
		"params": map[string]any{
			"message": map[string]any{
				"role": "user",
				"parts": []map[string]any{
					{"type": "text", "text": "Compare columnar storage formats for analytics"},
				},
			},
		},
	})
	require.Nil(t, resp["error"])
	result := resp["result"].(map[string]any)
	status := result["status"].(map[string]any)
	assert.Equal(t, "submitted", status["state"])

	id, err := types.ParseID(result["id"].(string))
	require.NoError(t, err)
	_, err = store.Get(context.Background(), id)
	assert.NoError(t, err)
	assert.Len(t, engine.scheduled, 1)
}

func TestA2ASendShortText(t *testing.T) {
	srv, _ := newTestServer(t, newStubEngine())

	resp := rpcCall(t, srv, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tasks/send",
		"params": map[string]any{
			"message": map[string]any{
				"role":  "user",
				"parts": []map[string]any{{"type": "text", "text": "short"}},
			},
		},
	})
	rpcErr := resp["error"].(map[string]any)
	assert.Equal(t, float64(rpcInvalidParams), rpcErr["code"])
}

func TestA2AGet(t *testing.T) {
	srv, store := newTestServer(t, newStubEngine())

	tk := task.New(task.Request{Query: "state of WASM outside the browser", BudgetLimitUSD: 1, Priority: "P2"})
	tk.Advance(task.TaskStatusAwaitingApproval)
	require.NoError(t, store.Save(context.Background(), tk))

	resp := rpcCall(t, srv, map[string]any{
		"jsonrpc": "2.0",
		"id":      3,
		"method":  "tasks/get",
		"params":  map[string]any{"id": tk.ID.String()},
	})
	require.Nil(t, resp["error"])
	status := resp["result"].(map[string]any)["status"].(map[string]any)
	assert.Equal(t, "input-required", status["state"])

	resp = rpcCall(t, srv, map[string]any{
		"jsonrpc": "2.0",
		"id":      4,
		"method":  "tasks/get",
		"params":  map[string]any{"id": types.NewID().String()},
	})
	rpcErr := resp["error"].(map[string]any)
	assert.Equal(t, float64(rpcInvalidParams), rpcErr["code"])
}

func TestA2ACancel(t *testing.T) {
	engine := newStubEngine()
	srv, store := newTestServer(t, engine)

	tk := task.New(task.Request{Query: "review of vector database index types", BudgetLimitUSD: 1, Priority: "P2"})
	tk.WorkflowInstanceID = workflow.InstanceIDFor(tk.ID)
	require.NoError(t, store.Save(context.Background(), tk))

	resp := rpcCall(t, srv, map[string]any{
		"jsonrpc": "2.0",
		"id":      5,
		"method":  "tasks/cancel",
		"params":  map[string]any{"id": tk.ID.String()},
	})
	require.Nil(t, resp["error"])
	status := resp["result"].(map[string]any)["status"].(map[string]any)
	assert.Equal(t, "canceled", status["state"])
	assert.Equal(t, task.TaskStatusCanceled, engine.terminated[tk.WorkflowInstanceID])
}

func TestA2AProtocolErrors(t *testing.T) {
	srv, _ := newTestServer(t, newStubEngine())

	resp := rpcCall(t, srv, map[string]any{
		"jsonrpc": "1.0", "id": 6, "method": "tasks/send",
	})
	rpcErr := resp["error"].(map[string]any)
	assert.Equal(t, float64(rpcInvalidRequest), rpcErr["code"])

	resp = rpcCall(t, srv, map[string]any{
		"jsonrpc": "2.0", "id": 7, "method": "tasks/stream",
	})
	rpcErr = resp["error"].(map[string]any)
	assert.Equal(t, float64(rpcMethodNotFound), rpcErr["code"])
}

func TestAgentCard(t *testing.T) {
	srv, _ := newTestServer(t, newStubEngine())

	rec := doJSON(t, srv, http.MethodGet, "/.well-known/agent.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var card AgentCard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, "research-analyst", card.Name)
	assert.Equal(t, Version, card.Version)
	assert.False(t, card.Capabilities.Streaming)
	require.NotEmpty(t, card.Skills)
	assert.Equal(t, "deep-research", card.Skills[0].ID)
	assert.Contains(t, card.DefaultInputModes, "text")
}

func TestHealthAndMetrics(t *testing.T) {
	registry := promclient.NewRegistry()
	provider, err := observability.InitProvider(registry)
	require.NoError(t, err)
	metrics, err := observability.NewMetrics(provider)
	require.NoError(t, err)

	srv := NewServer(Options{
		Tasks:    task.NewMemoryStore(),
		Engine:   newStubEngine(),
		Metrics:  metrics,
		Registry: registry,
	})

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = doJSON(t, srv, http.MethodPost, "/tasks", map[string]any{
		"query": "adoption of eBPF for observability tooling",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "analyst_tasks_submitted_total")
}
