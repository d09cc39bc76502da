package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HezziCode/hackathon-v-research-agent/internal/task"
	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// JSON-RPC 2.0 error codes used by the A2A endpoint.
const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcInternalError  = -32603
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// a2aMessage is the message shape of the agent-to-agent protocol: a
// role plus a list of typed parts.
type a2aMessage struct {
	Role  string    `json:"role"`
	Parts []a2aPart `json:"parts"`
}

type a2aPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type sendParams struct {
	ID       string         `json:"id,omitempty"`
	Message  a2aMessage     `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type idParams struct {
	ID string `json:"id"`
}

// a2aTask is the wire view of a task in A2A terms.
type a2aTask struct {
	ID     types.ID  `json:"id"`
	Status a2aStatus `json:"status"`
}

type a2aStatus struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleA2A(c *gin.Context) {
	var req rpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: rpcParseError, Message: "parse error"},
		})
		return
	}

	if req.JSONRPC != "2.0" {
		c.JSON(http.StatusOK, errorResponse(req.ID, rpcInvalidRequest,
			"jsonrpc must be \"2.0\""))
		return
	}

	var resp rpcResponse
	switch req.Method {
	case "tasks/send":
		resp = s.a2aSend(c, req)
	case "tasks/get":
		resp = s.a2aGet(c, req)
	case "tasks/cancel":
		resp = s.a2aCancel(c, req)
	default:
		resp = errorResponse(req.ID, rpcMethodNotFound,
			"method not found: "+req.Method)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) a2aSend(c *gin.Context, req rpcRequest) rpcResponse {
	var params sendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, rpcInvalidParams, "invalid params")
	}

	query := textOf(params.Message)
	if len(strings.TrimSpace(query)) < task.MinQueryLength {
		return errorResponse(req.ID, rpcInvalidParams,
			"message must contain a text part of at least 10 characters")
	}

	t, serr := s.acceptSubmission(c.Request.Context(), task.Request{
		Query:    query,
		Metadata: params.Metadata,
	})
	if serr != nil {
		msg, _ := serr.body["error"].(string)
		return errorResponse(req.ID, rpcInvalidParams, msg)
	}

	return rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: a2aTask{
			ID:     t.ID,
			Status: a2aStatus{State: "submitted"},
		},
	}
}

func (s *Server) a2aGet(c *gin.Context, req rpcRequest) rpcResponse {
	var params idParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.ID == "" {
		return errorResponse(req.ID, rpcInvalidParams, "invalid params: id required")
	}

	id, err := types.ParseID(params.ID)
	if err != nil {
		return errorResponse(req.ID, rpcInvalidParams, "unknown task: "+params.ID)
	}
	t, err := s.tasks.Get(c.Request.Context(), id)
	if err != nil {
		return errorResponse(req.ID, rpcInvalidParams, "unknown task: "+params.ID)
	}

	return rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: a2aTask{
			ID: t.ID,
			Status: a2aStatus{
				State:   a2aStateFor(t.Status),
				Message: t.ErrorMessage,
			},
		},
	}
}

func (s *Server) a2aCancel(c *gin.Context, req rpcRequest) rpcResponse {
	var params idParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.ID == "" {
		return errorResponse(req.ID, rpcInvalidParams, "invalid params: id required")
	}

	id, err := types.ParseID(params.ID)
	if err != nil {
		return errorResponse(req.ID, rpcInvalidParams, "unknown task: "+params.ID)
	}
	t, err := s.tasks.Get(c.Request.Context(), id)
	if err != nil {
		return errorResponse(req.ID, rpcInvalidParams, "unknown task: "+params.ID)
	}

	if s.engine == nil || t.WorkflowInstanceID == "" {
		return errorResponse(req.ID, rpcInternalError, "task is not cancelable")
	}
	err = s.engine.Terminate(c.Request.Context(), t.WorkflowInstanceID,
		task.TaskStatusCanceled, "canceled via a2a")
	if err != nil {
		return errorResponse(req.ID, rpcInternalError, err.Error())
	}

	return rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: a2aTask{
			ID:     t.ID,
			Status: a2aStatus{State: "canceled"},
		},
	}
}

// textOf concatenates the text parts of a message.
func textOf(msg a2aMessage) string {
	var parts []string
	for _, p := range msg.Parts {
		if p.Type == "text" && p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// a2aStateFor maps the internal lifecycle to A2A task states.
func a2aStateFor(status task.TaskStatus) string {
	switch status {
	case task.TaskStatusAccepted:
		return "submitted"
	case task.TaskStatusAwaitingApproval:
		return "input-required"
	case task.TaskStatusCompleted:
		return "completed"
	case task.TaskStatusCanceled:
		return "canceled"
	case task.TaskStatusFailed, task.TaskStatusRejected,
		task.TaskStatusBudgetExceeded, task.TaskStatusTimedOut:
		return "failed"
	default:
		return "working"
	}
}

func errorResponse(id json.RawMessage, code int, message string) rpcResponse {
	return rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	}
}
