package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HezziCode/hackathon-v-research-agent/internal/artifact"
	"github.com/HezziCode/hackathon-v-research-agent/internal/guardrail"
	"github.com/HezziCode/hackathon-v-research-agent/internal/task"
	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// SubmitResponse is the immediate receipt returned for an accepted task.
type SubmitResponse struct {
	TaskID             types.ID        `json:"task_id"`
	Status             task.TaskStatus `json:"status"`
	WorkflowInstanceID string          `json:"workflow_instance_id,omitempty"`
	CreatedAt          string          `json:"created_at"`
}

// submissionError pairs an HTTP status with a response body.
type submissionError struct {
	status int
	body   gin.H
}

// acceptSubmission runs the shared intake path: normalize, validate,
// guardrails, persist, schedule. Used by both POST /tasks and the A2A
// tasks/send method.
func (s *Server) acceptSubmission(ctx context.Context, req task.Request) (*task.Task, *submissionError) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, &submissionError{
			status: http.StatusUnprocessableEntity,
			body:   gin.H{"error": err.Error(), "code": string(types.CodeOf(err))},
		}
	}

	var spent float64
	if s.tracker != nil {
		spent = s.tracker.TotalCost()
	}
	results, err := s.guardrails.Evaluate(ctx, guardrail.Input{
		Content:        req.Query,
		BudgetLimitUSD: req.BudgetLimitUSD,
		SpentUSD:       spent,
		Metadata:       req.Metadata,
	})
	var blocked *guardrail.BlockedError
	if errors.As(err, &blocked) {
		return nil, &submissionError{
			status: http.StatusBadRequest,
			body: gin.H{
				"error":      blocked.Error(),
				"code":       string(types.GUARDRAIL_TRIPPED),
				"detections": results,
			},
		}
	}

	t := task.New(req)
	if err := s.tasks.Save(ctx, t); err != nil {
		return nil, &submissionError{
			status: http.StatusInternalServerError,
			body:   gin.H{"error": "could not persist task"},
		}
	}

	if s.engine == nil {
		s.logger.Warn("workflow engine unavailable, task accepted but not scheduled",
			"task_id", t.ID)
	} else if instanceID, err := s.engine.Schedule(ctx, t); err != nil {
		s.logger.Warn("could not schedule workflow, task accepted but not scheduled",
			"task_id", t.ID, "error", err)
	} else {
		t.WorkflowInstanceID = instanceID
	}

	if s.metrics != nil {
		s.metrics.TaskSubmitted(ctx)
	}
	return t, nil
}

func (s *Server) submitTask(c *gin.Context) {
	var req task.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	t, serr := s.acceptSubmission(c.Request.Context(), req)
	if serr != nil {
		c.JSON(serr.status, serr.body)
		return
	}

	c.JSON(http.StatusAccepted, SubmitResponse{
		TaskID:             t.ID,
		Status:             t.Status,
		WorkflowInstanceID: t.WorkflowInstanceID,
		CreatedAt:          t.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Server) taskStatus(c *gin.Context) {
	t, ok := s.loadTask(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t.ToStatusResponse())
}

func (s *Server) listArtifacts(c *gin.Context) {
	t, ok := s.loadTask(c)
	if !ok {
		return
	}
	refs := t.Artifacts
	if refs == nil {
		refs = []task.ArtifactRef{}
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id":   t.ID,
		"artifacts": refs,
	})
}

func (s *Server) downloadArtifact(c *gin.Context) {
	t, ok := s.loadTask(c)
	if !ok {
		return
	}
	name := c.Param("name")

	var ref *task.ArtifactRef
	for i := range t.Artifacts {
		if t.Artifacts[i].Name == name {
			ref = &t.Artifacts[i]
			break
		}
	}
	if ref == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found: " + name})
		return
	}

	rc, err := s.artifacts.Open(c.Request.Context(), t.ID, name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found: " + name})
		return
	}
	defer rc.Close()

	c.Header("Content-Type", artifact.ContentTypeFor(name))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		s.logger.Warn("artifact stream interrupted",
			"task_id", t.ID, "artifact", name, "error", err)
	}
}

// loadTask resolves the :id path param to a task, writing the error
// response itself when resolution fails.
func (s *Server) loadTask(c *gin.Context) (*task.Task, bool) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found: " + c.Param("id")})
		return nil, false
	}
	t, err := s.tasks.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found: " + id.String()})
		return nil, false
	}
	return t, true
}
