package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
	"github.com/HezziCode/hackathon-v-research-agent/internal/workflow"
)

func (s *Server) approveWorkflow(c *gin.Context) {
	if s.engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "workflow engine unavailable"})
		return
	}

	var decision workflow.ApprovalDecision
	if err := c.ShouldBindJSON(&decision); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	instanceID := c.Param("id")
	if err := s.engine.Signal(c.Request.Context(), instanceID, decision); err != nil {
		switch types.CodeOf(err) {
		case types.WORKFLOW_NOT_FOUND:
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case types.SIGNAL_NOT_DELIVERED:
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"instance_id": instanceID,
		"approved":    decision.Approved,
	})
}

func (s *Server) workflowStatus(c *gin.Context) {
	if s.engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "workflow engine unavailable"})
		return
	}

	state, err := s.engine.Query(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}
