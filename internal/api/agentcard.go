package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AgentCard is the discovery document served at /.well-known/agent.json.
type AgentCard struct {
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	URL                string            `json:"url"`
	Version            string            `json:"version"`
	Provider           AgentProvider     `json:"provider"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes"`
	DefaultOutputModes []string          `json:"defaultOutputModes"`
	Skills             []AgentSkill      `json:"skills"`
}

type AgentProvider struct {
	Organization string `json:"organization"`
}

type AgentCapabilities struct {
	Streaming         bool `json:"streaming"`
	PushNotifications bool `json:"pushNotifications"`
}

type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

func (s *Server) agentCard(c *gin.Context) {
	c.JSON(http.StatusOK, AgentCard{
		Name:        "research-analyst",
		Description: "Multi-stage research agent: plans a query, finds and analyzes sources, verifies facts, and writes a cited report",
		URL:         s.baseURL + "/a2a",
		Version:     Version,
		Provider: AgentProvider{
			Organization: "hackathon-v",
		},
		Capabilities: AgentCapabilities{
			Streaming:         false,
			PushNotifications: false,
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text", "file"},
		Skills: []AgentSkill{
			{
				ID:          "deep-research",
				Name:        "Deep research",
				Description: "Runs the full research pipeline and produces a markdown report with source list and confidence scores",
				Tags:        []string{"research", "analysis", "fact-checking"},
				Examples:    []string{"Research the impact of remote work on software team productivity"},
			},
		},
	})
}
