// Package api exposes the HTTP surface of the research service: the
// task API, the A2A JSON-RPC endpoint with its agent card, workflow
// approval and status routes, and the health and metrics endpoints.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HezziCode/hackathon-v-research-agent/internal/artifact"
	"github.com/HezziCode/hackathon-v-research-agent/internal/guardrail"
	"github.com/HezziCode/hackathon-v-research-agent/internal/llm"
	"github.com/HezziCode/hackathon-v-research-agent/internal/observability"
	"github.com/HezziCode/hackathon-v-research-agent/internal/task"
	"github.com/HezziCode/hackathon-v-research-agent/internal/workflow"
)

// Version is reported by the agent card and the health endpoint.
const Version = "1.0.0"

// Options carries the server's collaborators. Engine may be nil; the
// server then degrades submission to accepted-but-unscheduled.
type Options struct {
	Tasks      task.Store
	Engine     workflow.Engine
	Guardrails *guardrail.Pipeline
	Tracker    *llm.CostTracker
	Artifacts  *artifact.Store
	Metrics    *observability.Metrics
	Registry   *promclient.Registry
	Logger     *slog.Logger
	BaseURL    string
}

// Server is the HTTP front of the service.
type Server struct {
	tasks      task.Store
	engine     workflow.Engine
	guardrails *guardrail.Pipeline
	tracker    *llm.CostTracker
	artifacts  *artifact.Store
	metrics    *observability.Metrics
	registry   *promclient.Registry
	logger     *slog.Logger
	baseURL    string

	router *gin.Engine
	http   *http.Server
}

// NewServer assembles the router over the given collaborators.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Guardrails == nil {
		opts.Guardrails = guardrail.DefaultPipeline()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080"
	}

	s := &Server{
		tasks:      opts.Tasks,
		engine:     opts.Engine,
		guardrails: opts.Guardrails,
		tracker:    opts.Tracker,
		artifacts:  opts.Artifacts,
		metrics:    opts.Metrics,
		registry:   opts.Registry,
		logger:     opts.Logger,
		baseURL:    opts.BaseURL,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.POST("/tasks", s.submitTask)
	r.GET("/tasks/:id/status", s.taskStatus)
	r.GET("/tasks/:id/artifacts", s.listArtifacts)
	r.GET("/tasks/:id/artifacts/:name", s.downloadArtifact)

	r.POST("/workflows/:id/approve", s.approveWorkflow)
	r.GET("/workflows/:id/status", s.workflowStatus)

	r.POST("/a2a", s.handleA2A)
	r.GET("/.well-known/agent.json", s.agentCard)

	r.GET("/health", s.health)
	if s.registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
			s.registry, promhttp.HandlerOpts{})))
	}
	return r
}

// Handler returns the root http.Handler, used directly in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving on addr and blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": Version,
	})
}
