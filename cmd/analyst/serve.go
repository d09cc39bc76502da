package main

import (
	"context"
	"log/slog"
	"os"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/HezziCode/hackathon-v-research-agent/internal/api"
	"github.com/HezziCode/hackathon-v-research-agent/internal/artifact"
	"github.com/HezziCode/hackathon-v-research-agent/internal/config"
	"github.com/HezziCode/hackathon-v-research-agent/internal/database"
	"github.com/HezziCode/hackathon-v-research-agent/internal/events"
	"github.com/HezziCode/hackathon-v-research-agent/internal/guardrail"
	"github.com/HezziCode/hackathon-v-research-agent/internal/llm"
	"github.com/HezziCode/hackathon-v-research-agent/internal/llm/providers"
	"github.com/HezziCode/hackathon-v-research-agent/internal/observability"
	"github.com/HezziCode/hackathon-v-research-agent/internal/pipeline"
	"github.com/HezziCode/hackathon-v-research-agent/internal/task"
	"github.com/HezziCode/hackathon-v-research-agent/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the research service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	// Metrics are optional; a nil registry yields a noop meter.
	var registry *promclient.Registry
	if cfg.Metrics.Enabled {
		registry = promclient.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	meterProvider, err := observability.InitProvider(registry)
	if err != nil {
		return err
	}
	metrics, err := observability.NewMetrics(meterProvider)
	if err != nil {
		return err
	}

	tasks, checkpoints, closeDB, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	slots, err := buildSlots(ctx, cfg, logger)
	if err != nil {
		return err
	}

	tracker := llm.NewCostTracker(llm.DefaultPricing())
	bus := events.NewBus(logger)
	defer bus.Close()
	notifier := events.NewNotifier(bus, logger)
	artifacts := artifact.NewStore(cfg.Artifacts.Dir)

	activities := pipeline.New(pipeline.Config{
		Tasks:     tasks,
		Slots:     slots,
		Tracker:   tracker,
		Notifier:  notifier,
		Artifacts: artifacts,
		Metrics:   metrics,
		Logger:    logger,
	})

	var engine workflow.Engine
	var local *workflow.LocalEngine
	if slots != nil {
		local = workflow.NewLocalEngine(activities.Definition(), tasks, checkpoints, workflow.Options{
			Retry:           cfg.Workflow.Retry,
			ApprovalTimeout: cfg.Workflow.ApprovalTimeout,
			Notifier:        notifier,
			Metrics:         metrics,
			Logger:          logger,
		})
		engine = local

		resumed, err := local.Resume(ctx)
		if err != nil {
			logger.Warn("workflow resume scan failed", "error", err)
		} else if resumed > 0 {
			logger.Info("resumed interrupted workflows", "count", resumed)
		}
	} else {
		logger.Warn("no LLM providers configured, submissions will be accepted but not scheduled")
	}

	server := api.NewServer(api.Options{
		Tasks:      tasks,
		Engine:     engine,
		Guardrails: guardrail.DefaultPipeline().WithLogger(logger),
		Tracker:    tracker,
		Artifacts:  artifacts,
		Metrics:    metrics,
		Registry:   registry,
		Logger:     logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.ListenAddr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}
	if local != nil {
		if err := local.Shutdown(shutdownCtx); err != nil {
			logger.Warn("workflow shutdown incomplete", "error", err)
		}
	}
	return nil
}

// openStores wires the SQLite-backed stores, falling back to memory
// when no database path is configured.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (task.Store, workflow.CheckpointStore, func(), error) {
	if cfg.Database.Path == "" {
		logger.Warn("no database configured, task state will not survive restarts")
		return task.NewMemoryStore(), workflow.NewMemoryCheckpointStore(), func() {}, nil
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	logger.Info("database ready", "path", cfg.Database.Path)

	closer := func() {
		if err := db.Close(); err != nil {
			logger.Warn("database close failed", "error", err)
		}
	}
	return database.NewTaskDAO(db), database.NewCheckpointDAO(db), closer, nil
}

// buildSlots registers every provider with credentials and resolves
// the per-stage slots against the registry. A nil return with nil
// error means no provider had credentials.
func buildSlots(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.StageSlots, error) {
	registry := llm.NewRegistry()
	registered := 0

	if key := cfg.Providers.Anthropic.APIKey; key != "" {
		p, err := providers.NewAnthropicProvider(key)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(p); err != nil {
			return nil, err
		}
		registered++
	}
	if key := cfg.Providers.GoogleAI.APIKey; key != "" {
		p, err := providers.NewGoogleAIProvider(ctx, key)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(p); err != nil {
			return nil, err
		}
		registered++
	}
	if registered == 0 {
		return nil, nil
	}

	slots, err := llm.ResolveStageSlots(ctx, registry, cfg.Slots)
	if err != nil {
		return nil, err
	}
	logger.Info("model slots resolved",
		"providers", registry.List(), "slots", len(cfg.Slots))
	return slots, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the service version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("analyst %s\n", api.Version)
		return nil
	},
}
