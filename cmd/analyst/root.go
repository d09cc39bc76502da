package main

import (
	"context"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "analyst",
	Short: "Research analyst - multi-stage LLM research pipeline service",
	Long: `Analyst runs research tasks through a five-stage pipeline:
planning, source finding, content analysis, fact checking, and report
writing. Tasks are orchestrated as durable workflows with checkpointed
crash recovery, an optional human-approval gate, and per-task LLM
budget enforcement.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command under the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c",
		"analyst.yaml", "path to the configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
