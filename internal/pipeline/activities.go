package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/HezziCode/hackathon-v-research-agent/internal/artifact"
	"github.com/HezziCode/hackathon-v-research-agent/internal/research"
	"github.com/HezziCode/hackathon-v-research-agent/internal/task"
	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// PlanResearch decomposes the task query into a validated research
// plan.
func (a *Activities) PlanResearch(ctx context.Context, taskID types.ID, input json.RawMessage) (json.RawMessage, error) {
	t, err := a.enterStage(ctx, taskID, task.StagePlanner, task.TaskStatusPlanning)
	if err != nil {
		return nil, err
	}

	output, err := a.complete(ctx, t, task.StagePlanner, plannerPrompt,
		"Create a research plan for: "+t.Query)
	if err != nil {
		return nil, err
	}

	var plan research.Plan
	if err := parseInto(task.StagePlanner, output, &plan); err != nil {
		return nil, err
	}
	plan.TaskID = taskID
	plan.CreatedAt = time.Now().UTC()
	if err := plan.Validate(); err != nil {
		return nil, types.WrapRetryableError(types.ACTIVITY_FAILED, "plan failed validation", err)
	}

	a.notifier.StageCompleted(ctx, taskID, task.StagePlanner.String())
	a.notifier.AuditAction(ctx, taskID, "plan_created", "research_planner")

	return encodeState(&State{TaskID: taskID, Query: t.Query, Plan: &plan})
}

// FindSources discovers and scores sources for the plan's
// sub-questions.
func (a *Activities) FindSources(ctx context.Context, taskID types.ID, input json.RawMessage) (json.RawMessage, error) {
	state, err := decodeState(input)
	if err != nil {
		return nil, err
	}

	t, err := a.enterStage(ctx, taskID, task.StageSourceFinder, task.TaskStatusSourcing)
	if err != nil {
		return nil, err
	}

	planJSON, _ := json.Marshal(state.Plan)
	output, err := a.complete(ctx, t, task.StageSourceFinder, sourceFinderPrompt,
		"Find sources for this research plan:\n"+string(planJSON))
	if err != nil {
		return nil, err
	}

	var sources research.SourceCollection
	if err := parseInto(task.StageSourceFinder, output, &sources); err != nil {
		return nil, err
	}
	sources.TaskID = taskID
	sources.Normalize()
	if err := sources.Validate(); err != nil {
		return nil, types.WrapRetryableError(types.ACTIVITY_FAILED, "source collection failed validation", err)
	}

	a.notifier.StageCompleted(ctx, taskID, task.StageSourceFinder.String())
	a.notifier.AuditAction(ctx, taskID, "sources_found", "source_finder")

	state.Sources = &sources
	return encodeState(state)
}

// AnalyzeContent cross-references the collected sources into findings,
// themes, and contradictions.
func (a *Activities) AnalyzeContent(ctx context.Context, taskID types.ID, input json.RawMessage) (json.RawMessage, error) {
	state, err := decodeState(input)
	if err != nil {
		return nil, err
	}

	t, err := a.enterStage(ctx, taskID, task.StageContentAnalyzer, task.TaskStatusAnalyzing)
	if err != nil {
		return nil, err
	}

	sourcesJSON, _ := json.Marshal(state.Sources)
	output, err := a.complete(ctx, t, task.StageContentAnalyzer, contentAnalyzerPrompt,
		"Analyze these sources:\n"+string(sourcesJSON))
	if err != nil {
		return nil, err
	}

	var analysis research.Analysis
	if err := parseInto(task.StageContentAnalyzer, output, &analysis); err != nil {
		return nil, err
	}
	analysis.TaskID = taskID
	if err := analysis.Validate(); err != nil {
		return nil, types.WrapRetryableError(types.ACTIVITY_FAILED, "analysis failed validation", err)
	}

	a.notifier.StageCompleted(ctx, taskID, task.StageContentAnalyzer.String())
	a.notifier.AuditAction(ctx, taskID, "analysis_complete", "content_analyzer")

	state.Analysis = &analysis
	return encodeState(state)
}

// VerifyFacts triangulates the analysis findings across sources.
func (a *Activities) VerifyFacts(ctx context.Context, taskID types.ID, input json.RawMessage) (json.RawMessage, error) {
	state, err := decodeState(input)
	if err != nil {
		return nil, err
	}

	t, err := a.enterStage(ctx, taskID, task.StageFactChecker, task.TaskStatusVerifying)
	if err != nil {
		return nil, err
	}

	analysisJSON, _ := json.Marshal(state.Analysis)
	output, err := a.complete(ctx, t, task.StageFactChecker, factCheckerPrompt,
		"Verify the findings in this analysis:\n"+string(analysisJSON))
	if err != nil {
		return nil, err
	}

	var verification research.Verification
	if err := parseInto(task.StageFactChecker, output, &verification); err != nil {
		return nil, err
	}
	verification.TaskID = taskID
	if err := verification.Validate(); err != nil {
		return nil, types.WrapRetryableError(types.ACTIVITY_FAILED, "verification failed validation", err)
	}

	a.notifier.StageCompleted(ctx, taskID, task.StageFactChecker.String())
	a.notifier.AuditAction(ctx, taskID, "facts_verified", "fact_checker")

	state.Verification = &verification
	return encodeState(state)
}

// WriteReport synthesizes the final report, persists the artifacts,
// and marks the task completed.
func (a *Activities) WriteReport(ctx context.Context, taskID types.ID, input json.RawMessage) (json.RawMessage, error) {
	state, err := decodeState(input)
	if err != nil {
		return nil, err
	}

	t, err := a.enterStage(ctx, taskID, task.StageReportWriter, task.TaskStatusReporting)
	if err != nil {
		return nil, err
	}

	analysisJSON, _ := json.Marshal(state.Analysis)
	verificationJSON, _ := json.Marshal(state.Verification)
	output, err := a.complete(ctx, t, task.StageReportWriter, reportWriterPrompt,
		fmt.Sprintf("Write a research report based on:\nQuery: %s\nAnalysis: %s\nVerification: %s",
			state.Query, analysisJSON, verificationJSON))
	if err != nil {
		return nil, err
	}

	report := a.buildReport(taskID, t.Query, output)

	refs, err := a.persistArtifacts(ctx, taskID, report)
	if err != nil {
		return nil, err
	}

	if _, err := a.tasks.Update(ctx, taskID, func(t *task.Task) error {
		t.Artifacts = refs
		t.Advance(task.TaskStatusCompleted)
		return nil
	}); err != nil {
		return nil, err
	}

	a.notifier.StageCompleted(ctx, taskID, task.StageReportWriter.String())
	a.notifier.AuditAction(ctx, taskID, "report_written", "report_writer")

	state.Report = report
	return encodeState(state)
}

// buildReport parses the model's structured report, falling back to
// the raw output as the markdown body with placeholder documents when
// parsing fails. The fallback is never an error: a degraded report
// still completes the task.
func (a *Activities) buildReport(taskID types.ID, query, output string) *research.Report {
	var report research.Report
	if err := research.DecodeInto(output, &report); err == nil && report.Validate() == nil {
		report.TaskID = taskID
		report.GeneratedAt = time.Now().UTC()
		if report.WordCount == 0 {
			report.WordCount = len(strings.Fields(report.MarkdownContent))
		}
		if report.SourcesJSON == nil {
			report.SourcesJSON = map[string]any{"sources": []any{}}
		}
		if report.ConfidenceScoresJSON == nil {
			report.ConfidenceScoresJSON = map[string]any{}
		}
		return &report
	}

	a.logger.Warn("report output was not structured, using raw content", "task_id", taskID)
	return &research.Report{
		TaskID:          taskID,
		Title:           "Research Report: " + query,
		MarkdownContent: output,
		SourcesJSON: map[string]any{
			"sources": []any{},
			"note":    "Could not parse structured output",
		},
		ConfidenceScoresJSON: map[string]any{
			"note": "Could not parse structured output",
		},
		GeneratedAt: time.Now().UTC(),
		WordCount:   len(strings.Fields(output)),
	}
}

// persistArtifacts writes the report files and returns their refs. The
// PDF is optional: a missing or failing renderer only skips it.
func (a *Activities) persistArtifacts(ctx context.Context, taskID types.ID, report *research.Report) ([]task.ArtifactRef, error) {
	mdRef, err := a.artifacts.Write(ctx, taskID, artifact.ReportMarkdown, []byte(report.MarkdownContent))
	if err != nil {
		return nil, err
	}

	sourcesData, err := json.MarshalIndent(report.SourcesJSON, "", "  ")
	if err != nil {
		sourcesData = []byte("{}")
	}
	sourcesRef, err := a.artifacts.Write(ctx, taskID, artifact.SourcesJSON, sourcesData)
	if err != nil {
		return nil, err
	}

	scoresData, err := json.MarshalIndent(report.ConfidenceScoresJSON, "", "  ")
	if err != nil {
		scoresData = []byte("{}")
	}
	scoresRef, err := a.artifacts.Write(ctx, taskID, artifact.ConfidenceScores, scoresData)
	if err != nil {
		return nil, err
	}

	refs := []task.ArtifactRef{mdRef, sourcesRef, scoresRef}

	if a.renderer != nil {
		pdf, err := a.renderer.Render(ctx, []byte(report.MarkdownContent))
		if err != nil {
			a.logger.Warn("pdf generation failed", "task_id", taskID, "error", err)
		} else {
			pdfRef, err := a.artifacts.Write(ctx, taskID, artifact.ReportPDF, pdf)
			if err != nil {
				a.logger.Warn("pdf write failed", "task_id", taskID, "error", err)
			} else {
				report.PDFPath = pdfRef.Path
				refs = append(refs, pdfRef)
			}
		}
	}
	return refs, nil
}
