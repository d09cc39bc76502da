// Package artifact persists the research pipeline's output files under
// a per-task directory and streams them back to API clients.
package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/HezziCode/hackathon-v-research-agent/internal/task"
	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// Fixed artifact names produced by the report writer stage.
const (
	ReportMarkdown   = "research-report.md"
	SourcesJSON      = "sources.json"
	ConfidenceScores = "confidence-scores.json"
	ReportPDF        = "research-report.pdf"
)

var contentTypes = map[string]string{
	ReportMarkdown:   "text/markdown",
	SourcesJSON:      "application/json",
	ConfidenceScores: "application/json",
	ReportPDF:        "application/pdf",
}

// ContentTypeFor returns the MIME type for a known artifact name,
// falling back to octet-stream.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[name]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Renderer converts a markdown report into another document format.
// The PDF artifact is optional; a nil or failing renderer only skips it.
type Renderer interface {
	Render(ctx context.Context, markdown []byte) ([]byte, error)
}

// Store writes and reads artifacts under baseDir/{task_id}/.
type Store struct {
	baseDir string
}

// NewStore creates an artifact store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Dir returns the directory holding a task's artifacts.
func (s *Store) Dir(taskID types.ID) string {
	return filepath.Join(s.baseDir, taskID.String())
}

// Write persists one artifact and returns its reference.
func (s *Store) Write(ctx context.Context, taskID types.ID, name string, data []byte) (task.ArtifactRef, error) {
	dir := s.Dir(taskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return task.ArtifactRef{}, types.WrapError(types.ARTIFACT_NOT_FOUND,
			"failed to create artifact directory", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return task.ArtifactRef{}, types.WrapError(types.ARTIFACT_NOT_FOUND,
			"failed to write artifact "+name, err)
	}

	return task.ArtifactRef{
		Name:        name,
		ContentType: ContentTypeFor(name),
		SizeBytes:   int64(len(data)),
		Path:        path,
	}, nil
}

// Open returns a reader over a stored artifact. Callers close it.
func (s *Store) Open(ctx context.Context, taskID types.ID, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.Dir(taskID), name))
	if err != nil {
		return nil, types.WrapError(types.ARTIFACT_NOT_FOUND,
			"artifact not found: "+name, err)
	}
	return f, nil
}
