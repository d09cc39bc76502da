package artifact

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

func TestStoreWriteAndOpen(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir())
	taskID := types.NewID()

	ref, err := store.Write(ctx, taskID, ReportMarkdown, []byte("# Findings\n"))
	require.NoError(t, err)
	assert.Equal(t, ReportMarkdown, ref.Name)
	assert.Equal(t, "text/markdown", ref.ContentType)
	assert.Equal(t, int64(11), ref.SizeBytes)
	assert.Contains(t, ref.Path, taskID.String())

	r, err := store.Open(ctx, taskID, ReportMarkdown)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "# Findings\n", string(data))
}

func TestStoreOpenMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Open(context.Background(), types.NewID(), SourcesJSON)
	require.Error(t, err)
	assert.Equal(t, types.ARTIFACT_NOT_FOUND, types.CodeOf(err))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/json", ContentTypeFor(SourcesJSON))
	assert.Equal(t, "application/json", ContentTypeFor(ConfidenceScores))
	assert.Equal(t, "application/pdf", ContentTypeFor(ReportPDF))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("notes.txt"))
}
