package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-screener/internal/models"
)

func TestIndexDocuments(t *testing.T) {
	t.Parallel()

	embedder := newStubEmbedder()
	embedder.failOn("marketing", errors.New("quota exceeded"))
	index := &fakeIndex{}

	jds := []models.JobDescription{
		{Name: "backend.pdf", Text: "golang docker kubernetes"},
		{Name: "empty.pdf", Text: ""},
	}
	resumes := []models.Resume{
		{Name: "alice.pdf", Text: "python sql data"},
		{Name: "dave.pdf", Text: "marketing and sales"},
	}

	indexed, failures := IndexDocuments(context.Background(), newStubMatcher(embedder), index, "", jds, resumes)
	assert.Equal(t, 2, indexed)
	assert.Equal(t, map[string]string{
		"backend.pdf": "job_description",
		"alice.pdf":   "resume",
	}, index.docs)

	require.Len(t, failures, 1)
	assert.Equal(t, "dave.pdf", failures[0].Document)
	assert.Equal(t, models.StageIndex, failures[0].Stage)
	assert.Contains(t, failures[0].Message, "quota exceeded")
}
