package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-screener/internal/models"
)

type recordingReporter struct {
	mu     sync.Mutex
	events []Progress
}

func (r *recordingReporter) Report(_ context.Context, p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p)
}

type fakeIndex struct {
	mu   sync.Mutex
	docs map[string]string
}

func (f *fakeIndex) InitCollection(context.Context) error { return nil }

func (f *fakeIndex) UpsertDocument(_ context.Context, docID, docType, _ string, _ []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs == nil {
		f.docs = make(map[string]string)
	}
	f.docs[docID] = docType
	return nil
}

func (f *fakeIndex) SearchSimilar(context.Context, []float32, string, int) ([]SearchResult, error) {
	return nil, nil
}

func (f *fakeIndex) DeleteDocument(context.Context, string) error { return nil }

func sampleBatch() ([]models.JobDescription, []models.Resume) {
	jds := []models.JobDescription{
		{Name: "data.pdf", Text: "role: data scientist. skills: python, sql, machine learning"},
		{Name: "backend.docx", Text: "position: backend engineer. skills: golang, docker, kubernetes"},
	}
	resumes := []models.Resume{
		{Name: "alice.pdf", Text: "python and sql analyst in pune, machine learning projects"},
		{Name: "bob.pdf", Text: "golang developer from bangalore, docker and kubernetes"},
		{Name: "carol.docx", Text: "sales and marketing lead"},
	}
	return jds, resumes
}

var defaultWeights = models.ScoreWeights{Hard: 0.6, Semantic: 0.4}

func TestEvaluateBatch(t *testing.T) {
	t.Parallel()

	jds, resumes := sampleBatch()
	evaluator := NewBatchEvaluator(newStubMatcher(newStubEmbedder()), BatchOptions{})

	report, err := evaluator.EvaluateBatch(context.Background(), BatchRequest{
		JobDescriptions: jds,
		Resumes:         resumes,
		Weights:         defaultWeights,
	})
	require.NoError(t, err)
	require.Empty(t, report.Failures)
	require.Equal(t, 6, report.Table.Len())

	// rows follow job description × resume order
	var order []string
	for _, row := range report.Table.Rows {
		order = append(order, row.JD+"|"+row.Resume)
	}
	assert.Equal(t, []string{
		"data.pdf|alice.pdf", "data.pdf|bob.pdf", "data.pdf|carol.docx",
		"backend.docx|alice.pdf", "backend.docx|bob.pdf", "backend.docx|carol.docx",
	}, order)

	for _, row := range report.Table.Rows {
		assert.InDelta(t, row.HardScore*0.6+row.SemanticScore*0.4, row.FinalScore, 1e-9)
		assert.Equal(t, ClassifyVerdict(row.FinalScore), row.Verdict)
	}

	alice := report.Table.Rows[0]
	assert.Equal(t, 100.0, alice.HardScore)
	assert.Empty(t, alice.MissingSkills)
	assert.Equal(t, "Pune", alice.Location)
	assert.Equal(t, "role: data scientist. skills: python, sql, machine learning", alice.JobRole)

	carol := report.Table.Rows[5]
	assert.Equal(t, 0.0, carol.HardScore)
	assert.Equal(t, []string{"golang", "docker", "kubernetes"}, carol.MissingSkills)
	assert.Equal(t, "Unknown", carol.Location)
	assert.Equal(t, models.VerdictLow, carol.Verdict)

	bob := report.Table.Rows[4]
	assert.Equal(t, "Bangalore", bob.Location)
	assert.Equal(t, models.VerdictHigh, bob.Verdict)
}

func TestEvaluateBatchDeterministic(t *testing.T) {
	t.Parallel()

	jds, resumes := sampleBatch()
	req := BatchRequest{JobDescriptions: jds, Resumes: resumes, Weights: defaultWeights}

	sequential, err := NewBatchEvaluator(newStubMatcher(newStubEmbedder()), BatchOptions{}).
		EvaluateBatch(context.Background(), req)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		parallel, err := NewBatchEvaluator(newStubMatcher(newStubEmbedder()), BatchOptions{Concurrency: 4}).
			EvaluateBatch(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, sequential.Table.Rows, parallel.Table.Rows)
	}
}

func TestEvaluateBatchZeroWeights(t *testing.T) {
	t.Parallel()

	jds, resumes := sampleBatch()
	embedder := newStubEmbedder()

	_, err := NewBatchEvaluator(newStubMatcher(embedder), BatchOptions{}).EvaluateBatch(context.Background(), BatchRequest{
		JobDescriptions: jds,
		Resumes:         resumes,
		Weights:         models.ScoreWeights{},
	})
	require.ErrorIs(t, err, ErrZeroWeights)
	assert.Zero(t, embedder.calls.Load())
}

func TestEvaluateBatchIsolatesFailures(t *testing.T) {
	t.Parallel()

	jds, resumes := sampleBatch()
	embedder := newStubEmbedder()
	embedder.failOn("golang developer", errors.New("rate limited"))

	report, err := NewBatchEvaluator(newStubMatcher(embedder), BatchOptions{Concurrency: 2}).EvaluateBatch(context.Background(), BatchRequest{
		JobDescriptions: jds,
		Resumes:         resumes,
		Weights:         defaultWeights,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Table.Len())
	require.Len(t, report.Failures, 2)
	for i, jd := range []string{"data.pdf", "backend.docx"} {
		assert.Equal(t, jd+" / bob.pdf", report.Failures[i].Document)
		assert.Equal(t, models.StageSemantic, report.Failures[i].Stage)
		assert.Contains(t, report.Failures[i].Message, "rate limited")
	}
	for _, row := range report.Table.Rows {
		assert.NotEqual(t, "bob.pdf", row.Resume)
	}
}

func TestEvaluateBatchReportsProgress(t *testing.T) {
	t.Parallel()

	jds, resumes := sampleBatch()
	reporter := &recordingReporter{}

	_, err := NewBatchEvaluator(newStubMatcher(newStubEmbedder()), BatchOptions{Concurrency: 3, Progress: reporter}).
		EvaluateBatch(context.Background(), BatchRequest{JobDescriptions: jds, Resumes: resumes, Weights: defaultWeights})
	require.NoError(t, err)

	require.Len(t, reporter.events, 6)
	seen := make(map[int]bool)
	for _, p := range reporter.events {
		assert.Equal(t, 6, p.Total)
		seen[p.Done] = true
	}
	for done := 1; done <= 6; done++ {
		assert.True(t, seen[done], "done=%d", done)
	}
}

func TestEvaluateBatchUsesGivenSkillsAndDefaults(t *testing.T) {
	t.Parallel()

	jds := []models.JobDescription{
		{Name: "explicit", Text: "skills: cobol", Skills: []string{"python"}, Role: "Analyst"},
		{Name: "no marker", Text: "we need a data person"},
	}
	resumes := []models.Resume{{Name: "r", Text: "python only", Location: "Chennai"}}

	report, err := NewBatchEvaluator(newStubMatcher(newStubEmbedder()), BatchOptions{DefaultSkills: []string{"python", "rust"}}).
		EvaluateBatch(context.Background(), BatchRequest{JobDescriptions: jds, Resumes: resumes, Weights: defaultWeights})
	require.NoError(t, err)
	require.Equal(t, 2, report.Table.Len())

	assert.Equal(t, 100.0, report.Table.Rows[0].HardScore)
	assert.Equal(t, "Analyst", report.Table.Rows[0].JobRole)
	assert.Equal(t, "Chennai", report.Table.Rows[0].Location)

	assert.Equal(t, 50.0, report.Table.Rows[1].HardScore)
	assert.Equal(t, []string{"rust"}, report.Table.Rows[1].MissingSkills)
	assert.Equal(t, "we need a data person", report.Table.Rows[1].JobRole)
}

func TestEvaluateBatchEmptyInputs(t *testing.T) {
	t.Parallel()

	jds, _ := sampleBatch()
	report, err := NewBatchEvaluator(newStubMatcher(newStubEmbedder()), BatchOptions{}).
		EvaluateBatch(context.Background(), BatchRequest{JobDescriptions: jds, Weights: defaultWeights})
	require.NoError(t, err)
	assert.Zero(t, report.Table.Len())
	assert.Empty(t, report.Failures)
}

func TestEvaluateBatchCancelled(t *testing.T) {
	t.Parallel()

	jds, resumes := sampleBatch()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBatchEvaluator(newStubMatcher(newStubEmbedder()), BatchOptions{}).
		EvaluateBatch(ctx, BatchRequest{JobDescriptions: jds, Resumes: resumes, Weights: defaultWeights})
	require.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateBatchIndexesDocuments(t *testing.T) {
	t.Parallel()

	jds, resumes := sampleBatch()
	index := &fakeIndex{}

	_, err := NewBatchEvaluator(newStubMatcher(newStubEmbedder()), BatchOptions{Index: index}).
		EvaluateBatch(context.Background(), BatchRequest{JobDescriptions: jds, Resumes: resumes, Weights: defaultWeights})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"data.pdf":     "job_description",
		"backend.docx": "job_description",
		"alice.pdf":    "resume",
		"bob.pdf":      "resume",
		"carol.docx":   "resume",
	}, index.docs)
}
