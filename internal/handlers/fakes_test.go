package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

type fakeDocs struct {
	mu   sync.Mutex
	docs map[uuid.UUID]models.Document
	// createLimit, when positive, makes every Create after that many fail.
	createLimit int
	created     int
}

func newFakeDocs(docs ...models.Document) *fakeDocs {
	f := &fakeDocs{docs: make(map[uuid.UUID]models.Document)}
	for _, doc := range docs {
		f.docs[doc.ID] = doc
	}
	return f
}

func (f *fakeDocs) Create(doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createLimit > 0 && f.created >= f.createLimit {
		return errors.New("database unavailable")
	}
	f.created++
	f.docs[doc.ID] = *doc
	return nil
}

func (f *fakeDocs) Delete(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeDocs) FindByID(id uuid.UUID) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &doc, nil
}

func (f *fakeDocs) FindByIDs(ids []uuid.UUID) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Document
	for _, id := range ids {
		if doc, ok := f.docs[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocs) all() []models.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Document, 0, len(f.docs))
	for _, doc := range f.docs {
		out = append(out, doc)
	}
	return out
}

type fakeEvals struct {
	mu    sync.Mutex
	evals map[uuid.UUID]models.Evaluation
}

func newFakeEvals(evals ...models.Evaluation) *fakeEvals {
	f := &fakeEvals{evals: make(map[uuid.UUID]models.Evaluation)}
	for _, eval := range evals {
		f.evals[eval.ID] = eval
	}
	return f
}

func (f *fakeEvals) Create(eval *models.Evaluation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evals[eval.ID] = *eval
	return nil
}

func (f *fakeEvals) FindByID(id uuid.UUID) (*models.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	eval, ok := f.evals[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &eval, nil
}

func (f *fakeEvals) UpdateStatus(id uuid.UUID, status models.EvaluationStatus) error {
	return errors.New("not used")
}

func (f *fakeEvals) Complete(id uuid.UUID, totalPairs int, failures []models.Failure) error {
	return errors.New("not used")
}

func (f *fakeEvals) UpdateError(id uuid.UUID, errorMsg string, failures []models.Failure) error {
	return errors.New("not used")
}

func (f *fakeEvals) FindPendingJobs(limit int) ([]models.Evaluation, error) {
	return nil, nil
}

type fakeResults struct {
	rows map[uuid.UUID][]models.MatchResult
}

func (f *fakeResults) CreateBatch(results []models.MatchResult) error {
	return errors.New("not used")
}

func (f *fakeResults) FindByEvaluation(evalID uuid.UUID) ([]models.MatchResult, error) {
	return f.rows[evalID], nil
}

type fakeWorker struct {
	mu       sync.Mutex
	enqueued []uuid.UUID
}

func (w *fakeWorker) Start(ctx context.Context) {}

func (w *fakeWorker) Stop() {}

func (w *fakeWorker) EnqueueJob(evalID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enqueued = append(w.enqueued, evalID)
}

type fakeMatcher struct {
	err error
}

func (m *fakeMatcher) Score(ctx context.Context, resumeText, jdText, model string) (float64, error) {
	return 0, m.err
}

func (m *fakeMatcher) Embedding(ctx context.Context, text, model string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []float32{1, 0, 0}, nil
}

func (m *fakeMatcher) DefaultModel() string {
	return "test-embedding"
}

type fakeIndex struct {
	docType   string
	limit     int
	results   []services.SearchResult
	deleted   []string
	deleteErr error
}

func (f *fakeIndex) InitCollection(ctx context.Context) error { return nil }

func (f *fakeIndex) UpsertDocument(ctx context.Context, docID, docType, text string, embedding []float32) error {
	return nil
}

func (f *fakeIndex) SearchSimilar(ctx context.Context, queryEmbedding []float32, docType string, limit int) ([]services.SearchResult, error) {
	f.docType = docType
	f.limit = limit
	return f.results, nil
}

func (f *fakeIndex) DeleteDocument(ctx context.Context, docID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, docID)
	return nil
}
