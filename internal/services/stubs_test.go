package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

var stubVocabulary = []string{"python", "sql", "golang", "docker", "java", "kubernetes", "sales", "marketing", "data", "learning"}

// stubEmbedder is a deterministic bag-of-words embedder over stubVocabulary.
type stubEmbedder struct {
	calls atomic.Int64

	mu      sync.Mutex
	vectors map[string][]float32
	fail    map[string]error
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{
		vectors: make(map[string][]float32),
		fail:    make(map[string]error),
	}
}

func (s *stubEmbedder) setVector(text string, vector []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[text] = vector
}

// failOn makes every text containing substr fail with err.
func (s *stubEmbedder) failOn(substr string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[substr] = err
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	for substr, err := range s.fail {
		if strings.Contains(text, substr) {
			return nil, err
		}
	}
	if vector, ok := s.vectors[text]; ok {
		return vector, nil
	}

	lower := strings.ToLower(text)
	vector := make([]float32, len(stubVocabulary))
	for i, word := range stubVocabulary {
		vector[i] = float32(strings.Count(lower, word))
	}
	return vector, nil
}

func stubFactory(e Embedder) EmbedderFactory {
	return func(context.Context, string) (Embedder, error) {
		return e, nil
	}
}

func newStubMatcher(e Embedder) SemanticMatcher {
	return NewSemanticMatcher(NewModelRegistry(stubFactory(e)), nil, "stub-model")
}
