package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
)

type SemanticMatcher interface {
	// Score returns the cosine similarity of the two texts' embeddings times 100.
	// The result is not clamped. An empty model selects the default model.
	Score(ctx context.Context, resumeText, jdText, model string) (float64, error)
	Embedding(ctx context.Context, text, model string) ([]float32, error)
	DefaultModel() string
}

type semanticMatcher struct {
	registry     *ModelRegistry
	cache        *EmbeddingCache
	defaultModel string
	scores       sync.Map // score key -> float64
}

// NewSemanticMatcher builds a matcher. A nil cache is replaced by a process local one.
func NewSemanticMatcher(registry *ModelRegistry, cache *EmbeddingCache, defaultModel string) SemanticMatcher {
	if cache == nil {
		cache = NewEmbeddingCache(context.Background(), "", 0, nil)
	}
	return &semanticMatcher{
		registry:     registry,
		cache:        cache,
		defaultModel: defaultModel,
	}
}

// DefaultModel implements SemanticMatcher.
func (s *semanticMatcher) DefaultModel() string {
	return s.defaultModel
}

// Score implements SemanticMatcher.
func (s *semanticMatcher) Score(ctx context.Context, resumeText, jdText, model string) (float64, error) {
	if model == "" {
		model = s.defaultModel
	}

	// Blank documents carry no signal and are rejected by the embedding API.
	if strings.TrimSpace(resumeText) == "" || strings.TrimSpace(jdText) == "" {
		return 0, nil
	}

	key := CacheKey("score", model, resumeText, jdText)
	if cached, ok := s.scores.Load(key); ok {
		return cached.(float64), nil
	}

	resumeVec, err := s.Embedding(ctx, resumeText, model)
	if err != nil {
		return 0, fmt.Errorf("failed to embed resume: %w", err)
	}
	jdVec, err := s.Embedding(ctx, jdText, model)
	if err != nil {
		return 0, fmt.Errorf("failed to embed job description: %w", err)
	}

	similarity, err := CosineSimilarity(resumeVec, jdVec)
	if err != nil {
		return 0, err
	}

	score := similarity * 100
	s.scores.Store(key, score)
	return score, nil
}

// Embedding implements SemanticMatcher.
func (s *semanticMatcher) Embedding(ctx context.Context, text, model string) ([]float32, error) {
	if model == "" {
		model = s.defaultModel
	}

	key := CacheKey("emb", model, text)
	if vector, ok := s.cache.Get(ctx, key); ok {
		return vector, nil
	}

	embedder, err := s.registry.Get(ctx, model)
	if err != nil {
		return nil, err
	}

	vector, err := embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, vector)
	return vector, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when either has zero norm.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
