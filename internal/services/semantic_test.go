package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "scaled", a: []float32{1, 1}, b: []float32{5, 5}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero norm", a: []float32{0, 0}, b: []float32{1, 2}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
	assert.Error(t, err)
}

func TestModelRegistryLoadsOncePerModel(t *testing.T) {
	t.Parallel()

	var builds atomic.Int64
	registry := NewModelRegistry(func(context.Context, string) (Embedder, error) {
		builds.Add(1)
		time.Sleep(5 * time.Millisecond)
		return newStubEmbedder(), nil
	})

	var wg sync.WaitGroup
	results := make([]Embedder, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := registry.Get(context.Background(), "model-a")
			assert.NoError(t, err)
			results[i] = e
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), builds.Load())
	for _, e := range results {
		assert.Same(t, results[0], e)
	}

	_, err := registry.Get(context.Background(), "model-b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), builds.Load())
}

func TestModelRegistryRemembersFailure(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	var builds atomic.Int64
	registry := NewModelRegistry(func(context.Context, string) (Embedder, error) {
		builds.Add(1)
		return nil, errBoom
	})

	for i := 0; i < 3; i++ {
		_, err := registry.Get(context.Background(), "broken")
		require.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, int64(1), builds.Load())
}

func TestSemanticScore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	embedder := newStubEmbedder()
	matcher := newStubMatcher(embedder)

	t.Run("identical texts", func(t *testing.T) {
		score, err := matcher.Score(ctx, "python and sql", "python and sql", "")
		require.NoError(t, err)
		assert.InDelta(t, 100, score, 1e-6)
	})

	t.Run("unrelated texts", func(t *testing.T) {
		score, err := matcher.Score(ctx, "sales and marketing", "golang and kubernetes", "")
		require.NoError(t, err)
		assert.InDelta(t, 0, score, 1e-9)
	})

	t.Run("blank text short circuits", func(t *testing.T) {
		before := embedder.calls.Load()
		score, err := matcher.Score(ctx, "   ", "python", "")
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
		assert.Equal(t, before, embedder.calls.Load())
	})

	t.Run("not clamped", func(t *testing.T) {
		embedder.setVector("left", []float32{1, 0})
		embedder.setVector("right", []float32{-1, 0})
		score, err := matcher.Score(ctx, "left", "right", "")
		require.NoError(t, err)
		assert.InDelta(t, -100, score, 1e-9)
	})
}

func TestSemanticScoreMemoized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	embedder := newStubEmbedder()
	matcher := newStubMatcher(embedder)

	first, err := matcher.Score(ctx, "python data", "data learning", "")
	require.NoError(t, err)
	calls := embedder.calls.Load()
	assert.Equal(t, int64(2), calls)

	second, err := matcher.Score(ctx, "python data", "data learning", "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, calls, embedder.calls.Load())

	// The job description embedding is reused for a new resume.
	_, err = matcher.Score(ctx, "java", "data learning", "")
	require.NoError(t, err)
	assert.Equal(t, calls+1, embedder.calls.Load())
}

func TestSemanticScoreEmbeddingError(t *testing.T) {
	t.Parallel()

	errAPI := errors.New("quota exceeded")
	embedder := newStubEmbedder()
	embedder.failOn("broken", errAPI)

	_, err := newStubMatcher(embedder).Score(context.Background(), "broken resume", "python", "")
	require.ErrorIs(t, err, errAPI)
}

func TestEmbeddingCacheL1(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := NewEmbeddingCache(ctx, "", time.Hour, nil)

	_, ok := cache.Get(ctx, "missing")
	assert.False(t, ok)

	cache.Set(ctx, "k", []float32{1, 2})
	got, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2}, got)

	expiring := NewEmbeddingCache(ctx, "", time.Nanosecond, nil)
	expiring.Set(ctx, "k", []float32{1})
	time.Sleep(time.Millisecond)
	_, ok = expiring.Get(ctx, "k")
	assert.False(t, ok)

	var nilCache *EmbeddingCache
	nilCache.Set(ctx, "k", []float32{1})
	_, ok = nilCache.Get(ctx, "k")
	assert.False(t, ok)
	assert.NoError(t, nilCache.Close())
}

func TestCacheKeyDeterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CacheKey("emb", "m", "text"), CacheKey("emb", "m", "text"))
	assert.NotEqual(t, CacheKey("emb", "m", "text"), CacheKey("emb", "m2", "text"))
	assert.NotEqual(t, CacheKey("emb", "ab", "c"), CacheKey("emb", "a", "bc"))
}
