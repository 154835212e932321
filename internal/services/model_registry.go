package services

import (
	"context"
	"fmt"
	"sync"
)

// ModelRegistry loads each embedding model at most once per process and
// shares the instance between goroutines.
type ModelRegistry struct {
	factory EmbedderFactory

	mu      sync.Mutex
	entries map[string]*modelEntry
}

type modelEntry struct {
	once     sync.Once
	embedder Embedder
	err      error
}

func NewModelRegistry(factory EmbedderFactory) *ModelRegistry {
	return &ModelRegistry{
		factory: factory,
		entries: make(map[string]*modelEntry),
	}
}

// Get returns the embedder for model, building it on first use. A failed
// build is remembered and returned to every later caller.
func (r *ModelRegistry) Get(ctx context.Context, model string) (Embedder, error) {
	r.mu.Lock()
	entry, ok := r.entries[model]
	if !ok {
		entry = &modelEntry{}
		r.entries[model] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		entry.embedder, entry.err = r.factory(ctx, model)
		if entry.err != nil {
			entry.err = fmt.Errorf("failed to load embedding model %q: %w", model, entry.err)
		}
	})

	return entry.embedder, entry.err
}
