package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/resume-screener/internal/logger"
)

// maxEmbeddingChars keeps requests under the embedding model's input limit.
const maxEmbeddingChars = 40000

// Embedder turns text into a dense vector. Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderFactory builds the embedder for a model name.
type EmbedderFactory func(ctx context.Context, model string) (Embedder, error)

type geminiService struct {
	client     *genai.Client
	embedModel string
	retry      RetryPolicy
	log        *zap.Logger
}

// NewGeminiService returns an Embedder backed by the Gemini embedding model embedModel.
func NewGeminiService(ctx context.Context, apiKey, embedModel string, policy RetryPolicy, log *zap.Logger) (Embedder, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		embedModel: embedModel,
		retry:      policy,
		log:        logger.OrNop(log),
	}, nil
}

// NewGeminiEmbedderFactory returns a factory producing one Gemini client per model.
func NewGeminiEmbedderFactory(apiKey string, policy RetryPolicy, log *zap.Logger) EmbedderFactory {
	log = logger.OrNop(log)
	return func(ctx context.Context, model string) (Embedder, error) {
		log.Info("loading embedding model", zap.String("model", model))
		return NewGeminiService(ctx, apiKey, model, policy, log)
	}
}

// Embed implements Embedder.
func (g *geminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if runes := []rune(text); len(runes) > maxEmbeddingChars {
		text = string(runes[:maxEmbeddingChars])
	}

	return retry(ctx, g.retry, func() ([]float32, error) {
		values, err := g.embedOnce(ctx, text)
		if err != nil {
			g.log.Warn("embedding attempt failed", zap.String("model", g.embedModel), zap.Error(err))
		}
		return values, err
	})
}

func (g *geminiService) embedOnce(ctx context.Context, text string) ([]float32, error) {
	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}
