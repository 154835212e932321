// Package bootstrap wires the screening pipeline shared by the API server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/config"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/services"
)

// Pipeline holds the long-lived screening components. Index is nil when Qdrant is disabled.
type Pipeline struct {
	Matcher  services.SemanticMatcher
	Loader   services.DocumentLoader
	Index    services.QdrantService
	Progress services.ProgressReporter
	Cache    *services.EmbeddingCache

	closers []func() error
}

// NewPipeline builds the components from cfg. Optional backends (Redis, Qdrant, RabbitMQ, S3)
// are only connected when configured; a failing optional backend is logged and skipped.
func NewPipeline(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Pipeline, error) {
	log = logger.OrNop(log)
	if cfg.Gemini.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required for semantic scoring")
	}

	policy := services.RetryPolicy{
		MaxAttempts:  cfg.Worker.RetryMaxAttempts,
		InitialDelay: cfg.Worker.RetryInitialDelay,
	}

	p := &Pipeline{}

	p.Cache = services.NewEmbeddingCache(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL, log)
	p.closers = append(p.closers, p.Cache.Close)

	registry := services.NewModelRegistry(services.NewGeminiEmbedderFactory(cfg.Gemini.APIKey, policy, log))
	p.Matcher = services.NewSemanticMatcher(registry, p.Cache, cfg.Gemini.EmbeddingModel)

	s3Client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, p.closeOnError(err)
	}
	if s3Client != nil {
		log.Info("s3 document source enabled", zap.String("endpoint", cfg.GetS3Endpoint()))
	}
	p.Loader = services.NewDocumentLoader(services.NewDocumentSource(s3Client, policy), services.NewTextExtractor(), log)

	if cfg.Qdrant.Enabled {
		index, err := services.NewQdrantService(
			cfg.Qdrant.URL,
			cfg.Qdrant.APIKey,
			cfg.Qdrant.Collection,
			cfg.Gemini.EmbeddingDimensions,
			log,
		)
		if err != nil {
			return nil, p.closeOnError(fmt.Errorf("failed to initialize qdrant: %w", err))
		}
		if err := index.InitCollection(ctx); err != nil {
			return nil, p.closeOnError(fmt.Errorf("failed to initialize qdrant collection: %w", err))
		}
		p.Index = index
		log.Info("qdrant index enabled", zap.String("collection", cfg.Qdrant.Collection))
	}

	reporters := services.MultiProgressReporter{services.NewLogProgressReporter(log)}
	if cfg.AMQP.URL != "" {
		amqpReporter, closeFn, err := services.NewAMQPProgressReporter(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			log.Warn("rabbitmq progress disabled", zap.Error(err))
		} else {
			reporters = append(reporters, amqpReporter)
			p.closers = append(p.closers, closeFn)
			log.Info("rabbitmq progress enabled", zap.String("exchange", cfg.AMQP.Exchange))
		}
	}
	p.Progress = reporters

	return p, nil
}

// BatchOptions returns batch options bound to the pipeline's index and progress reporters.
func (p *Pipeline) BatchOptions(cfg *config.Config, concurrency int, log *zap.Logger) services.BatchOptions {
	return services.BatchOptions{
		Concurrency:   concurrency,
		DefaultSkills: cfg.Scoring.DefaultSkills,
		Progress:      p.Progress,
		Index:         p.Index,
		Log:           log,
	}
}

// Close releases every backend connection, returning the first error.
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// closeOnError releases what was opened so far and returns cause with any close error.
func (p *Pipeline) closeOnError(cause error) error {
	return errors.Join(cause, p.Close())
}

func newS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	endpoint := cfg.GetS3Endpoint()
	if endpoint == "" && cfg.S3.AccessKey == "" {
		return nil, nil
	}

	client, err := services.NewS3Client(ctx, services.S3Options{
		Endpoint:  endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}
	return client, nil
}
