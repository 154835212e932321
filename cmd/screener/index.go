package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/bootstrap"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/services"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Store document embeddings in the Qdrant index for similarity search",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jdLocations, _ := cmd.Flags().GetStringSlice("jd")
		resumeLocations, _ := cmd.Flags().GetStringSlice("resumes")
		return runIndex(cmd.Context(), jdLocations, resumeLocations)
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)

	// Flags are read directly so they do not collide with the evaluate bindings.
	indexCmd.Flags().StringSlice("jd", nil, "job description files, directories or s3:// prefixes")
	indexCmd.Flags().StringSlice("resumes", nil, "resume files, directories or s3:// prefixes")
}

func runIndex(ctx context.Context, jdLocations, resumeLocations []string) error {
	zl, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer func() { _ = zl.Sync() }()

	if len(jdLocations) == 0 && len(resumeLocations) == 0 {
		err := errors.New("give at least one --jd or --resumes location")
		zl.Error("invalid arguments", zap.Error(err))
		return err
	}

	if !appConfig.Qdrant.Enabled {
		zl.Error("exiting", zap.Error(services.ErrIndexDisabled), zap.String("hint", "set QDRANT_ENABLED=true"))
		return services.ErrIndexDisabled
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := bootstrap.NewPipeline(ctx, appConfig, zl)
	if err != nil {
		zl.Error("initializing pipeline", zap.Error(err))
		return err
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			zl.Warn("closing pipeline", zap.Error(err))
		}
	}()

	jds, resumes, failures := loadDocuments(ctx, pipeline.Loader, &EvaluateConfig{
		JobDescriptions: jdLocations,
		Resumes:         resumeLocations,
	})

	indexed, more := services.IndexDocuments(ctx, pipeline.Matcher, pipeline.Index, viper.GetString("model"), jds, resumes)
	failures = append(failures, more...)
	logFailures(zl, failures)

	zl.Info("ingestion summary", zap.Int("indexed", indexed), zap.Int("failed", len(failures)))
	if len(failures) > 0 {
		return errors.New("some documents failed to index")
	}
	return nil
}
