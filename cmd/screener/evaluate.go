package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/bootstrap"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

// EvaluateConfig is the resolved configuration of one evaluate run.
type EvaluateConfig struct {
	JobDescriptions []string            `mapstructure:"jd"`
	Resumes         []string            `mapstructure:"resumes"`
	Weights         models.ScoreWeights `mapstructure:",squash"`
	Model           string              `mapstructure:"model"`
	OutDir          string              `mapstructure:"out-dir"`
	SQLitePath      string              `mapstructure:"sqlite"`
	MinScore        float64             `mapstructure:"min-score"`
	JDFilter        []string            `mapstructure:"jd-filter"`
	RoleFilter      []string            `mapstructure:"role-filter"`
	LocationFilter  []string            `mapstructure:"location-filter"`
	Top             int                 `mapstructure:"top"`
	Concurrency     int                 `mapstructure:"concurrency"`
	Interactive     bool                `mapstructure:"interactive"`
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score every resume against every job description",
	Example: `  screener evaluate --jd jds/ --resumes resumes/
  screener evaluate --jd backend.pdf --resumes s3://hiring/resumes/ --min-score 60 --interactive`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runEvaluate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	flags := evaluateCmd.Flags()
	flags.StringSlice("jd", nil, "job description files, directories or s3:// prefixes")
	flags.StringSlice("resumes", nil, "resume files, directories or s3:// prefixes")
	flags.Float64("hard-weight", 0.6, "weight of the keyword score")
	flags.Float64("semantic-weight", 0.4, "weight of the embedding score")
	flags.String("model", "", "embedding model")
	flags.String("out-dir", "outputs", "directory for the CSV export")
	flags.String("sqlite", "", "append results to this SQLite database")
	flags.Float64("min-score", 0, "only show rows with at least this final score")
	flags.StringSlice("jd-filter", nil, "only show these job descriptions")
	flags.StringSlice("role-filter", nil, "only show these job roles")
	flags.StringSlice("location-filter", nil, "only show these locations")
	flags.Int("top", 10, "candidates listed per job description")
	flags.Int("concurrency", 1, "pairs scored in parallel")
	flags.BoolP("interactive", "i", false, "browse candidates after scoring")

	for _, name := range []string{
		"jd", "resumes", "hard-weight", "semantic-weight", "model", "out-dir", "sqlite",
		"min-score", "jd-filter", "role-filter", "location-filter", "top", "concurrency", "interactive",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func getEvaluateConfig() (*EvaluateConfig, error) {
	var cfg EvaluateConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if len(cfg.JobDescriptions) == 0 {
		return nil, errors.New("at least one --jd is required")
	}
	if len(cfg.Resumes) == 0 {
		return nil, errors.New("at least one --resumes is required")
	}
	if cfg.Top < 0 {
		return nil, errors.New("--top must not be negative")
	}
	return &cfg, nil
}

// filter builds the table filter. --min-score only constrains when given.
func (c *EvaluateConfig) filter(minScoreSet bool) services.ResultFilter {
	f := services.ResultFilter{
		JDs:       c.JDFilter,
		JobRoles:  c.RoleFilter,
		Locations: c.LocationFilter,
	}
	if minScoreSet {
		minScore := c.MinScore
		f.MinScore = &minScore
	}
	return f
}

// weightsNeedNormalizing reports whether the weights will be rescaled to sum to 1.
func weightsNeedNormalizing(w models.ScoreWeights) bool {
	return math.Abs(w.Hard+w.Semantic-1) > 1e-9
}

func runEvaluate(ctx context.Context) error {
	zl, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer func() { _ = zl.Sync() }()

	cfg, err := getEvaluateConfig()
	if err != nil {
		zl.Error("invalid arguments", zap.Error(err))
		return err
	}

	if _, err := services.NormalizeWeights(cfg.Weights); err != nil {
		zl.Error("invalid weights", zap.Error(err))
		return err
	}
	if weightsNeedNormalizing(cfg.Weights) {
		zl.Warn("weights do not sum to 1, they will be normalized",
			zap.Float64("hard_weight", cfg.Weights.Hard),
			zap.Float64("semantic_weight", cfg.Weights.Semantic),
		)
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

	jds, resumes, failures := loadDocuments(ctx, pipeline.Loader, cfg)
	if len(jds) == 0 || len(resumes) == 0 {
		logFailures(zl, failures)
		err := fmt.Errorf("nothing to evaluate: %d job descriptions and %d resumes loaded", len(jds), len(resumes))
		zl.Error("exiting", zap.Error(err))
		return err
	}

	batch := services.NewBatchEvaluator(pipeline.Matcher, pipeline.BatchOptions(appConfig, cfg.Concurrency, zl))
	report, err := batch.EvaluateBatch(ctx, services.BatchRequest{
		EvaluationID:    uuid.New(),
		JobDescriptions: jds,
		Resumes:         resumes,
		Weights:         cfg.Weights,
		Model:           cfg.Model,
	})
	if err != nil {
		zl.Error("evaluation failed", zap.Error(err))
		return err
	}
	failures = append(failures, report.Failures...)
	logFailures(zl, failures)

	table := report.Table.Sorted()
	now := time.Now()

	path, err := services.ExportCSV(cfg.OutDir, table, now)
	if err != nil {
		zl.Error("exporting csv", zap.Error(err))
		return err
	}
	zl.Info("results saved", zap.String("path", path), zap.Int("rows", table.Len()))

	if cfg.SQLitePath != "" {
		if err := appendToSQLite(ctx, cfg.SQLitePath, table.Rows); err != nil {
			zl.Error("saving to sqlite", zap.Error(err))
			return err
		}
		zl.Info("results appended to sqlite", zap.String("path", cfg.SQLitePath))
	}

	filtered := table.Filter(cfg.filter(viper.IsSet("min-score")))
	zl.Info("filtered candidates", zap.Int("matched", filtered.Len()), zap.Int("total", table.Len()))
	logTopCandidates(zl, filtered.TopByJob(cfg.Top))

	if cfg.Interactive {
		texts := make(map[string]string, len(resumes))
		for _, r := range resumes {
			texts[r.Name] = r.Text
		}
		if err := browseCandidates(filtered, texts); err != nil && !errors.Is(err, errExit) {
			zl.Error("candidate browser", zap.Error(err))
			return err
		}
	}

	return nil
}

func loadDocuments(ctx context.Context, loader services.DocumentLoader, cfg *EvaluateConfig) ([]models.JobDescription, []models.Resume, []models.Failure) {
	jdRefs, failures := loader.Resolve(ctx, cfg.JobDescriptions)
	resumeRefs, more := loader.Resolve(ctx, cfg.Resumes)
	failures = append(failures, more...)

	jds, more := loader.LoadJobDescriptions(ctx, jdRefs)
	failures = append(failures, more...)

	resumes, more := loader.LoadResumes(ctx, resumeRefs)
	failures = append(failures, more...)

	return jds, resumes, failures
}

func appendToSQLite(ctx context.Context, path string, rows []models.MatchResult) error {
	sink, err := repositories.NewSQLiteResultSink(path)
	if err != nil {
		return err
	}
	defer sink.Close()

	return sink.Append(ctx, rows)
}

func logFailures(zl *zap.Logger, failures []models.Failure) {
	for _, f := range failures {
		zl.Warn("skipped",
			zap.String("document", f.Document),
			zap.String("stage", string(f.Stage)),
			zap.String("reason", f.Message),
		)
	}
}

func logTopCandidates(zl *zap.Logger, rankings []models.JobRanking) {
	for _, ranking := range rankings {
		for i, row := range ranking.Candidates {
			zl.Info("top candidate",
				zap.String("jd", ranking.JD),
				zap.Int("rank", i+1),
				zap.String("resume", row.Resume),
				zap.Float64("final_score", models.RoundScore(row.FinalScore)),
				zap.String("verdict", string(row.Verdict)),
				zap.String("location", row.Location),
			)
		}
	}
}
