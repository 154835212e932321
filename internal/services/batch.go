package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
)

type BatchEvaluator interface {
	EvaluateBatch(ctx context.Context, req BatchRequest) (*BatchReport, error)
}

type BatchRequest struct {
	EvaluationID    uuid.UUID
	JobDescriptions []models.JobDescription
	Resumes         []models.Resume
	Weights         models.ScoreWeights
	// Model selects the embedding model; empty uses the matcher default.
	Model string
}

// BatchReport holds the unsorted table in job description × resume order
// plus the pairs that could not be scored.
type BatchReport struct {
	Table    *ResultTable
	Failures []models.Failure
}

type BatchOptions struct {
	// Concurrency bounds how many pairs are scored at once. Values below 2 run sequentially.
	Concurrency   int
	DefaultSkills []string
	Progress      ProgressReporter
	// Index, when set, receives every document embedding after scoring.
	Index QdrantService
	Log   *zap.Logger
}

type batchEvaluator struct {
	matcher SemanticMatcher
	opts    BatchOptions
	log     *zap.Logger
}

func NewBatchEvaluator(matcher SemanticMatcher, opts BatchOptions) BatchEvaluator {
	if opts.Progress == nil {
		opts.Progress = nopProgressReporter{}
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &batchEvaluator{
		matcher: matcher,
		opts:    opts,
		log:     logger.OrNop(opts.Log),
	}
}

type pairOutcome struct {
	result  models.MatchResult
	failure *models.Failure
}

// EvaluateBatch implements BatchEvaluator.
func (b *batchEvaluator) EvaluateBatch(ctx context.Context, req BatchRequest) (*BatchReport, error) {
	if _, err := NormalizeWeights(req.Weights); err != nil {
		return nil, fmt.Errorf("invalid score weights: %w", err)
	}

	jds := b.prepareJobDescriptions(req.JobDescriptions)
	total := len(jds) * len(req.Resumes)
	outcomes := make([]pairOutcome, total)

	b.log.Info("starting batch evaluation",
		zap.Int("job_descriptions", len(jds)),
		zap.Int("resumes", len(req.Resumes)),
		zap.Int("pairs", total),
		zap.Int("concurrency", b.opts.Concurrency),
	)

	var (
		mu   sync.Mutex
		done int
	)
	evaluate := func(idx int) {
		jd := jds[idx/len(req.Resumes)]
		resume := req.Resumes[idx%len(req.Resumes)]
		outcomes[idx] = b.evaluatePair(ctx, req, jd, resume)

		mu.Lock()
		done++
		p := Progress{
			EvaluationID: req.EvaluationID,
			Done:         done,
			Total:        total,
			JD:           jd.Name,
			Resume:       resume.Name,
			Failed:       outcomes[idx].failure != nil,
		}
		mu.Unlock()
		b.opts.Progress.Report(ctx, p)
	}

	if err := b.run(ctx, total, evaluate); err != nil {
		return nil, err
	}

	report := &BatchReport{Table: NewResultTable(make([]models.MatchResult, 0, total))}
	for _, outcome := range outcomes {
		if outcome.failure != nil {
			report.Failures = append(report.Failures, *outcome.failure)
			continue
		}
		report.Table.Rows = append(report.Table.Rows, outcome.result)
	}

	if b.opts.Index != nil {
		b.indexDocuments(ctx, req, jds)
	}

	b.log.Info("batch evaluation finished",
		zap.Int("scored", report.Table.Len()),
		zap.Int("failed", len(report.Failures)),
	)

	return report, nil
}

// run calls evaluate for every pair index, fanning out up to Concurrency workers.
func (b *batchEvaluator) run(ctx context.Context, total int, evaluate func(idx int)) error {
	if b.opts.Concurrency == 1 {
		for idx := 0; idx < total; idx++ {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("batch evaluation cancelled: %w", err)
			}
			evaluate(idx)
		}
		return nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < b.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				evaluate(idx)
			}
		}()
	}

	var err error
	for idx := 0; idx < total; idx++ {
		if err = ctx.Err(); err != nil {
			break
		}
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return fmt.Errorf("batch evaluation cancelled: %w", err)
	}
	return nil
}

func (b *batchEvaluator) prepareJobDescriptions(in []models.JobDescription) []models.JobDescription {
	jds := make([]models.JobDescription, len(in))
	for i, jd := range in {
		if jd.Skills == nil {
			jd.Skills = ExtractSkills(jd.Text, b.opts.DefaultSkills)
		}
		if jd.Role == "" {
			jd.Role = ExtractJobRole(jd.Text)
		}
		b.log.Debug("job description prepared",
			zap.String("jd", jd.Name),
			zap.String("role", jd.Role),
			zap.Strings("skills", jd.Skills),
		)
		jds[i] = jd
	}
	return jds
}

func (b *batchEvaluator) evaluatePair(ctx context.Context, req BatchRequest, jd models.JobDescription, resume models.Resume) pairOutcome {
	hard, missing := HardMatchScore(resume.Text, jd.Skills)

	semantic, err := b.matcher.Score(ctx, resume.Text, jd.Text, req.Model)
	if err != nil {
		b.log.Warn("semantic scoring failed",
			zap.String("jd", jd.Name),
			zap.String("resume", resume.Name),
			zap.Error(err),
		)
		return pairOutcome{failure: &models.Failure{
			Document: fmt.Sprintf("%s / %s", jd.Name, resume.Name),
			Stage:    models.StageSemantic,
			Message:  err.Error(),
		}}
	}

	// Weights were validated up front.
	final, _ := FinalScore(hard, semantic, req.Weights)

	location := resume.Location
	if location == "" {
		location = ExtractLocation(resume.Text)
	}

	return pairOutcome{result: models.MatchResult{
		EvaluationID:  req.EvaluationID,
		JD:            jd.Name,
		Resume:        resume.Name,
		JobRole:       jd.Role,
		HardScore:     hard,
		SemanticScore: semantic,
		FinalScore:    final,
		Verdict:       ClassifyVerdict(final),
		Location:      location,
		MissingSkills: missing,
	}}
}

// indexDocuments stores each document embedding once. Failures are logged only.
func (b *batchEvaluator) indexDocuments(ctx context.Context, req BatchRequest, jds []models.JobDescription) {
	indexed, failures := IndexDocuments(ctx, b.matcher, b.opts.Index, req.Model, jds, req.Resumes)
	for _, f := range failures {
		b.log.Warn("failed to index document", zap.String("document", f.Document), zap.String("reason", f.Message))
	}
	b.log.Debug("documents indexed", zap.Int("count", indexed))
}
