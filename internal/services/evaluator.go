package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
)

// EvaluatorService runs stored evaluations: it loads the referenced documents,
// scores every pair and persists the rows.
type EvaluatorService interface {
	ProcessEvaluation(ctx context.Context, evalID uuid.UUID) error
}

type evaluatorService struct {
	evalRepo   repositories.EvaluationRepository
	docRepo    repositories.DocumentRepository
	resultRepo repositories.MatchResultRepository
	loader     DocumentLoader
	batch      BatchEvaluator
	log        *zap.Logger
}

func NewEvaluatorService(
	evalRepo repositories.EvaluationRepository,
	docRepo repositories.DocumentRepository,
	resultRepo repositories.MatchResultRepository,
	loader DocumentLoader,
	batch BatchEvaluator,
	log *zap.Logger,
) EvaluatorService {
	return &evaluatorService{
		evalRepo:   evalRepo,
		docRepo:    docRepo,
		resultRepo: resultRepo,
		loader:     loader,
		batch:      batch,
		log:        logger.OrNop(log),
	}
}

// ProcessEvaluation implements EvaluatorService.
func (e *evaluatorService) ProcessEvaluation(ctx context.Context, evalID uuid.UUID) error {
	if err := e.evalRepo.UpdateStatus(evalID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	log := e.log.With(zap.String("evaluation_id", evalID.String()))
	log.Info("starting evaluation")

	evaluation, err := e.evalRepo.FindByID(evalID)
	if err != nil {
		return e.fail(evalID, fmt.Errorf("failed to load evaluation: %w", err), nil)
	}

	jdRefs, failures, err := e.documentRefs(evaluation.JobDocumentIDs)
	if err != nil {
		return e.fail(evalID, err, nil)
	}
	resumeRefs, resumeFailures, err := e.documentRefs(evaluation.ResumeDocumentIDs)
	if err != nil {
		return e.fail(evalID, err, failures)
	}
	failures = append(failures, resumeFailures...)

	jds, loadFailures := e.loader.LoadJobDescriptions(ctx, jdRefs)
	failures = append(failures, loadFailures...)
	resumes, loadFailures := e.loader.LoadResumes(ctx, resumeRefs)
	failures = append(failures, loadFailures...)

	report, err := e.batch.EvaluateBatch(ctx, BatchRequest{
		EvaluationID:    evalID,
		JobDescriptions: jds,
		Resumes:         resumes,
		Weights:         evaluation.Weights(),
	})
	if err != nil {
		return e.fail(evalID, err, failures)
	}
	failures = append(failures, report.Failures...)

	if err := e.resultRepo.CreateBatch(report.Table.Rows); err != nil {
		return e.fail(evalID, err, failures)
	}

	if err := e.evalRepo.Complete(evalID, len(jds)*len(resumes), failures); err != nil {
		return fmt.Errorf("failed to complete evaluation: %w", err)
	}

	log.Info("evaluation completed",
		zap.Int("rows", report.Table.Len()),
		zap.Int("failures", len(failures)),
	)
	return nil
}

// documentRefs maps stored documents to loader references. Unknown ids become failures.
func (e *evaluatorService) documentRefs(ids []uuid.UUID) ([]DocumentRef, []models.Failure, error) {
	docs, err := e.docRepo.FindByIDs(ids)
	if err != nil {
		return nil, nil, err
	}

	found := make(map[uuid.UUID]bool, len(docs))
	refs := make([]DocumentRef, 0, len(docs))
	for _, doc := range docs {
		found[doc.ID] = true
		refs = append(refs, DocumentRef{Name: doc.DisplayName(), URI: doc.FilePath})
	}

	var failures []models.Failure
	for _, id := range ids {
		if !found[id] {
			failures = append(failures, models.Failure{
				Document: id.String(),
				Stage:    models.StageFetch,
				Message:  "document not found",
			})
		}
	}

	return refs, failures, nil
}

func (e *evaluatorService) fail(evalID uuid.UUID, cause error, failures []models.Failure) error {
	e.log.Error("evaluation failed", zap.String("evaluation_id", evalID.String()), zap.Error(cause))
	if err := e.evalRepo.UpdateError(evalID, cause.Error(), failures); err != nil {
		e.log.Error("failed to record evaluation error", zap.String("evaluation_id", evalID.String()), zap.Error(err))
	}
	return cause
}
