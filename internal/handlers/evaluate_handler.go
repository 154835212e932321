package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

type EvaluationHandler struct {
	evalRepo repositories.EvaluationRepository
	docRepo  repositories.DocumentRepository
	worker   services.Worker
	defaults models.ScoreWeights
	log      *zap.Logger
}

func NewEvaluationHandler(
	evalRepo repositories.EvaluationRepository,
	docRepo repositories.DocumentRepository,
	worker services.Worker,
	defaults models.ScoreWeights,
	log *zap.Logger,
) *EvaluationHandler {
	return &EvaluationHandler{
		evalRepo: evalRepo,
		docRepo:  docRepo,
		worker:   worker,
		defaults: defaults,
		log:      logger.OrNop(log),
	}
}

// HandleEvaluate handles POST /evaluate
func (h *EvaluationHandler) HandleEvaluate(c *fiber.Ctx) error {
	var req models.EvaluateRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if len(req.JobDescriptionIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_description_ids is required",
		})
	}

	if len(req.ResumeIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resume_ids is required",
		})
	}

	jdIDs, err := parseIDs(req.JobDescriptionIDs)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Invalid job_description_ids: %v", err),
		})
	}

	resumeIDs, err := parseIDs(req.ResumeIDs)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Invalid resume_ids: %v", err),
		})
	}

	weights := h.defaults
	if req.HardWeight != nil {
		weights.Hard = *req.HardWeight
	}
	if req.SemanticWeight != nil {
		weights.Semantic = *req.SemanticWeight
	}
	if _, err := services.NormalizeWeights(weights); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// Verify documents exist and carry the expected type
	if err := h.verifyDocuments(jdIDs, models.DocTypeJobDescription); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.verifyDocuments(resumeIDs, models.DocTypeResume); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	evaluation := &models.Evaluation{
		ID:                uuid.New(),
		JobDocumentIDs:    jdIDs,
		ResumeDocumentIDs: resumeIDs,
		HardWeight:        weights.Hard,
		SemanticWeight:    weights.Semantic,
		Status:            models.StatusQueued,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	if err := h.evalRepo.Create(evaluation); err != nil {
		h.log.Error("failed to create evaluation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create evaluation job",
		})
	}

	h.worker.EnqueueJob(evaluation.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.EvaluateResponse{
		ID:         evaluation.ID.String(),
		Status:     string(models.StatusQueued),
		TotalPairs: len(jdIDs) * len(resumeIDs),
	})
}

func (h *EvaluationHandler) verifyDocuments(ids []uuid.UUID, docType models.DocumentType) error {
	docs, err := h.docRepo.FindByIDs(ids)
	if err != nil {
		return fmt.Errorf("failed to look up %s documents", docType)
	}

	found := make(map[uuid.UUID]models.DocumentType, len(docs))
	for _, doc := range docs {
		found[doc.ID] = doc.FileType
	}

	for _, id := range ids {
		got, ok := found[id]
		if !ok {
			return fmt.Errorf("%s document %s not found", docType, id)
		}
		if got != docType {
			return fmt.Errorf("document %s is a %s, not a %s", id, got, docType)
		}
	}
	return nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	seen := make(map[uuid.UUID]struct{}, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid id", s)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
