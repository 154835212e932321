package handlers

import (
	"errors"
	"io/fs"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

type DocumentHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	index          services.QdrantService
	log            *zap.Logger
}

// NewDocumentHandler builds the document handler. A nil index skips vector cleanup.
func NewDocumentHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	index services.QdrantService,
	log *zap.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		docRepo:        docRepo,
		storageService: storageService,
		index:          index,
		log:            logger.OrNop(log),
	}
}

// HandleDelete handles DELETE /documents/:id. It removes the stored file, the
// record and the document's vector index points.
func (h *DocumentHandler) HandleDelete(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID format",
		})
	}

	doc, err := h.docRepo.FindByID(docID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}

	if h.index != nil {
		// Points are keyed by the name results and search report.
		if err := h.index.DeleteDocument(c.UserContext(), doc.DisplayName()); err != nil {
			h.log.Error("failed to delete index points", zap.String("id", doc.ID.String()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to remove document from the vector index",
			})
		}
	}

	if err := h.docRepo.Delete(doc.ID); err != nil {
		h.log.Error("failed to delete document record", zap.String("id", doc.ID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete document",
		})
	}

	if err := h.storageService.DeleteFile(doc.Filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.log.Warn("failed to delete stored file", zap.String("file", doc.Filename), zap.Error(err))
	}

	h.log.Info("document deleted", zap.String("id", doc.ID.String()), zap.String("file", doc.DisplayName()))

	return c.JSON(fiber.Map{
		"message": "Document deleted",
		"id":      doc.ID.String(),
	})
}
