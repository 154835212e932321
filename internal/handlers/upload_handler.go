package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

// uploadFields maps multipart field names to the document type they carry.
var uploadFields = []struct {
	field   string
	docType models.DocumentType
}{
	{field: "job_description", docType: models.DocTypeJobDescription},
	{field: "resume", docType: models.DocTypeResume},
}

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	maxFileSize    int64
	log            *zap.Logger
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	maxFileSize int64,
	log *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		maxFileSize:    maxFileSize,
		log:            logger.OrNop(log),
	}
}

// HandleUpload handles POST /upload. Every file is validated before any is
// stored, and a failed upload leaves no documents behind.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	var uploads []pendingUpload
	for _, upload := range uploadFields {
		for _, file := range form.File[upload.field] {
			uploads = append(uploads, pendingUpload{file: file, docType: upload.docType})
		}
	}

	if len(uploads) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No valid files uploaded. Please upload 'job_description' and/or 'resume' as PDF or DOCX files.",
		})
	}

	for _, upload := range uploads {
		if err := h.validate(upload.file); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	saved := make([]models.Document, 0, len(uploads))
	for _, upload := range uploads {
		doc, status, err := h.saveDocument(upload.file, upload.docType)
		if err != nil {
			h.rollback(saved)
			return c.Status(status).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		saved = append(saved, doc)
	}

	responses := make([]models.UploadResponse, 0, len(saved))
	for _, doc := range saved {
		responses = append(responses, models.UploadResponse{
			ID:           doc.ID.String(),
			Filename:     doc.Filename,
			OriginalName: doc.OriginalFileName,
			FileType:     string(doc.FileType),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Files uploaded successfully",
		"documents": responses,
	})
}

type pendingUpload struct {
	file    *multipart.FileHeader
	docType models.DocumentType
}

func (h *UploadHandler) validate(file *multipart.FileHeader) error {
	if file.Size > h.maxFileSize {
		return fmt.Errorf("%s is too large. Max size: %d bytes", file.Filename, h.maxFileSize)
	}
	if !services.IsSupported(file.Filename) {
		return fmt.Errorf("%s: %w: %q", file.Filename, services.ErrUnsupportedFormat, filepath.Ext(file.Filename))
	}
	return nil
}

// rollback removes documents stored earlier in a failed request.
func (h *UploadHandler) rollback(docs []models.Document) {
	for _, doc := range docs {
		if err := h.docRepo.Delete(doc.ID); err != nil {
			h.log.Warn("failed to remove document record", zap.String("id", doc.ID.String()), zap.Error(err))
		}
		if err := h.storageService.DeleteFile(doc.Filename); err != nil {
			h.log.Warn("failed to remove uploaded file", zap.String("file", doc.Filename), zap.Error(err))
		}
	}
}

func (h *UploadHandler) saveDocument(file *multipart.FileHeader, docType models.DocumentType) (models.Document, int, error) {
	filename, filePath, err := h.storageService.SaveFile(file, docType)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFormat) {
			return models.Document{}, fiber.StatusBadRequest, fmt.Errorf("%s: %w", file.Filename, err)
		}
		return models.Document{}, fiber.StatusInternalServerError, fmt.Errorf("failed to save %s: %w", file.Filename, err)
	}

	doc := models.Document{
		ID:               uuid.New(),
		Filename:         filename,
		OriginalFileName: file.Filename,
		FileType:         docType,
		FilePath:         filePath,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := h.docRepo.Create(&doc); err != nil {
		// Cleanup uploaded file if database insert fails
		if rmErr := h.storageService.DeleteFile(filename); rmErr != nil {
			h.log.Warn("failed to remove orphaned upload", zap.String("file", filename), zap.Error(rmErr))
		}
		return models.Document{}, fiber.StatusInternalServerError, fmt.Errorf("failed to save document record for %s", file.Filename)
	}

	h.log.Info("document uploaded", zap.String("id", doc.ID.String()), zap.String("type", string(docType)), zap.String("file", file.Filename))

	return doc, fiber.StatusCreated, nil
}
