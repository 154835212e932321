package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/services"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 50
)

type SearchHandler struct {
	matcher services.SemanticMatcher
	index   services.QdrantService
	log     *zap.Logger
}

// NewSearchHandler builds a handler over the vector index. A nil index disables search.
func NewSearchHandler(matcher services.SemanticMatcher, index services.QdrantService, log *zap.Logger) *SearchHandler {
	return &SearchHandler{
		matcher: matcher,
		index:   index,
		log:     logger.OrNop(log),
	}
}

// HandleSearch handles POST /search
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	if h.index == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": services.ErrIndexDisabled.Error(),
		})
	}

	var req models.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	switch models.DocumentType(req.DocType) {
	case "", models.DocTypeJobDescription, models.DocTypeResume:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "doc_type must be 'job_description' or 'resume'",
		})
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	embedding, err := h.matcher.Embedding(c.UserContext(), text, h.matcher.DefaultModel())
	if err != nil {
		h.log.Error("failed to embed search query", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to embed search text",
		})
	}

	results, err := h.index.SearchSimilar(c.UserContext(), embedding, req.DocType, limit)
	if err != nil {
		h.log.Error("vector search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Search failed",
		})
	}

	return c.JSON(fiber.Map{
		"results": results,
	})
}
