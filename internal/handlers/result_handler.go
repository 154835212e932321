package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

const defaultTopN = 10

type ResultHandler struct {
	evalRepo   repositories.EvaluationRepository
	resultRepo repositories.MatchResultRepository
	log        *zap.Logger
	now        func() time.Time
}

func NewResultHandler(
	evalRepo repositories.EvaluationRepository,
	resultRepo repositories.MatchResultRepository,
	log *zap.Logger,
) *ResultHandler {
	return &ResultHandler{
		evalRepo:   evalRepo,
		resultRepo: resultRepo,
		log:        logger.OrNop(log),
		now:        time.Now,
	}
}

// HandleGetResult handles GET /result/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	evaluation, status, err := h.findEvaluation(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	filter, err := parseResultFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	top := c.QueryInt("top", defaultTopN)
	if top < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "top must not be negative",
		})
	}

	response := models.ResultResponse{
		ID:       evaluation.ID.String(),
		Status:   string(evaluation.Status),
		Failures: evaluation.Failures,
	}

	if evaluation.Status == models.StatusCompleted {
		table, err := h.loadTable(evaluation.ID)
		if err != nil {
			h.log.Error("failed to load results", zap.String("evaluation_id", evaluation.ID.String()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load evaluation results",
			})
		}

		sorted := table.Sorted()
		filtered := sorted.Filter(filter)
		response.Result = &models.EvaluationData{
			Weights: evaluation.Weights(),
			Total:   sorted.Len(),
			Matched: filtered.Len(),
			Rows:    filtered.Rows,
			TopByJD: filtered.TopByJob(top),
			Filters: sorted.FilterOptions(),
		}
	}

	if evaluation.Status == models.StatusFailed && evaluation.ErrorMessage != nil {
		response.ErrorMessage = evaluation.ErrorMessage
	}

	return c.JSON(response)
}

// HandleExport handles GET /result/:id/export
func (h *ResultHandler) HandleExport(c *fiber.Ctx) error {
	evaluation, status, err := h.findEvaluation(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if evaluation.Status != models.StatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": fmt.Sprintf("Evaluation is %s, results are not available yet", evaluation.Status),
		})
	}

	filter, err := parseResultFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	table, err := h.loadTable(evaluation.ID)
	if err != nil {
		h.log.Error("failed to load results", zap.String("evaluation_id", evaluation.ID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load evaluation results",
		})
	}

	var buf bytes.Buffer
	if err := table.Filter(filter).Sorted().WriteCSV(&buf); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to write CSV",
		})
	}

	c.Attachment(services.ExportFileName(h.now()))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

func (h *ResultHandler) findEvaluation(c *fiber.Ctx) (*models.Evaluation, int, error) {
	evalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.StatusBadRequest, errors.New("Invalid evaluation ID format")
	}

	evaluation, err := h.evalRepo.FindByID(evalID)
	if err != nil {
		return nil, fiber.StatusNotFound, errors.New("Evaluation not found")
	}
	return evaluation, fiber.StatusOK, nil
}

func (h *ResultHandler) loadTable(evalID uuid.UUID) (*services.ResultTable, error) {
	rows, err := h.resultRepo.FindByEvaluation(evalID)
	if err != nil {
		return nil, err
	}
	return services.NewResultTable(rows), nil
}

// parseResultFilter reads repeated jd, role and location parameters plus min_score.
func parseResultFilter(c *fiber.Ctx) (services.ResultFilter, error) {
	filter := services.ResultFilter{
		JDs:       queryValues(c, "jd"),
		JobRoles:  queryValues(c, "role"),
		Locations: queryValues(c, "location"),
	}

	if raw := strings.TrimSpace(c.Query("min_score")); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, errors.New("min_score must be a number")
		}
		filter.MinScore = &minScore
	}
	return filter, nil
}

func queryValues(c *fiber.Ctx, key string) []string {
	var values []string
	for _, v := range c.Context().QueryArgs().PeekMulti(key) {
		if s := strings.TrimSpace(string(v)); s != "" {
			values = append(values, s)
		}
	}
	return values
}
