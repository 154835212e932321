package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-screener/internal/models"
)

type EvaluationRepository interface {
	Create(eval *models.Evaluation) error
	FindByID(id uuid.UUID) (*models.Evaluation, error)
	UpdateStatus(id uuid.UUID, status models.EvaluationStatus) error
	Complete(id uuid.UUID, totalPairs int, failures []models.Failure) error
	UpdateError(id uuid.UUID, errorMsg string, failures []models.Failure) error
	FindPendingJobs(limit int) ([]models.Evaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(eval *models.Evaluation) error {
	if err := r.db.Create(eval).Error; err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	return nil
}

func (r *evaluationRepository) FindByID(id uuid.UUID) (*models.Evaluation, error) {
	var eval models.Evaluation
	if err := r.db.Where("id = ?", id).First(&eval).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find evaluation: %w", err)
	}
	return &eval, nil
}

func (r *evaluationRepository) UpdateStatus(id uuid.UUID, status models.EvaluationStatus) error {
	result := r.db.Model(&models.Evaluation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
	}

	return nil
}

func (r *evaluationRepository) Complete(id uuid.UUID, totalPairs int, failures []models.Failure) error {
	return r.finish(id, models.Evaluation{
		Status:     models.StatusCompleted,
		TotalPairs: totalPairs,
		Failures:   failures,
	}, "status", "total_pairs", "failures", "updated_at")
}

func (r *evaluationRepository) UpdateError(id uuid.UUID, errorMsg string, failures []models.Failure) error {
	return r.finish(id, models.Evaluation{
		Status:       models.StatusFailed,
		ErrorMessage: &errorMsg,
		Failures:     failures,
	}, "status", "error_message", "failures", "updated_at")
}

// finish writes the selected columns through the struct so json serialized fields are encoded.
func (r *evaluationRepository) finish(id uuid.UUID, values models.Evaluation, columns ...string) error {
	values.UpdatedAt = time.Now()

	result := r.db.Model(&models.Evaluation{}).
		Where("id = ?", id).
		Select(columns).
		Updates(&values)

	if result.Error != nil {
		return fmt.Errorf("failed to update evaluation: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
	}

	return nil
}

func (r *evaluationRepository) FindPendingJobs(limit int) ([]models.Evaluation, error) {
	var evals []models.Evaluation
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&evals).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return evals, nil
}
