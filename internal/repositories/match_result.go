package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-screener/internal/models"
)

// MatchResultRepository stores screening rows. Rows are only ever appended.
type MatchResultRepository interface {
	CreateBatch(results []models.MatchResult) error
	FindByEvaluation(evalID uuid.UUID) ([]models.MatchResult, error)
}

type matchResultRepository struct {
	db *gorm.DB
}

func NewMatchResultRepository(db *gorm.DB) MatchResultRepository {
	return &matchResultRepository{db: db}
}

// CreateBatch implements MatchResultRepository.
func (r *matchResultRepository) CreateBatch(results []models.MatchResult) error {
	if len(results) == 0 {
		return nil
	}

	for i := range results {
		if results[i].ID == uuid.Nil {
			results[i].ID = uuid.New()
		}
	}

	if err := r.db.CreateInBatches(results, 200).Error; err != nil {
		return fmt.Errorf("failed to create match results: %w", err)
	}
	return nil
}

// FindByEvaluation implements MatchResultRepository.
func (r *matchResultRepository) FindByEvaluation(evalID uuid.UUID) ([]models.MatchResult, error) {
	var results []models.MatchResult
	err := r.db.
		Where("evaluation_id = ?", evalID).
		Order("created_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find match results: %w", err)
	}
	return results, nil
}
