package models

import (
	"time"

	"github.com/google/uuid"
)

type EvaluationStatus string

const (
	StatusQueued     EvaluationStatus = "queued"
	StatusProcessing EvaluationStatus = "processing"
	StatusCompleted  EvaluationStatus = "completed"
	StatusFailed     EvaluationStatus = "failed"
)

// Evaluation is one batch screening run over a set of job descriptions and resumes.
type Evaluation struct {
	ID                uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobDocumentIDs    []uuid.UUID      `gorm:"type:jsonb;serializer:json" json:"job_description_ids"`
	ResumeDocumentIDs []uuid.UUID      `gorm:"type:jsonb;serializer:json" json:"resume_ids"`
	HardWeight        float64          `gorm:"not null" json:"hard_weight"`
	SemanticWeight    float64          `gorm:"not null" json:"semantic_weight"`
	Status            EvaluationStatus `gorm:"not null;default:'queued'" json:"status"`
	TotalPairs        int              `json:"total_pairs"`
	Failures          []Failure        `gorm:"type:jsonb;serializer:json" json:"failures,omitempty"`
	ErrorMessage      *string          `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt         time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

// Weights returns the weights the evaluation was requested with.
func (e *Evaluation) Weights() ScoreWeights {
	return ScoreWeights{Hard: e.HardWeight, Semantic: e.SemanticWeight}
}
