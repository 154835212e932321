package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Verdict string

const (
	VerdictHigh   Verdict = "High"
	VerdictMedium Verdict = "Medium"
	VerdictLow    Verdict = "Low"
)

// UnknownLabel is used when no location or role can be derived from a document.
const UnknownLabel = "Unknown"

// JobDescription is a job description after extraction. Skills are extracted once per batch.
type JobDescription struct {
	Name   string
	Text   string
	Skills []string
	Role   string
}

type Resume struct {
	Name     string
	Text     string
	Location string
}

// ScoreWeights are relative weights. They are renormalized to sum to 1 before use.
type ScoreWeights struct {
	Hard     float64 `json:"hard_weight" mapstructure:"hard-weight"`
	Semantic float64 `json:"semantic_weight" mapstructure:"semantic-weight"`
}

// MatchResult is one row of the screening table for a (job description, resume) pair.
type MatchResult struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	EvaluationID  uuid.UUID `gorm:"type:uuid;index" json:"evaluation_id"`
	JD            string    `gorm:"column:jd;type:text" json:"jd"`
	Resume        string    `gorm:"type:text" json:"resume"`
	JobRole       string    `gorm:"type:text" json:"job_role"`
	HardScore     float64   `json:"hard_score"`
	SemanticScore float64   `json:"semantic_score"`
	FinalScore    float64   `json:"final_score"`
	Verdict       Verdict   `gorm:"type:text" json:"verdict"`
	Location      string    `gorm:"type:text" json:"location"`
	MissingSkills []string  `gorm:"type:jsonb;serializer:json" json:"missing_skills"`
	CreatedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (MatchResult) TableName() string {
	return "match_results"
}

// RoundScore rounds a score to two decimals for display and export.
func RoundScore(score float64) float64 {
	return math.Round(score*100) / 100
}

// MissingSkillsText joins missing skills for display.
func (m MatchResult) MissingSkillsText() string {
	return strings.Join(m.MissingSkills, ", ")
}

type FailureStage string

const (
	StageFetch    FailureStage = "fetch"
	StageExtract  FailureStage = "extract"
	StageSemantic FailureStage = "semantic"
	StagePersist  FailureStage = "persist"
	StageIndex    FailureStage = "index"
)

// Failure attributes an error to a single document or pair so the rest of a batch can continue.
type Failure struct {
	Document string       `json:"document"`
	Stage    FailureStage `json:"stage"`
	Message  string       `json:"message"`
}
