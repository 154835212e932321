package services

import (
	"errors"
	"math"

	"alfredoptarigan/resume-screener/internal/models"
)

// ErrZeroWeights is returned when the hard and semantic weights sum to zero.
var ErrZeroWeights = errors.New("hard and semantic weights sum to zero")

// Lower bounds, inclusive, of the High and Medium verdict bands.
const (
	HighFitThreshold   = 75.0
	MediumFitThreshold = 50.0
)

// NormalizeWeights scales the weights so they sum to 1. Negative weights are allowed.
func NormalizeWeights(w models.ScoreWeights) (models.ScoreWeights, error) {
	sum := w.Hard + w.Semantic
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return models.ScoreWeights{}, ErrZeroWeights
	}
	return models.ScoreWeights{Hard: w.Hard / sum, Semantic: w.Semantic / sum}, nil
}

// FinalScore fuses the two scores with renormalized weights.
func FinalScore(hard, semantic float64, w models.ScoreWeights) (float64, error) {
	normalized, err := NormalizeWeights(w)
	if err != nil {
		return 0, err
	}
	return hard*normalized.Hard + semantic*normalized.Semantic, nil
}

// ClassifyVerdict buckets a final score. NaN falls through to Low.
func ClassifyVerdict(score float64) models.Verdict {
	switch {
	case score >= HighFitThreshold:
		return models.VerdictHigh
	case score >= MediumFitThreshold:
		return models.VerdictMedium
	default:
		return models.VerdictLow
	}
}
