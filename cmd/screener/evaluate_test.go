package main

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-screener/internal/models"
)

func TestGetEvaluateConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("jd", []string{"jds/"})
	viper.Set("resumes", []string{"s3://hiring/resumes/"})
	viper.Set("hard-weight", 2.0)
	viper.Set("semantic-weight", 1.0)
	viper.Set("top", 3)
	viper.Set("location-filter", []string{"Berlin"})

	cfg, err := getEvaluateConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"jds/"}, cfg.JobDescriptions)
	assert.Equal(t, models.ScoreWeights{Hard: 2, Semantic: 1}, cfg.Weights)
	assert.Equal(t, 3, cfg.Top)
	assert.True(t, weightsNeedNormalizing(cfg.Weights))

	f := cfg.filter(false)
	assert.Nil(t, f.MinScore)
	assert.Equal(t, []string{"Berlin"}, f.Locations)

	cfg.MinScore = 0
	f = cfg.filter(true)
	require.NotNil(t, f.MinScore)
	assert.Equal(t, 0.0, *f.MinScore)
}

func TestGetEvaluateConfigRequiresInputs(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("resumes", []string{"resumes/"})
	_, err := getEvaluateConfig()
	assert.ErrorContains(t, err, "--jd")

	viper.Set("jd", []string{"jd.pdf"})
	viper.Set("top", -1)
	_, err = getEvaluateConfig()
	assert.ErrorContains(t, err, "--top")
}

func TestWeightsNeedNormalizing(t *testing.T) {
	assert.False(t, weightsNeedNormalizing(models.ScoreWeights{Hard: 0.6, Semantic: 0.4}))
	assert.False(t, weightsNeedNormalizing(models.ScoreWeights{Hard: 0.7, Semantic: 0.3}))
	assert.True(t, weightsNeedNormalizing(models.ScoreWeights{Hard: 1, Semantic: 1}))
}

func TestCandidateDetails(t *testing.T) {
	row := models.MatchResult{
		JD:            "backend.pdf",
		Resume:        "alice.pdf",
		JobRole:       "Backend Engineer",
		HardScore:     66.666,
		SemanticScore: 80,
		FinalScore:    72.004,
		Verdict:       models.VerdictMedium,
		Location:      "Berlin",
		MissingSkills: []string{},
	}

	details := candidateDetails(row, strings.Repeat("a", previewLimit+100))
	assert.Contains(t, details, "Missing skills:  "+noMissingSkills)
	assert.Contains(t, details, "Hard score:      66.67")
	assert.Contains(t, details, "Final score:     72.00 (Medium)")
	assert.Contains(t, details, strings.Repeat("a", previewLimit)+"...")
	assert.NotContains(t, details, strings.Repeat("a", previewLimit+1))

	row.MissingSkills = []string{"go", "sql"}
	assert.Contains(t, candidateDetails(row, ""), "Missing skills:  go, sql")
	assert.Equal(t, "alice.pdf / backend.pdf / 72.00 Medium", candidateLabel(row))
}
