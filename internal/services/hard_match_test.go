package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartialRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "exact substring", a: "python", b: "experienced in python and sql", want: 100},
		{name: "argument order does not matter", a: "experienced in python and sql", b: "python", want: 100},
		{name: "equal length identical", a: "sql", b: "sql", want: 100},
		{name: "empty needle", a: "", b: "anything", want: 0},
		{name: "both empty", a: "", b: "", want: 0},
		{name: "one typo", a: "kubernetes", b: "deployed on kubernets clusters", want: 90},
		{name: "unrelated", a: "zzz", b: "abcdefg", want: 0},
		{name: "truncated at end of text", a: "python", b: "i know pyth", want: 80},
		{name: "short skill truncated at end", a: "sql", b: "data and sq", want: 80},
		{name: "truncated at start of text", a: "python", b: "thon and go", want: 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PartialRatio(tt.a, tt.b))
		})
	}
}

func TestPartialRatioBounds(t *testing.T) {
	t.Parallel()

	resume := strings.Repeat("golang developer with docker experience ", 50)
	for _, skill := range []string{"go", "docker", "machine learning", "terraform", "x"} {
		got := PartialRatio(skill, resume)
		assert.GreaterOrEqual(t, got, 0, skill)
		assert.LessOrEqual(t, got, 100, skill)
	}
}

func TestHardMatchScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		resume      string
		skills      []string
		wantScore   float64
		wantMissing []string
	}{
		{
			name:        "no skills",
			resume:      "anything",
			skills:      []string{},
			wantScore:   0,
			wantMissing: []string{},
		},
		{
			name:        "nil skills",
			resume:      "anything",
			skills:      nil,
			wantScore:   0,
			wantMissing: []string{},
		},
		{
			name:        "all present",
			resume:      "experienced in python and sql",
			skills:      []string{"python", "sql"},
			wantScore:   100,
			wantMissing: []string{},
		},
		{
			name:        "partial with original order",
			resume:      "Built REST services in Go, deployed with Docker",
			skills:      []string{"haskell", "go", "docker", "erlang"},
			wantScore:   50,
			wantMissing: []string{"haskell", "erlang"},
		},
		{
			name:        "skill truncated at end of resume",
			resume:      "i know pyth",
			skills:      []string{"python"},
			wantScore:   100,
			wantMissing: []string{},
		},
		{
			name:        "mixed case skills against sentence",
			resume:      "Proficient in python and sql development",
			skills:      []string{"Python", "SQL"},
			wantScore:   100,
			wantMissing: []string{},
		},
		{
			name:        "skill case and padding ignored",
			resume:      "python developer",
			skills:      []string{"  PYTHON "},
			wantScore:   100,
			wantMissing: []string{},
		},
		{
			name:        "duplicates evaluated independently",
			resume:      "sql only",
			skills:      []string{"sql", "cobol", "sql"},
			wantScore:   200.0 / 3.0,
			wantMissing: []string{"cobol"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			score, missing := HardMatchScore(tt.resume, tt.skills)
			assert.InDelta(t, tt.wantScore, score, 1e-9)
			assert.Equal(t, tt.wantMissing, missing)
		})
	}
}

func TestHardMatchThresholdIsStrict(t *testing.T) {
	t.Parallel()

	// "abcdefghij" against "abcdeXXXXX" keeps 5 of 10 characters: ratio 50.
	score, missing := HardMatchScore("abcdexxxxx", []string{"abcdefghij"})
	assert.Equal(t, 0.0, score)
	assert.Equal(t, []string{"abcdefghij"}, missing)
}
