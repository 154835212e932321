package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"alfredoptarigan/resume-screener/internal/models"
)

// DefaultSkills is used when a job description has no usable skills section.
var DefaultSkills = []string{"python", "sql", "machine learning", "data analysis"}

// KnownCities is the closed set of locations recognized in resumes, in match priority order.
var KnownCities = []string{"Hyderabad", "Bangalore", "Bengaluru", "Pune", "Delhi", "NCR", "Mumbai", "Chennai", "Kolkata"}

const skillsMarker = "skills"

// ExtractSkills splits the text after the first "skills" on commas. When the
// marker is missing or yields nothing usable it returns a copy of defaults,
// or DefaultSkills when defaults is empty.
func ExtractSkills(jdText string, defaults []string) []string {
	if len(defaults) == 0 {
		defaults = DefaultSkills
	}

	text := strings.ToLower(jdText)
	idx := strings.Index(text, skillsMarker)
	if idx < 0 {
		return append([]string(nil), defaults...)
	}

	var skills []string
	for _, piece := range strings.Split(text[idx+len(skillsMarker):], ",") {
		piece = trimSkill(piece)
		if utf8.RuneCountInString(piece) > 1 {
			skills = append(skills, piece)
		}
	}

	if len(skills) == 0 {
		return append([]string(nil), defaults...)
	}
	return skills
}

// trimSkill drops surrounding whitespace, the header punctuation after "skills"
// and trailing sentence punctuation. Leading dots are kept for names like ".net".
func trimSkill(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, ":;-*• \t")
	s = strings.TrimRight(s, ".:; \t")
	return strings.TrimSpace(s)
}

var cityPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(KnownCities))
	for i, city := range KnownCities {
		patterns[i] = regexp.MustCompile(fmt.Sprintf(`(?i)\b%s\b`, regexp.QuoteMeta(city)))
	}
	return patterns
}()

// ExtractLocation returns the first known city, in list order, that appears as a whole word.
func ExtractLocation(text string) string {
	for i, pattern := range cityPatterns {
		if pattern.MatchString(text) {
			return KnownCities[i]
		}
	}
	return models.UnknownLabel
}

var roleKeywords = []string{"role", "position", "title"}

// ExtractJobRole returns the first line mentioning a role keyword, falling back to the first line.
func ExtractJobRole(jdText string) string {
	if strings.TrimSpace(jdText) == "" {
		return models.UnknownLabel
	}

	lines := strings.Split(strings.ReplaceAll(jdText, "\r\n", "\n"), "\n")
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, keyword := range roleKeywords {
			if strings.Contains(lower, keyword) {
				return strings.TrimSpace(line)
			}
		}
	}

	return strings.TrimSpace(lines[0])
}
