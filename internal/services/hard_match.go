package services

import (
	"math"
	"strings"

	"github.com/hbollon/go-edlib"
)

// HardMatchThreshold is the partial ratio a skill must exceed to count as present.
const HardMatchThreshold = 70

// HardMatchScore returns the percentage of skills found in the resume and the
// skills that were not found, in their original order.
func HardMatchScore(resumeText string, skills []string) (float64, []string) {
	missing := []string{}
	if len(skills) == 0 {
		return 0, missing
	}

	resume := strings.ToLower(resumeText)
	found := 0
	for _, skill := range skills {
		if PartialRatio(strings.ToLower(strings.TrimSpace(skill)), resume) > HardMatchThreshold {
			found++
			continue
		}
		missing = append(missing, skill)
	}

	return float64(found) / float64(len(skills)) * 100, missing
}

// PartialRatio scores 0..100 how well the shorter string matches its best
// aligned substring of the longer one, including windows truncated at either end.
func PartialRatio(a, b string) int {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	n := len(shorter)
	if n == 0 {
		return 0
	}
	if n == len(longer) {
		return ratio(string(shorter), string(longer))
	}

	need := make(map[rune]int, n)
	for _, r := range shorter {
		need[r]++
	}
	have := make(map[rune]int, n)
	overlap := 0
	for _, r := range longer[:n] {
		if have[r] < need[r] {
			overlap++
		}
		have[r]++
	}

	needle := string(shorter)
	best := 0
	for start := 0; ; start++ {
		// overlap/n bounds the window ratio from above, so hopeless windows are skipped.
		if bound := int(math.Round(float64(overlap) / float64(n) * 100)); bound > best {
			if score := ratio(needle, string(longer[start:start+n])); score > best {
				best = score
				if best == 100 {
					return best
				}
			}
		}

		if start+n >= len(longer) {
			break
		}

		out, in := longer[start], longer[start+n]
		have[out]--
		if have[out] < need[out] {
			overlap--
		}
		if have[in] < need[in] {
			overlap++
		}
		have[in]++
	}

	// A skill cut off at either end of the text only aligns with a shorter
	// prefix or suffix. A k rune window scores at most 2k/(n+k).
	for k := n - 1; k > 0; k-- {
		if int(math.Round(200*float64(k)/float64(n+k))) <= best {
			break
		}
		for _, window := range [][]rune{longer[:k], longer[len(longer)-k:]} {
			if score := ratio(needle, string(window)); score > best {
				best = score
			}
		}
	}

	return best
}

// ratio is the indel similarity of two strings scaled to 0..100.
func ratio(a, b string) int {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 100
	}
	distance := edlib.LCSEditDistance(a, b)
	return int(math.Round(float64(total-distance) / float64(total) * 100))
}
