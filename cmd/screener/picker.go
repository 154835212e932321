package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/services"
)

const (
	PromptExit      = "exit"
	previewLimit    = 5000
	noMissingSkills = "None detected"
)

var errExit = errors.New("exit requested")

// browseCandidates lets the user pick rows and prints their details until exit is chosen.
func browseCandidates(table *services.ResultTable, texts map[string]string) error {
	if table.Len() == 0 {
		fmt.Println("No candidates match the current filters.")
		return nil
	}

	items := make([]string, 0, table.Len()+1)
	for _, row := range table.Rows {
		items = append(items, candidateLabel(row))
	}
	items = append(items, PromptExit)

	for {
		candidatePrompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: items,
			Size:  15,
		}

		idx, selected, err := candidatePrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptExit {
			return errExit
		}

		row := table.Rows[idx]
		fmt.Println(candidateDetails(row, texts[row.Resume]))
	}
}

func candidateLabel(row models.MatchResult) string {
	return fmt.Sprintf("%s / %s / %.2f %s", row.Resume, row.JD, models.RoundScore(row.FinalScore), row.Verdict)
}

// candidateDetails renders one row plus a preview of the resume text.
func candidateDetails(row models.MatchResult, text string) string {
	missing := row.MissingSkillsText()
	if missing == "" {
		missing = noMissingSkills
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Resume:          %s\n", row.Resume)
	fmt.Fprintf(&b, "Job description: %s (%s)\n", row.JD, row.JobRole)
	fmt.Fprintf(&b, "Location:        %s\n", row.Location)
	fmt.Fprintf(&b, "Hard score:      %.2f\n", models.RoundScore(row.HardScore))
	fmt.Fprintf(&b, "Semantic score:  %.2f\n", models.RoundScore(row.SemanticScore))
	fmt.Fprintf(&b, "Final score:     %.2f (%s)\n", models.RoundScore(row.FinalScore), row.Verdict)
	fmt.Fprintf(&b, "Missing skills:  %s\n", missing)
	if text != "" {
		fmt.Fprintf(&b, "\n%s\n", logger.TruncateForLog(text, previewLimit))
	}
	return b.String()
}
