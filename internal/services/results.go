package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"

	"alfredoptarigan/resume-screener/internal/models"
)

// CSVHeader is the column layout of exported result tables.
var CSVHeader = []string{
	"JD", "Resume", "Job Role", "Hard Score", "Semantic Score",
	"Final Score", "Fit Verdict", "Location", "Missing Skills",
}

// ResultTable is an in-memory screening table. Operations return new tables
// and never modify the receiver's rows.
type ResultTable struct {
	Rows []models.MatchResult
}

func NewResultTable(rows []models.MatchResult) *ResultTable {
	return &ResultTable{Rows: rows}
}

// ResultFilter narrows a table. Empty sets and a nil MinScore do not constrain.
type ResultFilter struct {
	JDs       []string
	JobRoles  []string
	Locations []string
	MinScore  *float64
}

func (t *ResultTable) Len() int {
	return len(t.Rows)
}

// Sorted orders rows by JD ascending, then final score descending.
func (t *ResultTable) Sorted() *ResultTable {
	rows := slices.Clone(t.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].JD != rows[j].JD {
			return rows[i].JD < rows[j].JD
		}
		return rows[i].FinalScore > rows[j].FinalScore
	})
	return NewResultTable(rows)
}

// Filter keeps the rows that satisfy every constraint.
func (t *ResultTable) Filter(f ResultFilter) *ResultTable {
	rows := make([]models.MatchResult, 0, len(t.Rows))
	for _, row := range t.Rows {
		if !inSet(f.JDs, row.JD) || !inSet(f.JobRoles, row.JobRole) || !inSet(f.Locations, row.Location) {
			continue
		}
		if f.MinScore != nil && !(row.FinalScore >= *f.MinScore) {
			continue
		}
		rows = append(rows, row)
	}
	return NewResultTable(rows)
}

func inSet(set []string, value string) bool {
	return len(set) == 0 || slices.Contains(set, value)
}

// TopByJob returns up to n best rows per job description, in JD order.
func (t *ResultTable) TopByJob(n int) []models.JobRanking {
	if n <= 0 {
		return nil
	}

	sorted := t.Sorted()
	var rankings []models.JobRanking
	for _, row := range sorted.Rows {
		last := len(rankings) - 1
		if last < 0 || rankings[last].JD != row.JD {
			rankings = append(rankings, models.JobRanking{JD: row.JD})
			last++
		}
		if len(rankings[last].Candidates) < n {
			rankings[last].Candidates = append(rankings[last].Candidates, row)
		}
	}
	return rankings
}

// FindByResume returns the first row for the named resume.
func (t *ResultTable) FindByResume(name string) (models.MatchResult, bool) {
	for _, row := range t.Rows {
		if row.Resume == name {
			return row, true
		}
	}
	return models.MatchResult{}, false
}

func (t *ResultTable) JobDescriptions() []string {
	return t.distinct(func(r models.MatchResult) string { return r.JD })
}

func (t *ResultTable) JobRoles() []string {
	return t.distinct(func(r models.MatchResult) string { return r.JobRole })
}

func (t *ResultTable) Locations() []string {
	return t.distinct(func(r models.MatchResult) string { return r.Location })
}

// FilterOptions collects the distinct filterable values in first seen order.
func (t *ResultTable) FilterOptions() models.FilterOptions {
	return models.FilterOptions{
		JobDescriptions: t.JobDescriptions(),
		JobRoles:        t.JobRoles(),
		Locations:       t.Locations(),
	}
}

func (t *ResultTable) distinct(column func(models.MatchResult) string) []string {
	seen := make(map[string]struct{})
	values := []string{}
	for _, row := range t.Rows {
		v := column(row)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// WriteCSV writes the table with scores rounded to two decimals.
func (t *ResultTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range t.Rows {
		record := []string{
			row.JD,
			row.Resume,
			row.JobRole,
			formatScore(row.HardScore),
			formatScore(row.SemanticScore),
			formatScore(row.FinalScore),
			string(row.Verdict),
			row.Location,
			row.MissingSkillsText(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func formatScore(score float64) string {
	return strconv.FormatFloat(models.RoundScore(score), 'f', 2, 64)
}
