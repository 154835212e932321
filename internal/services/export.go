package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExportFileName is the timestamped name of a CSV export.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("resume_scores_%s.csv", now.Format("20060102_150405"))
}

// ExportCSV writes the table into dir under a timestamped name and returns the file path.
func ExportCSV(dir string, table *ResultTable, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, ExportFileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := table.WriteCSV(f); err != nil {
		return "", err
	}

	return path, f.Close()
}
