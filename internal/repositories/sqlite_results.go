package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"alfredoptarigan/resume-screener/internal/models"
)

// ResultSink appends screening rows to an external store.
type ResultSink interface {
	Append(ctx context.Context, rows []models.MatchResult) error
	Close() error
}

const createResultsTable = `CREATE TABLE IF NOT EXISTS results (
	"JD" TEXT,
	"Resume" TEXT,
	"Job Role" TEXT,
	"Hard Score" REAL,
	"Semantic Score" REAL,
	"Final Score" REAL,
	"Fit Verdict" TEXT,
	"Location" TEXT,
	"Missing Skills" TEXT,
	"Evaluated At" TEXT
)`

const insertResult = `INSERT INTO results (
	"JD", "Resume", "Job Role", "Hard Score", "Semantic Score",
	"Final Score", "Fit Verdict", "Location", "Missing Skills", "Evaluated At"
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type sqliteResultSink struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteResultSink opens (creating if needed) the database at path and its results table.
func NewSQLiteResultSink(path string) (ResultSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if _, err := db.Exec(createResultsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create results table: %w", err)
	}

	return &sqliteResultSink{db: db, now: time.Now}, nil
}

// Append implements ResultSink. Scores are stored rounded to two decimals.
func (s *sqliteResultSink) Append(ctx context.Context, rows []models.MatchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertResult)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	evaluatedAt := s.now().UTC().Format(time.RFC3339)
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.JD,
			row.Resume,
			row.JobRole,
			models.RoundScore(row.HardScore),
			models.RoundScore(row.SemanticScore),
			models.RoundScore(row.FinalScore),
			string(row.Verdict),
			row.Location,
			row.MissingSkillsText(),
			evaluatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert result for %s: %w", row.Resume, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}
	return nil
}

// Close implements ResultSink.
func (s *sqliteResultSink) Close() error {
	return s.db.Close()
}
