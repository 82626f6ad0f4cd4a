// Package sqlite persists a local audit history of signal submissions.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Journal records the outcome of each fetch-derive-submit cycle.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// Entry is one journaled cycle outcome.
type Entry struct {
	ID          int64  `json:"id"`
	RunAt       string `json:"run_at"`
	Symbol      string `json:"symbol"`
	Timeframe   int    `json:"timeframe"`
	IndicatorID string `json:"indicator_id"`
	Points      int    `json:"points"`
	Lines       int    `json:"lines"`
	Success     bool   `json:"success"`
	Detail      string `json:"detail"`
}

// NewJournal opens (or creates) the journal database at dbPath.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal open: %w", err)
	}

	// Single writer keeps SQLite happy under WAL
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_at       DATETIME NOT NULL,
		symbol       TEXT NOT NULL,
		timeframe    INTEGER NOT NULL,
		indicator_id TEXT NOT NULL,
		points       INTEGER NOT NULL,
		lines        INTEGER NOT NULL,
		success      INTEGER NOT NULL,
		detail       TEXT,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_submissions_symbol ON submissions(symbol, timeframe);
	CREATE INDEX IF NOT EXISTS idx_submissions_run_at ON submissions(run_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record persists one cycle outcome.
func (j *Journal) Record(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	runAt := e.RunAt
	if runAt == "" {
		runAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := j.db.Exec(
		`INSERT INTO submissions (run_at, symbol, timeframe, indicator_id, points, lines, success, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runAt,
		e.Symbol,
		e.Timeframe,
		e.IndicatorID,
		e.Points,
		e.Lines,
		boolToInt(e.Success),
		e.Detail,
	)
	return err
}

// Recent returns the last N journaled cycles, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, run_at, symbol, timeframe, indicator_id, points, lines, success, detail
		 FROM submissions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			success int
			detail  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RunAt, &e.Symbol, &e.Timeframe, &e.IndicatorID,
			&e.Points, &e.Lines, &success, &detail); err != nil {
			continue
		}
		e.Success = success != 0
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
