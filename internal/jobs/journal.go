package jobs

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/cropplan/internal/store"
)

// Journal is a local SQLite audit log of job transitions. It is
// best-effort bookkeeping beside the authoritative job table: writes
// never fail a job, and a nil *Journal is a no-op.
type Journal struct {
	conn *sqlx.DB
}

// OpenJournal opens or creates the journal database at path.
func OpenJournal(path string) (*Journal, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	j := &Journal{conn: conn}
	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return j, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.conn.Close()
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		job_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		progress REAL NOT NULL,
		idem_key TEXT,
		error_message TEXT,
		submitted_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_submitted ON jobs(submitted_at);
	`
	_, err := j.conn.Exec(schema)
	return err
}

// Record inserts the initial row for a job.
func (j *Journal) Record(row *store.JobRow) {
	if j == nil {
		return
	}
	_, _ = j.conn.Exec(
		`INSERT OR REPLACE INTO jobs (job_id, status, progress, idem_key, error_message, submitted_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.JobID, string(row.Status), row.Progress, row.IdemKey, row.ErrorMessage,
		row.SubmittedAt.UTC().Format(time.RFC3339Nano), formatTimePtr(row.CompletedAt),
	)
}

// Update rewrites a job's journal entry after a transition.
func (j *Journal) Update(row *store.JobRow) {
	if j == nil || row == nil {
		return
	}
	_, _ = j.conn.Exec(
		`UPDATE jobs SET status = ?, progress = ?, error_message = ?, completed_at = ? WHERE job_id = ?`,
		string(row.Status), row.Progress, row.ErrorMessage, formatTimePtr(row.CompletedAt), row.JobID,
	)
}

// JournalEntry is one row of the audit log.
type JournalEntry struct {
	JobID        string  `db:"job_id"`
	Status       string  `db:"status"`
	Progress     float64 `db:"progress"`
	IdemKey      *string `db:"idem_key"`
	ErrorMessage *string `db:"error_message"`
	SubmittedAt  string  `db:"submitted_at"`
	CompletedAt  *string `db:"completed_at"`
}

// Recent returns the latest entries, newest first.
func (j *Journal) Recent(limit int) ([]JournalEntry, error) {
	if j == nil {
		return nil, nil
	}
	var entries []JournalEntry
	err := j.conn.Select(&entries,
		`SELECT job_id, status, progress, idem_key, error_message, submitted_at, completed_at
		 FROM jobs ORDER BY submitted_at DESC LIMIT ?`, limit)
	return entries, err
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
