// Package joblog is the batch run ledger: one row per run, one row per
// document per run, updated as documents move through the stages. Its job is
// to make a single failed document re-runnable by hand: every recoverable
// error lands here with the file it belongs to.
package joblog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	input_dir  TEXT NOT NULL,
	output_dir TEXT NOT NULL,
	started_at TEXT NOT NULL,
	ended_at   TEXT
);
CREATE TABLE IF NOT EXISTS documents (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	path       TEXT NOT NULL,
	case_id    TEXT NOT NULL,
	status     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL,
	PRIMARY KEY (run_id, path)
);
`

type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (and if needed creates) the ledger at path. ":memory:" works
// for tests.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open joblog %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 10000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("joblog pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("joblog schema: %w", err)
	}
	return &Ledger{db: db, logger: logger}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// StartRun records a new batch run and returns its identifier.
func (l *Ledger) StartRun(ctx context.Context, inputDir, outputDir string) (string, error) {
	id := uuid.New().String()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_dir, output_dir, started_at) VALUES (?, ?, ?, ?)`,
		id, inputDir, outputDir, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("joblog start run: %w", err)
	}
	l.logger.Info("joblog.run.started", "run_id", id, "input_dir", inputDir)
	return id, nil
}

// EndRun stamps the run's completion time.
func (l *Ledger) EndRun(ctx context.Context, runID string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET ended_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), runID,
	)
	if err != nil {
		return fmt.Errorf("joblog end run: %w", err)
	}
	return nil
}

// AddDocument registers a discovered document as QUEUED.
func (l *Ledger) AddDocument(ctx context.Context, runID, path, caseID string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents (run_id, path, case_id, status, error, updated_at)
		 VALUES (?, ?, ?, ?, '', ?)`,
		runID, path, caseID, string(constants.DocStatusQueued), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("joblog add document: %w", err)
	}
	return nil
}

// SetStatus advances one document's stage status; errMsg is empty on success
// paths. Updating a document that was never registered is an error, not a
// silent no-op, so a stage that forgets AddDocument surfaces in the logs.
func (l *Ledger) SetStatus(ctx context.Context, runID, path string, status constants.DocStatus, errMsg string) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, error = ?, updated_at = ? WHERE run_id = ? AND path = ?`,
		string(status), errMsg, time.Now().UTC().Format(time.RFC3339), runID, path,
	)
	if err != nil {
		return fmt.Errorf("joblog set status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("joblog set status: document %s not registered in run %s", path, runID)
	}
	return nil
}

// DocumentStatus is one ledger row, as read back for reporting.
type DocumentStatus struct {
	Path   string
	CaseID string
	Status constants.DocStatus
	Error  string
}

// Documents lists the run's documents in path order.
func (l *Ledger) Documents(ctx context.Context, runID string) ([]DocumentStatus, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT path, case_id, status, error FROM documents WHERE run_id = ? ORDER BY path`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("joblog list documents: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			l.logger.Warn("joblog.rows_close_error", "error", cerr)
		}
	}()

	var out []DocumentStatus
	for rows.Next() {
		var d DocumentStatus
		var status string
		if err := rows.Scan(&d.Path, &d.CaseID, &status, &d.Error); err != nil {
			return nil, fmt.Errorf("joblog scan document: %w", err)
		}
		d.Status = constants.DocStatus(status)
		out = append(out, d)
	}
	return out, rows.Err()
}
