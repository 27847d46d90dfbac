package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/seantiz/atlas/internal/model"

	_ "modernc.org/sqlite"
)

const createBatchRunsTable = `
CREATE TABLE IF NOT EXISTS batch_runs (
    id          TEXT PRIMARY KEY,
    batch_id    TEXT NOT NULL,
    backend     TEXT NOT NULL,
    workers     INTEGER NOT NULL,
    work_dir    TEXT NOT NULL,
    status      TEXT NOT NULL,
    task_count  INTEGER NOT NULL,
    error       TEXT,
    duration_ms INTEGER,
    created_at  DATETIME NOT NULL,
    started_at  DATETIME,
    finished_at DATETIME
)`

const createTaskResultsTable = `
CREATE TABLE IF NOT EXISTS task_results (
    run_id      TEXT NOT NULL,
    task_id     INTEGER NOT NULL,
    status      TEXT NOT NULL,
    outputs     TEXT,
    error       TEXT,
    duration_ms INTEGER,
    PRIMARY KEY (run_id, task_id)
)`

// ErrNotFound is returned when a batch run is not found.
var ErrNotFound = errors.New("batch run not found")

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	for _, stmt := range []string{createBatchRunsTable, createTaskResultsTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateBatchRun inserts a new batch run record.
func (s *SQLiteStore) CreateBatchRun(ctx context.Context, r *model.BatchRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO batch_runs (
			id, batch_id, backend, workers, work_dir, status, task_count,
			error, duration_ms, created_at, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.BatchID, r.Backend, r.Workers, r.WorkDir, r.Status, r.TaskCount,
		r.Error, r.DurationMS, r.CreatedAt, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch run: %w", err)
	}
	return nil
}

// GetBatchRun retrieves a batch run by ID.
func (s *SQLiteStore) GetBatchRun(ctx context.Context, id string) (*model.BatchRun, error) {
	r := &model.BatchRun{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, batch_id, backend, workers, work_dir, status, task_count,
			error, duration_ms, created_at, started_at, finished_at
		FROM batch_runs WHERE id = ?`, id,
	).Scan(
		&r.ID, &r.BatchID, &r.Backend, &r.Workers, &r.WorkDir, &r.Status, &r.TaskCount,
		&r.Error, &r.DurationMS, &r.CreatedAt, &r.StartedAt, &r.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch run: %w", err)
	}
	return r, nil
}

// ListBatchRuns returns a paginated list of batch runs ordered by created_at
// DESC, along with the total count of all runs.
func (s *SQLiteStore) ListBatchRuns(ctx context.Context, limit, offset int) ([]*model.BatchRun, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM batch_runs").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count batch runs: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, batch_id, backend, workers, work_dir, status, task_count,
			error, duration_ms, created_at, started_at, finished_at
		FROM batch_runs ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list batch runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.BatchRun
	for rows.Next() {
		r := &model.BatchRun{}
		if err := rows.Scan(
			&r.ID, &r.BatchID, &r.Backend, &r.Workers, &r.WorkDir, &r.Status, &r.TaskCount,
			&r.Error, &r.DurationMS, &r.CreatedAt, &r.StartedAt, &r.FinishedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan batch run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate batch runs: %w", err)
	}

	return runs, total, nil
}

// UpdateBatchRunStatus transitions a batch run to a new status, enforcing
// the run lifecycle. Entering running sets started_at; terminal statuses set
// finished_at.
func (s *SQLiteStore) UpdateBatchRunStatus(ctx context.Context, id, status string) error {
	current, err := s.GetBatchRun(ctx, id)
	if err != nil {
		return err
	}
	if !model.ValidTransition(current.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	now := time.Now().UTC()
	var result sql.Result
	switch status {
	case model.RunRunning:
		result, err = s.db.ExecContext(ctx,
			"UPDATE batch_runs SET status = ?, started_at = ? WHERE id = ?",
			status, now, id,
		)
	case model.RunCompleted, model.RunFailed:
		result, err = s.db.ExecContext(ctx,
			"UPDATE batch_runs SET status = ?, finished_at = ? WHERE id = ?",
			status, now, id,
		)
	default:
		result, err = s.db.ExecContext(ctx,
			"UPDATE batch_runs SET status = ? WHERE id = ?",
			status, id,
		)
	}
	if err != nil {
		return fmt.Errorf("update batch run status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FinishBatchRun records the terminal status, error message, and duration of
// a batch run in one update.
func (s *SQLiteStore) FinishBatchRun(ctx context.Context, id, status, errMsg string, durationMS int) error {
	current, err := s.GetBatchRun(ctx, id)
	if err != nil {
		return err
	}
	if !model.ValidTransition(current.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE batch_runs SET status = ?, error = ?, duration_ms = ?, finished_at = ? WHERE id = ?",
		status, errMsg, durationMS, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finish batch run: %w", err)
	}
	return nil
}

// InsertTaskResults stores all task results of a run in one transaction.
func (s *SQLiteStore) InsertTaskResults(ctx context.Context, runID string, results []model.TaskResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, tr := range results {
		outputs, err := json.Marshal(tr.Outputs)
		if err != nil {
			return fmt.Errorf("marshal outputs for task %d: %w", tr.TaskID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_results (run_id, task_id, status, outputs, error, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, tr.TaskID, tr.Status, string(outputs), tr.Error, tr.DurationMS,
		); err != nil {
			return fmt.Errorf("insert task result %d: %w", tr.TaskID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit task results: %w", err)
	}
	return nil
}

// GetTaskResults returns a run's task results ordered by task id.
func (s *SQLiteStore) GetTaskResults(ctx context.Context, runID string) ([]model.TaskResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, status, outputs, error, duration_ms
		FROM task_results WHERE run_id = ? ORDER BY task_id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get task results: %w", err)
	}
	defer rows.Close()

	var results []model.TaskResult
	for rows.Next() {
		var tr model.TaskResult
		var outputs sql.NullString
		if err := rows.Scan(&tr.TaskID, &tr.Status, &outputs, &tr.Error, &tr.DurationMS); err != nil {
			return nil, fmt.Errorf("scan task result: %w", err)
		}
		if outputs.Valid && outputs.String != "" {
			if err := json.Unmarshal([]byte(outputs.String), &tr.Outputs); err != nil {
				return nil, fmt.Errorf("unmarshal outputs for task %d: %w", tr.TaskID, err)
			}
		}
		results = append(results, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task results: %w", err)
	}

	return results, nil
}

// GetBatchStats computes aggregate statistics across all persisted runs.
func (s *SQLiteStore) GetBatchStats(ctx context.Context) (*BatchStats, error) {
	stats := &BatchStats{
		RunsByStatus:  make(map[string]int),
		TasksByStatus: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM batch_runs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count runs by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan run status count: %w", err)
		}
		stats.RunsByStatus[status] = count
		stats.TotalRuns += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run status counts: %w", err)
	}

	taskRows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM task_results GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}
	defer taskRows.Close()
	for taskRows.Next() {
		var status string
		var count int
		if err := taskRows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan task status count: %w", err)
		}
		stats.TasksByStatus[status] = count
		stats.TotalTasks += count
	}
	if err := taskRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task status counts: %w", err)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		"SELECT AVG(duration_ms) FROM batch_runs WHERE duration_ms IS NOT NULL",
	).Scan(&avg); err != nil {
		return nil, fmt.Errorf("average run duration: %w", err)
	}
	if avg.Valid {
		stats.AvgDurationMS = avg.Float64
	}

	return stats, nil
}
