// Package statstore provides SQLite-backed persistence for run and
// trajectory statistics.
package statstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/taejun-song/bindcraft-nhej/internal/domain"
)

// Store provides SQLite-backed statistics persistence
type Store struct {
	db *sql.DB
}

// Run is one recorded execution of the design pipeline
type Run struct {
	ID         string
	BinderName string
	StartedAt  time.Time
	FinishedAt *time.Time
	Attempted  int
	Accepted   int
	Skipped    int
	Outcome    string
}

// TrajectoryRecord is the persisted outcome of one attempt
type TrajectoryRecord struct {
	RunID           string
	Name            string
	Length          int
	Seed            int
	Helicity        float64
	Status          domain.TrajectoryStatus
	Metrics         domain.Metrics
	Sequence        string
	TerminateReason string
	FailureReason   string
	Duration        time.Duration
	CreatedAt       time.Time
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records the beginning of a pipeline run and returns its ID
func (s *Store) StartRun(binderName string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO runs (id, binder_name, started_at) VALUES (?, ?, ?)`,
		id, binderName, startedAt)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishRun records the final counters and outcome of a run
func (s *Store) FinishRun(id string, attempted, accepted, skipped int, outcome string) error {
	res, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, attempted = ?, accepted = ?, skipped = ?, outcome = ?
		WHERE id = ?
	`, time.Now(), attempted, accepted, skipped, outcome, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// RecordTrajectory persists the outcome of one attempt. Re-recording the
// same (run, name) pair overwrites the previous row.
func (s *Store) RecordTrajectory(rec *TrajectoryRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO trajectories (run_id, name, length, seed, helicity, status, plddt, ptm, i_ptm, pae, i_pae, sequence, terminate_reason, failure_reason, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, name) DO UPDATE SET
			status = excluded.status,
			plddt = excluded.plddt,
			ptm = excluded.ptm,
			i_ptm = excluded.i_ptm,
			pae = excluded.pae,
			i_pae = excluded.i_pae,
			sequence = excluded.sequence,
			terminate_reason = excluded.terminate_reason,
			failure_reason = excluded.failure_reason,
			duration_ms = excluded.duration_ms
	`,
		rec.RunID,
		rec.Name,
		rec.Length,
		rec.Seed,
		rec.Helicity,
		string(rec.Status),
		rec.Metrics.PLDDT,
		rec.Metrics.PTM,
		rec.Metrics.IPTM,
		rec.Metrics.PAE,
		rec.Metrics.IPAE,
		rec.Sequence,
		rec.TerminateReason,
		rec.FailureReason,
		rec.Duration.Milliseconds(),
		createdAt,
	)
	return err
}

// ListOptions specifies filters for listing trajectories
type ListOptions struct {
	RunID  string
	Status domain.TrajectoryStatus
	Limit  int
}

// ListTrajectories returns trajectory records matching the given options
func (s *Store) ListTrajectories(opts ListOptions) ([]*TrajectoryRecord, error) {
	query := `SELECT run_id, name, length, seed, helicity, status, plddt, ptm, i_ptm, pae, i_pae, sequence, terminate_reason, failure_reason, duration_ms, created_at FROM trajectories WHERE 1=1`
	var args []interface{}

	if opts.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, opts.RunID)
	}
	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, string(opts.Status))
	}

	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*TrajectoryRecord
	for rows.Next() {
		var rec TrajectoryRecord
		var status string
		var durationMs int64
		err := rows.Scan(&rec.RunID, &rec.Name, &rec.Length, &rec.Seed, &rec.Helicity, &status,
			&rec.Metrics.PLDDT, &rec.Metrics.PTM, &rec.Metrics.IPTM, &rec.Metrics.PAE, &rec.Metrics.IPAE,
			&rec.Sequence, &rec.TerminateReason, &rec.FailureReason, &durationMs, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		rec.Status = domain.TrajectoryStatus(status)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		recs = append(recs, &rec)
	}

	return recs, rows.Err()
}

// CountByStatus returns the number of trajectories per status for a run
func (s *Store) CountByStatus(runID string) (map[domain.TrajectoryStatus]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM trajectories WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TrajectoryStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.TrajectoryStatus(status)] = n
	}
	return counts, rows.Err()
}

// ListRuns returns the most recent runs, newest first
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT id, binder_name, started_at, finished_at, attempted, accepted, skipped, outcome FROM runs ORDER BY started_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var finishedAt sql.NullTime
		var outcome sql.NullString
		if err := rows.Scan(&run.ID, &run.BinderName, &run.StartedAt, &finishedAt, &run.Attempted, &run.Accepted, &run.Skipped, &outcome); err != nil {
			return nil, err
		}
		if finishedAt.Valid {
			run.FinishedAt = &finishedAt.Time
		}
		if outcome.Valid {
			run.Outcome = outcome.String
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
