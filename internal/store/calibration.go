package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/davidxiao93/TouchWall/internal/screen"
)

// RunStatus is the outcome of a calibration run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusRejected  RunStatus = "rejected"
)

// CalibrationRun is one attempt to calibrate the wall.
type CalibrationRun struct {
	ID         string
	Status     RunStatus
	Before     screen.Memento
	After      *screen.Memento
	StartedAt  time.Time
	FinishedAt *time.Time
}

// CalibrationRepository records calibration runs.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Start inserts a running calibration and returns its ID.
func (r *CalibrationRepository) Start(before screen.Memento) (string, error) {
	id := uuid.New().String()

	_, err := r.db.Exec(
		`INSERT INTO calibration_runs (id, status, before_top, before_bottom, before_left, before_right, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, string(RunStatusRunning), before.Top, before.Bottom, before.Left, before.Right, time.Now(),
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

// Finish closes a running calibration with its outcome and resulting edges.
func (r *CalibrationRepository) Finish(id string, status RunStatus, after screen.Memento) error {
	result, err := r.db.Exec(
		`UPDATE calibration_runs
		 SET status = ?, after_top = ?, after_bottom = ?, after_left = ?, after_right = ?, finished_at = ?
		 WHERE id = ? AND status = ?`,
		string(status), after.Top, after.Bottom, after.Left, after.Right, time.Now(), id, string(RunStatusRunning),
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a calibration run by its ID.
func (r *CalibrationRepository) GetByID(id string) (*CalibrationRun, error) {
	row := r.db.QueryRow(
		`SELECT id, status, before_top, before_bottom, before_left, before_right,
		        after_top, after_bottom, after_left, after_right, started_at, finished_at
		 FROM calibration_runs WHERE id = ?`,
		id,
	)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return run, nil
}

// List returns calibration runs, newest first.
func (r *CalibrationRepository) List(limit int) ([]*CalibrationRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, status, before_top, before_bottom, before_left, before_right,
		        after_top, after_bottom, after_left, after_right, started_at, finished_at
		 FROM calibration_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*CalibrationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*CalibrationRun, error) {
	run := &CalibrationRun{}
	var status string
	var top, bottom, left, right sql.NullFloat64
	var finished sql.NullTime

	err := row.Scan(
		&run.ID, &status,
		&run.Before.Top, &run.Before.Bottom, &run.Before.Left, &run.Before.Right,
		&top, &bottom, &left, &right,
		&run.StartedAt, &finished,
	)
	if err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	if top.Valid && bottom.Valid && left.Valid && right.Valid {
		run.After = &screen.Memento{Top: top.Float64, Bottom: bottom.Float64, Left: left.Float64, Right: right.Float64}
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}

	return run, nil
}

// StartRun records the start of a calibration.
func (s *Store) StartRun(before screen.Memento) (string, error) {
	return s.Calibrations().Start(before)
}

// FinishRun records the outcome of a calibration.
func (s *Store) FinishRun(id, outcome string, g screen.Geometry) error {
	return s.Calibrations().Finish(id, RunStatus(outcome), g.Snapshot())
}
