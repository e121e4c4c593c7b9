// Package rundb persists estimation runs and their per-step estimates in a
// sqlite database.
package rundb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joeinus134131/audioROS/internal/array"
)

type DB struct {
	*sql.DB
}

// Open opens (or creates) the sqlite database at path, applies the
// essential PRAGMAs and runs all pending migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	rdb := &DB{db}
	if err := rdb.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return rdb, nil
}

// Run describes one recorded estimation run.
type Run struct {
	ID             string
	StartedAt      time.Time
	Method         string
	NWindow        int
	WallDistanceCM float64
	WallAngleDeg   float64
}

// Estimate is one fused distance/angle estimate at a trajectory step.
type Estimate struct {
	RunID      string
	Step       int
	Pose       array.Pose
	DistanceCM float64
	AngleDeg   float64
}

// CreateRun inserts a new run row and returns its generated ID.
func (db *DB) CreateRun(method string, nWindow int, wallDistanceCM, wallAngleDeg float64) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO runs (id, method, n_window, wall_distance_cm, wall_angle_deg)
		 VALUES (?, ?, ?, ?, ?)`,
		id, method, nWindow, wallDistanceCM, wallAngleDeg,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// RecordEstimate stores one per-step estimate for a run.
func (db *DB) RecordEstimate(e Estimate) error {
	_, err := db.Exec(
		`INSERT INTO estimates (run_id, step, pose_x_cm, pose_y_cm, pose_yaw_deg, distance_cm, angle_deg)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Step, e.Pose.X, e.Pose.Y, e.Pose.YawDeg, e.DistanceCM, e.AngleDeg,
	)
	if err != nil {
		return fmt.Errorf("failed to record estimate for run %s step %d: %w", e.RunID, e.Step, err)
	}
	return nil
}

// GetRun loads a single run by ID.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(
		`SELECT id, started_at, method, n_window, wall_distance_cm, wall_angle_deg
		 FROM runs WHERE id = ?`, id)
	var r Run
	if err := row.Scan(&r.ID, &r.StartedAt, &r.Method, &r.NWindow, &r.WallDistanceCM, &r.WallAngleDeg); err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return &r, nil
}

// EstimatesForRun returns all estimates for a run ordered by step.
func (db *DB) EstimatesForRun(runID string) ([]Estimate, error) {
	rows, err := db.Query(
		`SELECT run_id, step, pose_x_cm, pose_y_cm, pose_yaw_deg, distance_cm, angle_deg
		 FROM estimates WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimates: %w", err)
	}
	defer rows.Close()

	var out []Estimate
	for rows.Next() {
		var e Estimate
		if err := rows.Scan(&e.RunID, &e.Step, &e.Pose.X, &e.Pose.Y, &e.Pose.YawDeg, &e.DistanceCM, &e.AngleDeg); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
