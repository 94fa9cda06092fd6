// Package tracking records model evaluation runs (hyperparameters and
// metric results) in a local SQLite database so experiments can be
// compared across sessions.
package tracking

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// Run is one recorded evaluation: a model fitted with some parameters
// and the metric values it achieved.
type Run struct {
	ID        string
	Model     string
	Params    map[string]interface{}
	Metrics   map[string]float64
	CreatedAt time.Time
}

// Store persists runs to a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "tracking: failed to open database at %s", path)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			params TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_metrics (
			run_id TEXT NOT NULL REFERENCES runs(id),
			name TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (run_id, name)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "tracking: failed to create schema")
		}
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// LogRun records a run and returns it with its generated id. params may
// come straight from a model's GetParams(); metrics maps metric names
// (e.g. "accuracy", "f1") to values.
func (s *Store) LogRun(modelName string, params map[string]interface{}, metricValues map[string]float64) (*Run, error) {
	if modelName == "" {
		return nil, errors.NewValueError("tracking.LogRun", "model name is empty")
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(err, "tracking: failed to marshal params")
	}

	run := &Run{
		ID:        uuid.New().String(),
		Model:     modelName,
		Params:    params,
		Metrics:   metricValues,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "tracking: failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO runs (id, model, params, created_at) VALUES (?, ?, ?, ?)",
		run.ID, run.Model, string(paramsJSON), run.CreatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "tracking: failed to insert run")
	}

	for name, value := range metricValues {
		if _, err := tx.Exec(
			"INSERT INTO run_metrics (run_id, name, value) VALUES (?, ?, ?)",
			run.ID, name, value,
		); err != nil {
			return nil, errors.Wrapf(err, "tracking: failed to insert metric %s", name)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "tracking: failed to commit run")
	}
	return run, nil
}

// GetRun loads a single run by id.
func (s *Store) GetRun(id string) (*Run, error) {
	run := &Run{ID: id}
	var paramsJSON string

	err := s.db.QueryRow(
		"SELECT model, params, created_at FROM runs WHERE id = ?", id,
	).Scan(&run.Model, &paramsJSON, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.Newf("tracking: run %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "tracking: failed to load run")
	}

	if err := json.Unmarshal([]byte(paramsJSON), &run.Params); err != nil {
		return nil, errors.Wrap(err, "tracking: failed to unmarshal params")
	}

	run.Metrics = make(map[string]float64)
	rows, err := s.db.Query("SELECT name, value FROM run_metrics WHERE run_id = ?", id)
	if err != nil {
		return nil, errors.Wrap(err, "tracking: failed to load metrics")
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, errors.Wrap(err, "tracking: failed to scan metric")
		}
		run.Metrics[name] = value
	}
	return run, rows.Err()
}

// ListRuns returns runs for the given model name, newest first. An empty
// model name returns every run.
func (s *Store) ListRuns(modelName string) ([]*Run, error) {
	query := "SELECT id FROM runs ORDER BY created_at DESC"
	args := []interface{}{}
	if modelName != "" {
		query = "SELECT id FROM runs WHERE model = ? ORDER BY created_at DESC"
		args = append(args, modelName)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "tracking: failed to list runs")
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "tracking: failed to scan run id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	runs := make([]*Run, 0, len(ids))
	for _, id := range ids {
		run, err := s.GetRun(id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// BestRun returns the run with the highest value of the named metric,
// optionally restricted to one model (empty name matches all).
func (s *Store) BestRun(modelName, metric string) (*Run, error) {
	query := `SELECT m.run_id FROM run_metrics m
		JOIN runs r ON r.id = m.run_id
		WHERE m.name = ?`
	args := []interface{}{metric}
	if modelName != "" {
		query += " AND r.model = ?"
		args = append(args, modelName)
	}
	query += " ORDER BY m.value DESC LIMIT 1"

	var id string
	err := s.db.QueryRow(query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, errors.Newf("tracking: no runs recorded metric %s", metric)
	}
	if err != nil {
		return nil, errors.Wrap(err, "tracking: failed to find best run")
	}
	return s.GetRun(id)
}
