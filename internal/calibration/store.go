package calibration

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ddlLabeledScores is the schema for the labeled score populations the
// offline calibration job consumes. Scores are written by the ingestion
// tooling (outside this module) as audited samples run through each sensor.
const ddlLabeledScores = `
CREATE TABLE IF NOT EXISTS labeled_scores (
    id          BIGSERIAL        PRIMARY KEY,
    sensor      TEXT             NOT NULL,
    label       TEXT             NOT NULL CHECK (label IN ('genuine', 'spoof')),
    score       DOUBLE PRECISION NOT NULL,
    recorded_at TIMESTAMPTZ      NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS labeled_scores_sensor_label_idx
    ON labeled_scores (sensor, label);`

// Store reads labeled score populations from PostgreSQL. It holds a single
// [pgxpool.Pool] and is safe for concurrent use, though the calibration job
// itself is a sequential batch.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at dsn, verifies connectivity, and
// ensures the labeled_scores schema exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("calibration store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("calibration store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlLabeledScores); err != nil {
		pool.Close()
		return nil, fmt.Errorf("calibration store: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Sensors returns the distinct sensor names with recorded scores.
func (s *Store) Sensors(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT sensor FROM labeled_scores ORDER BY sensor`)
	if err != nil {
		return nil, fmt.Errorf("calibration store: list sensors: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("calibration store: scan sensor name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calibration store: list sensors: %w", err)
	}
	return names, nil
}

// Populations returns the genuine and spoof score populations recorded for
// one sensor.
func (s *Store) Populations(ctx context.Context, sensorName string) (genuine, spoof []float64, err error) {
	rows, err := s.pool.Query(ctx,
		`SELECT label, score FROM labeled_scores WHERE sensor = $1`, sensorName)
	if err != nil {
		return nil, nil, fmt.Errorf("calibration store: load populations for %q: %w", sensorName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var label string
		var score float64
		if err := rows.Scan(&label, &score); err != nil {
			return nil, nil, fmt.Errorf("calibration store: scan score: %w", err)
		}
		if label == "spoof" {
			spoof = append(spoof, score)
		} else {
			genuine = append(genuine, score)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("calibration store: load populations for %q: %w", sensorName, err)
	}
	return genuine, spoof, nil
}

// InsertScore records one labeled score; primarily used by ingestion tooling
// and tests.
func (s *Store) InsertScore(ctx context.Context, sensorName, label string, score float64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO labeled_scores (sensor, label, score) VALUES ($1, $2, $3)`,
		sensorName, label, score)
	if err != nil {
		return fmt.Errorf("calibration store: insert score: %w", err)
	}
	return nil
}
