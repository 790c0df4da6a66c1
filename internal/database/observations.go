package database

import (
	"fmt"
	"time"

	"github.com/cmorgenfeld/Intellivest/internal/models"
)

// SaveObservations appends a batch of observations in one transaction.
func (db *DB) SaveObservations(observations []models.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin observations transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO observations (
			symbol, source, positive, negative, neutral, compound,
			engagement_weight, observed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	now := time.Now()
	for _, obs := range observations {
		_, err := tx.Exec(query,
			obs.Symbol, obs.Source,
			obs.Polarity.Positive, obs.Polarity.Negative, obs.Polarity.Neutral, obs.Polarity.Compound,
			obs.EngagementWeight, obs.Timestamp, now,
		)
		if err != nil {
			return fmt.Errorf("failed to save observation for %s: %w", obs.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit observations: %w", err)
	}
	return nil
}

// GetObservationsSince returns all observations observed at or after the
// cutoff, oldest first.
func (db *DB) GetObservationsSince(since time.Time) ([]models.Observation, error) {
	query := `
		SELECT symbol, source, positive, negative, neutral, compound,
		       engagement_weight, observed_at
		FROM observations
		WHERE observed_at >= $1
		ORDER BY observed_at ASC, symbol ASC
	`

	rows, err := db.conn.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get observations: %w", err)
	}
	defer rows.Close()

	var observations []models.Observation
	for rows.Next() {
		var obs models.Observation
		err := rows.Scan(
			&obs.Symbol, &obs.Source,
			&obs.Polarity.Positive, &obs.Polarity.Negative, &obs.Polarity.Neutral, &obs.Polarity.Compound,
			&obs.EngagementWeight, &obs.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, obs)
	}

	return observations, rows.Err()
}
