package database

import (
	"fmt"
	"sort"
	"time"

	"github.com/cmorgenfeld/Intellivest/internal/models"
)

// SaveSignals appends one row per aggregated (symbol, source) signal.
// Signals are inserted in key order so repeated runs write identical
// sequences.
func (db *DB) SaveSignals(signals map[models.SignalKey]models.SymbolSignal, createdAt time.Time) error {
	if len(signals) == 0 {
		return nil
	}

	keys := make([]models.SignalKey, 0, len(signals))
	for key := range signals {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Symbol != keys[j].Symbol {
			return keys[i].Symbol < keys[j].Symbol
		}
		return keys[i].Source < keys[j].Source
	})

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin signals transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO symbol_sentiment_history (
			symbol, source, mean_positive, mean_negative, mean_compound,
			mentions, engagement_weight, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, key := range keys {
		signal := signals[key]
		_, err := tx.Exec(query,
			signal.Symbol, signal.Source,
			signal.MeanPositive, signal.MeanNegative, signal.MeanCompound,
			signal.MentionCount, signal.TotalWeight, createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save signal %s/%s: %w", signal.Symbol, signal.Source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit signals: %w", err)
	}
	return nil
}

// GetSignalHistory returns stored signals for a symbol, newest first.
func (db *DB) GetSignalHistory(symbol string, limit int) ([]models.SymbolSignal, error) {
	query := `
		SELECT symbol, source, mean_positive, mean_negative, mean_compound,
		       mentions, engagement_weight, created_at
		FROM symbol_sentiment_history
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := db.conn.Query(query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get signal history for %s: %w", symbol, err)
	}
	defer rows.Close()

	var signals []models.SymbolSignal
	for rows.Next() {
		var signal models.SymbolSignal
		err := rows.Scan(
			&signal.Symbol, &signal.Source,
			&signal.MeanPositive, &signal.MeanNegative, &signal.MeanCompound,
			&signal.MentionCount, &signal.TotalWeight, &signal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, signal)
	}

	return signals, rows.Err()
}

// GetDailySignalSummaries folds the signal history into one row per
// (day, symbol): the second sentiment history the backtest engine consumes.
func (db *DB) GetDailySignalSummaries(since time.Time) ([]models.DailySignalSummary, error) {
	query := `
		SELECT DATE(created_at) AS day, symbol,
		       AVG(mean_compound) AS mean_compound,
		       SUM(mentions) AS total_mentions,
		       COUNT(*) AS record_count
		FROM symbol_sentiment_history
		WHERE created_at >= $1
		GROUP BY DATE(created_at), symbol
		ORDER BY day ASC, symbol ASC
	`

	rows, err := db.conn.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily signal summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.DailySignalSummary
	for rows.Next() {
		var s models.DailySignalSummary
		err := rows.Scan(&s.Date, &s.Symbol, &s.MeanCompound, &s.TotalMentions, &s.RecordCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily signal summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}
