package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmorgenfeld/Intellivest/internal/models"
)

// SaveRankings appends one analysis run's records in rank order. Ranking
// rows are append-only; a new run supersedes the previous one by carrying a
// fresh run_id and a later created_at, never by updating old rows.
func (db *DB) SaveRankings(records []models.StockRankingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin rankings transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO stock_rankings (
			run_id, symbol, rank, composite_score, composite_sentiment,
			momentum_score, confidence_score, total_mentions,
			per_source_mentions, per_source_sentiment, per_source_engagement,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	for i := range records {
		rec := &records[i]
		mentions, err := json.Marshal(rec.PerSourceMentions)
		if err != nil {
			return fmt.Errorf("failed to marshal per-source mentions for %s: %w", rec.Symbol, err)
		}
		sentiment, err := json.Marshal(rec.PerSourceSentiment)
		if err != nil {
			return fmt.Errorf("failed to marshal per-source sentiment for %s: %w", rec.Symbol, err)
		}
		engagement, err := json.Marshal(rec.PerSourceEngagement)
		if err != nil {
			return fmt.Errorf("failed to marshal per-source engagement for %s: %w", rec.Symbol, err)
		}

		err = tx.QueryRow(query,
			rec.RunID, rec.Symbol, rec.Rank, rec.CompositeScore, rec.CompositeSentiment,
			rec.MomentumScore, rec.ConfidenceScore, rec.TotalMentions,
			mentions, sentiment, engagement, rec.CreatedAt,
		).Scan(&rec.ID)
		if err != nil {
			return fmt.Errorf("failed to save ranking for %s: %w", rec.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rankings: %w", err)
	}
	return nil
}

const rankingColumns = `
	id, run_id, symbol, rank, composite_score, composite_sentiment,
	momentum_score, confidence_score, total_mentions,
	per_source_mentions, per_source_sentiment, per_source_engagement,
	created_at
`

// GetLatestRankings returns the most recent run's records in rank order.
// An empty database yields an empty slice, not an error.
func (db *DB) GetLatestRankings() ([]models.StockRankingRecord, error) {
	query := `
		SELECT ` + rankingColumns + `
		FROM stock_rankings
		WHERE run_id = (
			SELECT run_id FROM stock_rankings ORDER BY created_at DESC, id DESC LIMIT 1
		)
		ORDER BY rank ASC
	`
	return db.queryRankings(query)
}

// GetRankingsSince returns all ranking records created at or after the
// cutoff, oldest run first.
func (db *DB) GetRankingsSince(since time.Time) ([]models.StockRankingRecord, error) {
	query := `
		SELECT ` + rankingColumns + `
		FROM stock_rankings
		WHERE created_at >= $1
		ORDER BY created_at ASC, rank ASC
	`
	return db.queryRankings(query, since)
}

// GetRankingsBySymbol returns a symbol's ranking history, newest first.
func (db *DB) GetRankingsBySymbol(symbol string, limit int) ([]models.StockRankingRecord, error) {
	query := `
		SELECT ` + rankingColumns + `
		FROM stock_rankings
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return db.queryRankings(query, symbol, limit)
}

func (db *DB) queryRankings(query string, args ...interface{}) ([]models.StockRankingRecord, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	var records []models.StockRankingRecord
	for rows.Next() {
		rec, err := scanRanking(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func scanRanking(rows *sql.Rows) (models.StockRankingRecord, error) {
	var (
		rec                             models.StockRankingRecord
		mentions, sentiment, engagement []byte
	)

	err := rows.Scan(
		&rec.ID, &rec.RunID, &rec.Symbol, &rec.Rank, &rec.CompositeScore, &rec.CompositeSentiment,
		&rec.MomentumScore, &rec.ConfidenceScore, &rec.TotalMentions,
		&mentions, &sentiment, &engagement, &rec.CreatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan ranking: %w", err)
	}

	if err := json.Unmarshal(mentions, &rec.PerSourceMentions); err != nil {
		return rec, fmt.Errorf("failed to unmarshal per-source mentions for %s: %w", rec.Symbol, err)
	}
	if err := json.Unmarshal(sentiment, &rec.PerSourceSentiment); err != nil {
		return rec, fmt.Errorf("failed to unmarshal per-source sentiment for %s: %w", rec.Symbol, err)
	}
	if err := json.Unmarshal(engagement, &rec.PerSourceEngagement); err != nil {
		return rec, fmt.Errorf("failed to unmarshal per-source engagement for %s: %w", rec.Symbol, err)
	}

	return rec, nil
}
