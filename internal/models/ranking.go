package models

import "time"

// StockRankingRecord is one ranked entry per symbol per analysis run.
// Records are append-only: a new run supersedes the previous run's records
// but never overwrites them. All score fields are rounded to 4 decimal
// places before storage.
type StockRankingRecord struct {
	ID                  int                `json:"id,omitempty"`
	RunID               string             `json:"run_id"`
	Symbol              string             `json:"symbol"`
	Rank                int                `json:"rank"`
	CompositeScore      float64            `json:"composite_score"`
	CompositeSentiment  float64            `json:"composite_sentiment"`
	MomentumScore       float64            `json:"momentum_score"`
	ConfidenceScore     float64            `json:"confidence_score"`
	TotalMentions       int                `json:"total_mentions"`
	PerSourceMentions   map[string]int     `json:"per_source_mentions"`
	PerSourceSentiment  map[string]float64 `json:"per_source_sentiment"`
	PerSourceEngagement map[string]float64 `json:"per_source_engagement"`
	CreatedAt           time.Time          `json:"created_at"`
}

// RankingsEvent is the Kafka message published after each analysis run.
type RankingsEvent struct {
	EventType string               `json:"event_type"`
	Source    string               `json:"source"`
	RunID     string               `json:"run_id"`
	Timestamp string               `json:"timestamp"`
	Rankings  []StockRankingRecord `json:"rankings"`
}
