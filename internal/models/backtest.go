package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// History source names for backtest inputs. When both histories describe the
// same (symbol, date), the ranking-table entry wins.
const (
	HistorySourceRankings = "rankings"
	HistorySourceSummary  = "summary"
)

// PricePoint is one trading day of a symbol's price series. ForwardReturns
// maps horizon (in trading days) to the percentage change from this point's
// close to the close h trading days later. A horizon with insufficient
// trailing data has no map entry; absence is distinct from a 0% return.
type PricePoint struct {
	Symbol         string          `json:"symbol"`
	Date           time.Time       `json:"date"`
	Close          decimal.Decimal `json:"close"`
	ForwardReturns map[int]float64 `json:"forward_returns,omitempty"`
}

// SignalHistoryEntry is the normalized backtest input: one historical
// sentiment reading for one symbol on one date, from either the ranking
// table or the daily-summary export.
type SignalHistoryEntry struct {
	Symbol          string    `json:"symbol"`
	Date            time.Time `json:"date"`
	SentimentScore  float64   `json:"sentiment_score"`
	ConfidenceScore float64   `json:"confidence_score"`
	HistorySource   string    `json:"history_source"`
}

// DailySignalSummary is one row of the daily per-symbol signal export, the
// second sentiment history the backtest engine can consume.
type DailySignalSummary struct {
	Symbol        string    `json:"symbol"`
	Date          time.Time `json:"date"`
	MeanCompound  float64   `json:"mean_compound"`
	TotalMentions int       `json:"total_mentions"`
	RecordCount   int       `json:"record_count"`
}

// BacktestEntry is one matched (signal, price) pair with per-horizon
// outcomes. Horizons missing from ForwardReturns were not scored.
type BacktestEntry struct {
	Symbol             string          `json:"symbol"`
	Date               time.Time       `json:"date"`
	SentimentScore     float64         `json:"sentiment_score"`
	ConfidenceScore    float64         `json:"confidence_score"`
	PredictedDirection int             `json:"predicted_direction"`
	ForwardReturns     map[int]float64 `json:"forward_returns"`
	HorizonCorrect     map[int]bool    `json:"horizon_correct"`
}

// HorizonStats holds directional-accuracy accounting per horizon.
// InsufficientData distinguishes "no predictions at this horizon" from a
// genuine 0% accuracy over a nonzero number of predictions.
type HorizonStats struct {
	TotalPredictions   int     `json:"total_predictions"`
	CorrectPredictions int     `json:"correct_predictions"`
	Accuracy           float64 `json:"accuracy"`
	InsufficientData   bool    `json:"insufficient_data"`
}

// ConfidenceBucket aggregates entries whose confidence score fell into one
// fixed bin.
type ConfidenceBucket struct {
	Label         string               `json:"label"`
	Count         int                  `json:"count"`
	AvgConfidence float64              `json:"avg_confidence"`
	Horizons      map[int]HorizonStats `json:"horizons"`
	AvgReturns    map[int]float64      `json:"avg_returns"`
}

// BacktestReport is the correlation engine's output, consumed by a reporting
// layer outside this core.
type BacktestReport struct {
	Horizons          []int                `json:"horizons"`
	SymbolsAnalyzed   int                  `json:"symbols_analyzed"`
	MatchedEntries    int                  `json:"matched_entries"`
	SkippedEntries    int                  `json:"skipped_entries"`
	Overall           map[int]HorizonStats `json:"overall"`
	ConfidenceBuckets []ConfidenceBucket   `json:"confidence_buckets"`
	Entries           []BacktestEntry      `json:"entries"`
	GeneratedAt       time.Time            `json:"generated_at"`
}
