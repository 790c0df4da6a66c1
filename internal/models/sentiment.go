package models

import "time"

// Known observation sources. New sources only need a weight and a
// minimum-mentions threshold in the analysis config.
const (
	SourceReddit  = "reddit"
	SourceTwitter = "twitter"
)

// PolarityScore holds per-item sentiment scores from the polarity source.
// Compound is in [-1, 1]; positive/negative/neutral are in [0, 1] but are
// not required to sum to exactly 1.
type PolarityScore struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Compound float64 `json:"compound"`
}

// Observation is one social-media item mentioning one symbol. An item
// mentioning multiple symbols produces one Observation per symbol.
type Observation struct {
	Symbol           string        `json:"symbol"`
	Source           string        `json:"source"`
	Polarity         PolarityScore `json:"polarity"`
	EngagementWeight float64       `json:"engagement_weight"`
	Timestamp        time.Time     `json:"timestamp"`
}

// SignalKey identifies one aggregated signal.
type SignalKey struct {
	Symbol string
	Source string
}

// SymbolSignal is the engagement-weighted aggregate of all observations for
// one (symbol, source) pair. A signal with zero mentions is never stored.
type SymbolSignal struct {
	Symbol       string    `json:"symbol"`
	Source       string    `json:"source"`
	MeanPositive float64   `json:"mean_positive"`
	MeanNegative float64   `json:"mean_negative"`
	MeanCompound float64   `json:"mean_compound"`
	MentionCount int       `json:"mention_count"`
	TotalWeight  float64   `json:"total_weight"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}
