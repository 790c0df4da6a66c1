package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cmorgenfeld/Intellivest/internal/config"
	"github.com/cmorgenfeld/Intellivest/internal/models"
)

// Ranker merges per-source symbol signals into one composite ranking entry
// per symbol. It is stateless across calls; every Rank invocation is a pure
// transform over its inputs.
type Ranker struct {
	cfg config.AnalysisConfig
}

// NewRanker validates the source weights and returns a configured ranker.
// Weights are relative multipliers, each in [0,1]; they are not required to
// sum to 1.
func NewRanker(cfg config.AnalysisConfig) (*Ranker, error) {
	for source, w := range cfg.SourceWeights {
		if w < 0 || w > 1 {
			return nil, fmt.Errorf("%w: source %q weight %v outside [0,1]", ErrInvalidWeight, source, w)
		}
	}
	return &Ranker{cfg: cfg}, nil
}

// Rank produces one StockRankingRecord per symbol whose mentions across all
// sources meet the configured minimum, sorted by descending composite score
// with ties broken by descending total mentions and then ascending symbol.
// Rank is assigned 1..N after sorting. All score fields are rounded to 4
// decimal places, so identical inputs always produce identical records.
//
// An empty input produces an empty ranking, not an error.
func (r *Ranker) Rank(signalsBySource map[string]map[string]models.SymbolSignal, runID string, now time.Time) []models.StockRankingRecord {
	symbols := make(map[string]struct{})
	for _, bySymbol := range signalsBySource {
		for symbol := range bySymbol {
			symbols[symbol] = struct{}{}
		}
	}

	records := make([]models.StockRankingRecord, 0, len(symbols))
	for symbol := range symbols {
		record := r.score(symbol, signalsBySource, runID, now)
		// Symbols seen only through unweighted sources accumulate zero
		// mentions; they never rank, even with the minimum set to zero.
		if record.TotalMentions > 0 && record.TotalMentions >= r.cfg.MinTotalMentions {
			records = append(records, record)
		}
	}

	// Stable sort: rounded composite scores can tie exactly, and the
	// tie-break chain must make the final order reproducible.
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CompositeScore != records[j].CompositeScore {
			return records[i].CompositeScore > records[j].CompositeScore
		}
		if records[i].TotalMentions != records[j].TotalMentions {
			return records[i].TotalMentions > records[j].TotalMentions
		}
		return records[i].Symbol < records[j].Symbol
	})

	for i := range records {
		records[i].Rank = i + 1
	}

	return records
}

// score computes all per-symbol metrics from the sources that carry a signal
// for it.
func (r *Ranker) score(symbol string, signalsBySource map[string]map[string]models.SymbolSignal, runID string, now time.Time) models.StockRankingRecord {
	record := models.StockRankingRecord{
		RunID:               runID,
		Symbol:              symbol,
		PerSourceMentions:   make(map[string]int),
		PerSourceSentiment:  make(map[string]float64),
		PerSourceEngagement: make(map[string]float64),
		CreatedAt:           now,
	}

	var (
		sentimentNum float64
		sentimentDen float64
		momentum     float64
	)

	for source, weight := range r.cfg.SourceWeights {
		signal, ok := signalsBySource[source][symbol]
		if !ok {
			continue
		}

		record.TotalMentions += signal.MentionCount
		record.PerSourceMentions[source] = signal.MentionCount
		record.PerSourceSentiment[source] = round4(signal.MeanCompound)
		record.PerSourceEngagement[source] = signal.TotalWeight

		// Each source's sentiment is weighted by both its configured weight
		// and the engagement it actually gathered.
		sentimentNum += signal.MeanCompound * signal.TotalWeight * weight
		sentimentDen += signal.TotalWeight * weight

		// Volume and engagement jointly drive momentum (product of logs,
		// not sum, so a source needs both to matter).
		momentum += weight * math.Log(float64(signal.MentionCount)+1) * math.Log(signal.TotalWeight+1)
	}

	if sentimentDen > 0 {
		record.CompositeSentiment = round4(sentimentNum / sentimentDen)
	}

	record.MomentumScore = round4(r.squashMomentum(momentum))
	record.ConfidenceScore = round4(r.confidence(record))
	record.CompositeScore = round4(r.cfg.SentimentBlend*record.CompositeSentiment + r.cfg.MomentumBlend*record.MomentumScore)

	return record
}

// squashMomentum compresses unbounded combined momentum into [0,1] with a
// shifted sigmoid, so volume spikes cannot dominate the ranking range.
func (r *Ranker) squashMomentum(momentum float64) float64 {
	normalized := 2/(1+math.Exp(-momentum/r.cfg.MomentumDivisor)) - 1
	return math.Max(0, math.Min(1, normalized))
}

// confidence blends three independent sub-scores: mention volume against a
// reference threshold, source diversity, and engagement quality against a
// reference engagement level.
func (r *Ranker) confidence(record models.StockRankingRecord) float64 {
	mentionConfidence := math.Min(1, float64(record.TotalMentions)/r.cfg.MentionConfidenceRef)

	// Full bonus only when every source clears its own minimum; partial
	// bonus for any multi-source coverage; single-source data stays at 0.5.
	diversity := 0.5
	allClear := len(r.cfg.SourceMinMentions) > 0
	activeSources := 0
	for source, minMentions := range r.cfg.SourceMinMentions {
		if record.PerSourceMentions[source] < minMentions {
			allClear = false
		}
	}
	for _, mentions := range record.PerSourceMentions {
		if mentions > 0 {
			activeSources++
		}
	}
	if allClear {
		diversity = 1.0
	} else if activeSources >= 2 {
		diversity = 0.8
	}

	var totalEngagement float64
	for _, engagement := range record.PerSourceEngagement {
		totalEngagement += engagement
	}
	engagementQuality := math.Min(1, totalEngagement/r.cfg.EngagementRef)

	return r.cfg.ConfidenceMentionWeight*mentionConfidence +
		r.cfg.ConfidenceDiversityWeight*diversity +
		r.cfg.ConfidenceEngagementWeight*engagementQuality
}

// TopN returns the first n records of a ranked slice.
func TopN(records []models.StockRankingRecord, n int) []models.StockRankingRecord {
	if n > len(records) {
		n = len(records)
	}
	return records[:n]
}

// FilterBySentiment keeps records with composite sentiment at or above the
// threshold.
func FilterBySentiment(records []models.StockRankingRecord, minSentiment float64) []models.StockRankingRecord {
	out := make([]models.StockRankingRecord, 0, len(records))
	for _, rec := range records {
		if rec.CompositeSentiment >= minSentiment {
			out = append(out, rec)
		}
	}
	return out
}

// FilterByConfidence keeps records with confidence at or above the threshold.
func FilterByConfidence(records []models.StockRankingRecord, minConfidence float64) []models.StockRankingRecord {
	out := make([]models.StockRankingRecord, 0, len(records))
	for _, rec := range records {
		if rec.ConfidenceScore >= minConfidence {
			out = append(out, rec)
		}
	}
	return out
}
