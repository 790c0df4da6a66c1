package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cmorgenfeld/Intellivest/internal/config"
	"github.com/cmorgenfeld/Intellivest/internal/models"
)

// Engine correlates historical sentiment signals with realized forward
// price returns. One engine serves every sentiment history in the system;
// callers normalize their history into SignalHistoryEntry values first
// (see HistoryFromRankings, HistoryFromSummaries, MergeHistories).
type Engine struct {
	cfg config.BacktestConfig
}

// NewEngine returns a correlation engine with the given matching and
// bucketing policy.
func NewEngine(cfg config.BacktestConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Backtest matches each history entry to the nearest trading day in its
// symbol's price series and scores the predicted direction against the
// realized forward return at every configured horizon.
//
// Entries whose symbol has no price series, or whose nearest trading day is
// farther than the tolerance window, are skipped silently: missing market
// data is not an error. A horizon with an undefined forward return is
// skipped for that horizon only.
func (e *Engine) Backtest(history []models.SignalHistoryEntry, prices map[string][]models.PricePoint, now time.Time) models.BacktestReport {
	report := models.BacktestReport{
		Horizons:    append([]int(nil), e.cfg.Horizons...),
		Overall:     make(map[int]models.HorizonStats, len(e.cfg.Horizons)),
		GeneratedAt: now,
	}

	symbols := make(map[string]struct{})
	totals := make(map[int]*models.HorizonStats, len(e.cfg.Horizons))
	for _, h := range e.cfg.Horizons {
		totals[h] = &models.HorizonStats{}
	}

	for _, signal := range history {
		series, ok := prices[signal.Symbol]
		if !ok || len(series) == 0 {
			report.SkippedEntries++
			continue
		}

		point, matched := e.nearestTradingDay(signal.Date, series)
		if !matched {
			report.SkippedEntries++
			continue
		}

		symbols[signal.Symbol] = struct{}{}

		// Zero sentiment predicts down. That keeps historical results
		// comparable even though a flat signal arguably predicts nothing;
		// see the boundary test pinning this behavior.
		predicted := -1
		if signal.SentimentScore > 0 {
			predicted = 1
		}

		entry := models.BacktestEntry{
			Symbol:             signal.Symbol,
			Date:               signal.Date,
			SentimentScore:     signal.SentimentScore,
			ConfidenceScore:    signal.ConfidenceScore,
			PredictedDirection: predicted,
			ForwardReturns:     make(map[int]float64),
			HorizonCorrect:     make(map[int]bool),
		}

		for _, h := range e.cfg.Horizons {
			forward, ok := point.ForwardReturns[h]
			if !ok {
				continue
			}

			// A flat or positive move counts as up.
			actual := -1
			if forward >= 0 {
				actual = 1
			}

			entry.ForwardReturns[h] = forward
			entry.HorizonCorrect[h] = predicted == actual
			totals[h].TotalPredictions++
			if predicted == actual {
				totals[h].CorrectPredictions++
			}
		}

		report.Entries = append(report.Entries, entry)
	}

	report.SymbolsAnalyzed = len(symbols)
	report.MatchedEntries = len(report.Entries)

	for h, stats := range totals {
		if stats.TotalPredictions > 0 {
			stats.Accuracy = round4(float64(stats.CorrectPredictions) / float64(stats.TotalPredictions))
		} else {
			stats.InsufficientData = true
		}
		report.Overall[h] = *stats
	}

	report.ConfidenceBuckets = e.bucketByConfidence(report.Entries)

	return report
}

// nearestTradingDay finds the series point whose date is closest to the
// signal date by absolute calendar-day distance, within the configured
// tolerance window.
func (e *Engine) nearestTradingDay(date time.Time, series []models.PricePoint) (models.PricePoint, bool) {
	var (
		best     models.PricePoint
		bestDist = math.MaxInt32
	)
	day := date.Truncate(24 * time.Hour)
	for _, point := range series {
		dist := int(math.Abs(point.Date.Truncate(24*time.Hour).Sub(day).Hours() / 24))
		if dist < bestDist {
			best = point
			bestDist = dist
		}
	}
	if bestDist > e.cfg.MatchToleranceDays {
		return models.PricePoint{}, false
	}
	return best, true
}

// bucketByConfidence partitions entries into the configured confidence bins
// and computes per-bin accuracy and mean forward return at every horizon.
// Every bin is half-open [lo, hi) except the last, which includes its upper
// edge.
func (e *Engine) bucketByConfidence(entries []models.BacktestEntry) []models.ConfidenceBucket {
	edges := e.cfg.BucketEdges
	if len(edges) < 2 {
		return nil
	}

	buckets := make([]models.ConfidenceBucket, len(edges)-1)
	members := make([][]models.BacktestEntry, len(edges)-1)
	for i := range buckets {
		buckets[i] = models.ConfidenceBucket{
			Label:      fmt.Sprintf("%.1f-%.1f", edges[i], edges[i+1]),
			Horizons:   make(map[int]models.HorizonStats, len(e.cfg.Horizons)),
			AvgReturns: make(map[int]float64, len(e.cfg.Horizons)),
		}
	}

	for _, entry := range entries {
		if idx, ok := e.bucketIndex(entry.ConfidenceScore); ok {
			members[idx] = append(members[idx], entry)
		}
	}

	for i := range buckets {
		bucket := &buckets[i]
		bucket.Count = len(members[i])

		var confidenceSum float64
		for _, entry := range members[i] {
			confidenceSum += entry.ConfidenceScore
		}
		if bucket.Count > 0 {
			bucket.AvgConfidence = round4(confidenceSum / float64(bucket.Count))
		}

		for _, h := range e.cfg.Horizons {
			stats := models.HorizonStats{}
			var returnSum float64
			for _, entry := range members[i] {
				forward, ok := entry.ForwardReturns[h]
				if !ok {
					continue
				}
				stats.TotalPredictions++
				returnSum += forward
				if entry.HorizonCorrect[h] {
					stats.CorrectPredictions++
				}
			}
			if stats.TotalPredictions > 0 {
				stats.Accuracy = round4(float64(stats.CorrectPredictions) / float64(stats.TotalPredictions))
				bucket.AvgReturns[h] = round4(returnSum / float64(stats.TotalPredictions))
			} else {
				stats.InsufficientData = true
			}
			bucket.Horizons[h] = stats
		}
	}

	return buckets
}

// bucketIndex locates the confidence bin for a score.
func (e *Engine) bucketIndex(confidence float64) (int, bool) {
	edges := e.cfg.BucketEdges
	for i := 0; i < len(edges)-1; i++ {
		last := i == len(edges)-2
		if confidence >= edges[i] && (confidence < edges[i+1] || (last && confidence <= edges[i+1])) {
			return i, true
		}
	}
	return 0, false
}

// HistoryFromRankings normalizes persisted ranking records into backtest
// input. The composite sentiment (not the composite score) is what predicted
// direction; the score additionally folds in momentum.
func HistoryFromRankings(records []models.StockRankingRecord) []models.SignalHistoryEntry {
	entries := make([]models.SignalHistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, models.SignalHistoryEntry{
			Symbol:          rec.Symbol,
			Date:            rec.CreatedAt,
			SentimentScore:  rec.CompositeSentiment,
			ConfidenceScore: rec.ConfidenceScore,
			HistorySource:   models.HistorySourceRankings,
		})
	}
	return entries
}

// HistoryFromSummaries normalizes daily signal summaries. Summaries carry no
// stored confidence, so a rough one is derived from how many underlying
// records the day's summary folded together.
func HistoryFromSummaries(summaries []models.DailySignalSummary) []models.SignalHistoryEntry {
	entries := make([]models.SignalHistoryEntry, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, models.SignalHistoryEntry{
			Symbol:          s.Symbol,
			Date:            s.Date,
			SentimentScore:  s.MeanCompound,
			ConfidenceScore: math.Min(float64(s.RecordCount)/10.0, 1.0),
			HistorySource:   models.HistorySourceSummary,
		})
	}
	return entries
}

// MergeHistories deduplicates two sentiment histories by (symbol, day).
// Primary entries win every collision regardless of which history is newer;
// precedence is by source priority, not recency. The merged history is
// sorted by date then symbol so downstream output is deterministic.
func MergeHistories(primary, secondary []models.SignalHistoryEntry) []models.SignalHistoryEntry {
	type key struct {
		symbol string
		day    string
	}

	merged := make(map[key]models.SignalHistoryEntry, len(primary)+len(secondary))
	for _, entry := range secondary {
		merged[key{entry.Symbol, entry.Date.Format("2006-01-02")}] = entry
	}
	for _, entry := range primary {
		merged[key{entry.Symbol, entry.Date.Format("2006-01-02")}] = entry
	}

	out := make([]models.SignalHistoryEntry, 0, len(merged))
	for _, entry := range merged {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
