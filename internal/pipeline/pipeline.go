package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cmorgenfeld/Intellivest/internal/analysis"
	"github.com/cmorgenfeld/Intellivest/internal/metrics"
	"github.com/cmorgenfeld/Intellivest/internal/models"
)

// Store is the record-store surface one analysis run needs.
type Store interface {
	GetObservationsSince(since time.Time) ([]models.Observation, error)
	SaveSignals(signals map[models.SignalKey]models.SymbolSignal, createdAt time.Time) error
	SaveRankings(records []models.StockRankingRecord) error
}

// Publisher announces a finished run downstream.
type Publisher interface {
	PublishRankingsUpdated(ctx context.Context, runID string, records []models.StockRankingRecord) error
}

// Cache holds the hot copy of the latest run and notifies channel
// subscribers that it changed.
type Cache interface {
	SetLatestRankings(ctx context.Context, records []models.StockRankingRecord, ttl time.Duration) error
	SetSymbolRanking(ctx context.Context, record models.StockRankingRecord, ttl time.Duration) error
	Publish(ctx context.Context, channel string, message interface{}) error
}

// RankingsChannel carries run-completed notifications for Redis pub/sub
// subscribers; the payload is the run ID. The full records travel over
// Kafka, the channel only signals freshness.
const RankingsChannel = "rankings:updated"

// Runner executes one analysis run end to end: load the observation window,
// aggregate, rank, persist, publish, cache. Runs are independent; the runner
// keeps no state between them, so concurrent runs over different windows are
// safe.
type Runner struct {
	store     Store
	publisher Publisher
	cache     Cache
	ranker    *analysis.Ranker
	window    time.Duration
	cacheTTL  time.Duration
	mtr       *metrics.Metrics
}

// NewRunner wires a run pipeline. publisher, cache and mtr may each be nil;
// the corresponding step is then skipped.
func NewRunner(store Store, publisher Publisher, cache Cache, ranker *analysis.Ranker, window time.Duration, mtr *metrics.Metrics) *Runner {
	return &Runner{
		store:     store,
		publisher: publisher,
		cache:     cache,
		ranker:    ranker,
		window:    window,
		cacheTTL:  2 * window,
		mtr:       mtr,
	}
}

// Run executes one analysis run ending at now and returns the ranked
// records. An empty observation window produces an empty run, not an error.
func (r *Runner) Run(ctx context.Context, now time.Time) ([]models.StockRankingRecord, error) {
	started := time.Now()
	records, err := r.run(ctx, now)

	if r.mtr != nil {
		r.mtr.AnalysisRunDuration.Observe(time.Since(started).Seconds())
		if err != nil {
			r.mtr.AnalysisRuns.WithLabelValues("error").Inc()
		} else {
			r.mtr.AnalysisRuns.WithLabelValues("ok").Inc()
			r.mtr.SymbolsRanked.Set(float64(len(records)))
		}
	}

	return records, err
}

func (r *Runner) run(ctx context.Context, now time.Time) ([]models.StockRankingRecord, error) {
	since := now.Add(-r.window)
	observations, err := r.store.GetObservationsSince(since)
	if err != nil {
		return nil, fmt.Errorf("failed to load observation window: %w", err)
	}
	log.Printf("Analysis run: %d observations since %s", len(observations), since.Format(time.RFC3339))

	signals, err := analysis.Aggregate(observations)
	if err != nil {
		return nil, fmt.Errorf("aggregation failed: %w", err)
	}

	runID := uuid.NewString()
	records := r.ranker.Rank(groupBySource(signals), runID, now)
	log.Printf("Analysis run %s: ranked %d symbols from %d signals", runID, len(records), len(signals))

	if err := r.store.SaveSignals(signals, now); err != nil {
		return nil, fmt.Errorf("failed to persist signals: %w", err)
	}
	if err := r.store.SaveRankings(records); err != nil {
		return nil, fmt.Errorf("failed to persist rankings: %w", err)
	}

	if r.publisher != nil && len(records) > 0 {
		if err := r.publisher.PublishRankingsUpdated(ctx, runID, records); err != nil {
			// The run already persisted; a publish failure degrades
			// downstream freshness but does not invalidate it.
			log.Printf("Warning: failed to publish rankings event: %v", err)
		}
	}

	if r.cache != nil && len(records) > 0 {
		if err := r.cache.SetLatestRankings(ctx, records, r.cacheTTL); err != nil {
			log.Printf("Warning: failed to cache latest rankings: %v", err)
		}
		for _, rec := range records {
			if err := r.cache.SetSymbolRanking(ctx, rec, r.cacheTTL); err != nil {
				log.Printf("Warning: failed to cache ranking for %s: %v", rec.Symbol, err)
				break
			}
		}
		if err := r.cache.Publish(ctx, RankingsChannel, runID); err != nil {
			log.Printf("Warning: failed to notify rankings channel: %v", err)
		}
	}

	return records, nil
}

// groupBySource reshapes the aggregate output into the ranker's
// source -> symbol -> signal layout.
func groupBySource(signals map[models.SignalKey]models.SymbolSignal) map[string]map[string]models.SymbolSignal {
	bySource := make(map[string]map[string]models.SymbolSignal)
	for key, signal := range signals {
		if bySource[key.Source] == nil {
			bySource[key.Source] = make(map[string]models.SymbolSignal)
		}
		bySource[key.Source][key.Symbol] = signal
	}
	return bySource
}
