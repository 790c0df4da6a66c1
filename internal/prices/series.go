package prices

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmorgenfeld/Intellivest/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Provider retrieves historical OHLC close series for a symbol. The actual
// retrieval (market-data vendor, rate limits, auth) lives outside this
// service; implementations should honor the context for cancellation.
type Provider interface {
	GetSeries(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error)
}

// CloseStore caches one close per (symbol, trading day). The Redis client
// implements it; external price collectors may fill it directly.
type CloseStore interface {
	GetClose(ctx context.Context, symbol string, date time.Time) (float64, error)
	SetClose(ctx context.Context, symbol string, date time.Time, close float64, ttl time.Duration) error
}

// CachedProvider layers the close cache over an optional vendor provider.
// Fetched closes are written through to the cache with the configured TTL.
// With no vendor configured, or when the vendor fails, the series is
// reconstructed from cached closes alone.
type CachedProvider struct {
	inner Provider
	store CloseStore
	ttl   time.Duration
}

// NewCachedProvider wraps inner with the close cache. inner may be nil;
// store must not be.
func NewCachedProvider(inner Provider, store CloseStore, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, store: store, ttl: ttl}
}

// GetSeries implements Provider.
func (p *CachedProvider) GetSeries(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error) {
	if p.inner != nil {
		points, err := p.inner.GetSeries(ctx, symbol, start, end)
		if err == nil && len(points) > 0 {
			for _, point := range points {
				// A failed cache write costs a future cache hit, nothing more.
				_ = p.store.SetClose(ctx, symbol, point.Date, point.Close.InexactFloat64(), p.ttl)
			}
			return points, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return p.seriesFromCache(ctx, symbol, start, end)
}

func (p *CachedProvider) seriesFromCache(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error) {
	var points []models.PricePoint
	for day := start.Truncate(24 * time.Hour); !day.After(end); day = day.AddDate(0, 0, 1) {
		close, err := p.store.GetClose(ctx, symbol, day)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Weekends, holidays and uncollected days have no entry.
			continue
		}
		points = append(points, models.PricePoint{
			Symbol: symbol,
			Date:   day,
			Close:  decimal.NewFromFloat(close),
		})
	}
	return points, nil
}

// ComputeForwardReturns fills in percentage forward returns on each point
// from the closes h trading days ahead, for every requested horizon. Points
// too close to the end of the series for a horizon get no entry at that
// horizon; absence marks the return as undefined rather than zero.
//
// The input is sorted by date in place and returned for convenience.
func ComputeForwardReturns(points []models.PricePoint, horizons []int) []models.PricePoint {
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	for i := range points {
		if points[i].ForwardReturns == nil {
			points[i].ForwardReturns = make(map[int]float64, len(horizons))
		}
		for _, h := range horizons {
			if h <= 0 || i+h >= len(points) {
				continue
			}
			base := points[i].Close
			if base.IsZero() {
				continue
			}
			change := points[i+h].Close.Sub(base).Div(base).Mul(hundred)
			points[i].ForwardReturns[h] = change.InexactFloat64()
		}
	}

	return points
}

// FetchAll retrieves and prepares series for every symbol, silently skipping
// symbols the provider has no data for. A missing symbol is the caller's
// signal to skip, never an error.
func FetchAll(ctx context.Context, provider Provider, symbols []string, start, end time.Time, horizons []int) (map[string][]models.PricePoint, error) {
	series := make(map[string][]models.PricePoint, len(symbols))
	for _, symbol := range symbols {
		points, err := provider.GetSeries(ctx, symbol, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if len(points) == 0 {
			continue
		}
		series[symbol] = ComputeForwardReturns(points, horizons)
	}
	return series, nil
}
