package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorgenfeld/Intellivest/internal/models"
)

func rankedRecord(symbol string, rank int, sentiment, confidence float64) models.StockRankingRecord {
	return models.StockRankingRecord{
		Symbol:             symbol,
		Rank:               rank,
		CompositeSentiment: sentiment,
		ConfidenceScore:    confidence,
	}
}

func TestApplyRankingFilters(t *testing.T) {
	records := []models.StockRankingRecord{
		rankedRecord("AAPL", 1, 0.6, 0.9),
		rankedRecord("TSLA", 2, 0.4, 0.5),
		rankedRecord("NVDA", 3, 0.3, 0.8),
		rankedRecord("GME", 4, -0.2, 0.7),
	}

	req := httptest.NewRequest("GET", "/api/v1/rankings?min_sentiment=0.3&min_confidence=0.7&limit=1", nil)
	out := applyRankingFilters(req, records)

	// TSLA falls to the confidence filter, GME to sentiment; the limit
	// keeps the best survivor.
	require.Len(t, out, 1)
	assert.Equal(t, "AAPL", out[0].Symbol)
}

func TestApplyRankingFilters_LimitOnly(t *testing.T) {
	records := []models.StockRankingRecord{
		rankedRecord("AAPL", 1, 0.6, 0.9),
		rankedRecord("TSLA", 2, 0.4, 0.5),
	}

	req := httptest.NewRequest("GET", "/api/v1/rankings?limit=1", nil)
	out := applyRankingFilters(req, records)

	require.Len(t, out, 1)
	assert.Equal(t, "AAPL", out[0].Symbol)
}

func TestApplyRankingFilters_NoParamsPassesThrough(t *testing.T) {
	records := []models.StockRankingRecord{
		rankedRecord("AAPL", 1, 0.6, 0.9),
		rankedRecord("TSLA", 2, 0.4, 0.5),
	}

	req := httptest.NewRequest("GET", "/api/v1/rankings", nil)
	out := applyRankingFilters(req, records)

	assert.Len(t, out, 2)
}

func TestApplyRankingFilters_MalformedParamIgnored(t *testing.T) {
	records := []models.StockRankingRecord{
		rankedRecord("AAPL", 1, 0.6, 0.9),
	}

	req := httptest.NewRequest("GET", "/api/v1/rankings?min_sentiment=abc&limit=-3", nil)
	out := applyRankingFilters(req, records)

	assert.Len(t, out, 1)
}
