package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorgenfeld/Intellivest/internal/models"
)

func obs(symbol, source string, compound, weight float64) models.Observation {
	return models.Observation{
		Symbol:           symbol,
		Source:           source,
		Polarity:         models.PolarityScore{Compound: compound},
		EngagementWeight: weight,
		Timestamp:        time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestAggregate_WeightedMeanIsExact(t *testing.T) {
	observations := []models.Observation{
		obs("AAPL", models.SourceReddit, 0.6, 3),
		obs("AAPL", models.SourceReddit, -0.2, 1),
	}

	signals, err := Aggregate(observations)
	require.NoError(t, err)
	require.Len(t, signals, 1)

	signal := signals[models.SignalKey{Symbol: "AAPL", Source: models.SourceReddit}]
	// (0.6*3 + -0.2*1) / 4 = 0.4
	assert.Equal(t, 0.4, signal.MeanCompound)
	assert.Equal(t, 2, signal.MentionCount)
	assert.Equal(t, 4.0, signal.TotalWeight)
}

func TestAggregate_GroupsBySymbolAndSource(t *testing.T) {
	observations := []models.Observation{
		obs("AAPL", models.SourceReddit, 0.5, 2),
		obs("AAPL", models.SourceTwitter, 0.1, 5),
		obs("TSLA", models.SourceReddit, -0.3, 1),
		obs("AAPL", models.SourceReddit, 0.5, 2),
	}

	signals, err := Aggregate(observations)
	require.NoError(t, err)
	require.Len(t, signals, 3)

	assert.Equal(t, 2, signals[models.SignalKey{Symbol: "AAPL", Source: models.SourceReddit}].MentionCount)
	assert.Equal(t, 1, signals[models.SignalKey{Symbol: "AAPL", Source: models.SourceTwitter}].MentionCount)
	assert.Equal(t, 1, signals[models.SignalKey{Symbol: "TSLA", Source: models.SourceReddit}].MentionCount)

	for _, signal := range signals {
		assert.GreaterOrEqual(t, signal.MeanCompound, -1.0)
		assert.LessOrEqual(t, signal.MeanCompound, 1.0)
	}
}

func TestAggregate_ZeroWeightCountsWithUnitFloor(t *testing.T) {
	observations := []models.Observation{
		obs("GME", models.SourceReddit, 1.0, 0),
		obs("GME", models.SourceReddit, 0.0, 3),
	}

	signals, err := Aggregate(observations)
	require.NoError(t, err)

	signal := signals[models.SignalKey{Symbol: "GME", Source: models.SourceReddit}]
	// Zero weight floors to 1: (1.0*1 + 0.0*3) / 4 = 0.25
	assert.Equal(t, 0.25, signal.MeanCompound)
	assert.Equal(t, 2, signal.MentionCount)
	assert.Equal(t, 4.0, signal.TotalWeight)
}

func TestAggregate_NegativeWeightAbortsRun(t *testing.T) {
	observations := []models.Observation{
		obs("AAPL", models.SourceReddit, 0.5, 2),
		obs("TSLA", models.SourceReddit, 0.5, -1),
	}

	signals, err := Aggregate(observations)
	require.ErrorIs(t, err, ErrInvalidObservation)
	assert.Nil(t, signals)
}

func TestAggregate_OutOfRangeCompoundAbortsRun(t *testing.T) {
	for _, compound := range []float64{1.5, -1.01} {
		_, err := Aggregate([]models.Observation{obs("AAPL", models.SourceReddit, compound, 1)})
		require.ErrorIs(t, err, ErrInvalidObservation)
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	signals, err := Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, signals)
}
