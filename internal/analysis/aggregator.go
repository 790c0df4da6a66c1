package analysis

import (
	"fmt"
	"math"

	"github.com/cmorgenfeld/Intellivest/internal/models"
)

// Aggregate groups observations by (symbol, source) and computes the
// engagement-weighted mean of positive, negative and compound polarity for
// each group. Weights are floored at 1 so zero-engagement items still count
// toward the means instead of vanishing. MentionCount is the number of
// observations in the group, not the weight sum.
//
// The whole call fails with ErrInvalidObservation if any observation carries
// a negative engagement weight or a compound polarity outside [-1, 1].
func Aggregate(observations []models.Observation) (map[models.SignalKey]models.SymbolSignal, error) {
	type accumulator struct {
		weightedPositive float64
		weightedNegative float64
		weightedCompound float64
		mentions         int
		totalWeight      float64
	}

	groups := make(map[models.SignalKey]*accumulator)

	for i, obs := range observations {
		if obs.EngagementWeight < 0 {
			return nil, fmt.Errorf("%w: observation %d (%s/%s) has negative engagement weight %v",
				ErrInvalidObservation, i, obs.Symbol, obs.Source, obs.EngagementWeight)
		}
		if obs.Polarity.Compound < -1 || obs.Polarity.Compound > 1 {
			return nil, fmt.Errorf("%w: observation %d (%s/%s) has compound polarity %v outside [-1,1]",
				ErrInvalidObservation, i, obs.Symbol, obs.Source, obs.Polarity.Compound)
		}

		key := models.SignalKey{Symbol: obs.Symbol, Source: obs.Source}
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{}
			groups[key] = acc
		}

		w := math.Max(obs.EngagementWeight, 1)
		acc.weightedPositive += obs.Polarity.Positive * w
		acc.weightedNegative += obs.Polarity.Negative * w
		acc.weightedCompound += obs.Polarity.Compound * w
		acc.mentions++
		acc.totalWeight += w
	}

	signals := make(map[models.SignalKey]models.SymbolSignal, len(groups))
	for key, acc := range groups {
		// totalWeight >= mentions >= 1 for every stored group
		signals[key] = models.SymbolSignal{
			Symbol:       key.Symbol,
			Source:       key.Source,
			MeanPositive: round4(acc.weightedPositive / acc.totalWeight),
			MeanNegative: round4(acc.weightedNegative / acc.totalWeight),
			MeanCompound: round4(acc.weightedCompound / acc.totalWeight),
			MentionCount: acc.mentions,
			TotalWeight:  acc.totalWeight,
		}
	}

	return signals, nil
}

// round4 rounds to 4 decimal places, the fixed precision all score outputs
// are stored at so repeated runs compare equal.
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
