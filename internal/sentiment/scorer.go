package sentiment

import (
	"strings"

	"github.com/cmorgenfeld/Intellivest/internal/models"
)

// Scorer assigns a polarity score to one text item. Implementations must be
// deterministic for identical input within one run; external lexicon or ML
// scorers plug in behind this interface.
type Scorer interface {
	Score(text string) models.PolarityScore
}

// KeywordScorer is the built-in fallback scorer: it counts bullish and
// bearish trading slang and derives polarity from the counts. It is crude
// but dependency-free and deterministic.
type KeywordScorer struct {
	positive []string
	negative []string
}

// NewKeywordScorer returns a scorer with the standard bull/bear lexicon.
func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{
		positive: []string{
			"buy", "bull", "bullish", "moon", "rocket", "gain", "profit", "long",
			"call", "calls", "up", "rise", "pump", "diamond hands", "hodl", "hold",
		},
		negative: []string{
			"sell", "bear", "bearish", "crash", "loss", "short", "put", "puts",
			"down", "fall", "dump", "paper hands", "rip", "dead",
		},
	}
}

// Score counts keyword hits in the text. A text with no hits is fully
// neutral with zero compound.
func (s *KeywordScorer) Score(text string) models.PolarityScore {
	lower := strings.ToLower(text)

	var positiveCount, negativeCount int
	for _, word := range s.positive {
		if strings.Contains(lower, word) {
			positiveCount++
		}
	}
	for _, word := range s.negative {
		if strings.Contains(lower, word) {
			negativeCount++
		}
	}

	total := positiveCount + negativeCount
	if total == 0 {
		return models.PolarityScore{Neutral: 1.0}
	}

	positive := float64(positiveCount) / float64(total)
	negative := float64(negativeCount) / float64(total)
	neutral := 1 - positive - negative
	if neutral < 0 {
		neutral = 0
	}

	return models.PolarityScore{
		Positive: positive,
		Negative: negative,
		Neutral:  neutral,
		Compound: float64(positiveCount-negativeCount) / float64(total),
	}
}
