package kafka

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorgenfeld/Intellivest/internal/models"
	"github.com/cmorgenfeld/Intellivest/internal/sentiment"
)

// ---------------------------------------------------------------------------
// Mock ObservationRepository
// ---------------------------------------------------------------------------

type mockObservationRepo struct {
	mu    sync.Mutex
	saved []models.Observation
	err   error
}

func (m *mockObservationRepo) SaveObservations(observations []models.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, observations...)
	return nil
}

func (m *mockObservationRepo) Saved() []models.Observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]models.Observation, len(m.saved))
	copy(cp, m.saved)
	return cp
}

// ---------------------------------------------------------------------------
// processMessage tests
// ---------------------------------------------------------------------------

func TestObservationsConsumer_processMessage_RedditPosts(t *testing.T) {
	repo := &mockObservationRepo{}
	consumer := &ObservationsConsumer{repo: repo}

	event := PostsEvent{
		EventType: "SOCIAL_POSTS_SCORED",
		Source:    models.SourceReddit,
		Timestamp: time.Now().Format(time.RFC3339),
		Data: PostsEventData{
			Posts: []ScoredPost{
				{
					ID:          "abc123",
					Text:        "AAPL and tsla to the moon",
					Symbols:     []string{"aapl", "TSLA"},
					Sentiment:   models.PolarityScore{Positive: 0.6, Neutral: 0.4, Compound: 0.5},
					CreatedAt:   "2025-06-02T14:30:00Z",
					Score:       10,
					UpvoteRatio: 0.8,
				},
			},
		},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	err = consumer.processMessage(kafkago.Message{Value: payload})
	require.NoError(t, err)

	saved := repo.Saved()
	require.Len(t, saved, 2)
	// Symbols should be upper-cased, one observation per mentioned symbol
	assert.Equal(t, "AAPL", saved[0].Symbol)
	assert.Equal(t, "TSLA", saved[1].Symbol)
	for _, obs := range saved {
		assert.Equal(t, models.SourceReddit, obs.Source)
		// score * upvote_ratio
		assert.InDelta(t, 8.0, obs.EngagementWeight, 1e-9)
		assert.Equal(t, 0.5, obs.Polarity.Compound)
	}
}

func TestObservationsConsumer_processMessage_TwitterEngagement(t *testing.T) {
	repo := &mockObservationRepo{}
	consumer := &ObservationsConsumer{repo: repo}

	event := PostsEvent{
		EventType: "SOCIAL_POSTS_SCORED",
		Source:    models.SourceTwitter,
		Data: PostsEventData{
			Posts: []ScoredPost{
				{
					ID:           "t1",
					Symbols:      []string{"NVDA"},
					Sentiment:    models.PolarityScore{Compound: -0.2},
					CreatedAt:    "2025-06-02T15:00:00Z",
					LikeCount:    12,
					RetweetCount: 3,
				},
			},
		},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	err = consumer.processMessage(kafkago.Message{Value: payload})
	require.NoError(t, err)

	saved := repo.Saved()
	require.Len(t, saved, 1)
	assert.InDelta(t, 15.0, saved[0].EngagementWeight, 1e-9)
}

func TestObservationsConsumer_processMessage_NegativeEngagementFloorsToZero(t *testing.T) {
	repo := &mockObservationRepo{}
	consumer := &ObservationsConsumer{repo: repo}

	event := PostsEvent{
		EventType: "SOCIAL_POSTS_SCORED",
		Source:    models.SourceReddit,
		Data: PostsEventData{
			Posts: []ScoredPost{
				{
					ID:          "downvoted",
					Symbols:     []string{"GME"},
					Sentiment:   models.PolarityScore{Compound: 0.1},
					CreatedAt:   "2025-06-02T15:00:00Z",
					Score:       -50,
					UpvoteRatio: 0.2,
				},
			},
		},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	err = consumer.processMessage(kafkago.Message{Value: payload})
	require.NoError(t, err)

	saved := repo.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, 0.0, saved[0].EngagementWeight)
}

func TestObservationsConsumer_processMessage_UnscoredPostFallsBackToKeywords(t *testing.T) {
	repo := &mockObservationRepo{}
	consumer := &ObservationsConsumer{repo: repo, scorer: sentiment.NewKeywordScorer()}

	event := PostsEvent{
		EventType: "SOCIAL_POSTS_SCORED",
		Source:    models.SourceReddit,
		Data: PostsEventData{
			Posts: []ScoredPost{
				{
					ID:          "unscored",
					Text:        "AAPL to the moon, buy every share",
					Symbols:     []string{"AAPL"},
					CreatedAt:   "2025-06-02T15:00:00Z",
					Score:       4,
					UpvoteRatio: 1.0,
				},
			},
		},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	err = consumer.processMessage(kafkago.Message{Value: payload})
	require.NoError(t, err)

	saved := repo.Saved()
	require.Len(t, saved, 1)
	// "moon" and "buy" hit the bullish lexicon, nothing hits the bearish one
	assert.Equal(t, 1.0, saved[0].Polarity.Compound)
	assert.Equal(t, 1.0, saved[0].Polarity.Positive)
}

func TestObservationsConsumer_processMessage_ScoredPostKeepsUpstreamPolarity(t *testing.T) {
	repo := &mockObservationRepo{}
	consumer := &ObservationsConsumer{repo: repo, scorer: sentiment.NewKeywordScorer()}

	event := PostsEvent{
		EventType: "SOCIAL_POSTS_SCORED",
		Source:    models.SourceReddit,
		Data: PostsEventData{
			Posts: []ScoredPost{
				{
					ID:        "scored",
					Text:      "AAPL to the moon",
					Symbols:   []string{"AAPL"},
					Sentiment: models.PolarityScore{Negative: 0.9, Compound: -0.8},
					CreatedAt: "2025-06-02T15:00:00Z",
				},
			},
		},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	err = consumer.processMessage(kafkago.Message{Value: payload})
	require.NoError(t, err)

	saved := repo.Saved()
	require.Len(t, saved, 1)
	// The upstream score wins even when the text reads bullish
	assert.Equal(t, -0.8, saved[0].Polarity.Compound)
}

func TestObservationsConsumer_processMessage_IgnoresUnknownEventType(t *testing.T) {
	repo := &mockObservationRepo{}
	consumer := &ObservationsConsumer{repo: repo}

	payload, err := json.Marshal(PostsEvent{EventType: "SOMETHING_ELSE"})
	require.NoError(t, err)

	err = consumer.processMessage(kafkago.Message{Value: payload})
	require.NoError(t, err)
	assert.Empty(t, repo.Saved())
}

func TestObservationsConsumer_processMessage_InvalidJSON(t *testing.T) {
	repo := &mockObservationRepo{}
	consumer := &ObservationsConsumer{repo: repo}

	err := consumer.processMessage(kafkago.Message{Value: []byte("not json")})
	require.Error(t, err)
}

func TestObservationsConsumer_processMessage_RepoError(t *testing.T) {
	repo := &mockObservationRepo{err: errors.New("db down")}
	consumer := &ObservationsConsumer{repo: repo}

	event := PostsEvent{
		EventType: "SOCIAL_POSTS_SCORED",
		Source:    models.SourceReddit,
		Data: PostsEventData{
			Posts: []ScoredPost{
				{ID: "p1", Symbols: []string{"AAPL"}, CreatedAt: "2025-06-02T15:00:00Z"},
			},
		},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	err = consumer.processMessage(kafkago.Message{Value: payload})
	require.Error(t, err)
}
