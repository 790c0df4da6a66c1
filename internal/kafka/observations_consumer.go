package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/cmorgenfeld/Intellivest/internal/metrics"
	"github.com/cmorgenfeld/Intellivest/internal/models"
	"github.com/cmorgenfeld/Intellivest/internal/sentiment"
)

// ObservationRepository defines the interface for observation persistence
type ObservationRepository interface {
	SaveObservations(observations []models.Observation) error
}

// PostsEvent represents a batch of scored social posts from a scraper
type PostsEvent struct {
	EventType string         `json:"event_type"`
	Source    string         `json:"source"`
	Timestamp string         `json:"timestamp"`
	Data      PostsEventData `json:"data"`
}

// PostsEventData holds the scored posts in the event
type PostsEventData struct {
	Posts []ScoredPost `json:"posts"`
}

// ScoredPost is one social post with its polarity already assigned by the
// scraper's polarity source. Engagement fields are source-specific; the
// consumer derives one engagement weight per source.
type ScoredPost struct {
	ID        string               `json:"id"`
	Text      string               `json:"text"`
	Symbols   []string             `json:"symbols"`
	Sentiment models.PolarityScore `json:"sentiment"`
	CreatedAt string               `json:"created_at"`

	// Reddit engagement
	Score       int     `json:"score,omitempty"`
	UpvoteRatio float64 `json:"upvote_ratio,omitempty"`

	// Twitter engagement
	LikeCount    int `json:"like_count,omitempty"`
	RetweetCount int `json:"retweet_count,omitempty"`
}

// ObservationsConsumer handles consuming scored-post events from Kafka
type ObservationsConsumer struct {
	reader *kafka.Reader
	repo   ObservationRepository
	scorer sentiment.Scorer
	mtr    *metrics.Metrics
}

// NewObservationsConsumer creates a new Kafka consumer for scored posts.
// mtr may be nil; consumption then runs uninstrumented.
func NewObservationsConsumer(brokers []string, topic, groupID string, repo ObservationRepository, mtr *metrics.Metrics) *ObservationsConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID + "-observations",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &ObservationsConsumer{
		reader: reader,
		repo:   repo,
		scorer: sentiment.NewKeywordScorer(),
		mtr:    mtr,
	}
}

// Start begins consuming messages from Kafka
func (c *ObservationsConsumer) Start(ctx context.Context) error {
	log.Printf("Starting observations consumer for topic: %s", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("Observations consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Printf("Error reading observations message: %v", err)
				continue
			}

			if err := c.processMessage(msg); err != nil {
				log.Printf("Error processing observations message: %v", err)
				if c.mtr != nil {
					c.mtr.ConsumerErrors.Inc()
				}
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *ObservationsConsumer) processMessage(msg kafka.Message) error {
	log.Printf("Received observations message from partition %d offset %d: key=%s",
		msg.Partition, msg.Offset, string(msg.Key))

	var event PostsEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal posts event: %w", err)
	}

	if event.EventType != "SOCIAL_POSTS_SCORED" {
		log.Printf("Ignoring unknown posts event type: %s", event.EventType)
		return nil
	}

	observations := c.convertPosts(event)
	if len(observations) == 0 {
		log.Printf("Posts event from %s carried no symbol mentions", event.Source)
		return nil
	}

	if err := c.repo.SaveObservations(observations); err != nil {
		return fmt.Errorf("failed to save observations: %w", err)
	}

	if c.mtr != nil {
		c.mtr.ObservationsConsumed.Add(float64(len(observations)))
	}

	log.Printf("Saved %d observations from %d %s posts",
		len(observations), len(event.Data.Posts), event.Source)
	return nil
}

// convertPosts flattens each post into one observation per mentioned symbol
func (c *ObservationsConsumer) convertPosts(event PostsEvent) []models.Observation {
	var observations []models.Observation

	for _, post := range event.Data.Posts {
		timestamp, err := time.Parse(time.RFC3339, post.CreatedAt)
		if err != nil {
			timestamp = time.Now()
		}

		// Scrapers normally score posts upstream; posts arriving unscored
		// fall back to the in-process keyword scorer.
		polarity := post.Sentiment
		if polarity == (models.PolarityScore{}) && c.scorer != nil {
			polarity = c.scorer.Score(post.Text)
		}

		weight := engagementWeight(event.Source, post)

		for _, symbol := range post.Symbols {
			observations = append(observations, models.Observation{
				Symbol:           strings.ToUpper(symbol),
				Source:           event.Source,
				Polarity:         polarity,
				EngagementWeight: weight,
				Timestamp:        timestamp,
			})
		}
	}

	return observations
}

// engagementWeight derives a non-negative engagement weight from the
// source-specific metrics. Zero-engagement posts keep weight 0 here; the
// aggregator's unit floor makes them count later.
func engagementWeight(source string, post ScoredPost) float64 {
	var weight float64
	switch source {
	case models.SourceReddit:
		weight = float64(post.Score) * post.UpvoteRatio
	case models.SourceTwitter:
		weight = float64(post.LikeCount + post.RetweetCount)
	}
	if weight < 0 {
		weight = 0
	}
	return weight
}

// Close closes the Kafka consumer
func (c *ObservationsConsumer) Close() error {
	return c.reader.Close()
}
