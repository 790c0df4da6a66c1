package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/cmorgenfeld/Intellivest/internal/models"
)

// Producer publishes ranking events to Kafka
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer for ranking events
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 100 * time.Millisecond,
	}

	return &Producer{writer: writer}
}

// PublishRankingsUpdated publishes one analysis run's ranking records
func (p *Producer) PublishRankingsUpdated(ctx context.Context, runID string, records []models.StockRankingRecord) error {
	event := models.RankingsEvent{
		EventType: "RANKINGS_UPDATED",
		Source:    "sentiment-service",
		RunID:     runID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Rankings:  records,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal rankings event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(runID),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish rankings event: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
