package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cmorgenfeld/Intellivest/internal/config"
	"github.com/cmorgenfeld/Intellivest/internal/models"
)

// Client wraps the Redis client with sentiment-specific operations
type Client struct {
	rdb *redis.Client
}

// New creates a new Redis client
func New(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks if Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Ranking cache operations

// SetLatestRankings caches a full run's ranking records with TTL
func (c *Client) SetLatestRankings(ctx context.Context, records []models.StockRankingRecord, ttl time.Duration) error {
	jsonData, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal rankings: %w", err)
	}
	return c.rdb.Set(ctx, "rankings:latest", jsonData, ttl).Err()
}

// GetLatestRankings retrieves the cached latest rankings
func (c *Client) GetLatestRankings(ctx context.Context) ([]models.StockRankingRecord, error) {
	jsonData, err := c.rdb.Get(ctx, "rankings:latest").Bytes()
	if err != nil {
		return nil, err
	}

	var records []models.StockRankingRecord
	if err := json.Unmarshal(jsonData, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rankings: %w", err)
	}
	return records, nil
}

// SetSymbolRanking caches one symbol's latest ranking record with TTL
func (c *Client) SetSymbolRanking(ctx context.Context, record models.StockRankingRecord, ttl time.Duration) error {
	key := fmt.Sprintf("rankings:symbol:%s", record.Symbol)
	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ranking for %s: %w", record.Symbol, err)
	}
	return c.rdb.Set(ctx, key, jsonData, ttl).Err()
}

// GetSymbolRanking retrieves a symbol's cached latest ranking
func (c *Client) GetSymbolRanking(ctx context.Context, symbol string) (*models.StockRankingRecord, error) {
	key := fmt.Sprintf("rankings:symbol:%s", symbol)
	jsonData, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var record models.StockRankingRecord
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ranking: %w", err)
	}
	return &record, nil
}

// Close price caching

// SetClose caches a symbol's close price for one trading day
func (c *Client) SetClose(ctx context.Context, symbol string, date time.Time, close float64, ttl time.Duration) error {
	key := fmt.Sprintf("prices:%s:%s", symbol, date.Format("2006-01-02"))
	return c.rdb.Set(ctx, key, close, ttl).Err()
}

// GetClose retrieves a cached close price
func (c *Client) GetClose(ctx context.Context, symbol string, date time.Time) (float64, error) {
	key := fmt.Sprintf("prices:%s:%s", symbol, date.Format("2006-01-02"))
	return c.rdb.Get(ctx, key).Float64()
}

// Pub/Sub notification for real-time consumers

// Publish publishes a message to a channel
func (c *Client) Publish(ctx context.Context, channel string, message interface{}) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return c.rdb.Publish(ctx, channel, jsonData).Err()
}
