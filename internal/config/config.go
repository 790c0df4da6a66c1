package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Analysis  AnalysisConfig
	Backtest  BacktestConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
}

// KafkaConfig holds Kafka/Redpanda configuration
type KafkaConfig struct {
	Brokers           []string
	RankingsTopic     string
	ObservationsTopic string
	ConsumerGroup     string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// AnalysisConfig holds the scoring and ranking policy. The numeric defaults
// (blend weights, references, sigmoid divisor) are tuning choices carried
// over from the original calibration, not derived invariants; all of them
// are overridable through the environment.
type AnalysisConfig struct {
	// SourceWeights are relative multipliers per source, each in [0,1].
	// Summing to 1 is the conventional configuration but is not enforced.
	SourceWeights map[string]float64

	// MinTotalMentions is the inclusion floor: symbols below it are dropped
	// from the ranking entirely.
	MinTotalMentions int

	// SourceMinMentions are per-source thresholds for the full source
	// diversity bonus (a quality signal, independent of the inclusion floor).
	SourceMinMentions map[string]int

	// MentionConfidenceRef is the mention count at which mention confidence
	// saturates at 1.0.
	MentionConfidenceRef float64

	// EngagementRef is the total engagement weight at which engagement
	// quality saturates at 1.0.
	EngagementRef float64

	// SentimentBlend and MomentumBlend combine composite sentiment and
	// momentum into the composite score.
	SentimentBlend float64
	MomentumBlend  float64

	// MomentumDivisor controls how fast the sigmoid compresses combined
	// momentum into [0,1].
	MomentumDivisor float64

	// ConfidenceMentionWeight, ConfidenceDiversityWeight and
	// ConfidenceEngagementWeight blend the three confidence sub-scores.
	ConfidenceMentionWeight    float64
	ConfidenceDiversityWeight  float64
	ConfidenceEngagementWeight float64
}

// BacktestConfig holds the correlation engine policy.
type BacktestConfig struct {
	// Horizons are forward-return horizons in trading days.
	Horizons []int

	// BucketEdges partition confidence scores; N+1 edges make N buckets,
	// each [lo, hi) except the last which is [lo, hi].
	BucketEdges []float64

	// MatchToleranceDays is the maximum calendar-day distance between a
	// signal date and its nearest trading day before the signal is skipped.
	MatchToleranceDays int
}

// SchedulerConfig holds the daily analysis run schedule.
type SchedulerConfig struct {
	CronSpec    string
	WindowHours int
	Enabled     bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8082"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "postgres"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "sentiment"),
			Password: getEnv("DB_PASSWORD", "sentiment5"),
			DBName:   getEnv("DB_NAME", "stock_sentiment"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:           getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:           getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeMinutes: getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30),
		},
		Kafka: KafkaConfig{
			Brokers:           parseBrokers(getEnv("KAFKA_BROKERS", "localhost:19092")),
			RankingsTopic:     getEnv("KAFKA_RANKINGS_TOPIC", "sentiment.rankings"),
			ObservationsTopic: getEnv("KAFKA_OBSERVATIONS_TOPIC", "sentiment.posts"),
			ConsumerGroup:     getEnv("KAFKA_CONSUMER_GROUP", "sentiment-service"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		Analysis: DefaultAnalysisConfig(),
		Backtest: DefaultBacktestConfig(),
		Scheduler: SchedulerConfig{
			CronSpec:    getEnv("ANALYSIS_CRON", "0 6 * * *"),
			WindowHours: getEnvInt("ANALYSIS_WINDOW_HOURS", 24),
			Enabled:     getEnv("ANALYSIS_CRON_ENABLED", "true") == "true",
		},
	}
}

// DefaultAnalysisConfig returns the scoring policy with its standard tuning.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		SourceWeights: map[string]float64{
			"reddit":  getEnvFloat("WEIGHT_REDDIT", 0.6),
			"twitter": getEnvFloat("WEIGHT_TWITTER", 0.4),
		},
		MinTotalMentions: getEnvInt("MIN_MENTIONS", 5),
		SourceMinMentions: map[string]int{
			"reddit":  3,
			"twitter": 5,
		},
		MentionConfidenceRef: getEnvFloat("MENTION_CONFIDENCE_REF", 8),
		EngagementRef:        getEnvFloat("ENGAGEMENT_REF", 100),
		SentimentBlend:       0.7,
		MomentumBlend:        0.3,
		MomentumDivisor:      10,

		ConfidenceMentionWeight:    0.4,
		ConfidenceDiversityWeight:  0.4,
		ConfidenceEngagementWeight: 0.2,
	}
}

// DefaultBacktestConfig returns the correlation engine's standard policy.
func DefaultBacktestConfig() BacktestConfig {
	return BacktestConfig{
		Horizons:           []int{1, 3, 7},
		BucketEdges:        []float64{0, 0.3, 0.5, 0.7, 1.0},
		MatchToleranceDays: getEnvInt("BACKTEST_TOLERANCE_DAYS", 3),
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// parseBrokers splits a comma-separated broker list
func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Address returns the Redis address in host:port format
func (r *RedisConfig) Address() string {
	return r.Host + ":" + r.Port
}
