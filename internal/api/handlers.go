package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/cmorgenfeld/Intellivest/internal/analysis"
	"github.com/cmorgenfeld/Intellivest/internal/database"
	"github.com/cmorgenfeld/Intellivest/internal/kafka"
	"github.com/cmorgenfeld/Intellivest/internal/models"
	"github.com/cmorgenfeld/Intellivest/internal/pipeline"
	"github.com/cmorgenfeld/Intellivest/internal/prices"
	"github.com/cmorgenfeld/Intellivest/internal/redis"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	runner   *pipeline.Runner
	engine   *analysis.Engine
	provider prices.Provider
	horizons []int
}

// NewHandler creates a new Handler
func NewHandler(db *database.DB, redisClient *redis.Client, producer *kafka.Producer, runner *pipeline.Runner, engine *analysis.Engine, provider prices.Provider, horizons []int) *Handler {
	return &Handler{
		db:       db,
		redis:    redisClient,
		producer: producer,
		runner:   runner,
		engine:   engine,
		provider: provider,
		horizons: horizons,
	}
}

// GetRankings handles GET /api/v1/rankings
// Serves the latest run from Redis when cached, falling back to Postgres.
// Optional min_sentiment, min_confidence and limit query parameters narrow
// the list.
func (h *Handler) GetRankings(w http.ResponseWriter, r *http.Request) {
	if h.redis != nil {
		if records, err := h.redis.GetLatestRankings(r.Context()); err == nil {
			respondJSON(w, http.StatusOK, applyRankingFilters(r, records))
			return
		}
	}

	records, err := h.db.GetLatestRankings()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, applyRankingFilters(r, records))
}

// applyRankingFilters narrows a ranked list by the request's optional query
// parameters. Filters run before the limit so the cut keeps the best of
// what survived.
func applyRankingFilters(r *http.Request, records []models.StockRankingRecord) []models.StockRankingRecord {
	if raw := r.URL.Query().Get("min_sentiment"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			records = analysis.FilterBySentiment(records, v)
		}
	}
	if raw := r.URL.Query().Get("min_confidence"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			records = analysis.FilterByConfidence(records, v)
		}
	}
	if limit := queryInt(r, "limit", 0); limit > 0 {
		records = analysis.TopN(records, limit)
	}
	return records
}

// GetSymbolRankings handles GET /api/v1/rankings/{symbol}
func (h *Handler) GetSymbolRankings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]
	limit := queryInt(r, "limit", 30)

	records, err := h.db.GetRankingsBySymbol(symbol, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(records) == 0 {
		http.Error(w, "no rankings for symbol: "+symbol, http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// GetSymbolSignals handles GET /api/v1/signals/{symbol}
func (h *Handler) GetSymbolSignals(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]
	limit := queryInt(r, "limit", 50)

	signals, err := h.db.GetSignalHistory(symbol, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(signals) == 0 {
		http.Error(w, "no signals for symbol: "+symbol, http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, signals)
}

// RunAnalysis handles POST /api/v1/analysis/run
func (h *Handler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	records, err := h.runner.Run(r.Context(), time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, records)
}

// RunBacktest handles GET /api/v1/backtest
// Matches rankings and daily signal summaries from the past N days against
// realized price moves.
func (h *Handler) RunBacktest(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		http.Error(w, "no price provider configured", http.StatusServiceUnavailable)
		return
	}

	days := queryInt(r, "days", 30)
	now := time.Now()
	since := now.AddDate(0, 0, -days)

	rankings, err := h.db.GetRankingsSince(since)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	summaries, err := h.db.GetDailySignalSummaries(since)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	history := analysis.MergeHistories(
		analysis.HistoryFromRankings(rankings),
		analysis.HistoryFromSummaries(summaries),
	)
	if len(history) == 0 {
		http.Error(w, "no sentiment history in the requested window", http.StatusNotFound)
		return
	}

	symbols := make([]string, 0)
	seen := make(map[string]struct{})
	for _, entry := range history {
		if _, ok := seen[entry.Symbol]; !ok {
			seen[entry.Symbol] = struct{}{}
			symbols = append(symbols, entry.Symbol)
		}
	}

	// Extra trailing days so the longest horizon has closes to settle against.
	series, err := prices.FetchAll(r.Context(), h.provider, symbols, since.AddDate(0, 0, -5), now, h.horizons)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	report := h.engine.Backtest(history, series, now)
	respondJSON(w, http.StatusOK, report)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  map[string]string{},
	}
	services := health["services"].(map[string]string)
	allHealthy := true

	// Check database
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			services["postgres"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			services["postgres"] = "healthy"
		}
	} else {
		services["postgres"] = "not configured"
		allHealthy = false
	}

	// Check Redis
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "not configured"
	}

	// Check Kafka producer
	if h.producer != nil {
		services["kafka"] = "configured"
	} else {
		services["kafka"] = "not configured"
	}

	if !allHealthy {
		health["status"] = "degraded"
	}

	respondJSON(w, http.StatusOK, health)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
