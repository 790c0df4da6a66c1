package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler, registry *prometheus.Registry) *mux.Router {
	r := mux.NewRouter()

	// Health check and metrics
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")

	// Ranking routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/rankings", handler.GetRankings).Methods("GET")
	api.HandleFunc("/rankings/{symbol}", handler.GetSymbolRankings).Methods("GET")

	// Signal history routes
	api.HandleFunc("/signals/{symbol}", handler.GetSymbolSignals).Methods("GET")

	// Analysis and backtest routes
	api.HandleFunc("/analysis/run", handler.RunAnalysis).Methods("POST")
	api.HandleFunc("/backtest", handler.RunBacktest).Methods("GET")

	return r
}
