package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	AnalysisRuns         *prometheus.CounterVec
	AnalysisRunDuration  prometheus.Histogram
	SymbolsRanked        prometheus.Gauge
	ObservationsConsumed prometheus.Counter
	ConsumerErrors       prometheus.Counter
}

// New registers the service collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AnalysisRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentiment_analysis_runs_total",
			Help: "Analysis runs by outcome.",
		}, []string{"status"}),
		AnalysisRunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentiment_analysis_run_duration_seconds",
			Help:    "Wall time of one analysis run.",
			Buckets: prometheus.DefBuckets,
		}),
		SymbolsRanked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sentiment_symbols_ranked",
			Help: "Symbols ranked in the most recent run.",
		}),
		ObservationsConsumed: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentiment_observations_consumed_total",
			Help: "Observations persisted from Kafka post events.",
		}),
		ConsumerErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentiment_consumer_errors_total",
			Help: "Kafka consumer processing errors.",
		}),
	}
}
