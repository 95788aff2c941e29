// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SimulationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bess_simulations_total",
		Help: "Completed dispatch simulations.",
	}, []string{"strategy"})

	SimulationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bess_simulation_duration_seconds",
		Help:    "Wall time of one dispatch simulation.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"strategy"})

	AnnualSavings = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bess_annual_savings_dollars",
		Help: "Annualized savings of the most recent optimization run.",
	}, []string{"strategy"})

	ClusterCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bess_cluster_cache_lookups_total",
		Help: "Cluster memo cache lookups by result.",
	}, []string{"result"})

	MonteCarloRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bess_monte_carlo_runs_total",
		Help: "Individual Monte Carlo scenario simulations.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bess_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bess_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// ObserveSimulation records one finished simulation.
func ObserveSimulation(strategy string, started time.Time) {
	SimulationsTotal.WithLabelValues(strategy).Inc()
	SimulationSeconds.WithLabelValues(strategy).Observe(time.Since(started).Seconds())
}
