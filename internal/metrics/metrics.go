// Package metrics holds the Prometheus collectors exported by the server.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated registry served on /metrics.
	Registry = prometheus.NewRegistry()

	// Runs counts strategy evaluations by strategy and outcome.
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tender_runs_total", Help: "Strategy evaluations by strategy and outcome."},
		[]string{"strategy", "outcome"},
	)
	// SolveDuration records evaluation time in seconds by backend.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "tender_solve_duration_seconds", Help: "Strategy evaluation duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"strategy", "backend"},
	)
	// Offers tracks how many carrier offers each run considered.
	Offers = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "tender_run_offers", Help: "Carrier offers per run.", Buckets: prometheus.ExponentialBuckets(1, 4, 8)},
	)
	// CacheLookups counts solution cache hits and misses.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tender_cache_lookups_total", Help: "Solution cache lookups by result."},
		[]string{"result"},
	)
	// HTTPRequests counts requests by method, route and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tender_http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "route", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "tender_http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
)

var regOnce sync.Once

// Register adds every collector to Registry. It is safe to call repeatedly.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(Runs, SolveDuration, Offers, CacheLookups, HTTPRequests, HTTPDuration)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveRun records the outcome of one strategy evaluation.
func ObserveRun(strategy, backend, outcome string, offers int, elapsed time.Duration) {
	Runs.WithLabelValues(strategy, outcome).Inc()
	if outcome == "ok" {
		SolveDuration.WithLabelValues(strategy, backend).Observe(elapsed.Seconds())
		Offers.Observe(float64(offers))
	}
}

// ObserveCache records a cache hit or miss.
func ObserveCache(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}
