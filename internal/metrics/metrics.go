// Package metrics exposes Prometheus collectors for the harvester and the
// monitor.
package metrics

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesFetched        *prometheus.CounterVec
	fetchFailures       *prometheus.CounterVec
	recordsExtracted    *prometheus.CounterVec
	normalizationMisses *prometheus.CounterVec
	monitorRuns         *prometheus.CounterVec
	alertsSent          *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. Safe to call more than once; constructors
// invoke it so tests never hit nil collectors.
func Init() {
	once.Do(func() {
		pagesFetched = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigia_pages_fetched_total",
				Help: "Pages fetched successfully, labeled by domain.",
			},
			[]string{"domain"},
		)
		fetchFailures = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigia_fetch_failures_total",
				Help: "Fetch attempts that failed, labeled by domain.",
			},
			[]string{"domain"},
		)
		recordsExtracted = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigia_records_extracted_total",
				Help: "Raw records extracted from pages, labeled by domain.",
			},
			[]string{"domain"},
		)
		normalizationMisses = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigia_normalization_misses_total",
				Help: "Non-empty raw fields that failed to canonicalize, labeled by field.",
			},
			[]string{"field"},
		)
		monitorRuns = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigia_monitor_runs_total",
				Help: "Monitoring cycles, labeled by outcome (completed/aborted).",
			},
			[]string{"outcome"},
		)
		alertsSent = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigia_alerts_total",
				Help: "Alert delivery attempts, labeled by outcome (delivered/failed).",
			},
			[]string{"outcome"},
		)
	})
}

// PageFetched records a successful page fetch.
func PageFetched(domain string) {
	pagesFetched.WithLabelValues(domain).Inc()
}

// FetchFailed records a failed fetch attempt.
func FetchFailed(domain string) {
	fetchFailures.WithLabelValues(domain).Inc()
}

// RecordsExtracted adds the number of raw records pulled from one page.
func RecordsExtracted(domain string, n int) {
	recordsExtracted.WithLabelValues(domain).Add(float64(n))
}

// NormalizationMiss records a raw field that failed to canonicalize.
func NormalizationMiss(field string) {
	normalizationMisses.WithLabelValues(field).Inc()
}

// MonitorRun records one monitoring cycle outcome.
func MonitorRun(completed bool) {
	outcome := "completed"
	if !completed {
		outcome = "aborted"
	}
	monitorRuns.WithLabelValues(outcome).Inc()
}

// AlertAttempt records one alert delivery attempt.
func AlertAttempt(delivered bool) {
	outcome := "delivered"
	if !delivered {
		outcome = "failed"
	}
	alertsSent.WithLabelValues(outcome).Inc()
}

// Handler returns the HTTP surface scraped during a run: /metrics plus a
// trivial health probe.
func Handler() http.Handler {
	Init()
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
