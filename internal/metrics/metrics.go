// Package metrics registers the Prometheus instruments for the
// recommendation engine and its HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session engine
	Rebuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviematch_session_rebuilds_total",
			Help: "Total number of recommendation rebuilds after a selection change",
		},
	)

	SeenEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviematch_session_seen_total",
			Help: "Total number of recommendations marked seen",
		},
	)

	EmptyBackfills = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviematch_session_empty_backfills_total",
			Help: "Seen events that found the replacement pool empty and shrank the display",
		},
	)

	Replenishments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviematch_session_replenishments_total",
			Help: "Total number of replacement pool top-ups",
		},
	)

	SkippedSeeds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviematch_session_skipped_seeds_total",
			Help: "Seeds that contributed no candidates, by reason",
		},
		[]string{"reason"}, // "not_found", "error"
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moviematch_sessions_active",
			Help: "Current number of live recommendation sessions",
		},
	)

	// HTTP API
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviematch_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordAPIRequest observes one API request.
func RecordAPIRequest(method, route string, status int, d time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
