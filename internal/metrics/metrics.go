// Package metrics exposes Prometheus collectors for the game server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Rounds started, by selection mode (random | daily).
	RoundsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "priceguess_rounds_started_total",
			Help: "Total number of rounds started.",
		},
		[]string{"mode"},
	)

	// Rounds reaching a terminal state, by outcome (won | lost).
	RoundsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "priceguess_rounds_finished_total",
			Help: "Total number of rounds that ended.",
		},
		[]string{"outcome"},
	)

	// Accepted guesses, by feedback (higher | lower | correct).
	Guesses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "priceguess_guesses_total",
			Help: "Total number of accepted guesses.",
		},
		[]string{"feedback"},
	)

	// Rejected guesses, by error code.
	GuessesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "priceguess_guesses_rejected_total",
			Help: "Total number of rejected guesses.",
		},
		[]string{"reason"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "priceguess_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
