package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// VerificationCodes counts confirmation-code operations by outcome
	// (sent|verified|mismatch|exhausted).
	VerificationCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_verification_codes_total",
			Help: "Total number of email verification code operations",
		},
		[]string{"outcome"},
	)

	// TokenRefreshes counts refresh-token rotations by result (success|failure).
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_token_refreshes_total",
			Help: "Total number of refresh token rotations",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connect_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
