package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsIssued tracks session tokens issued at the end of a
	// successful register_proof handshake.
	SessionsIssued = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "issued_total",
			Help:      "Total number of session tokens issued",
		},
	)

	// SessionsRevoked tracks explicit logout and displacement revocations.
	SessionsRevoked = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "revoked_total",
			Help:      "Total number of sessions revoked, by reason",
		},
		[]string{"reason"}, // logout, re_register, expired
	)

	// HandshakeDuration tracks register_begin-to-register_ack latency.
	HandshakeDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "handshake_duration_seconds",
			Help:      "Time from register_begin to a successful register_ack",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)
