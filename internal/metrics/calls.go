package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallsInitiated tracks call_initiate attempts.
	CallsInitiated = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calls",
			Name:      "initiated_total",
			Help:      "Total number of calls initiated",
		},
	)

	// CallsEnded tracks how calls concluded.
	CallsEnded = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calls",
			Name:      "ended_total",
			Help:      "Total number of calls ended, by reason",
		},
		[]string{"reason"}, // hangup, timeout, declined, busy
	)

	// CallDuration tracks answered-to-ended call duration.
	CallDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "calls",
			Name:      "duration_seconds",
			Help:      "Duration of answered calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		},
	)

	// TURNCredentialsIssued tracks ephemeral TURN credential issuance.
	TURNCredentialsIssued = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calls",
			Name:      "turn_credentials_issued_total",
			Help:      "Total number of ephemeral TURN credentials issued",
		},
	)
)
