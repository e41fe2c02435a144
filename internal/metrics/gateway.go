package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionsActive tracks currently authenticated WebSocket connections.
	ConnectionsActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "connections_active",
			Help:      "Number of currently authenticated gateway connections",
		},
	)

	// ConnectionsOpened tracks every WebSocket upgrade, regardless of whether
	// it ever reaches StateAuthenticated.
	ConnectionsOpened = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "connections_opened_total",
			Help:      "Total number of WebSocket connections accepted",
		},
	)

	// DeviceEvictions tracks single-active-device displacements.
	DeviceEvictions = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "device_evictions_total",
			Help:      "Total number of connections closed by a newer device registering the same whisperId",
		},
	)

	// ValidationRejections tracks validator pipeline failures by step.
	ValidationRejections = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "validation_rejections_total",
			Help:      "Total number of frames rejected by the validator pipeline, by failing step",
		},
		[]string{"step"}, // version, session, timestamp, recipient, signature, rate_limit
	)
)
