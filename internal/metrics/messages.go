package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesDispatched tracks direct and group message fan-out.
	MessagesDispatched = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "dispatched_total",
			Help:      "Total number of messages dispatched, by route and delivery path",
		},
		[]string{"route", "path"}, // direct/group, live/queued
	)

	// PendingQueueDepth is a single gauge across all recipients, incremented
	// on each pending.Queue.Enqueue and decremented on each "delivered" Ack;
	// the expiry sweep does not adjust it.
	PendingQueueDepth = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "pending_queue_depth",
			Help:      "Total number of undelivered envelopes across all recipients",
		},
	)

	// PendingExpired tracks envelopes dropped by the pending queue's TTL sweep.
	PendingExpired = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "pending_expired_total",
			Help:      "Total number of pending envelopes dropped by TTL expiry",
		},
	)

	// DeliveryReceipts tracks delivery/read receipts by status.
	DeliveryReceipts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "delivery_receipts_total",
			Help:      "Total number of delivery receipts processed, by status",
		},
		[]string{"status"}, // delivered, read
	)
)
