// Package pending wraps storage.PendingStore with the Pending Queue
// component contract (spec §4.4): enqueue, fetch with cursor pagination,
// ack, and a background expire sweep. The idempotency, default-limit, and
// no-op-ack invariants are enforced at the storage layer (both the memory
// and postgres implementations honor them identically); this package adds
// the cursor contract and the sweep loop on top, grounded on the teacher's
// session.Manager background-ticker shape reused for the expiry sweep.
package pending

import (
	"context"
	"time"

	"github.com/fatihtunali/whisper2-sub009/internal/metrics"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// DefaultFetchLimit and MaxFetchLimit mirror spec §4.4's fetch(...,
// limit=50) default and its ≤200 hard cap, enforced again here so callers
// that bypass validation still get sane values.
const (
	DefaultFetchLimit = 50
	MaxFetchLimit     = 200
	retention         = 30 * 24 * time.Hour
)

// Page is one page of a Fetch call: the envelopes returned plus the cursor
// to resume from, empty when no more rows remain.
type Page struct {
	Envelopes  []*storage.Envelope
	NextCursor string
}

// Queue is the Pending Queue component.
type Queue struct {
	store storage.Store

	sweepTicker *time.Ticker
	stopSweep   chan struct{}
}

// New builds a Queue backed by store, sweeping expired rows every
// sweepInterval.
func New(store storage.Store, sweepInterval time.Duration) *Queue {
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}
	q := &Queue{
		store:       store,
		sweepTicker: time.NewTicker(sweepInterval),
		stopSweep:   make(chan struct{}),
	}
	go q.sweepLoop()
	return q
}

// Enqueue durably appends envelope to its recipient's queue, setting
// ExpiresAt to the 30-day retention window if the caller left it zero.
// Duplicate (recipient, messageId) inserts are absorbed by the storage
// layer (spec §4.4 idempotency invariant).
func (q *Queue) Enqueue(ctx context.Context, envelope *storage.Envelope) error {
	if envelope.ExpiresAt.IsZero() {
		envelope.ExpiresAt = envelope.CreatedAt.Add(retention)
	}
	if err := q.store.PendingStore().Enqueue(ctx, envelope); err != nil {
		return err
	}
	metrics.PendingQueueDepth.Inc()
	return nil
}

// Fetch returns up to limit oldest undelivered envelopes for recipient
// starting after cursor, applying the 50-default/200-cap bounds.
func (q *Queue) Fetch(ctx context.Context, recipient, cursor string, limit int) (Page, error) {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	if limit > MaxFetchLimit {
		limit = MaxFetchLimit
	}

	envelopes, err := q.store.PendingStore().Fetch(ctx, recipient, cursor, limit+1)
	if err != nil {
		return Page{}, err
	}

	var next string
	if len(envelopes) > limit {
		next = envelopes[limit-1].MessageID
		envelopes = envelopes[:limit]
	} else if limit == MaxFetchLimit && len(envelopes) == limit {
		// The store itself hard-caps a single Fetch at MaxFetchLimit, so the
		// limit+1 over-fetch above can never come back larger than limit
		// right at this boundary. Probe explicitly for a continuation row.
		more, err := q.store.PendingStore().Fetch(ctx, recipient, envelopes[limit-1].MessageID, 1)
		if err != nil {
			return Page{}, err
		}
		if len(more) > 0 {
			next = envelopes[limit-1].MessageID
		}
	}
	return Page{Envelopes: envelopes, NextCursor: next}, nil
}

// Ack removes messageID from recipient's queue on a "delivered" status. A
// "read" status is a routing-only signal (the row is already gone); callers
// handle receipt routing separately and should not call Ack again for it.
func (q *Queue) Ack(ctx context.Context, recipient, messageID, status string) error {
	if status != "delivered" {
		return nil
	}
	if err := q.store.PendingStore().Ack(ctx, recipient, messageID); err != nil {
		return err
	}
	metrics.PendingQueueDepth.Dec()
	return nil
}

// Close stops the background expiry sweep.
func (q *Queue) Close() {
	close(q.stopSweep)
	q.sweepTicker.Stop()
}

func (q *Queue) sweepLoop() {
	for {
		select {
		case <-q.sweepTicker.C:
			n, err := q.store.PendingStore().DeleteExpired(context.Background())
			if err == nil && n > 0 {
				metrics.PendingExpired.Add(float64(n))
			}
		case <-q.stopSweep:
			return
		}
	}
}
