package memory

import (
	"context"
	"time"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// PendingStore implements storage.PendingStore. Envelopes for a recipient
// are kept in enqueue order; Fetch walks forward from cursor (a messageID),
// Ack removes by messageID so redelivery never outlives acknowledgement.
type PendingStore struct {
	store *Store
}

// Enqueue appends envelope to its recipient's queue. (recipient, messageId)
// is unique; a second insert for the same pair is silently ignored so
// retries stay idempotent (spec §4.4).
func (p *PendingStore) Enqueue(ctx context.Context, envelope *storage.Envelope) error {
	p.store.pendingMu.Lock()
	defer p.store.pendingMu.Unlock()

	recipient := envelope.To
	if recipient == "" {
		recipient = envelope.GroupID
	}

	for _, e := range p.store.pending[recipient] {
		if e.MessageID == envelope.MessageID {
			return nil
		}
	}

	cp := *envelope
	if envelope.Attachment != nil {
		a := *envelope.Attachment
		cp.Attachment = &a
	}
	p.store.pending[recipient] = append(p.store.pending[recipient], &cp)
	return nil
}

func (p *PendingStore) Fetch(ctx context.Context, recipient string, cursor string, limit int) ([]*storage.Envelope, error) {
	p.store.pendingMu.RLock()
	defer p.store.pendingMu.RUnlock()

	queue := p.store.pending[recipient]
	start := 0
	if cursor != "" {
		for i, e := range queue {
			if e.MessageID == cursor {
				start = i + 1
				break
			}
		}
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var out []*storage.Envelope
	now := time.Now()
	for i := start; i < len(queue) && len(out) < limit; i++ {
		if now.After(queue[i].ExpiresAt) {
			continue
		}
		cp := *queue[i]
		out = append(out, &cp)
	}
	return out, nil
}

// Ack removes messageID from recipient's queue. Re-acking a row that is
// already gone is a no-op, not an error (spec §4.4 invariant).
func (p *PendingStore) Ack(ctx context.Context, recipient string, messageID string) error {
	p.store.pendingMu.Lock()
	defer p.store.pendingMu.Unlock()

	queue := p.store.pending[recipient]
	for i, e := range queue {
		if e.MessageID == messageID {
			p.store.pending[recipient] = append(queue[:i], queue[i+1:]...)
			return nil
		}
	}
	return nil
}

func (p *PendingStore) DeleteExpired(ctx context.Context) (int64, error) {
	p.store.pendingMu.Lock()
	defer p.store.pendingMu.Unlock()

	now := time.Now()
	var count int64
	for recipient, queue := range p.store.pending {
		kept := queue[:0]
		for _, e := range queue {
			if now.After(e.ExpiresAt) {
				count++
				continue
			}
			kept = append(kept, e)
		}
		p.store.pending[recipient] = kept
	}
	return count, nil
}

func (p *PendingStore) Count(ctx context.Context, recipient string) (int64, error) {
	p.store.pendingMu.RLock()
	defer p.store.pendingMu.RUnlock()
	return int64(len(p.store.pending[recipient])), nil
}
