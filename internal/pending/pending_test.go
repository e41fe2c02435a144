package pending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage/memory"
)

func envelope(id, to string) *storage.Envelope {
	now := time.Now()
	return &storage.Envelope{
		MessageID: id, From: "WSP-AAAA-AAAA-AAAA", To: to, MsgType: "text",
		Timestamp: now.UnixMilli(), CreatedAt: now,
	}
}

func TestQueue_EnqueueIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	q := New(store, time.Hour)
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, envelope("m1", "WSP-BBBB-BBBB-BBBB")))
	require.NoError(t, q.Enqueue(ctx, envelope("m1", "WSP-BBBB-BBBB-BBBB")))

	page, err := q.Fetch(ctx, "WSP-BBBB-BBBB-BBBB", "", 0)
	require.NoError(t, err)
	assert.Len(t, page.Envelopes, 1)
}

func TestQueue_FetchPaginatesWithDefaultLimit(t *testing.T) {
	store := memory.NewStore()
	q := New(store, time.Hour)
	defer q.Close()
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		require.NoError(t, q.Enqueue(ctx, envelope(string(rune('a'+i)), "WSP-BBBB-BBBB-BBBB")))
	}

	page, err := q.Fetch(ctx, "WSP-BBBB-BBBB-BBBB", "", 0)
	require.NoError(t, err)
	assert.Len(t, page.Envelopes, DefaultFetchLimit)
	assert.NotEmpty(t, page.NextCursor)

	page2, err := q.Fetch(ctx, "WSP-BBBB-BBBB-BBBB", page.NextCursor, 0)
	require.NoError(t, err)
	assert.Len(t, page2.Envelopes, 10)
	assert.Empty(t, page2.NextCursor)
}

func TestQueue_AckDeliveredRemovesRow(t *testing.T) {
	store := memory.NewStore()
	q := New(store, time.Hour)
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, envelope("m1", "WSP-BBBB-BBBB-BBBB")))
	require.NoError(t, q.Ack(ctx, "WSP-BBBB-BBBB-BBBB", "m1", "delivered"))
	require.NoError(t, q.Ack(ctx, "WSP-BBBB-BBBB-BBBB", "m1", "delivered"))

	page, err := q.Fetch(ctx, "WSP-BBBB-BBBB-BBBB", "", 0)
	require.NoError(t, err)
	assert.Empty(t, page.Envelopes)
}

func TestQueue_AckReadIsNoop(t *testing.T) {
	store := memory.NewStore()
	q := New(store, time.Hour)
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, envelope("m1", "WSP-BBBB-BBBB-BBBB")))
	require.NoError(t, q.Ack(ctx, "WSP-BBBB-BBBB-BBBB", "m1", "read"))

	page, err := q.Fetch(ctx, "WSP-BBBB-BBBB-BBBB", "", 0)
	require.NoError(t, err)
	assert.Len(t, page.Envelopes, 1)
}
