package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_AllowsUpToBurstThenBlocks(t *testing.T) {
	l := New(Limits{RatePerSecond: 1, Burst: 2}, time.Minute, time.Hour)
	defer l.Close()

	key := Key("1.2.3.4", "WSP-AAAA-AAAA-AAAA", "send_message")
	assert.True(t, l.Allow(key))
	assert.True(t, l.Allow(key))
	assert.False(t, l.Allow(key))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(Limits{RatePerSecond: 1, Burst: 1}, time.Minute, time.Hour)
	defer l.Close()

	a := Key("1.2.3.4", "WSP-AAAA-AAAA-AAAA", "send_message")
	b := Key("1.2.3.4", "WSP-BBBB-BBBB-BBBB", "send_message")

	assert.True(t, l.Allow(a))
	assert.False(t, l.Allow(a))
	assert.True(t, l.Allow(b))
}

func TestLimiter_SweepsIdleEntries(t *testing.T) {
	l := New(Limits{RatePerSecond: 1, Burst: 1}, 10*time.Millisecond, 5*time.Millisecond)
	defer l.Close()

	key := Key("1.2.3.4", "WSP-AAAA-AAAA-AAAA", "send_message")
	assert.True(t, l.Allow(key))

	time.Sleep(50 * time.Millisecond)

	l.mu.Lock()
	_, exists := l.entries[key]
	l.mu.Unlock()
	assert.False(t, exists)
}
