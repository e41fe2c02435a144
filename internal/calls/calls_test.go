package calls

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_InitiateAnswerEnd(t *testing.T) {
	m := New(nil)

	call := m.Initiate("call-1", "WSP-AAAA-AAAA-AAAA", "WSP-BBBB-BBBB-BBBB")
	assert.Equal(t, Ringing, call.State)

	answered, ok := m.Answer("call-1")
	require.True(t, ok)
	assert.Equal(t, Connected, answered.State)

	ended, ok := m.End("call-1", ReasonHangup)
	require.True(t, ok)
	assert.Equal(t, Ended, ended.State)
	assert.Equal(t, ReasonHangup, ended.EndReason)

	_, ok = m.Get("call-1")
	assert.False(t, ok)
}

func TestManager_AnswerAfterEndFails(t *testing.T) {
	m := New(nil)
	m.Initiate("call-1", "WSP-AAAA-AAAA-AAAA", "WSP-BBBB-BBBB-BBBB")
	m.End("call-1", ReasonHangup)

	_, ok := m.Answer("call-1")
	assert.False(t, ok)
}

func TestManager_TimeoutFiresOnNoAnswer(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	var gotReason EndReason
	m := &Manager{calls: make(map[string]*Call), timers: make(map[string]*time.Timer)}
	m.onTimeo = func(c Call) {
		gotReason = c.EndReason
		wg.Done()
	}

	m.mu.Lock()
	call := &Call{ID: "call-1", Caller: "WSP-AAAA-AAAA-AAAA", Callee: "WSP-BBBB-BBBB-BBBB", State: Ringing}
	m.calls["call-1"] = call
	m.timers["call-1"] = time.AfterFunc(10*time.Millisecond, func() { m.timeout("call-1") })
	m.mu.Unlock()

	wg.Wait()
	assert.Equal(t, ReasonTimeout, gotReason)

	_, ok := m.Get("call-1")
	assert.False(t, ok)
}
