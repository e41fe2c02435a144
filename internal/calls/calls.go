// Package calls implements the per-callId signaling state machine (spec
// §4.6): IDLE -> RINGING -> CONNECTED -> CLOSED, with a 60s no-answer
// timeout. Re-architected from the distilled spec's flat status string into
// a tagged variant per SPEC_FULL.md §4.6, grounded
// on the teacher's session.Manager timer-per-entity shape (here one
// time.AfterFunc per in-flight call instead of per-session TTL).
package calls

import (
	"sync"
	"time"

	"github.com/fatihtunali/whisper2-sub009/internal/metrics"
)

// State tags a call's lifecycle phase.
type State int

const (
	Idle State = iota
	Ringing
	Connected
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ringing:
		return "ringing"
	case Connected:
		return "connected"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// EndReason tags why a call ended, meaningful only when State == Ended.
type EndReason string

const (
	ReasonHangup  EndReason = "hangup"
	ReasonTimeout EndReason = "timeout"
	ReasonBusy    EndReason = "busy"
)

// Call is the tagged-variant view of one call's current state: State is
// the tag, EndReason is the only payload and is valid only when State ==
// Ended.
type Call struct {
	ID         string
	Caller     string
	Callee     string
	State      State
	EndReason  EndReason
	answeredAt time.Time
}

const ringTimeout = 60 * time.Second

// OnTimeout is invoked when a call is still Ringing 60s after call_initiate
// with no call_answer; the caller supplies how to route the resulting
// timeout notification (the gateway sends call_ended with reason=timeout).
type OnTimeout func(call Call)

// Manager tracks in-flight calls and their ring timers.
type Manager struct {
	mu      sync.Mutex
	calls   map[string]*Call
	timers  map[string]*time.Timer
	onTimeo OnTimeout
}

// New builds a call Manager; onTimeout fires when a ringing call's 60s
// window elapses unanswered.
func New(onTimeout OnTimeout) *Manager {
	return &Manager{
		calls:   make(map[string]*Call),
		timers:  make(map[string]*time.Timer),
		onTimeo: onTimeout,
	}
}

// Initiate transitions a call from nonexistent to Ringing and starts its
// 60s answer timer.
func (m *Manager) Initiate(callID, caller, callee string) *Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := &Call{ID: callID, Caller: caller, Callee: callee, State: Ringing}
	m.calls[callID] = call
	m.timers[callID] = time.AfterFunc(ringTimeout, func() { m.timeout(callID) })
	metrics.CallsInitiated.Inc()
	return call
}

// Answer transitions Ringing -> Connected, cancelling the ring timer.
func (m *Manager) Answer(callID string) (*Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call, ok := m.calls[callID]
	if !ok || call.State != Ringing {
		return nil, false
	}
	m.cancelTimer(callID)
	call.State = Connected
	call.answeredAt = time.Now()
	return call, true
}

// End transitions any non-terminal call to Ended(reason), cancelling
// whatever timer is running.
func (m *Manager) End(callID string, reason EndReason) (*Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call, ok := m.calls[callID]
	if !ok || call.State == Ended {
		return nil, false
	}
	m.cancelTimer(callID)
	wasAnswered := !call.answeredAt.IsZero()
	call.State = Ended
	call.EndReason = reason
	delete(m.calls, callID)
	metrics.CallsEnded.WithLabelValues(string(reason)).Inc()
	if wasAnswered {
		metrics.CallDuration.Observe(time.Since(call.answeredAt).Seconds())
	}
	return call, true
}

// Get returns the current state of callID, if tracked.
func (m *Manager) Get(callID string) (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call, ok := m.calls[callID]
	if !ok {
		return Call{}, false
	}
	return *call, true
}

func (m *Manager) timeout(callID string) {
	m.mu.Lock()
	call, ok := m.calls[callID]
	if !ok || call.State != Ringing {
		m.mu.Unlock()
		return
	}
	delete(m.timers, callID)
	call.State = Ended
	call.EndReason = ReasonTimeout
	delete(m.calls, callID)
	snapshot := *call
	cb := m.onTimeo
	m.mu.Unlock()

	metrics.CallsEnded.WithLabelValues(string(ReasonTimeout)).Inc()

	if cb != nil {
		cb(snapshot)
	}
}

// cancelTimer must be called with m.mu held.
func (m *Manager) cancelTimer(callID string) {
	if t, ok := m.timers[callID]; ok {
		t.Stop()
		delete(m.timers, callID)
	}
}
