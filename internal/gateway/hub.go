package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fatihtunali/whisper2-sub009/internal/attachments"
	"github.com/fatihtunali/whisper2-sub009/internal/calls"
	"github.com/fatihtunali/whisper2-sub009/internal/dispatcher"
	"github.com/fatihtunali/whisper2-sub009/internal/identity"
	"github.com/fatihtunali/whisper2-sub009/internal/logger"
	"github.com/fatihtunali/whisper2-sub009/internal/metrics"
	"github.com/fatihtunali/whisper2-sub009/internal/pending"
	"github.com/fatihtunali/whisper2-sub009/internal/revocation"
	"github.com/fatihtunali/whisper2-sub009/internal/sessionstore"
	"github.com/fatihtunali/whisper2-sub009/internal/validator"
	"github.com/fatihtunali/whisper2-sub009/internal/wire"
)

// Hub is the Connection Gateway (spec §4.5): it owns the live-connection
// registry and the WebSocket upgrade path, and implements
// dispatcher.LiveSessions so the Fanout Dispatcher can push frames straight
// to an authenticated peer without importing this package. Grounded on the
// teacher's WSServer (connections map + mutex + upgrader + single read
// loop per connection), split here into a Hub/Conn pair so the keepalive
// writer no longer shares a goroutine with the blocking reader.
type Hub struct {
	registry    *identity.Registry
	sessions    *sessionstore.Store
	validator   *validator.Validator
	dispatcher  *dispatcher.Dispatcher
	pending     *pending.Queue
	calls       *calls.Manager
	attachments *attachments.Manager
	sessionTTL  time.Duration

	upgrader websocket.Upgrader
	log      logger.Logger

	mu   sync.RWMutex
	byID map[string]*Conn

	revokeCancel context.CancelFunc
}

// Config bundles the dependencies and options a Hub is built from.
type Config struct {
	Registry       *identity.Registry
	Sessions       *sessionstore.Store
	Validator      *validator.Validator
	Dispatcher     *dispatcher.Dispatcher
	Pending        *pending.Queue
	Attachments    *attachments.Manager
	SessionTTL     time.Duration
	CheckOrigin    func(r *http.Request) bool
	Logger         logger.Logger
	// RevocationBus, when set, is subscribed to for the lifetime of the Hub:
	// every whisperID published on it (identity.Registry.SetStatus banning
	// that identity) has its live socket force-closed within spec §8's S-Ban
	// bound, instead of waiting for that connection's next frame.
	RevocationBus revocation.Bus
}

// New builds a Hub. The call Manager is constructed here since its
// onTimeout callback needs to route through the Hub's own Send.
func New(cfg Config) *Hub {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefaultLogger()
	}

	h := &Hub{
		registry:    cfg.Registry,
		sessions:    cfg.Sessions,
		validator:   cfg.Validator,
		dispatcher:  cfg.Dispatcher,
		pending:     cfg.Pending,
		attachments: cfg.Attachments,
		sessionTTL:  cfg.SessionTTL,
		log:         log,
		byID:        make(map[string]*Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
	h.calls = calls.New(h.onCallTimeout)

	if cfg.RevocationBus != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.revokeCancel = cancel
		ch, err := cfg.RevocationBus.Subscribe(ctx)
		if err != nil {
			h.log.Warn("revocation bus subscribe failed", logger.Field{Key: "error", Value: err.Error()})
			cancel()
		} else {
			go h.watchRevocations(ch)
		}
	}

	return h
}

// watchRevocations force-closes the live connection of every whisperID that
// arrives on ch, until the channel closes (Hub.Close or the bus itself
// closing).
func (h *Hub) watchRevocations(ch <-chan string) {
	for whisperID := range ch {
		h.ForceClose(whisperID, wire.ErrUserBanned, "identity is banned")
	}
}

// ForceClose sends code/message as an error frame to whisperID's live
// connection, if any, then closes it — the same eviction used by register
// for single-active-device takeover, triggered here by a ban instead of a
// new login.
func (h *Hub) ForceClose(whisperID string, code wire.ErrorCode, message string) bool {
	h.mu.RLock()
	conn, ok := h.byID[whisperID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	h.log.WithContext(logger.WithWhisperID(context.Background(), whisperID)).
		Warn("force-closing live connection", logger.String("reason", message))
	conn.sendError(code, message, "")
	conn.close()
	return true
}

// Handler upgrades the HTTP request to a WebSocket and serves the
// connection until it closes.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed", logger.Field{Key: "error", Value: err.Error()})
			return
		}
		metrics.ConnectionsOpened.Inc()
		conn := newConn(h, wsConn, r)
		conn.serve()
	})
}

// SetDispatcher wires the Fanout Dispatcher after construction. Hub must
// exist before the Dispatcher can be built (the Dispatcher takes Hub as its
// LiveSessions), so callers build the Hub first, build the Dispatcher
// against it, then call SetDispatcher to close the loop.
func (h *Hub) SetDispatcher(d *dispatcher.Dispatcher) {
	h.dispatcher = d
}

// Send implements dispatcher.LiveSessions: pushes frame to whisperID's live
// connection without blocking. Returns false (leaving the envelope durably
// queued) when the peer is offline or its send queue is saturated — the
// gateway's sole backpressure mechanism (spec §4.5).
func (h *Hub) Send(whisperID string, frame *wire.Frame) bool {
	h.mu.RLock()
	conn, ok := h.byID[whisperID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return conn.trySend(frame)
}

// ConnectionCount reports the number of currently authenticated peers.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byID)
}

// register installs conn as whisperID's live connection, evicting whatever
// connection previously held that slot with a final error frame followed by
// a close — single-active-
// device eviction at the live-connection level, distinct from (and always
// preceded by, via RevokeAllFor) session-store revocation.
func (h *Hub) register(whisperID string, conn *Conn) {
	h.mu.Lock()
	prev, existed := h.byID[whisperID]
	h.byID[whisperID] = conn
	h.mu.Unlock()

	if existed && prev != conn {
		metrics.DeviceEvictions.Inc()
		prev.sendError(wire.ErrAuthFailed, "session revoked: a newer device registered this identity", "")
		prev.close()
	} else {
		metrics.ConnectionsActive.Inc()
	}
}

// unregister removes conn from the registry iff it is still the current
// holder of whisperID's slot — a stale teardown from a connection that has
// already been displaced must not evict its successor.
func (h *Hub) unregister(whisperID string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.byID[whisperID]; ok && current == conn {
		delete(h.byID, whisperID)
		metrics.ConnectionsActive.Dec()
	}
}

// onCallTimeout routes a call's 60s no-answer expiry to both parties as a
// call_ended frame with reason=timeout.
func (h *Hub) onCallTimeout(call calls.Call) {
	frame := mustFrame(wire.TypeCallEnded, wire.CallEndedPayload{CallID: call.ID, Reason: string(calls.ReasonTimeout)})
	h.Send(call.Caller, frame)
	h.Send(call.Callee, frame)
}

// Close tears down every live connection and, if wired, the revocation
// subscription goroutine, used on server shutdown.
func (h *Hub) Close() {
	if h.revokeCancel != nil {
		h.revokeCancel()
	}

	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.byID))
	for _, c := range h.byID {
		conns = append(conns, c)
	}
	h.byID = make(map[string]*Conn)
	h.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}
