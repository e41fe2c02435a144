package gateway

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fatihtunali/whisper2-sub009/internal/calls"
	"github.com/fatihtunali/whisper2-sub009/internal/logger"
	"github.com/fatihtunali/whisper2-sub009/internal/metrics"
	"github.com/fatihtunali/whisper2-sub009/internal/validator"
	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// State tags a connection's position in the auth lifecycle diagram (spec
// §4.5): CONNECTED -> CHALLENGED -> VERIFYING -> AUTHENTICATED -> CLOSED.
type State int32

const (
	StateConnected State = iota
	StateChallenged
	StateVerifying
	StateAuthenticated
	StateClosed
)

const (
	sendQueueSize  = 256
	challengeTTL   = 120 * time.Second
	pingInterval   = 30 * time.Second
	pongTimeout    = 60 * time.Second
	writeTimeout   = 10 * time.Second
)

// Conn is one logically-owned WebSocket connection: a single cooperative
// reader task plus a bounded outbound send queue drained by a writer task,
// grounded on the teacher's WSServer.handleConnection single-reader-loop
// shape, split here into reader/writer pumps so keepalive pings don't
// compete with application writes for the socket.
type Conn struct {
	hub  *Hub
	conn *websocket.Conn
	ip   string

	send      chan *wire.Frame
	closeOnce sync.Once
	closed    chan struct{}

	mu              sync.Mutex
	state           State
	whisperID       string
	deviceID        string
	platform        string
	pushToken       string
	voipToken       string
	sessionToken    string
	challenge       []byte
	challengeExpire time.Time
	challengeIssued time.Time
	lastPong        time.Time
}

func newConn(hub *Hub, wsConn *websocket.Conn, r *http.Request) *Conn {
	return &Conn{
		hub:      hub,
		conn:     wsConn,
		ip:       remoteIP(r),
		send:     make(chan *wire.Frame, sendQueueSize),
		closed:   make(chan struct{}),
		state:    StateConnected,
		lastPong: time.Now(),
	}
}

func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i != -1 {
		return host[:i]
	}
	return host
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// trySend enqueues frame onto the bounded send queue without blocking. A
// full queue means this connection's live path is saturated; the caller
// (the dispatcher, via Hub.Send) treats a false return as "leave it in the
// durable queue" rather than dropping anything — the backpressure contract
// of spec §4.5.
func (c *Conn) trySend(frame *wire.Frame) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Conn) sendTyped(msgType, requestID string, payload interface{}) {
	frame, err := wire.NewFrame(msgType, requestID, payload)
	if err != nil {
		return
	}
	c.trySend(frame)
}

func (c *Conn) sendError(code wire.ErrorCode, message, requestID string) {
	c.sendTyped(wire.TypeError, requestID, wire.ErrorPayload{Code: code, Message: message, RequestID: requestID})
}

func (c *Conn) sendErr(err error, requestID string) {
	payload := wire.AsErrorPayload(err, requestID)
	c.sendTyped(wire.TypeError, requestID, payload)
}

// serve runs the connection's full lifecycle: writer pump, keepalive timer,
// and the blocking reader loop. Returns once the socket is gone.
func (c *Conn) serve() {
	go c.writePump()
	go c.keepaliveLoop()
	c.readPump()
	c.teardown()
}

func (c *Conn) readPump() {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.touchPong()

		var frame wire.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.sendError(wire.ErrInvalidPayload, "malformed frame", "")
			continue
		}
		if frame.Type == "" {
			c.sendError(wire.ErrInvalidPayload, "missing frame type", frame.RequestID)
			continue
		}
		c.handleFrame(&frame)
	}
}

func (c *Conn) writePump() {
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *Conn) keepaliveLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			sincePong := time.Since(c.lastPong)
			c.mu.Unlock()
			if sincePong >= pongTimeout {
				c.close()
				return
			}
			c.sendTyped(wire.TypePing, "", wire.PongPayload{ServerTime: time.Now().UnixMilli()})
		case <-c.closed:
			return
		}
	}
}

func (c *Conn) touchPong() {
	c.mu.Lock()
	c.lastPong = time.Now()
	c.mu.Unlock()
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

func (c *Conn) teardown() {
	c.setState(StateClosed)
	c.close()
	c.mu.Lock()
	whisperID := c.whisperID
	c.mu.Unlock()
	if whisperID != "" {
		c.hub.unregister(whisperID, c)
		c.hub.log.WithContext(logger.WithWhisperID(context.Background(), whisperID)).
			Info("connection closed")
	}
}

func (c *Conn) handleFrame(frame *wire.Frame) {
	switch frame.Type {
	case wire.TypeRegisterBegin:
		c.handleRegisterBegin(frame)
	case wire.TypeRegisterProof:
		c.handleRegisterProof(frame)
	case wire.TypePong:
		// touchPong already ran on every inbound frame.
	case wire.TypeLogout:
		c.handleLogout(frame)
	case wire.TypeSessionRefresh:
		c.handleSessionRefresh(frame)
	case wire.TypeSendMessage:
		c.handleSendMessage(frame)
	case wire.TypeGroupSendMessage:
		c.handleGroupSendMessage(frame)
	case wire.TypeFetchPending:
		c.handleFetchPending(frame)
	case wire.TypeDeliveryReceipt:
		c.handleDeliveryReceipt(frame)
	case wire.TypeCallInitiate, wire.TypeCallAnswer, wire.TypeCallICECandidate, wire.TypeCallEnd:
		c.handleCallFrame(frame)
	default:
		c.sendError(wire.ErrInvalidPayload, fmt.Sprintf("unknown frame type %q", frame.Type), frame.RequestID)
	}
}

func (c *Conn) requireAuthenticated(frame *wire.Frame) bool {
	if c.State() != StateAuthenticated {
		c.sendError(wire.ErrAuthFailed, "connection is not authenticated", frame.RequestID)
		return false
	}
	return true
}

// --- registration handshake ---

func (c *Conn) handleRegisterBegin(frame *wire.Frame) {
	if c.State() != StateConnected {
		c.sendError(wire.ErrInvalidPayload, "register_begin out of order", frame.RequestID)
		return
	}

	var payload wire.RegisterBeginPayload
	if err := frame.Decode(&payload); err != nil {
		c.sendError(wire.ErrInvalidPayload, "malformed register_begin payload", frame.RequestID)
		return
	}

	encPub, errEnc := base64.StdEncoding.DecodeString(payload.EncPublicKey)
	signPub, errSign := base64.StdEncoding.DecodeString(payload.SignPublicKey)
	if errEnc != nil || errSign != nil || len(signPub) != ed25519.PublicKeySize {
		c.sendError(wire.ErrInvalidPayload, "malformed public keys", frame.RequestID)
		return
	}

	ctx := context.Background()
	existing, err := c.hub.registry.LookupKeys(ctx, payload.WhisperID)
	if err != nil && !isNotFound(err) {
		c.sendErr(err, frame.RequestID)
		return
	}
	if existing == nil {
		if err := c.hub.registry.CreateIdentity(ctx, payload.WhisperID, encPub, signPub); err != nil {
			c.sendErr(err, frame.RequestID)
			return
		}
	} else {
		if existing.Status == storage.IdentityBanned {
			c.sendError(wire.ErrUserBanned, "identity is banned", frame.RequestID)
			return
		}
		if err := c.hub.registry.VerifyOwnership(ctx, payload.WhisperID, signPub); err != nil {
			c.sendErr(err, frame.RequestID)
			return
		}
	}

	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		c.sendError(wire.ErrInternal, "failed to generate challenge", frame.RequestID)
		return
	}

	c.mu.Lock()
	c.whisperID = payload.WhisperID
	c.deviceID = payload.DeviceID
	c.platform = payload.Platform
	c.pushToken = payload.PushToken
	c.voipToken = payload.VoipToken
	c.challenge = challenge
	c.challengeExpire = time.Now().Add(challengeTTL)
	c.challengeIssued = time.Now()
	c.mu.Unlock()
	c.setState(StateChallenged)

	c.sendTyped(wire.TypeRegisterChallenge, frame.RequestID, wire.RegisterChallengePayload{
		ChallengeID: uuid.NewString(),
		Challenge:   base64.StdEncoding.EncodeToString(challenge),
		ExpiresAt:   c.challengeExpire.UnixMilli(),
	})
}

func (c *Conn) handleRegisterProof(frame *wire.Frame) {
	if c.State() != StateChallenged {
		c.sendError(wire.ErrInvalidPayload, "register_proof out of order", frame.RequestID)
		return
	}

	var payload wire.RegisterProofPayload
	if err := frame.Decode(&payload); err != nil {
		c.sendError(wire.ErrInvalidPayload, "malformed register_proof payload", frame.RequestID)
		return
	}

	c.mu.Lock()
	challenge := c.challenge
	expired := time.Now().After(c.challengeExpire)
	whisperID, deviceID := c.whisperID, c.deviceID
	platform, pushToken, voipToken := c.platform, c.pushToken, c.voipToken
	challengeIssued := c.challengeIssued
	c.mu.Unlock()

	if expired {
		c.sendError(wire.ErrAuthFailed, "challenge expired", frame.RequestID)
		c.setState(StateClosed)
		c.close()
		return
	}

	c.setState(StateVerifying)

	sig, err := base64.StdEncoding.DecodeString(payload.Signature)
	if err != nil {
		c.sendError(wire.ErrInvalidPayload, "malformed signature", frame.RequestID)
		c.setState(StateChallenged)
		return
	}

	ctx := context.Background()
	identity, err := c.hub.registry.LookupKeys(ctx, whisperID)
	if err != nil {
		c.sendErr(err, frame.RequestID)
		c.setState(StateChallenged)
		return
	}

	digest := sha256.Sum256(challenge)
	if !ed25519.Verify(identity.SignPublicKey, digest[:], sig) {
		c.sendError(wire.ErrAuthFailed, "challenge signature invalid", frame.RequestID)
		c.setState(StateChallenged)
		return
	}

	if _, err := c.hub.sessions.RevokeAllFor(ctx, whisperID); err != nil {
		c.sendErr(err, frame.RequestID)
		return
	}
	if err := c.hub.registry.BindDevice(ctx, whisperID, deviceID, platform, pushToken, voipToken); err != nil {
		c.sendErr(err, frame.RequestID)
		return
	}
	token, err := c.hub.sessions.Issue(ctx, whisperID, deviceID, c.hub.sessionTTL)
	if err != nil {
		c.sendErr(err, frame.RequestID)
		return
	}

	c.mu.Lock()
	c.sessionToken = token
	c.mu.Unlock()
	c.setState(StateAuthenticated)
	c.hub.register(whisperID, c)
	metrics.HandshakeDuration.Observe(time.Since(challengeIssued).Seconds())
	c.hub.log.WithContext(logger.WithWhisperID(logger.WithRequestID(ctx, frame.RequestID), whisperID)).
		Info("connection authenticated", logger.String("deviceId", deviceID), logger.String("ip", c.ip))

	c.sendTyped(wire.TypeRegisterAck, frame.RequestID, wire.RegisterAckPayload{
		Success:      true,
		WhisperID:    whisperID,
		SessionToken: token,
		ServerTime:   time.Now().UnixMilli(),
	})

	go c.autoDrainPending()
}

func isNotFound(err error) bool {
	werr, ok := err.(*wire.Error)
	return ok && werr.Code == wire.ErrNotFound
}

// --- session lifecycle ---

func (c *Conn) handleLogout(frame *wire.Frame) {
	c.mu.Lock()
	token := c.sessionToken
	c.mu.Unlock()
	if token != "" {
		_ = c.hub.sessions.Revoke(context.Background(), token)
	}
	c.setState(StateClosed)
	c.close()
}

func (c *Conn) handleSessionRefresh(frame *wire.Frame) {
	if !c.requireAuthenticated(frame) {
		return
	}
	var payload wire.SessionRefreshPayload
	if err := frame.Decode(&payload); err != nil {
		c.sendError(wire.ErrInvalidPayload, "malformed session_refresh payload", frame.RequestID)
		return
	}
	newToken, err := c.hub.sessions.Refresh(context.Background(), payload.SessionToken, c.hub.sessionTTL)
	if err != nil {
		c.sendErr(err, frame.RequestID)
		return
	}
	c.mu.Lock()
	c.sessionToken = newToken
	whisperID := c.whisperID
	c.mu.Unlock()
	c.sendTyped(wire.TypeSessionRefresh, frame.RequestID, wire.RegisterAckPayload{
		Success: true, WhisperID: whisperID, SessionToken: newToken, ServerTime: time.Now().UnixMilli(),
	})
}

// --- messaging ---

func (c *Conn) validatorInput(endpoint, msgType, messageID, from, to, groupID string, timestamp int64, nonceB64, cipherB64, sigB64 string, sessionToken string, protocolVersion, cryptoVersion int) validator.Input {
	return validator.Input{
		IP:              c.ip,
		Endpoint:        endpoint,
		ProtocolVersion: protocolVersion,
		CryptoVersion:   cryptoVersion,
		SessionToken:    sessionToken,
		MessageType:     msgType,
		MessageID:       messageID,
		From:            from,
		To:              to,
		GroupID:         groupID,
		Timestamp:       timestamp,
		NonceB64:        nonceB64,
		CiphertextB64:   cipherB64,
		SigB64:          sigB64,
	}
}

func (c *Conn) handleSendMessage(frame *wire.Frame) {
	if !c.requireAuthenticated(frame) {
		return
	}
	var payload wire.SendMessagePayload
	if err := frame.Decode(&payload); err != nil {
		c.sendError(wire.ErrInvalidPayload, "malformed send_message payload", frame.RequestID)
		return
	}

	ctx := context.Background()
	in := c.validatorInput("send_message", string(payload.MsgType), payload.MessageID, payload.From, payload.To, "",
		payload.Timestamp, payload.Nonce, payload.Ciphertext, payload.Sig, payload.SessionToken,
		payload.ProtocolVersion, payload.CryptoVersion)
	if _, err := c.hub.validator.Validate(ctx, in, time.Now()); err != nil {
		c.sendErr(err, frame.RequestID)
		return
	}

	if payload.Attachment != nil {
		_ = c.hub.attachments.GrantAccess(ctx, payload.Attachment.ObjectKey, payload.From, payload.To)
	}

	env := &storage.Envelope{
		MessageID:  payload.MessageID,
		From:       payload.From,
		To:         payload.To,
		MsgType:    string(payload.MsgType),
		Timestamp:  payload.Timestamp,
		Nonce:      payload.Nonce,
		Ciphertext: payload.Ciphertext,
		Sig:        payload.Sig,
		ReplyTo:    payload.ReplyTo,
		CreatedAt:  time.Now(),
	}
	if payload.Attachment != nil {
		env.Attachment = &storage.AttachmentRef{
			ObjectKey: payload.Attachment.ObjectKey, FileKeyBox: payload.Attachment.FileKeyBox,
			ContentType: payload.Attachment.ContentType, Size: payload.Attachment.Size,
		}
	}

	accepted, err := c.hub.dispatcher.DispatchDirect(ctx, env)
	if err != nil {
		c.sendErr(err, frame.RequestID)
		return
	}
	c.sendTyped(wire.TypeMessageAccepted, frame.RequestID, accepted)
}

func (c *Conn) handleGroupSendMessage(frame *wire.Frame) {
	if !c.requireAuthenticated(frame) {
		return
	}
	var payload wire.GroupSendMessagePayload
	if err := frame.Decode(&payload); err != nil {
		c.sendError(wire.ErrInvalidPayload, "malformed group_send_message payload", frame.RequestID)
		return
	}

	ctx := context.Background()
	valid := make([]wire.GroupRecipient, 0, len(payload.Recipients))
	for _, r := range payload.Recipients {
		in := c.validatorInput("group_send_message", string(payload.MsgType), payload.MessageID, payload.From, r.To,
			payload.GroupID, payload.Timestamp, r.Nonce, r.Ciphertext, r.Sig, payload.SessionToken,
			payload.ProtocolVersion, payload.CryptoVersion)
		if _, err := c.hub.validator.Validate(ctx, in, time.Now()); err != nil {
			continue
		}
		valid = append(valid, r)
	}

	c.hub.dispatcher.DispatchGroup(ctx, payload.GroupID, payload.From, payload.MessageID, payload.MsgType, payload.Timestamp, valid)
	c.sendTyped(wire.TypeMessageAccepted, frame.RequestID, wire.MessageAcceptedPayload{MessageID: payload.MessageID, Status: "sent"})
}

func (c *Conn) handleFetchPending(frame *wire.Frame) {
	if !c.requireAuthenticated(frame) {
		return
	}
	var payload wire.FetchPendingPayload
	_ = frame.Decode(&payload)

	c.mu.Lock()
	whisperID := c.whisperID
	c.mu.Unlock()

	page, err := c.hub.pending.Fetch(context.Background(), whisperID, payload.Cursor, payload.Limit)
	if err != nil {
		c.sendErr(err, frame.RequestID)
		return
	}

	messages := make([]wire.MessageReceivedPayload, 0, len(page.Envelopes))
	for _, env := range page.Envelopes {
		messages = append(messages, messageReceivedFrom(env))
	}
	c.sendTyped(wire.TypePendingMessages, frame.RequestID, wire.PendingMessagesPayload{Messages: messages, NextCursor: page.NextCursor})
}

// autoDrainPending runs the automatic fetch_pending cycle spec §4.5
// requires on AUTHENTICATED entry: drain page by page, forward each
// envelope as message_received, stop when nextCursor is absent.
func (c *Conn) autoDrainPending() {
	ctx := context.Background()
	c.mu.Lock()
	whisperID := c.whisperID
	c.mu.Unlock()

	cursor := ""
	for {
		page, err := c.hub.pending.Fetch(ctx, whisperID, cursor, 0)
		if err != nil {
			return
		}
		for _, env := range page.Envelopes {
			frame, err := wire.NewFrame(wire.TypeMessageReceived, "", messageReceivedFrom(env))
			if err != nil {
				continue
			}
			if c.trySend(frame) {
				_ = c.hub.pending.Ack(ctx, whisperID, env.MessageID, "delivered")
			}
		}
		if page.NextCursor == "" {
			return
		}
		cursor = page.NextCursor
	}
}

func messageReceivedFrom(env *storage.Envelope) wire.MessageReceivedPayload {
	msg := wire.MessageReceivedPayload{
		MessageID: env.MessageID, From: env.From, MsgType: wire.MsgType(env.MsgType),
		Timestamp: env.Timestamp, Nonce: env.Nonce, Ciphertext: env.Ciphertext, Sig: env.Sig, ReplyTo: env.ReplyTo,
	}
	if env.Attachment != nil {
		msg.Attachment = &wire.AttachmentRef{
			ObjectKey: env.Attachment.ObjectKey, FileKeyBox: env.Attachment.FileKeyBox,
			ContentType: env.Attachment.ContentType, Size: env.Attachment.Size,
		}
	}
	return msg
}

func (c *Conn) handleDeliveryReceipt(frame *wire.Frame) {
	if !c.requireAuthenticated(frame) {
		return
	}
	var payload wire.DeliveryReceiptPayload
	if err := frame.Decode(&payload); err != nil {
		c.sendError(wire.ErrInvalidPayload, "malformed delivery_receipt payload", frame.RequestID)
		return
	}

	ctx := context.Background()
	in := c.validatorInput("delivery_receipt", "delivery_receipt", payload.MessageID, payload.From, payload.To, "",
		payload.Timestamp, payload.Nonce, payload.Ciphertext, payload.Sig, payload.SessionToken,
		payload.ProtocolVersion, payload.CryptoVersion)
	if _, err := c.hub.validator.Validate(ctx, in, time.Now()); err != nil {
		c.sendErr(err, frame.RequestID)
		return
	}

	if err := c.hub.dispatcher.HandleDeliveryReceipt(ctx, payload.From, payload.To, payload.MessageID, payload.Status); err != nil {
		c.sendErr(err, frame.RequestID)
	}
}

// --- call signaling ---

func (c *Conn) handleCallFrame(frame *wire.Frame) {
	if !c.requireAuthenticated(frame) {
		return
	}
	var payload wire.CallFramePayload
	if err := frame.Decode(&payload); err != nil {
		c.sendError(wire.ErrInvalidPayload, "malformed call payload", frame.RequestID)
		return
	}

	ctx := context.Background()
	in := c.validatorInput(frame.Type, frame.Type, payload.CallID, payload.From, payload.To, "",
		payload.Timestamp, payload.Nonce, payload.Ciphertext, payload.Sig, payload.SessionToken,
		payload.ProtocolVersion, payload.CryptoVersion)
	if _, err := c.hub.validator.Validate(ctx, in, time.Now()); err != nil {
		c.sendErr(err, frame.RequestID)
		return
	}

	switch frame.Type {
	case wire.TypeCallInitiate:
		c.hub.calls.Initiate(payload.CallID, payload.From, payload.To)
		if c.hub.Send(payload.To, mustFrame(wire.TypeCallIncoming, wire.CallIncomingPayload{
			CallID: payload.CallID, From: payload.From, Ciphertext: payload.Ciphertext, Nonce: payload.Nonce,
		})) {
			c.sendTyped(wire.TypeCallRinging, "", wire.CallRingingPayload{CallID: payload.CallID})
		}
	case wire.TypeCallAnswer:
		if _, ok := c.hub.calls.Answer(payload.CallID); ok {
			c.hub.Send(payload.To, mustFrame(wire.TypeCallAnswered, wire.CallAnsweredPayload{
				CallID: payload.CallID, Ciphertext: payload.Ciphertext, Nonce: payload.Nonce,
			}))
		}
	case wire.TypeCallICECandidate:
		c.hub.Send(payload.To, frame)
	case wire.TypeCallEnd:
		reason := calls.ReasonHangup
		if payload.Reason != "" {
			reason = calls.EndReason(payload.Reason)
		}
		if _, ok := c.hub.calls.End(payload.CallID, reason); ok {
			c.hub.Send(payload.To, mustFrame(wire.TypeCallEnded, wire.CallEndedPayload{CallID: payload.CallID, Reason: string(reason)}))
		}
	}
}

func mustFrame(msgType string, payload interface{}) *wire.Frame {
	frame, err := wire.NewFrame(msgType, "", payload)
	if err != nil {
		return &wire.Frame{Type: msgType}
	}
	return frame
}
