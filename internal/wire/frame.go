// Package wire defines the on-the-wire WebSocket frame shape and the
// message/error vocabulary every other component speaks, grounded on the
// teacher's pkg/agent/transport/websocket wire message structs.
package wire

import "encoding/json"

// Frame is the outer envelope every WebSocket message is wrapped in.
type Frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Message type constants (spec §6, non-exhaustive list made exhaustive here).
const (
	TypeRegisterBegin     = "register_begin"
	TypeRegisterChallenge = "register_challenge"
	TypeRegisterProof     = "register_proof"
	TypeRegisterAck       = "register_ack"
	TypeSessionRefresh    = "session_refresh"
	TypeLogout            = "logout"
	TypePing              = "ping"
	TypePong              = "pong"
	TypeSendMessage       = "send_message"
	TypeMessageAccepted   = "message_accepted"
	TypeMessageReceived   = "message_received"
	TypeDeliveryReceipt   = "delivery_receipt"
	TypeMessageDelivered  = "message_delivered"
	TypeFetchPending      = "fetch_pending"
	TypePendingMessages   = "pending_messages"
	TypeGroupCreate       = "group_create"
	TypeGroupUpdate       = "group_update"
	TypeGroupSendMessage  = "group_send_message"
	TypeCallInitiate      = "call_initiate"
	TypeCallAnswer        = "call_answer"
	TypeCallICECandidate  = "call_ice_candidate"
	TypeCallEnd           = "call_end"
	TypeCallRinging       = "call_ringing"
	TypeCallIncoming      = "call_incoming"
	TypeCallAnswered      = "call_answered"
	TypeCallEnded         = "call_ended"
	TypeUpdateTokens      = "update_tokens"
	TypePresenceUpdate    = "presence_update"
	TypeTyping            = "typing"
	TypeError             = "error"
)

// MsgType enumerates envelope content kinds (spec §3).
type MsgType string

const (
	MsgText  MsgType = "text"
	MsgImage MsgType = "image"
	MsgVoice MsgType = "voice"
	MsgFile  MsgType = "file"
	MsgSystem MsgType = "system"
)

// ErrorCode enumerates the error envelope codes of spec §6.
type ErrorCode string

const (
	ErrNotRegistered    ErrorCode = "NOT_REGISTERED"
	ErrAuthFailed       ErrorCode = "AUTH_FAILED"
	ErrInvalidPayload   ErrorCode = "INVALID_PAYLOAD"
	ErrInvalidTimestamp ErrorCode = "INVALID_TIMESTAMP"
	ErrRateLimited      ErrorCode = "RATE_LIMITED"
	ErrUserBanned       ErrorCode = "USER_BANNED"
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrForbidden        ErrorCode = "FORBIDDEN"
	ErrInternal         ErrorCode = "INTERNAL_ERROR"
)

// ErrorPayload is the body of a TypeError frame.
type ErrorPayload struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	RequestID  string    `json:"requestId,omitempty"`
	RetryAfter int       `json:"retryAfter,omitempty"`
}

// Error is the Go error carrying an ErrorPayload through internal call
// chains so callers can translate it into an error frame without losing the
// code, grounded on the teacher's SageError-style structured error pattern.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// AsErrorPayload converts any error into a wire error payload, defaulting to
// INTERNAL_ERROR for errors that don't carry a *wire.Error.
func AsErrorPayload(err error, requestID string) ErrorPayload {
	if werr, ok := err.(*Error); ok {
		return ErrorPayload{Code: werr.Code, Message: werr.Message, RequestID: requestID}
	}
	return ErrorPayload{Code: ErrInternal, Message: err.Error(), RequestID: requestID}
}

// NewFrame marshals payload into a Frame with the given type/requestId.
func NewFrame(typ, requestID string, payload interface{}) (*Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Frame{Type: typ, RequestID: requestID, Payload: raw}, nil
}

// Decode unmarshals the frame payload into v.
func (f *Frame) Decode(v interface{}) error {
	if len(f.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(f.Payload, v)
}
