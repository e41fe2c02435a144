package wire

// SignedEnvelope is the common shape of every signed client payload (spec §6):
// protocol/crypto version, session token, sender/recipient, timestamp, and the
// nonce/ciphertext/sig triple the canonical-signature pipeline covers.
type SignedEnvelope struct {
	ProtocolVersion int    `json:"protocolVersion"`
	CryptoVersion   int    `json:"cryptoVersion"`
	SessionToken    string `json:"sessionToken"`
	From            string `json:"from"`
	To              string `json:"to,omitempty"`
	GroupID         string `json:"groupId,omitempty"`
	Timestamp       int64  `json:"timestamp"`
	Nonce           string `json:"nonce"`
	Ciphertext      string `json:"ciphertext"`
	Sig             string `json:"sig"`
}

// SendMessagePayload is the payload of a send_message frame.
type SendMessagePayload struct {
	SignedEnvelope
	MessageID  string          `json:"messageId"`
	MsgType    MsgType         `json:"msgType"`
	ReplyTo    string          `json:"replyTo,omitempty"`
	Attachment *AttachmentRef  `json:"attachment,omitempty"`
}

// AttachmentRef is the attachment handle carried inside an envelope.
type AttachmentRef struct {
	ObjectKey   string `json:"objectKey"`
	FileKeyBox  string `json:"fileKeyBox"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// GroupRecipient is one member's encrypted copy within a group_send_message fanout list.
type GroupRecipient struct {
	To         string `json:"to"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
	Sig        string `json:"sig"`
}

// GroupSendMessagePayload is the payload of a group_send_message frame.
type GroupSendMessagePayload struct {
	ProtocolVersion int              `json:"protocolVersion"`
	CryptoVersion   int              `json:"cryptoVersion"`
	SessionToken    string           `json:"sessionToken"`
	From            string           `json:"from"`
	GroupID         string           `json:"groupId"`
	MessageID       string           `json:"messageId"`
	MsgType         MsgType          `json:"msgType"`
	Timestamp       int64            `json:"timestamp"`
	Recipients      []GroupRecipient `json:"recipients"`
}

// MessageAcceptedPayload acknowledges durable enqueue, not delivery.
type MessageAcceptedPayload struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// MessageReceivedPayload is forwarded to a live recipient.
type MessageReceivedPayload struct {
	MessageID  string         `json:"messageId"`
	From       string         `json:"from"`
	MsgType    MsgType        `json:"msgType"`
	Timestamp  int64          `json:"timestamp"`
	Nonce      string         `json:"nonce"`
	Ciphertext string         `json:"ciphertext"`
	Sig        string         `json:"sig"`
	ReplyTo    string         `json:"replyTo,omitempty"`
	Attachment *AttachmentRef `json:"attachment,omitempty"`
}

// DeliveryReceiptPayload flows recipient -> sender via SignedEnvelope-style auth.
type DeliveryReceiptPayload struct {
	SignedEnvelope
	MessageID string `json:"messageId"`
	Status    string `json:"status"` // delivered | read
}

// MessageDeliveredPayload notifies the sender of a receipt.
type MessageDeliveredPayload struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// FetchPendingPayload requests a page of the pending queue.
type FetchPendingPayload struct {
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// PendingMessagesPayload is a page of queued envelopes.
type PendingMessagesPayload struct {
	Messages   []MessageReceivedPayload `json:"messages"`
	NextCursor string                   `json:"nextCursor,omitempty"`
}

// RegisterBeginPayload starts the auth handshake.
type RegisterBeginPayload struct {
	WhisperID    string `json:"whisperId"`
	EncPublicKey string `json:"encPublicKey"`
	SignPublicKey string `json:"signPublicKey"`
	DeviceID     string `json:"deviceId"`
	Platform     string `json:"platform"`
	PushToken    string `json:"pushToken,omitempty"`
	VoipToken    string `json:"voipToken,omitempty"`
}

// RegisterChallengePayload is the server challenge to sign.
type RegisterChallengePayload struct {
	ChallengeID string `json:"challengeId"`
	Challenge   string `json:"challenge"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// RegisterProofPayload is the client's signed answer to the challenge.
type RegisterProofPayload struct {
	ChallengeID string `json:"challengeId"`
	Signature   string `json:"signature"`
}

// RegisterAckPayload completes the handshake with a session token.
type RegisterAckPayload struct {
	Success      bool   `json:"success"`
	WhisperID    string `json:"whisperId"`
	SessionToken string `json:"sessionToken"`
	ServerTime   int64  `json:"serverTime"`
}

// SessionRefreshPayload requests a new expiry for the current token.
type SessionRefreshPayload struct {
	SessionToken string `json:"sessionToken"`
}

// PongPayload carries server time for clock alignment.
type PongPayload struct {
	ServerTime int64 `json:"serverTime"`
}

// CallFramePayload covers call_initiate/call_answer/call_ice_candidate/call_end.
type CallFramePayload struct {
	SignedEnvelope
	CallID string `json:"callId"`
	Reason string `json:"reason,omitempty"`
}

// CallRingingPayload and friends are server-originated, unsigned notifications.
type CallRingingPayload struct {
	CallID string `json:"callId"`
}

type CallIncomingPayload struct {
	CallID     string `json:"callId"`
	From       string `json:"from"`
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
}

type CallAnsweredPayload struct {
	CallID     string `json:"callId"`
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
}

type CallEndedPayload struct {
	CallID string `json:"callId"`
	Reason string `json:"reason"`
}
