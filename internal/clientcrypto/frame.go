package clientcrypto

import (
	"crypto/ecdh"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/fatihtunali/whisper2-sub009/internal/canonical"
)

// SignedEnvelope is the client-side counterpart of wire.SignedEnvelope: the
// fields a reference client needs to assemble and sign a frame the same way
// internal/validator verifies it.
type SignedEnvelope struct {
	ProtocolVersion int
	CryptoVersion   int
	SessionToken    string
	From            string
	To              string
	Timestamp       int64
	NonceB64        string
	CiphertextB64   string
	SigB64          string
}

// BuildSignedEnvelope encrypts plaintext under a PeerSession with recipient,
// then signs the resulting envelope with self's signing key, producing a
// SignedEnvelope ready to marshal into a send_message/call frame payload.
func BuildSignedEnvelope(self *Identity, recipient *ecdh.PublicKey, to string, msgType, messageID string, timestamp int64, plaintext []byte, sessionToken string) (SignedEnvelope, error) {
	sess, err := NewPeerSession(self, recipient)
	if err != nil {
		return SignedEnvelope{}, err
	}
	nonce, ciphertext, err := sess.Seal(plaintext)
	if err != nil {
		return SignedEnvelope{}, err
	}

	env := SignedEnvelope{
		ProtocolVersion: 1,
		CryptoVersion:   1,
		SessionToken:    sessionToken,
		From:            self.WhisperID,
		To:              to,
		Timestamp:       timestamp,
		NonceB64:        base64.StdEncoding.EncodeToString(nonce),
		CiphertextB64:   base64.StdEncoding.EncodeToString(ciphertext),
	}

	fields := canonical.Fields{
		MsgType:   msgType,
		MessageID: messageID,
		From:      env.From,
		To:        env.To,
		Timestamp: strconv.FormatInt(env.Timestamp, 10),
		NonceB64:  env.NonceB64,
		CipherB64: env.CiphertextB64,
	}
	sig := canonical.Sign(self.SignPriv, fields)
	env.SigB64 = base64.StdEncoding.EncodeToString(sig)
	return env, nil
}

// OpenSignedEnvelope decrypts an inbound envelope's ciphertext, given the
// sender's published X25519 key. It does not re-verify the signature — the
// server's validator already did that before delivery; this is purely the
// decryption half a real client would run on message_received.
func OpenSignedEnvelope(self *Identity, sender *ecdh.PublicKey, env SignedEnvelope) ([]byte, error) {
	sess, err := NewPeerSession(self, sender)
	if err != nil {
		return nil, err
	}
	nonce, err := base64.StdEncoding.DecodeString(env.NonceB64)
	if err != nil {
		return nil, fmt.Errorf("clientcrypto: nonce is not valid base64: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.CiphertextB64)
	if err != nil {
		return nil, fmt.Errorf("clientcrypto: ciphertext is not valid base64: %w", err)
	}
	return sess.Open(nonce, ciphertext)
}
