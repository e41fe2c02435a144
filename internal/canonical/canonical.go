// Package canonical builds the deterministic byte string every signed
// envelope is hashed and verified against, grounded on the teacher's
// handshake.verifySenderSignature deterministic-marshal-then-verify shape —
// generalized here from protobuf deterministic marshaling to the spec's
// literal newline-joined template.
package canonical

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
)

// Fields is the set of values folded into the canonical string for a signed
// envelope. Every signed frame (send_message, delivery_receipt, call frames)
// populates this the same way before building and verifying.
type Fields struct {
	MsgType    string
	MessageID  string
	From       string
	To         string
	Timestamp  string
	NonceB64   string
	CipherB64  string
}

// Build produces the canonical byte string:
//
//	"v1\n" + msgType + "\n" + messageId + "\n" + from + "\n" + to + "\n" +
//	timestamp + "\n" + nonceB64 + "\n" + ciphertextB64 + "\n"
func Build(f Fields) []byte {
	return []byte(fmt.Sprintf("v1\n%s\n%s\n%s\n%s\n%s\n%s\n%s\n",
		f.MsgType, f.MessageID, f.From, f.To, f.Timestamp, f.NonceB64, f.CipherB64))
}

// Hash returns SHA-256 of the canonical string.
func Hash(f Fields) [32]byte {
	return sha256.Sum256(Build(f))
}

// ErrInvalidSignature is returned when verification fails for any reason.
var ErrInvalidSignature = errors.New("canonical: invalid signature")

// Verify checks sig against SHA-256(canonical(f)) using pub. Mirrors the
// teacher's verifySenderSignature switch over key-capable types, but this
// relay only ever deals in raw ed25519.PublicKey since identities are
// server-registered, not resolved via a pluggable DID resolver.
func Verify(pub ed25519.PublicKey, f Fields, sig []byte) error {
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("canonical: bad public key length %d", len(pub))
	}
	digest := Hash(f)
	if !ed25519.Verify(pub, digest[:], sig) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign is provided for tests and the reference client: signs
// SHA-256(canonical(f)) with priv.
func Sign(priv ed25519.PrivateKey, f Fields) []byte {
	digest := Hash(f)
	return ed25519.Sign(priv, digest[:])
}
