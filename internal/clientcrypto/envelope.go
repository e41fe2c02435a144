package clientcrypto

import (
	"bytes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// PeerSession is the per-conversation AEAD derived from an X25519 ECDH
// exchange between two identities, grounded on the teacher's
// SecureSession.deriveKeys/Encrypt/Decrypt (HKDF-SHA256 over the ECDH shared
// secret, chacha20poly1305 AEAD). Whisper2 has no session handshake frame of
// its own for this — clients derive it directly from the recipient's
// published encPublicKey (GET /users/:whisperId/keys) since the relay never
// participates in end-to-end key agreement.
type PeerSession struct {
	aead cipher.AEAD
}

const envelopeInfo = "whisper2-envelope-v1"

// NewPeerSession derives the AEAD shared between self and peer. The salt
// orders the two raw public keys lexicographically so both sides derive an
// identical key regardless of which one is "self".
func NewPeerSession(self *Identity, peer *ecdh.PublicKey) (*PeerSession, error) {
	shared, err := self.EncPriv.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("clientcrypto: ecdh: %w", err)
	}

	lo, hi := canonicalOrder(self.EncPub.Bytes(), peer.Bytes())
	h := sha256.New()
	h.Write(lo)
	h.Write(hi)
	salt := h.Sum(nil)

	reader := hkdf.New(sha256.New, shared, salt, []byte(envelopeInfo))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("clientcrypto: derive envelope key: %w", err)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("clientcrypto: init aead: %w", err)
	}
	return &PeerSession{aead: aead}, nil
}

func canonicalOrder(a, b []byte) (lo, hi []byte) {
	if bytes.Compare(a, b) <= 0 {
		return a, b
	}
	return b, a
}

// Seal encrypts plaintext, returning the nonce and ciphertext the wire's
// SignedEnvelope carries as separate base64 fields.
func (s *PeerSession) Seal(plaintext []byte) (nonce, ciphertext []byte, err error) {
	nonce = make([]byte, chacha20poly1305.NonceSize)
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("clientcrypto: generate nonce: %w", err)
	}
	ciphertext = s.aead.Seal(nil, nonce, plaintext, nil)
	return nonce, ciphertext, nil
}

// Open decrypts a (nonce, ciphertext) pair produced by Seal.
func (s *PeerSession) Open(nonce, ciphertext []byte) ([]byte, error) {
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("clientcrypto: open: %w", err)
	}
	return plaintext, nil
}

// WrapFileKey encrypts a per-attachment symmetric key to recipient under a
// fresh PeerSession, producing the nonce||ciphertext blob the wire's
// AttachmentRef.FileKeyBox field carries as one base64 string (spec §4.7).
func WrapFileKey(self *Identity, recipient *ecdh.PublicKey, fileKey []byte) (string, error) {
	sess, err := NewPeerSession(self, recipient)
	if err != nil {
		return "", err
	}
	nonce, ciphertext, err := sess.Seal(fileKey)
	if err != nil {
		return "", err
	}
	out := make([]byte, len(nonce)+len(ciphertext))
	copy(out, nonce)
	copy(out[len(nonce):], ciphertext)
	return base64.StdEncoding.EncodeToString(out), nil
}

// UnwrapFileKey reverses WrapFileKey.
func UnwrapFileKey(self *Identity, sender *ecdh.PublicKey, fileKeyBox string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(fileKeyBox)
	if err != nil {
		return nil, fmt.Errorf("clientcrypto: fileKeyBox is not valid base64: %w", err)
	}
	if len(raw) < chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("clientcrypto: fileKeyBox too short")
	}
	sess, err := NewPeerSession(self, sender)
	if err != nil {
		return nil, err
	}
	return sess.Open(raw[:chacha20poly1305.NonceSize], raw[chacha20poly1305.NonceSize:])
}
