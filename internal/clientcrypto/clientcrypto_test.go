package clientcrypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatihtunali/whisper2-sub009/internal/canonical"
	"github.com/fatihtunali/whisper2-sub009/internal/identity"
)

func TestDeriveIdentity_IsDeterministicAndStableAcrossReinstalls(t *testing.T) {
	mnemonic, err := NewMnemonic(EntropyBits12Words)
	require.NoError(t, err)
	require.True(t, ValidMnemonic(mnemonic))

	first, err := DeriveIdentity(mnemonic, "")
	require.NoError(t, err)
	second, err := DeriveIdentity(mnemonic, "")
	require.NoError(t, err)

	assert.Equal(t, first.WhisperID, second.WhisperID)
	assert.Equal(t, first.SignPub, second.SignPub)
	assert.Equal(t, first.EncPub.Bytes(), second.EncPub.Bytes())
	assert.Equal(t, first.ContactsKey, second.ContactsKey)
	assert.True(t, identity.ValidWhisperID(first.WhisperID))
}

func TestDeriveIdentity_DifferentMnemonicsDiverge(t *testing.T) {
	a, err := NewMnemonic(EntropyBits12Words)
	require.NoError(t, err)
	b, err := NewMnemonic(EntropyBits12Words)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	idA, err := DeriveIdentity(a, "")
	require.NoError(t, err)
	idB, err := DeriveIdentity(b, "")
	require.NoError(t, err)

	assert.NotEqual(t, idA.WhisperID, idB.WhisperID)
	assert.NotEqual(t, idA.ContactsKey, idB.ContactsKey)
}

func TestDeriveIdentity_RejectsInvalidMnemonic(t *testing.T) {
	_, err := DeriveIdentity("not a real mnemonic phrase at all", "")
	require.Error(t, err)
}

func TestPeerSession_EncryptDecryptRoundTrip(t *testing.T) {
	aliceMnemonic, err := NewMnemonic(EntropyBits12Words)
	require.NoError(t, err)
	bobMnemonic, err := NewMnemonic(EntropyBits12Words)
	require.NoError(t, err)

	alice, err := DeriveIdentity(aliceMnemonic, "")
	require.NoError(t, err)
	bob, err := DeriveIdentity(bobMnemonic, "")
	require.NoError(t, err)

	aliceToBob, err := NewPeerSession(alice, bob.EncPub)
	require.NoError(t, err)
	bobFromAlice, err := NewPeerSession(bob, alice.EncPub)
	require.NoError(t, err)

	plaintext := []byte("hello bob")
	nonce, ciphertext, err := aliceToBob.Seal(plaintext)
	require.NoError(t, err)

	got, err := bobFromAlice.Open(nonce, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestPeerSession_OpenFailsOnTamperedCiphertext(t *testing.T) {
	aliceMnemonic, err := NewMnemonic(EntropyBits12Words)
	require.NoError(t, err)
	bobMnemonic, err := NewMnemonic(EntropyBits12Words)
	require.NoError(t, err)
	alice, err := DeriveIdentity(aliceMnemonic, "")
	require.NoError(t, err)
	bob, err := DeriveIdentity(bobMnemonic, "")
	require.NoError(t, err)

	aliceToBob, err := NewPeerSession(alice, bob.EncPub)
	require.NoError(t, err)
	bobFromAlice, err := NewPeerSession(bob, alice.EncPub)
	require.NoError(t, err)

	nonce, ciphertext, err := aliceToBob.Seal([]byte("hello bob"))
	require.NoError(t, err)
	ciphertext[0] ^= 0xFF

	_, err = bobFromAlice.Open(nonce, ciphertext)
	require.Error(t, err)
}

func TestWrapUnwrapFileKey_RoundTrip(t *testing.T) {
	aliceMnemonic, err := NewMnemonic(EntropyBits12Words)
	require.NoError(t, err)
	bobMnemonic, err := NewMnemonic(EntropyBits12Words)
	require.NoError(t, err)
	alice, err := DeriveIdentity(aliceMnemonic, "")
	require.NoError(t, err)
	bob, err := DeriveIdentity(bobMnemonic, "")
	require.NoError(t, err)

	fileKey := make([]byte, 32)
	for i := range fileKey {
		fileKey[i] = byte(i)
	}

	box, err := WrapFileKey(alice, bob.EncPub, fileKey)
	require.NoError(t, err)
	require.NotEmpty(t, box)

	got, err := UnwrapFileKey(bob, alice.EncPub, box)
	require.NoError(t, err)
	assert.Equal(t, fileKey, got)
}

func TestBuildSignedEnvelope_VerifiesUnderCanonicalPipeline(t *testing.T) {
	senderMnemonic, err := NewMnemonic(EntropyBits12Words)
	require.NoError(t, err)
	recipientMnemonic, err := NewMnemonic(EntropyBits12Words)
	require.NoError(t, err)
	sender, err := DeriveIdentity(senderMnemonic, "")
	require.NoError(t, err)
	recipient, err := DeriveIdentity(recipientMnemonic, "")
	require.NoError(t, err)

	env, err := BuildSignedEnvelope(sender, recipient.EncPub, recipient.WhisperID, "send_message", "msg-1", 1700000000000, []byte("hi"), "tok-123")
	require.NoError(t, err)

	fields := canonical.Fields{
		MsgType:   "send_message",
		MessageID: "msg-1",
		From:      env.From,
		To:        env.To,
		Timestamp: "1700000000000",
		NonceB64:  env.NonceB64,
		CipherB64: env.CiphertextB64,
	}
	sig, err := base64.StdEncoding.DecodeString(env.SigB64)
	require.NoError(t, err)
	require.NoError(t, canonical.Verify(sender.SignPub, fields, sig))

	plaintext, err := OpenSignedEnvelope(recipient, sender.EncPub, env)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), plaintext)
}
