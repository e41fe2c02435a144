package validator

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatihtunali/whisper2-sub009/internal/canonical"
	"github.com/fatihtunali/whisper2-sub009/internal/groups"
	"github.com/fatihtunali/whisper2-sub009/internal/identity"
	"github.com/fatihtunali/whisper2-sub009/internal/ratelimit"
	"github.com/fatihtunali/whisper2-sub009/internal/sessionstore"
	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage/memory"
)

type harness struct {
	v        *Validator
	sessions *sessionstore.Store
	signPriv ed25519.PrivateKey
	token    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := memory.NewStore()
	reg := identity.New(backend)
	grp := groups.New(backend)
	limiter := ratelimit.New(ratelimit.Limits{RatePerSecond: 1000, Burst: 1000}, time.Minute, time.Minute)
	t.Cleanup(limiter.Close)

	ctx := context.Background()
	encPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	signPub, signPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	require.NoError(t, reg.CreateIdentity(ctx, "WSP-AAAA-AAAA-AAAA", encPub, signPub))

	sessions := sessionstore.New(backend, reg, time.Hour)
	t.Cleanup(sessions.Close)
	token, err := sessions.Issue(ctx, "WSP-AAAA-AAAA-AAAA", "dev-1", time.Hour)
	require.NoError(t, err)

	return &harness{
		v:        New(sessions, reg, grp, limiter),
		sessions: sessions,
		signPriv: signPriv,
		token:    token,
	}
}

func (h *harness) validInput(now time.Time) Input {
	in := Input{
		IP:              "203.0.113.1",
		Endpoint:        "send_message",
		ProtocolVersion: 1,
		CryptoVersion:   1,
		SessionToken:    h.token,
		MessageType:     "text",
		MessageID:       "msg-1",
		From:            "WSP-AAAA-AAAA-AAAA",
		To:              "WSP-BBBB-BBBB-BBBB",
		Timestamp:       now.UnixMilli(),
		NonceB64:        "bm9uY2U",
		CiphertextB64:   "Y2lwaGVydGV4dA",
	}
	in.SigB64 = h.sign(in)
	return in
}

func (h *harness) sign(in Input) string {
	fields := canonical.Fields{
		MsgType:   in.MessageType,
		MessageID: in.MessageID,
		From:      in.From,
		To:        in.To,
		Timestamp: strconv.FormatInt(in.Timestamp, 10),
		NonceB64:  in.NonceB64,
		CipherB64: in.CiphertextB64,
	}
	return base64.StdEncoding.EncodeToString(canonical.Sign(h.signPriv, fields))
}

func TestValidateFrameShape(t *testing.T) {
	assert.Error(t, ValidateFrameShape(nil))
	assert.Error(t, ValidateFrameShape(&wire.Frame{Type: "send_message"}))
	assert.NoError(t, ValidateFrameShape(&wire.Frame{Type: "send_message", Payload: []byte(`{}`)}))
}

func TestValidate_HappyPath(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	sess, err := h.v.Validate(context.Background(), h.validInput(now), now)
	require.NoError(t, err)
	assert.Equal(t, "WSP-AAAA-AAAA-AAAA", sess.WhisperID)
}

func TestValidate_RejectsBadVersion(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	in := h.validInput(now)
	in.ProtocolVersion = 2
	_, err := h.v.Validate(context.Background(), in, now)
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrInvalidPayload, werr.Code)
}

func TestValidate_RejectsUnknownSession(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	in := h.validInput(now)
	in.SessionToken = "not-a-real-token"
	_, err := h.v.Validate(context.Background(), in, now)
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrAuthFailed, werr.Code)
}

func TestValidate_RejectsSenderMismatch(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	in := h.validInput(now)
	in.From = "WSP-ZZZZ-ZZZZ-ZZZZ"
	in.SigB64 = h.sign(in)
	_, err := h.v.Validate(context.Background(), in, now)
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrForbidden, werr.Code)
}

func TestValidate_RejectsClockSkew(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	in := h.validInput(now.Add(-20 * time.Minute))
	_, err := h.v.Validate(context.Background(), in, now)
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrInvalidTimestamp, werr.Code)
}

func TestValidate_RejectsMalformedRecipient(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	in := h.validInput(now)
	in.To = "not-a-whisper-id"
	in.SigB64 = h.sign(in)
	_, err := h.v.Validate(context.Background(), in, now)
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrInvalidPayload, werr.Code)
}

func TestValidate_RejectsUnknownGroup(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	in := h.validInput(now)
	in.GroupID = "no-such-group"
	in.To = ""
	in.SigB64 = h.sign(in)
	_, err := h.v.Validate(context.Background(), in, now)
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrInvalidPayload, werr.Code)
}

func TestValidate_RejectsTamperedSignature(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	in := h.validInput(now)
	in.CiphertextB64 = "dGFtcGVyZWQ"
	_, err := h.v.Validate(context.Background(), in, now)
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrAuthFailed, werr.Code)
}

func TestValidate_RejectsRateLimitExhaustion(t *testing.T) {
	backend := memory.NewStore()
	reg := identity.New(backend)
	grp := groups.New(backend)
	limiter := ratelimit.New(ratelimit.Limits{RatePerSecond: 0.001, Burst: 1}, time.Minute, time.Minute)
	defer limiter.Close()

	ctx := context.Background()
	encPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	signPub, signPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	require.NoError(t, reg.CreateIdentity(ctx, "WSP-AAAA-AAAA-AAAA", encPub, signPub))

	sessions := sessionstore.New(backend, reg, time.Hour)
	defer sessions.Close()
	token, err := sessions.Issue(ctx, "WSP-AAAA-AAAA-AAAA", "dev-1", time.Hour)
	require.NoError(t, err)

	h := &harness{v: New(sessions, reg, grp, limiter), sessions: sessions, signPriv: signPriv, token: token}
	now := time.Now()

	_, err = h.v.Validate(ctx, h.validInput(now), now)
	require.NoError(t, err)

	in := h.validInput(now)
	in.MessageID = "msg-2"
	_, err = h.v.Validate(ctx, in, now)
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrRateLimited, werr.Code)
}
