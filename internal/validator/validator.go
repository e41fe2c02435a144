// Package validator implements the Envelope Validator (spec §4.3): the
// ordered pipeline every inbound signed frame traverses before the
// dispatcher ever sees it. Each step rejects with a specific wire.ErrorCode
// on first failure, grounded on the teacher's handshake.Server request
// pipeline (decode -> version check -> session check -> signature check)
// generalized with the two extra steps this relay's spec requires:
// recipient-shape and rate-limiting.
package validator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fatihtunali/whisper2-sub009/internal/canonical"
	"github.com/fatihtunali/whisper2-sub009/internal/groups"
	"github.com/fatihtunali/whisper2-sub009/internal/identity"
	"github.com/fatihtunali/whisper2-sub009/internal/metrics"
	"github.com/fatihtunali/whisper2-sub009/internal/ratelimit"
	"github.com/fatihtunali/whisper2-sub009/internal/sessionstore"
	"github.com/fatihtunali/whisper2-sub009/internal/wire"
)

// MaxClockSkew is the maximum allowed |now - payload.timestamp| (spec §4.3
// step 5).
const MaxClockSkew = 600_000 * time.Millisecond

const (
	supportedProtocolVersion = 1
	supportedCryptoVersion   = 1
)

// Input is the set of fields the pipeline needs, extracted by the caller
// from whichever signed frame it is validating. For group_send_message,
// callers run one Input per GroupRecipient entry (each carries its own
// nonce/ciphertext/sig); To is that recipient's whisperId and GroupID is
// the group. For call frames, To is the callee's whisperId (spec §4.3).
type Input struct {
	IP              string
	Endpoint        string
	ProtocolVersion int
	CryptoVersion   int
	SessionToken    string
	MessageType     string
	MessageID       string
	From            string
	To              string
	GroupID         string
	Timestamp       int64
	NonceB64        string
	CiphertextB64   string
	SigB64          string
}

// Validator runs the 8-step pipeline against the shared session, identity,
// group, and rate-limit components.
type Validator struct {
	sessions *sessionstore.Store
	registry *identity.Registry
	groups   *groups.Manager
	limiter  *ratelimit.Limiter
}

// New builds a Validator wired to the relay's shared components.
func New(sessions *sessionstore.Store, registry *identity.Registry, groupMgr *groups.Manager, limiter *ratelimit.Limiter) *Validator {
	return &Validator{sessions: sessions, registry: registry, groups: groupMgr, limiter: limiter}
}

// ValidateFrameShape is step 1: the outer envelope must be {type, requestId?,
// payload} with payload present and parseable as a JSON object.
func ValidateFrameShape(frame *wire.Frame) error {
	if frame == nil || frame.Type == "" {
		return wire.NewError(wire.ErrInvalidPayload, "missing frame type")
	}
	if len(frame.Payload) == 0 {
		return wire.NewError(wire.ErrInvalidPayload, "missing payload")
	}
	var probe map[string]interface{}
	if err := json.Unmarshal(frame.Payload, &probe); err != nil {
		return wire.NewError(wire.ErrInvalidPayload, "payload is not a JSON object")
	}
	return nil
}

// Validate runs steps 2-8 against in, returning the resolved session on
// success. now is injected so callers (and tests) control the clock.
func (v *Validator) Validate(ctx context.Context, in Input, now time.Time) (*sessionstore.Session, error) {
	if in.ProtocolVersion != supportedProtocolVersion || in.CryptoVersion != supportedCryptoVersion {
		metrics.ValidationRejections.WithLabelValues("version").Inc()
		return nil, wire.NewError(wire.ErrInvalidPayload, "unsupported protocol or crypto version")
	}

	sess, err := v.sessions.Resolve(ctx, in.SessionToken)
	if err != nil {
		metrics.ValidationRejections.WithLabelValues("session").Inc()
		return nil, err
	}

	if in.From != sess.WhisperID {
		metrics.ValidationRejections.WithLabelValues("session").Inc()
		return nil, wire.NewError(wire.ErrForbidden, "from does not match authenticated session")
	}

	skew := now.Sub(time.UnixMilli(in.Timestamp))
	if skew < 0 {
		skew = -skew
	}
	if skew > MaxClockSkew {
		metrics.ValidationRejections.WithLabelValues("timestamp").Inc()
		return nil, wire.NewError(wire.ErrInvalidTimestamp, "timestamp outside allowed skew")
	}

	if err := v.checkRecipientShape(ctx, in); err != nil {
		metrics.ValidationRejections.WithLabelValues("recipient").Inc()
		return nil, err
	}

	if err := v.verifySignature(ctx, in); err != nil {
		metrics.ValidationRejections.WithLabelValues("signature").Inc()
		return nil, err
	}

	key := ratelimit.Key(in.IP, in.From, in.Endpoint)
	if !v.limiter.Allow(key) {
		metrics.ValidationRejections.WithLabelValues("rate_limit").Inc()
		return nil, wire.NewError(wire.ErrRateLimited, "rate limit exceeded")
	}

	return sess, nil
}

func (v *Validator) checkRecipientShape(ctx context.Context, in Input) error {
	if in.GroupID != "" {
		exists, err := v.groups.Exists(ctx, in.GroupID)
		if err != nil {
			return err
		}
		if !exists {
			return wire.NewError(wire.ErrInvalidPayload, "unknown groupId")
		}
		active, err := v.groups.IsActiveMember(ctx, in.GroupID, in.From)
		if err != nil {
			return err
		}
		if !active {
			return wire.NewError(wire.ErrForbidden, "sender is not an active member of group")
		}
		return nil
	}

	if !identity.ValidWhisperID(in.To) {
		return wire.NewError(wire.ErrInvalidPayload, "malformed recipient whisperId")
	}
	return nil
}

func (v *Validator) verifySignature(ctx context.Context, in Input) error {
	sender, err := v.registry.LookupKeys(ctx, in.From)
	if err != nil {
		return err
	}

	sig, err := base64.StdEncoding.DecodeString(in.SigB64)
	if err != nil {
		return wire.NewError(wire.ErrAuthFailed, "signature is not valid base64")
	}

	fields := canonical.Fields{
		MsgType:   in.MessageType,
		MessageID: in.MessageID,
		From:      in.From,
		To:        in.To,
		Timestamp: strconv.FormatInt(in.Timestamp, 10),
		NonceB64:  in.NonceB64,
		CipherB64: in.CiphertextB64,
	}
	if err := canonical.Verify(sender.SignPublicKey, fields, sig); err != nil {
		return wire.NewError(wire.ErrAuthFailed, fmt.Sprintf("canonical signature verification failed: %v", err))
	}
	return nil
}
