// Package identity implements the Identity & Device Registry (spec §4.1):
// createIdentity, lookupKeys, bindDevice, setStatus. whisperId derivation is
// client-side — this registry only ever accepts or rebinds what a client
// already generated, grounded on the teacher's registry.Client
// interface-over-store shape, generalized from a blockchain-backed DID
// registry to a server-authoritative one.
package identity

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fatihtunali/whisper2-sub009/internal/revocation"
	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// Registry is the identity and device registry.
type Registry struct {
	store storage.Store
	group singleflight.Group
	bus   revocation.Bus
}

// New builds a Registry backed by store. Bans do not fan out until
// SetBus wires a revocation.Bus.
func New(store storage.Store) *Registry {
	return &Registry{store: store}
}

// SetBus wires the revocation channel a ban publishes to, so
// internal/gateway.Hub can force-close that identity's live sockets (spec §8
// S-Ban). Optional: a Registry with no bus still bans correctly, it just
// relies on the next sessionstore.Resolve to catch the banned identity.
func (r *Registry) SetBus(bus revocation.Bus) {
	r.bus = bus
}

// CreateIdentity registers whisperID with the given keys if it does not
// already exist. If it exists, the store rejects the insert and the caller
// must use VerifyOwnership/BindDevice instead
// — see spec.md §4.1's re-registration rule.
func (r *Registry) CreateIdentity(ctx context.Context, whisperID string, encPub, signPub ed25519.PublicKey) error {
	if !ValidWhisperID(whisperID) {
		return wire.NewError(wire.ErrInvalidPayload, "malformed whisperId")
	}
	now := time.Now()
	return r.store.IdentityStore().Create(ctx, &storage.Identity{
		WhisperID:     whisperID,
		EncPublicKey:  append([]byte(nil), encPub...),
		SignPublicKey: append([]byte(nil), signPub...),
		Status:        storage.IdentityActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// LookupKeys returns the stored (encPub, signPub, status) triple for
// whisperID. Callers must translate a banned status to FORBIDDEN themselves
// per spec.md §4.1 ("even when called by an authenticated peer") since the
// right error code depends on calling context (HTTP vs envelope pipeline).
func (r *Registry) LookupKeys(ctx context.Context, whisperID string) (*storage.Identity, error) {
	v, err, _ := r.group.Do(whisperID, func() (interface{}, error) {
		return r.store.IdentityStore().Get(ctx, whisperID)
	})
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, wire.NewError(wire.ErrNotFound, "unknown whisperId")
		}
		return nil, err
	}
	return v.(*storage.Identity), nil
}

// VerifyOwnership checks that signPub matches the identity's stored signing
// key, the gate spec.md §4.1 requires before rebinding a device on
// re-registration. A mismatch means the caller does not hold the original
// seed.
func (r *Registry) VerifyOwnership(ctx context.Context, whisperID string, signPub ed25519.PublicKey) error {
	id, err := r.LookupKeys(ctx, whisperID)
	if err != nil {
		return err
	}
	if !ed25519.PublicKey(id.SignPublicKey).Equal(signPub) {
		return wire.NewError(wire.ErrAuthFailed, "signing key does not match registered identity")
	}
	return nil
}

// BindDevice binds deviceID as the sole active device for whisperID,
// deactivating any previously active device at the storage layer — the
// single-active-device invariant (spec §3).
func (r *Registry) BindDevice(ctx context.Context, whisperID, deviceID, platform, pushToken, voipToken string) error {
	now := time.Now()
	return r.store.DeviceStore().Bind(ctx, &storage.Device{
		ID:        deviceID,
		WhisperID: whisperID,
		Platform:  platform,
		PushToken: pushToken,
		VoipToken: voipToken,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// SetStatus transitions an identity to active or banned. A transition to
// banned publishes to the revocation bus (when wired) so every live socket
// for whisperID closes within spec §8's S-Ban bound, rather than waiting for
// that connection's next frame to be resolved against storage.
func (r *Registry) SetStatus(ctx context.Context, whisperID string, status storage.IdentityStatus) error {
	if status != storage.IdentityActive && status != storage.IdentityBanned {
		return fmt.Errorf("identity: invalid status %q", status)
	}
	if err := r.store.IdentityStore().SetStatus(ctx, whisperID, status); err != nil {
		return err
	}
	if status == storage.IdentityBanned && r.bus != nil {
		_ = r.bus.Publish(ctx, whisperID)
	}
	return nil
}
