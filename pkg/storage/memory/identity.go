package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// IdentityStore implements storage.IdentityStore.
type IdentityStore struct {
	store *Store
}

func (s *IdentityStore) Create(ctx context.Context, identity *storage.Identity) error {
	s.store.identitiesMu.Lock()
	defer s.store.identitiesMu.Unlock()

	if _, exists := s.store.identities[identity.WhisperID]; exists {
		return fmt.Errorf("identity already exists: %s", identity.WhisperID)
	}

	cp := *identity
	cp.EncPublicKey = append([]byte(nil), identity.EncPublicKey...)
	cp.SignPublicKey = append([]byte(nil), identity.SignPublicKey...)
	s.store.identities[identity.WhisperID] = &cp
	return nil
}

func (s *IdentityStore) Get(ctx context.Context, whisperID string) (*storage.Identity, error) {
	s.store.identitiesMu.RLock()
	defer s.store.identitiesMu.RUnlock()

	identity, exists := s.store.identities[whisperID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *identity
	return &cp, nil
}

func (s *IdentityStore) SetStatus(ctx context.Context, whisperID string, status storage.IdentityStatus) error {
	s.store.identitiesMu.Lock()
	defer s.store.identitiesMu.Unlock()

	identity, exists := s.store.identities[whisperID]
	if !exists {
		return storage.ErrNotFound
	}
	identity.Status = status
	identity.UpdatedAt = time.Now()
	return nil
}

func (s *IdentityStore) Count(ctx context.Context) (int64, error) {
	s.store.identitiesMu.RLock()
	defer s.store.identitiesMu.RUnlock()
	return int64(len(s.store.identities)), nil
}

// DeviceStore implements storage.DeviceStore.
type DeviceStore struct {
	store *Store
}

func (s *DeviceStore) Bind(ctx context.Context, device *storage.Device) error {
	s.store.devicesMu.Lock()
	defer s.store.devicesMu.Unlock()

	for _, d := range s.store.devices {
		if d.WhisperID == device.WhisperID && d.Active && d.ID != device.ID {
			d.Active = false
			d.UpdatedAt = time.Now()
		}
	}

	cp := *device
	s.store.devices[device.ID] = &cp
	return nil
}

func (s *DeviceStore) Get(ctx context.Context, deviceID string) (*storage.Device, error) {
	s.store.devicesMu.RLock()
	defer s.store.devicesMu.RUnlock()

	device, exists := s.store.devices[deviceID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *device
	return &cp, nil
}

func (s *DeviceStore) ActiveForIdentity(ctx context.Context, whisperID string) (*storage.Device, error) {
	s.store.devicesMu.RLock()
	defer s.store.devicesMu.RUnlock()

	for _, d := range s.store.devices {
		if d.WhisperID == whisperID && d.Active {
			cp := *d
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *DeviceStore) Deactivate(ctx context.Context, deviceID string) error {
	s.store.devicesMu.Lock()
	defer s.store.devicesMu.Unlock()

	device, exists := s.store.devices[deviceID]
	if !exists {
		return storage.ErrNotFound
	}
	device.Active = false
	device.UpdatedAt = time.Now()
	return nil
}
