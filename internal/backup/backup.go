// Package backup implements the zero-knowledge Contact-Backup Store (spec
// §4.7): PUT/GET/DELETE of an opaque encrypted blob, size-capped and with a
// fixed 24-byte nonce. Grounded on storage.BackupStore's already
// teacher-style deep-copy-on-read shape; this package adds the size/nonce
// bounds checks the HTTP layer needs before ever touching storage.
package backup

import (
	"context"
	"time"

	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// MaxBlobSize and NonceSize are the bounds spec.md §4.7/§3 place on a
// contact-backup blob.
const (
	MaxBlobSize = 1 << 20 // 1 MiB
	NonceSize   = 24
)

// Store is the contact-backup component.
type Store struct {
	backend storage.Store
}

// New builds a Store backed by backend.
func New(backend storage.Store) *Store {
	return &Store{backend: backend}
}

// Put upserts whisperID's contact-backup blob, rejecting an oversized blob
// or a malformed nonce before it ever reaches durable storage.
func (s *Store) Put(ctx context.Context, whisperID string, ciphertext, nonce []byte) error {
	if len(nonce) != NonceSize {
		return wire.NewError(wire.ErrInvalidPayload, "nonce must be exactly 24 bytes")
	}
	if len(ciphertext) > MaxBlobSize {
		return wire.NewError(wire.ErrInvalidPayload, "backup blob exceeds 1 MiB limit")
	}
	return s.backend.BackupStore().Put(ctx, &storage.ContactBackup{
		WhisperID: whisperID,
		Blob:      ciphertext,
		Nonce:     nonce,
		UpdatedAt: time.Now(),
	})
}

// Get returns whisperID's stored backup blob.
func (s *Store) Get(ctx context.Context, whisperID string) (*storage.ContactBackup, error) {
	backup, err := s.backend.BackupStore().Get(ctx, whisperID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, wire.NewError(wire.ErrNotFound, "no backup stored for whisperId")
		}
		return nil, err
	}
	return backup, nil
}

// Delete removes whisperID's stored backup blob, if any.
func (s *Store) Delete(ctx context.Context, whisperID string) error {
	err := s.backend.BackupStore().Delete(ctx, whisperID)
	if err != nil && err != storage.ErrNotFound {
		return err
	}
	return nil
}
