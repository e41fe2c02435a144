package memory

import (
	"context"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// BackupStore implements storage.BackupStore.
type BackupStore struct {
	store *Store
}

func (b *BackupStore) Put(ctx context.Context, backup *storage.ContactBackup) error {
	b.store.backupsMu.Lock()
	defer b.store.backupsMu.Unlock()

	cp := *backup
	cp.Blob = append([]byte(nil), backup.Blob...)
	cp.Nonce = append([]byte(nil), backup.Nonce...)
	b.store.backups[backup.WhisperID] = &cp
	return nil
}

func (b *BackupStore) Get(ctx context.Context, whisperID string) (*storage.ContactBackup, error) {
	b.store.backupsMu.RLock()
	defer b.store.backupsMu.RUnlock()

	backup, exists := b.store.backups[whisperID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *backup
	return &cp, nil
}

func (b *BackupStore) Delete(ctx context.Context, whisperID string) error {
	b.store.backupsMu.Lock()
	defer b.store.backupsMu.Unlock()

	if _, exists := b.store.backups[whisperID]; !exists {
		return storage.ErrNotFound
	}
	delete(b.store.backups, whisperID)
	return nil
}
