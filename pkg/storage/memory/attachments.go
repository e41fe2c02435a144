package memory

import (
	"context"
	"time"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// AttachmentStore implements storage.AttachmentStore.
type AttachmentStore struct {
	store *Store
}

func (a *AttachmentStore) CreateAttachment(ctx context.Context, attachment *storage.Attachment) error {
	a.store.attachmentsMu.Lock()
	defer a.store.attachmentsMu.Unlock()

	cp := *attachment
	a.store.attachments[attachment.ObjectKey] = &cp
	return nil
}

func (a *AttachmentStore) GetAttachment(ctx context.Context, objectKey string) (*storage.Attachment, error) {
	a.store.attachmentsMu.RLock()
	defer a.store.attachmentsMu.RUnlock()

	att, exists := a.store.attachments[objectKey]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *att
	return &cp, nil
}

func (a *AttachmentStore) DeleteExpiredAttachments(ctx context.Context) (int64, error) {
	a.store.attachmentsMu.Lock()
	defer a.store.attachmentsMu.Unlock()

	now := time.Now()
	var count int64
	for key, att := range a.store.attachments {
		if now.After(att.ExpiresAt) {
			delete(a.store.attachments, key)
			count++
		}
	}
	return count, nil
}

func (a *AttachmentStore) CreateGrant(ctx context.Context, grant *storage.AttachmentGrant) error {
	a.store.grantsMu.Lock()
	defer a.store.grantsMu.Unlock()

	cp := *grant
	a.store.grants[grant.Token] = &cp
	return nil
}

func (a *AttachmentStore) GetGrant(ctx context.Context, token string) (*storage.AttachmentGrant, error) {
	a.store.grantsMu.RLock()
	defer a.store.grantsMu.RUnlock()

	grant, exists := a.store.grants[token]
	if !exists {
		return nil, storage.ErrNotFound
	}
	if time.Now().After(grant.ExpiresAt) {
		return nil, storage.ErrNotFound
	}
	cp := *grant
	return &cp, nil
}

func (a *AttachmentStore) DeleteExpiredGrants(ctx context.Context) (int64, error) {
	a.store.grantsMu.Lock()
	defer a.store.grantsMu.Unlock()

	now := time.Now()
	var count int64
	for token, grant := range a.store.grants {
		if now.After(grant.ExpiresAt) {
			delete(a.store.grants, token)
			count++
		}
	}
	return count, nil
}
