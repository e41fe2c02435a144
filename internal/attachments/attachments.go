// Package attachments implements the presigned upload/download ticketing
// and per-recipient access grants of spec §4.7. The server never sees
// plaintext bytes — it only tracks opaque object keys, ownership, and
// grants — grounded on the teacher's pkg/storage sub-store-per-entity
// pattern applied to attachments and attachment grants.
package attachments

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// presignTTL is the 30-day expiry spec.md §4.7 assigns to both an
// uploaded-object record and the download grants it spawns.
const presignTTL = 30 * 24 * time.Hour

// UploadTicket is returned from PresignUpload.
type UploadTicket struct {
	ObjectKey string
	UploadURL string
	ExpiresAt time.Time
}

// Manager is the attachment presigning component. GC cadence is
// configurable (open question resolution, SPEC_FULL.md §9); the default
// here mirrors the zero-value-means-one-hour convention used elsewhere.
type Manager struct {
	store storage.Store

	gcTicker *time.Ticker
	stopGC   chan struct{}
}

// New builds a Manager backed by store, sweeping expired attachments and
// grants every gcInterval.
func New(store storage.Store, gcInterval time.Duration) *Manager {
	if gcInterval <= 0 {
		gcInterval = time.Hour
	}
	m := &Manager{store: store, gcTicker: time.NewTicker(gcInterval), stopGC: make(chan struct{})}
	go m.gcLoop()
	return m
}

// PresignUpload records {owner, size, contentType, expiresAt} for a
// newly-minted opaque objectKey and returns the upload ticket.
func (m *Manager) PresignUpload(ctx context.Context, owner, contentType string, size int64) (*UploadTicket, error) {
	objectKey, err := randomObjectKey()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	expires := now.Add(presignTTL)
	if err := m.store.AttachmentStore().CreateAttachment(ctx, &storage.Attachment{
		ObjectKey: objectKey, Owner: owner, ContentType: contentType, Size: size,
		CreatedAt: now, ExpiresAt: expires,
	}); err != nil {
		return nil, err
	}
	return &UploadTicket{ObjectKey: objectKey, UploadURL: objectURL(objectKey), ExpiresAt: expires}, nil
}

// GrantAccess records that recipient may download objectKey, called once
// per recipient whenever a send_message envelope references an attachment
// owned by the sender.
func (m *Manager) GrantAccess(ctx context.Context, objectKey, owner, recipient string) error {
	att, err := m.store.AttachmentStore().GetAttachment(ctx, objectKey)
	if err != nil {
		if err == storage.ErrNotFound {
			return wire.NewError(wire.ErrNotFound, "unknown attachment objectKey")
		}
		return err
	}
	if att.Owner != owner {
		return wire.NewError(wire.ErrForbidden, "objectKey is not owned by sender")
	}

	now := time.Now()
	return m.store.AttachmentStore().CreateGrant(ctx, &storage.AttachmentGrant{
		Token:     grantToken(objectKey, recipient),
		ObjectKey: objectKey,
		WhisperID: recipient,
		Direction: storage.GrantDownload,
		ExpiresAt: now.Add(presignTTL),
		CreatedAt: now,
	})
}

// PresignDownload issues a download URL iff a valid unexpired grant exists
// for caller against objectKey.
func (m *Manager) PresignDownload(ctx context.Context, caller, objectKey string) (string, error) {
	grant, err := m.store.AttachmentStore().GetGrant(ctx, grantToken(objectKey, caller))
	if err != nil {
		if err == storage.ErrNotFound {
			return "", wire.NewError(wire.ErrForbidden, "no valid download grant")
		}
		return "", err
	}
	if grant.WhisperID != caller || grant.Direction != storage.GrantDownload {
		return "", wire.NewError(wire.ErrForbidden, "no valid download grant")
	}
	return objectURL(objectKey), nil
}

// Close stops the background GC sweep.
func (m *Manager) Close() {
	close(m.stopGC)
	m.gcTicker.Stop()
}

func (m *Manager) gcLoop() {
	for {
		select {
		case <-m.gcTicker.C:
			ctx := context.Background()
			_, _ = m.store.AttachmentStore().DeleteExpiredAttachments(ctx)
			_, _ = m.store.AttachmentStore().DeleteExpiredGrants(ctx)
		case <-m.stopGC:
			return
		}
	}
}

func objectURL(objectKey string) string {
	return fmt.Sprintf("/attachments/objects/%s", objectKey)
}

// grantToken derives a stable lookup key for the (objectKey, whisperId)
// pair so a single-key storage.AttachmentGrant store can serve the
// "does a grant exist for this caller" query without a secondary index.
func grantToken(objectKey, whisperID string) string {
	sum := sha256.Sum256([]byte(objectKey + "|" + whisperID))
	return hex.EncodeToString(sum[:])
}

func randomObjectKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
