package storage

import (
	"context"
)

// IdentityStore defines the interface for identity persistence.
type IdentityStore interface {
	Create(ctx context.Context, identity *Identity) error
	Get(ctx context.Context, whisperID string) (*Identity, error)
	SetStatus(ctx context.Context, whisperID string, status IdentityStatus) error
	Count(ctx context.Context) (int64, error)
}

// DeviceStore defines the interface for device binding persistence. Binding
// a new device deactivates any prior active device for the same identity,
// enforcing the single-active-device invariant at the storage layer.
type DeviceStore interface {
	Bind(ctx context.Context, device *Device) error
	Get(ctx context.Context, deviceID string) (*Device, error)
	ActiveForIdentity(ctx context.Context, whisperID string) (*Device, error)
	Deactivate(ctx context.Context, deviceID string) error
}

// SessionStore defines the interface for auth session-token persistence.
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	UpdateActivity(ctx context.Context, token string) error
	Delete(ctx context.Context, token string) error
	DeleteForIdentity(ctx context.Context, whisperID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// PendingStore defines the interface for the durable pending-message queue.
type PendingStore interface {
	Enqueue(ctx context.Context, envelope *Envelope) error
	// Fetch returns up to limit envelopes for recipient enqueued after the
	// envelope whose MessageID is cursor (creation order, spec §4.4), oldest
	// first.
	Fetch(ctx context.Context, recipient string, cursor string, limit int) ([]*Envelope, error)
	Ack(ctx context.Context, recipient string, messageID string) error
	DeleteExpired(ctx context.Context) (int64, error)
	Count(ctx context.Context, recipient string) (int64, error)
}

// AttachmentStore defines the interface for attachment metadata and the
// presigned grants that authorize upload/download of an object.
type AttachmentStore interface {
	CreateAttachment(ctx context.Context, attachment *Attachment) error
	GetAttachment(ctx context.Context, objectKey string) (*Attachment, error)
	DeleteExpiredAttachments(ctx context.Context) (int64, error)

	CreateGrant(ctx context.Context, grant *AttachmentGrant) error
	GetGrant(ctx context.Context, token string) (*AttachmentGrant, error)
	DeleteExpiredGrants(ctx context.Context) (int64, error)
}

// BackupStore defines the interface for the zero-knowledge contact-backup blob.
type BackupStore interface {
	Put(ctx context.Context, backup *ContactBackup) error
	Get(ctx context.Context, whisperID string) (*ContactBackup, error)
	Delete(ctx context.Context, whisperID string) error
}

// GroupStore defines the interface for group membership persistence.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *Group) error
	GetGroup(ctx context.Context, groupID string) (*Group, error)
	AddMember(ctx context.Context, member *GroupMember) error
	RemoveMember(ctx context.Context, groupID, whisperID string) error
	SetMemberRole(ctx context.Context, groupID, whisperID string, role GroupRole) error
	Member(ctx context.Context, groupID, whisperID string) (*GroupMember, error)
	ListMembers(ctx context.Context, groupID string) ([]*GroupMember, error)
	ListGroupsForMember(ctx context.Context, whisperID string) ([]*Group, error)
}

// Store combines all storage interfaces behind the one dependency every
// component takes, mirroring the teacher's single Store aggregate that
// hands out one sub-store per entity.
type Store interface {
	IdentityStore() IdentityStore
	DeviceStore() DeviceStore
	SessionStore() SessionStore
	PendingStore() PendingStore
	AttachmentStore() AttachmentStore
	BackupStore() BackupStore
	GroupStore() GroupStore

	// Close closes the storage connection.
	Close() error

	// Ping checks the storage connection.
	Ping(ctx context.Context) error
}

// ErrNotFound is returned by Get-style lookups when the entity does not exist.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "storage: not found" }
