// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package storage

import "time"

// IdentityStatus is the lifecycle state of a registered WhisperID (spec §3:
// status ∈ {active, banned}).
type IdentityStatus string

const (
	IdentityActive IdentityStatus = "active"
	IdentityBanned IdentityStatus = "banned"
)

// Identity is a registered end user, identified by WhisperID.
type Identity struct {
	WhisperID     string
	EncPublicKey  []byte
	SignPublicKey []byte
	Status        IdentityStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Device is one of (at most one active) client devices bound to an identity.
type Device struct {
	ID        string
	WhisperID string
	Platform  string
	PushToken string
	VoipToken string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is a persisted auth session token, the durable backing for the
// in-memory read-through cache internal/sessionstore keeps in front of it.
type Session struct {
	Token        string
	WhisperID    string
	DeviceID     string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	LastActivity time.Time
}

// AttachmentRef mirrors wire.AttachmentRef for the storage layer, kept
// independent so pkg/storage has no dependency on internal/wire.
type AttachmentRef struct {
	ObjectKey   string
	FileKeyBox  string
	ContentType string
	Size        int64
}

// Envelope is a durably queued message awaiting delivery (spec §4.4).
type Envelope struct {
	MessageID  string
	From       string
	To         string // empty for group envelopes
	GroupID    string // empty for direct envelopes
	MsgType    string
	Timestamp  int64
	Nonce      string
	Ciphertext string
	Sig        string
	ReplyTo    string
	Attachment *AttachmentRef
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Attachment is an uploaded blob's metadata (the blob itself lives in
// whatever object store the presigned URL points at; out of this repo's
// scope per the relay's non-goals).
type Attachment struct {
	ObjectKey   string
	Owner       string
	ContentType string
	Size        int64
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// GrantDirection is which operation an AttachmentGrant authorizes.
type GrantDirection string

const (
	GrantUpload   GrantDirection = "upload"
	GrantDownload GrantDirection = "download"
)

// AttachmentGrant is an issued presigned-ticket record, kept so a grant can
// be looked up or audited independent of the JWT's own expiry.
type AttachmentGrant struct {
	Token     string
	ObjectKey string
	WhisperID string
	Direction GrantDirection
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ContactBackup is a zero-knowledge encrypted contact-list blob (spec §4.7).
type ContactBackup struct {
	WhisperID string
	Blob      []byte
	Nonce     []byte
	UpdatedAt time.Time
}

// GroupRole is a member's permission level within a group.
type GroupRole string

const (
	RoleOwner  GroupRole = "owner"
	RoleAdmin  GroupRole = "admin"
	RoleMember GroupRole = "member"
)

// Group is a messaging group.
type Group struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
}

// GroupMember is one identity's membership record within a group.
type GroupMember struct {
	GroupID   string
	WhisperID string
	Role      GroupRole
	Active    bool
	JoinedAt  time.Time
}
