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

package memory

import (
	"context"
	"sync"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// Store implements the storage.Store interface with in-memory storage.
type Store struct {
	identities map[string]*storage.Identity
	devices    map[string]*storage.Device
	sessions   map[string]*storage.Session
	pending    map[string][]*storage.Envelope // keyed by recipient (whisperId or groupId)
	attachments map[string]*storage.Attachment
	grants      map[string]*storage.AttachmentGrant
	backups     map[string]*storage.ContactBackup
	groups      map[string]*storage.Group
	members     map[string]map[string]*storage.GroupMember // groupID -> whisperID -> member

	identitiesMu sync.RWMutex
	devicesMu    sync.RWMutex
	sessionsMu   sync.RWMutex
	pendingMu    sync.RWMutex
	attachmentsMu sync.RWMutex
	grantsMu      sync.RWMutex
	backupsMu     sync.RWMutex
	groupsMu      sync.RWMutex

	identityStore   *IdentityStore
	deviceStore     *DeviceStore
	sessionStore    *SessionStore
	pendingStore    *PendingStore
	attachmentStore *AttachmentStore
	backupStore     *BackupStore
	groupStore      *GroupStore
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	s := &Store{
		identities:  make(map[string]*storage.Identity),
		devices:     make(map[string]*storage.Device),
		sessions:    make(map[string]*storage.Session),
		pending:     make(map[string][]*storage.Envelope),
		attachments: make(map[string]*storage.Attachment),
		grants:      make(map[string]*storage.AttachmentGrant),
		backups:     make(map[string]*storage.ContactBackup),
		groups:      make(map[string]*storage.Group),
		members:     make(map[string]map[string]*storage.GroupMember),
	}

	s.identityStore = &IdentityStore{store: s}
	s.deviceStore = &DeviceStore{store: s}
	s.sessionStore = &SessionStore{store: s}
	s.pendingStore = &PendingStore{store: s}
	s.attachmentStore = &AttachmentStore{store: s}
	s.backupStore = &BackupStore{store: s}
	s.groupStore = &GroupStore{store: s}

	return s
}

func (s *Store) IdentityStore() storage.IdentityStore     { return s.identityStore }
func (s *Store) DeviceStore() storage.DeviceStore         { return s.deviceStore }
func (s *Store) SessionStore() storage.SessionStore       { return s.sessionStore }
func (s *Store) PendingStore() storage.PendingStore       { return s.pendingStore }
func (s *Store) AttachmentStore() storage.AttachmentStore { return s.attachmentStore }
func (s *Store) BackupStore() storage.BackupStore         { return s.backupStore }
func (s *Store) GroupStore() storage.GroupStore           { return s.groupStore }

// Close closes the store (no-op for memory store).
func (s *Store) Close() error { return nil }

// Ping checks the store (always succeeds for memory store).
func (s *Store) Ping(ctx context.Context) error { return nil }

// Clear removes all data (useful for testing).
func (s *Store) Clear() {
	s.identitiesMu.Lock()
	s.identities = make(map[string]*storage.Identity)
	s.identitiesMu.Unlock()

	s.devicesMu.Lock()
	s.devices = make(map[string]*storage.Device)
	s.devicesMu.Unlock()

	s.sessionsMu.Lock()
	s.sessions = make(map[string]*storage.Session)
	s.sessionsMu.Unlock()

	s.pendingMu.Lock()
	s.pending = make(map[string][]*storage.Envelope)
	s.pendingMu.Unlock()

	s.attachmentsMu.Lock()
	s.attachments = make(map[string]*storage.Attachment)
	s.attachmentsMu.Unlock()

	s.grantsMu.Lock()
	s.grants = make(map[string]*storage.AttachmentGrant)
	s.grantsMu.Unlock()

	s.backupsMu.Lock()
	s.backups = make(map[string]*storage.ContactBackup)
	s.backupsMu.Unlock()

	s.groupsMu.Lock()
	s.groups = make(map[string]*storage.Group)
	s.members = make(map[string]map[string]*storage.GroupMember)
	s.groupsMu.Unlock()
}
