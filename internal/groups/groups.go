// Package groups implements group membership management: creation, role
// changes, and the membership checks the envelope validator and dispatcher
// need for group fanout. Open question resolution (see SPEC_FULL.md §9):
// any active member may post; only owner/admin manage membership.
package groups

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// Manager wraps storage.GroupStore with role-aware mutation checks.
type Manager struct {
	store storage.Store
}

// New builds a Manager backed by store.
func New(store storage.Store) *Manager {
	return &Manager{store: store}
}

// Create makes a new group with owner as its sole initial member.
func (m *Manager) Create(ctx context.Context, name, owner string) (*storage.Group, error) {
	group := &storage.Group{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   owner,
		CreatedAt: time.Now(),
	}
	if err := m.store.GroupStore().CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	if err := m.store.GroupStore().AddMember(ctx, &storage.GroupMember{
		GroupID: group.ID, WhisperID: owner, Role: storage.RoleOwner, Active: true, JoinedAt: time.Now(),
	}); err != nil {
		return nil, err
	}
	return group, nil
}

// AddMember adds whisperID to groupID as a member, gated on actor holding
// owner or admin role.
func (m *Manager) AddMember(ctx context.Context, groupID, actor, whisperID string) error {
	if err := m.requireManager(ctx, groupID, actor); err != nil {
		return err
	}
	return m.store.GroupStore().AddMember(ctx, &storage.GroupMember{
		GroupID: groupID, WhisperID: whisperID, Role: storage.RoleMember, Active: true, JoinedAt: time.Now(),
	})
}

// RemoveMember removes whisperID from groupID, gated on actor holding owner
// or admin role.
func (m *Manager) RemoveMember(ctx context.Context, groupID, actor, whisperID string) error {
	if err := m.requireManager(ctx, groupID, actor); err != nil {
		return err
	}
	return m.store.GroupStore().RemoveMember(ctx, groupID, whisperID)
}

// SetRole promotes or demotes whisperID, gated on actor holding owner role
// (only the owner reassigns admin rights, to avoid admins deputizing peers
// indefinitely).
func (m *Manager) SetRole(ctx context.Context, groupID, actor, whisperID string, role storage.GroupRole) error {
	group, err := m.store.GroupStore().GetGroup(ctx, groupID)
	if err != nil {
		return translateNotFound(err)
	}
	if group.OwnerID != actor {
		return wire.NewError(wire.ErrForbidden, "only the group owner may change roles")
	}
	return m.store.GroupStore().SetMemberRole(ctx, groupID, whisperID, role)
}

// Exists reports whether groupID refers to a known group — the first half
// of the envelope validator's group recipient-shape check (spec §4.3 step 6).
func (m *Manager) Exists(ctx context.Context, groupID string) (bool, error) {
	_, err := m.store.GroupStore().GetGroup(ctx, groupID)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsActiveMember reports whether whisperID is an active member of groupID —
// the check the envelope validator's recipient-shape step needs for group
// frames (spec §4.3 step 6).
func (m *Manager) IsActiveMember(ctx context.Context, groupID, whisperID string) (bool, error) {
	member, err := m.store.GroupStore().Member(ctx, groupID, whisperID)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return member.Active, nil
}

// Members lists every member of groupID, used by the dispatcher for group
// fanout.
func (m *Manager) Members(ctx context.Context, groupID string) ([]*storage.GroupMember, error) {
	members, err := m.store.GroupStore().ListMembers(ctx, groupID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return members, nil
}

func (m *Manager) requireManager(ctx context.Context, groupID, actor string) error {
	member, err := m.store.GroupStore().Member(ctx, groupID, actor)
	if err != nil {
		return translateNotFound(err)
	}
	if !member.Active || (member.Role != storage.RoleOwner && member.Role != storage.RoleAdmin) {
		return wire.NewError(wire.ErrForbidden, "only an active owner or admin may manage membership")
	}
	return nil
}

func translateNotFound(err error) error {
	if err == storage.ErrNotFound {
		return wire.NewError(wire.ErrNotFound, "group or member not found")
	}
	return err
}
