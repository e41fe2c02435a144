package memory

import (
	"context"
	"fmt"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// GroupStore implements storage.GroupStore.
type GroupStore struct {
	store *Store
}

func (g *GroupStore) CreateGroup(ctx context.Context, group *storage.Group) error {
	g.store.groupsMu.Lock()
	defer g.store.groupsMu.Unlock()

	if _, exists := g.store.groups[group.ID]; exists {
		return fmt.Errorf("group already exists: %s", group.ID)
	}
	cp := *group
	g.store.groups[group.ID] = &cp
	g.store.members[group.ID] = make(map[string]*storage.GroupMember)
	return nil
}

func (g *GroupStore) GetGroup(ctx context.Context, groupID string) (*storage.Group, error) {
	g.store.groupsMu.RLock()
	defer g.store.groupsMu.RUnlock()

	group, exists := g.store.groups[groupID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *group
	return &cp, nil
}

func (g *GroupStore) AddMember(ctx context.Context, member *storage.GroupMember) error {
	g.store.groupsMu.Lock()
	defer g.store.groupsMu.Unlock()

	members, exists := g.store.members[member.GroupID]
	if !exists {
		return storage.ErrNotFound
	}
	cp := *member
	members[member.WhisperID] = &cp
	return nil
}

func (g *GroupStore) RemoveMember(ctx context.Context, groupID, whisperID string) error {
	g.store.groupsMu.Lock()
	defer g.store.groupsMu.Unlock()

	members, exists := g.store.members[groupID]
	if !exists {
		return storage.ErrNotFound
	}
	if _, exists := members[whisperID]; !exists {
		return storage.ErrNotFound
	}
	delete(members, whisperID)
	return nil
}

func (g *GroupStore) SetMemberRole(ctx context.Context, groupID, whisperID string, role storage.GroupRole) error {
	g.store.groupsMu.Lock()
	defer g.store.groupsMu.Unlock()

	members, exists := g.store.members[groupID]
	if !exists {
		return storage.ErrNotFound
	}
	member, exists := members[whisperID]
	if !exists {
		return storage.ErrNotFound
	}
	member.Role = role
	return nil
}

func (g *GroupStore) Member(ctx context.Context, groupID, whisperID string) (*storage.GroupMember, error) {
	g.store.groupsMu.RLock()
	defer g.store.groupsMu.RUnlock()

	members, exists := g.store.members[groupID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	member, exists := members[whisperID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *member
	return &cp, nil
}

func (g *GroupStore) ListMembers(ctx context.Context, groupID string) ([]*storage.GroupMember, error) {
	g.store.groupsMu.RLock()
	defer g.store.groupsMu.RUnlock()

	members, exists := g.store.members[groupID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	out := make([]*storage.GroupMember, 0, len(members))
	for _, m := range members {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (g *GroupStore) ListGroupsForMember(ctx context.Context, whisperID string) ([]*storage.Group, error) {
	g.store.groupsMu.RLock()
	defer g.store.groupsMu.RUnlock()

	var out []*storage.Group
	for groupID, members := range g.store.members {
		if m, ok := members[whisperID]; ok && m.Active {
			if group, ok := g.store.groups[groupID]; ok {
				cp := *group
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}
