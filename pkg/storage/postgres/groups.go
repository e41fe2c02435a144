package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// GroupStore implements storage.GroupStore for PostgreSQL.
type GroupStore struct {
	db *pgxpool.Pool
}

func (g *GroupStore) CreateGroup(ctx context.Context, group *storage.Group) error {
	query := `INSERT INTO groups (id, name, owner_id, created_at) VALUES ($1, $2, $3, $4)`
	_, err := g.db.Exec(ctx, query, group.ID, group.Name, group.OwnerID, group.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

func (g *GroupStore) GetGroup(ctx context.Context, groupID string) (*storage.Group, error) {
	query := `SELECT id, name, owner_id, created_at FROM groups WHERE id = $1`
	var group storage.Group
	err := g.db.QueryRow(ctx, query, groupID).Scan(&group.ID, &group.Name, &group.OwnerID, &group.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

func (g *GroupStore) AddMember(ctx context.Context, member *storage.GroupMember) error {
	query := `
		INSERT INTO group_members (group_id, whisper_id, role, active, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id, whisper_id) DO UPDATE SET role = $3, active = $4
	`
	_, err := g.db.Exec(ctx, query, member.GroupID, member.WhisperID, member.Role, member.Active, member.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

func (g *GroupStore) RemoveMember(ctx context.Context, groupID, whisperID string) error {
	result, err := g.db.Exec(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND whisper_id = $2`, groupID, whisperID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (g *GroupStore) SetMemberRole(ctx context.Context, groupID, whisperID string, role storage.GroupRole) error {
	result, err := g.db.Exec(ctx,
		`UPDATE group_members SET role = $1 WHERE group_id = $2 AND whisper_id = $3`, role, groupID, whisperID,
	)
	if err != nil {
		return fmt.Errorf("failed to set group member role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (g *GroupStore) Member(ctx context.Context, groupID, whisperID string) (*storage.GroupMember, error) {
	query := `SELECT group_id, whisper_id, role, active, joined_at FROM group_members WHERE group_id = $1 AND whisper_id = $2`
	var m storage.GroupMember
	err := g.db.QueryRow(ctx, query, groupID, whisperID).Scan(&m.GroupID, &m.WhisperID, &m.Role, &m.Active, &m.JoinedAt)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group member: %w", err)
	}
	return &m, nil
}

func (g *GroupStore) ListMembers(ctx context.Context, groupID string) ([]*storage.GroupMember, error) {
	query := `SELECT group_id, whisper_id, role, active, joined_at FROM group_members WHERE group_id = $1`
	rows, err := g.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var out []*storage.GroupMember
	for rows.Next() {
		var m storage.GroupMember
		if err := rows.Scan(&m.GroupID, &m.WhisperID, &m.Role, &m.Active, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (g *GroupStore) ListGroupsForMember(ctx context.Context, whisperID string) ([]*storage.Group, error) {
	query := `
		SELECT g.id, g.name, g.owner_id, g.created_at
		FROM groups g JOIN group_members m ON m.group_id = g.id
		WHERE m.whisper_id = $1 AND m.active = TRUE
	`
	rows, err := g.db.Query(ctx, query, whisperID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for member: %w", err)
	}
	defer rows.Close()

	var out []*storage.Group
	for rows.Next() {
		var group storage.Group
		if err := rows.Scan(&group.ID, &group.Name, &group.OwnerID, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		out = append(out, &group)
	}
	return out, rows.Err()
}
