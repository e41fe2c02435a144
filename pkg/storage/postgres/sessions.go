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

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// SessionStore implements storage.SessionStore for PostgreSQL.
type SessionStore struct {
	db *pgxpool.Pool
}

func (s *SessionStore) Create(ctx context.Context, session *storage.Session) error {
	query := `
		INSERT INTO sessions (token, whisper_id, device_id, created_at, expires_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.Exec(ctx, query,
		session.Token, session.WhisperID, session.DeviceID,
		session.CreatedAt, session.ExpiresAt, session.LastActivity,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*storage.Session, error) {
	query := `
		SELECT token, whisper_id, device_id, created_at, expires_at, last_activity
		FROM sessions WHERE token = $1 AND expires_at > NOW()
	`
	var session storage.Session
	err := s.db.QueryRow(ctx, query, token).Scan(
		&session.Token, &session.WhisperID, &session.DeviceID,
		&session.CreatedAt, &session.ExpiresAt, &session.LastActivity,
	)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) UpdateActivity(ctx context.Context, token string) error {
	result, err := s.db.Exec(ctx, `UPDATE sessions SET last_activity = $1 WHERE token = $2`, time.Now(), token)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *SessionStore) DeleteForIdentity(ctx context.Context, whisperID string) (int64, error) {
	result, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE whisper_id = $1`, whisperID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions for identity: %w", err)
	}
	return result.RowsAffected(), nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

func (s *SessionStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM sessions WHERE expires_at > NOW()`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
