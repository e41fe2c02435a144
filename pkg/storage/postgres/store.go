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

// Package postgres is the durable storage.Store backend, talking to
// PostgreSQL via pgxpool with one sub-store type per entity, mirroring the
// teacher's pkg/storage/postgres split.
package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

//go:embed schema.sql
var Schema string

// Store implements the storage.Store interface for PostgreSQL.
type Store struct {
	pool       *pgxpool.Pool
	identity   *IdentityStore
	device     *DeviceStore
	session    *SessionStore
	pending    *PendingStore
	attachment *AttachmentStore
	backup     *BackupStore
	group      *GroupStore
}

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewStore creates a new PostgreSQL store and verifies connectivity.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{pool: pool}
	store.identity = &IdentityStore{db: pool}
	store.device = &DeviceStore{db: pool}
	store.session = &SessionStore{db: pool}
	store.pending = &PendingStore{db: pool}
	store.attachment = &AttachmentStore{db: pool}
	store.backup = &BackupStore{db: pool}
	store.group = &GroupStore{db: pool}

	return store, nil
}

// Migrate applies the embedded schema. Callers run this once at startup;
// the statements are idempotent (CREATE TABLE/INDEX IF NOT EXISTS).
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Store) IdentityStore() storage.IdentityStore     { return s.identity }
func (s *Store) DeviceStore() storage.DeviceStore         { return s.device }
func (s *Store) SessionStore() storage.SessionStore       { return s.session }
func (s *Store) PendingStore() storage.PendingStore       { return s.pending }
func (s *Store) AttachmentStore() storage.AttachmentStore { return s.attachment }
func (s *Store) BackupStore() storage.BackupStore         { return s.backup }
func (s *Store) GroupStore() storage.GroupStore           { return s.group }

// Pool exposes the underlying connection pool for components that need a
// direct Postgres facility the storage.Store interface doesn't abstract —
// currently internal/revocation's LISTEN/NOTIFY bus.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Close closes the database connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
