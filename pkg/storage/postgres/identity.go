package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// IdentityStore implements storage.IdentityStore for PostgreSQL.
type IdentityStore struct {
	db *pgxpool.Pool
}

func (s *IdentityStore) Create(ctx context.Context, identity *storage.Identity) error {
	query := `
		INSERT INTO identities (whisper_id, enc_public_key, sign_public_key, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.Exec(ctx, query,
		identity.WhisperID, identity.EncPublicKey, identity.SignPublicKey,
		identity.Status, identity.CreatedAt, identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}
	return nil
}

func (s *IdentityStore) Get(ctx context.Context, whisperID string) (*storage.Identity, error) {
	query := `
		SELECT whisper_id, enc_public_key, sign_public_key, status, created_at, updated_at
		FROM identities WHERE whisper_id = $1
	`
	var identity storage.Identity
	err := s.db.QueryRow(ctx, query, whisperID).Scan(
		&identity.WhisperID, &identity.EncPublicKey, &identity.SignPublicKey,
		&identity.Status, &identity.CreatedAt, &identity.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return &identity, nil
}

func (s *IdentityStore) SetStatus(ctx context.Context, whisperID string, status storage.IdentityStatus) error {
	query := `UPDATE identities SET status = $1, updated_at = NOW() WHERE whisper_id = $2`
	result, err := s.db.Exec(ctx, query, status, whisperID)
	if err != nil {
		return fmt.Errorf("failed to set identity status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *IdentityStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM identities`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count identities: %w", err)
	}
	return count, nil
}

// DeviceStore implements storage.DeviceStore for PostgreSQL.
type DeviceStore struct {
	db *pgxpool.Pool
}

func (s *DeviceStore) Bind(ctx context.Context, device *storage.Device) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE devices SET active = FALSE, updated_at = NOW() WHERE whisper_id = $1 AND id != $2`,
		device.WhisperID, device.ID,
	); err != nil {
		return fmt.Errorf("failed to deactivate prior devices: %w", err)
	}

	query := `
		INSERT INTO devices (id, whisper_id, platform, push_token, voip_token, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			platform = $3, push_token = $4, voip_token = $5, active = $6, updated_at = $8
	`
	if _, err := tx.Exec(ctx, query,
		device.ID, device.WhisperID, device.Platform, device.PushToken, device.VoipToken,
		device.Active, device.CreatedAt, device.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to bind device: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *DeviceStore) Get(ctx context.Context, deviceID string) (*storage.Device, error) {
	query := `
		SELECT id, whisper_id, platform, push_token, voip_token, active, created_at, updated_at
		FROM devices WHERE id = $1
	`
	var d storage.Device
	err := s.db.QueryRow(ctx, query, deviceID).Scan(
		&d.ID, &d.WhisperID, &d.Platform, &d.PushToken, &d.VoipToken, &d.Active, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &d, nil
}

func (s *DeviceStore) ActiveForIdentity(ctx context.Context, whisperID string) (*storage.Device, error) {
	query := `
		SELECT id, whisper_id, platform, push_token, voip_token, active, created_at, updated_at
		FROM devices WHERE whisper_id = $1 AND active = TRUE
	`
	var d storage.Device
	err := s.db.QueryRow(ctx, query, whisperID).Scan(
		&d.ID, &d.WhisperID, &d.Platform, &d.PushToken, &d.VoipToken, &d.Active, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active device: %w", err)
	}
	return &d, nil
}

func (s *DeviceStore) Deactivate(ctx context.Context, deviceID string) error {
	result, err := s.db.Exec(ctx, `UPDATE devices SET active = FALSE, updated_at = NOW() WHERE id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("failed to deactivate device: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
