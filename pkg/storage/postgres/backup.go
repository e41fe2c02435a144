package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// BackupStore implements storage.BackupStore for PostgreSQL.
type BackupStore struct {
	db *pgxpool.Pool
}

func (b *BackupStore) Put(ctx context.Context, backup *storage.ContactBackup) error {
	query := `
		INSERT INTO contact_backups (whisper_id, blob, nonce, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (whisper_id) DO UPDATE SET blob = $2, nonce = $3, updated_at = $4
	`
	_, err := b.db.Exec(ctx, query, backup.WhisperID, backup.Blob, backup.Nonce, backup.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put contact backup: %w", err)
	}
	return nil
}

func (b *BackupStore) Get(ctx context.Context, whisperID string) (*storage.ContactBackup, error) {
	query := `SELECT whisper_id, blob, nonce, updated_at FROM contact_backups WHERE whisper_id = $1`
	var backup storage.ContactBackup
	err := b.db.QueryRow(ctx, query, whisperID).Scan(
		&backup.WhisperID, &backup.Blob, &backup.Nonce, &backup.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact backup: %w", err)
	}
	return &backup, nil
}

func (b *BackupStore) Delete(ctx context.Context, whisperID string) error {
	result, err := b.db.Exec(ctx, `DELETE FROM contact_backups WHERE whisper_id = $1`, whisperID)
	if err != nil {
		return fmt.Errorf("failed to delete contact backup: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
