package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// AttachmentStore implements storage.AttachmentStore for PostgreSQL.
type AttachmentStore struct {
	db *pgxpool.Pool
}

func (a *AttachmentStore) CreateAttachment(ctx context.Context, att *storage.Attachment) error {
	query := `
		INSERT INTO attachments (object_key, owner, content_type, size, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := a.db.Exec(ctx, query, att.ObjectKey, att.Owner, att.ContentType, att.Size, att.CreatedAt, att.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}
	return nil
}

func (a *AttachmentStore) GetAttachment(ctx context.Context, objectKey string) (*storage.Attachment, error) {
	query := `SELECT object_key, owner, content_type, size, created_at, expires_at FROM attachments WHERE object_key = $1`
	var att storage.Attachment
	err := a.db.QueryRow(ctx, query, objectKey).Scan(
		&att.ObjectKey, &att.Owner, &att.ContentType, &att.Size, &att.CreatedAt, &att.ExpiresAt,
	)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return &att, nil
}

func (a *AttachmentStore) DeleteExpiredAttachments(ctx context.Context) (int64, error) {
	result, err := a.db.Exec(ctx, `DELETE FROM attachments WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired attachments: %w", err)
	}
	return result.RowsAffected(), nil
}

func (a *AttachmentStore) CreateGrant(ctx context.Context, grant *storage.AttachmentGrant) error {
	query := `
		INSERT INTO attachment_grants (token, object_key, whisper_id, direction, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := a.db.Exec(ctx, query,
		grant.Token, grant.ObjectKey, grant.WhisperID, grant.Direction, grant.CreatedAt, grant.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attachment grant: %w", err)
	}
	return nil
}

func (a *AttachmentStore) GetGrant(ctx context.Context, token string) (*storage.AttachmentGrant, error) {
	query := `
		SELECT token, object_key, whisper_id, direction, created_at, expires_at
		FROM attachment_grants WHERE token = $1 AND expires_at > NOW()
	`
	var grant storage.AttachmentGrant
	err := a.db.QueryRow(ctx, query, token).Scan(
		&grant.Token, &grant.ObjectKey, &grant.WhisperID, &grant.Direction, &grant.CreatedAt, &grant.ExpiresAt,
	)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment grant: %w", err)
	}
	return &grant, nil
}

func (a *AttachmentStore) DeleteExpiredGrants(ctx context.Context) (int64, error) {
	result, err := a.db.Exec(ctx, `DELETE FROM attachment_grants WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired attachment grants: %w", err)
	}
	return result.RowsAffected(), nil
}
