package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// PendingStore implements storage.PendingStore for PostgreSQL.
type PendingStore struct {
	db *pgxpool.Pool
}

// Enqueue inserts envelope into its recipient's queue. message_id is the
// table's primary key, so a retried insert for the same (recipient,
// messageId) is absorbed by ON CONFLICT DO NOTHING rather than erroring
// (spec §4.4 idempotency invariant).
func (p *PendingStore) Enqueue(ctx context.Context, e *storage.Envelope) error {
	var key, fileBox, ctype *string
	var size *int64
	if e.Attachment != nil {
		key, fileBox, ctype = &e.Attachment.ObjectKey, &e.Attachment.FileKeyBox, &e.Attachment.ContentType
		size = &e.Attachment.Size
	}

	query := `
		INSERT INTO envelopes (
			message_id, sender, recipient, group_id, msg_type, ts, nonce, ciphertext, sig,
			reply_to, attachment_key, attachment_file_box, attachment_type, attachment_size,
			created_at, expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (message_id) DO NOTHING
	`
	_, err := p.db.Exec(ctx, query,
		e.MessageID, e.From, e.To, e.GroupID, e.MsgType, e.Timestamp, e.Nonce, e.Ciphertext, e.Sig,
		e.ReplyTo, key, fileBox, ctype, size, e.CreatedAt, e.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue envelope: %w", err)
	}
	return nil
}

func (p *PendingStore) Fetch(ctx context.Context, recipient string, cursor string, limit int) ([]*storage.Envelope, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var cursorCreatedAt, cursorMessageID any
	if cursor != "" {
		row := p.db.QueryRow(ctx, `SELECT created_at, message_id FROM envelopes WHERE message_id = $1`, cursor)
		var ts any
		var mid string
		if err := row.Scan(&ts, &mid); err == nil {
			cursorCreatedAt, cursorMessageID = ts, mid
		}
	}

	query := `
		SELECT message_id, sender, recipient, group_id, msg_type, ts, nonce, ciphertext, sig,
			reply_to, attachment_key, attachment_file_box, attachment_type, attachment_size,
			created_at, expires_at
		FROM envelopes
		WHERE (recipient = $1 OR group_id = $1) AND expires_at > NOW()
		  AND ($2::timestamptz IS NULL OR (created_at, message_id) > ($2, $3))
		ORDER BY created_at ASC, message_id ASC
		LIMIT $4
	`
	rows, err := p.db.Query(ctx, query, recipient, cursorCreatedAt, cursorMessageID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending envelopes: %w", err)
	}
	defer rows.Close()

	var out []*storage.Envelope
	for rows.Next() {
		var e storage.Envelope
		var key, fileBox, ctype *string
		var size *int64
		if err := rows.Scan(
			&e.MessageID, &e.From, &e.To, &e.GroupID, &e.MsgType, &e.Timestamp, &e.Nonce, &e.Ciphertext, &e.Sig,
			&e.ReplyTo, &key, &fileBox, &ctype, &size, &e.CreatedAt, &e.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan envelope: %w", err)
		}
		if key != nil {
			e.Attachment = &storage.AttachmentRef{ObjectKey: *key}
			if fileBox != nil {
				e.Attachment.FileKeyBox = *fileBox
			}
			if ctype != nil {
				e.Attachment.ContentType = *ctype
			}
			if size != nil {
				e.Attachment.Size = *size
			}
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating envelopes: %w", err)
	}
	return out, nil
}

// Ack removes messageID from recipient's queue. Re-acking a row that is
// already gone is a no-op, not an error (spec §4.4 invariant).
func (p *PendingStore) Ack(ctx context.Context, recipient string, messageID string) error {
	_, err := p.db.Exec(ctx,
		`DELETE FROM envelopes WHERE message_id = $1 AND (recipient = $2 OR group_id = $2)`,
		messageID, recipient,
	)
	if err != nil {
		return fmt.Errorf("failed to ack envelope: %w", err)
	}
	return nil
}

func (p *PendingStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := p.db.Exec(ctx, `DELETE FROM envelopes WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired envelopes: %w", err)
	}
	return result.RowsAffected(), nil
}

func (p *PendingStore) Count(ctx context.Context, recipient string) (int64, error) {
	var count int64
	err := p.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM envelopes WHERE (recipient = $1 OR group_id = $1) AND expires_at > NOW()`,
		recipient,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending envelopes: %w", err)
	}
	return count, nil
}
