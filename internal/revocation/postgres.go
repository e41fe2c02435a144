package revocation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// channelName is the Postgres NOTIFY channel every whisper2-server replica
// LISTENs on.
const channelName = "whisper2_identity_revoked"

// PostgresBus publishes bans via pg_notify and delivers them via LISTEN, so
// a ban issued by whisper2-admin (a separate process from any running
// whisper2-server) still reaches every replica sharing the database — the
// cross-process half of S-Ban's 1s bound that MemoryBus cannot provide.
type PostgresBus struct {
	pool *pgxpool.Pool
}

// NewPostgresBus builds a Bus backed by pool, the same pool storage/postgres
// uses for everything else.
func NewPostgresBus(pool *pgxpool.Pool) *PostgresBus {
	return &PostgresBus{pool: pool}
}

// Publish issues pg_notify(channelName, whisperID); any replica currently
// LISTENing receives it as soon as Postgres delivers the notification.
func (b *PostgresBus) Publish(ctx context.Context, whisperID string) error {
	_, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", channelName, whisperID)
	if err != nil {
		return fmt.Errorf("revocation: publish: %w", err)
	}
	return nil
}

// Subscribe acquires a dedicated connection, issues LISTEN, and streams
// notification payloads until ctx is done or the connection errors.
func (b *PostgresBus) Subscribe(ctx context.Context) (<-chan string, error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("revocation: acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		conn.Release()
		return nil, fmt.Errorf("revocation: listen: %w", err)
	}

	ch := make(chan string, 32)
	go func() {
		defer conn.Release()
		defer close(ch)
		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return
			}
			select {
			case ch <- notification.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Close is a no-op: the pool outlives the Bus and is closed by its owner.
func (b *PostgresBus) Close() error { return nil }
