// Package revocation implements the internal fan-out channel SPEC_FULL.md
// §5 requires: banning an identity (internal/identity.Registry.SetStatus)
// publishes a notification here, and internal/gateway.Hub subscribes so it
// can force-close every live socket for that identity within the 1s bound
// spec §8's S-Ban property names — without that wiring, an idle
// authenticated connection would only notice a ban the next time it sent a
// frame through sessionstore.Resolve.
//
// Bus has two implementations because the publisher (whisper2-admin, or an
// HTTP-triggered ban) is not always the same OS process as the subscriber
// (a running whisper2-server): MemoryBus only fans out within one process
// (the memory storage backend, and single-process test setups); PostgresBus
// uses LISTEN/NOTIFY so a ban issued by a separate whisper2-admin process
// still reaches every whisper2-server replica sharing the same database.
package revocation

import "context"

// Bus publishes and delivers identity-ban notifications by whisperId.
type Bus interface {
	// Publish announces that whisperID has just been banned.
	Publish(ctx context.Context, whisperID string) error
	// Subscribe returns a channel of banned whisperIds. The channel is
	// closed when ctx is done or the Bus is closed.
	Subscribe(ctx context.Context) (<-chan string, error)
	Close() error
}
