// Package sessionstore implements the Session Store (spec §4.2): issue,
// resolve, refresh, revoke, revokeAllFor. It keeps a read-through in-memory
// cache in front of the durable storage.SessionStore, grounded on the
// teacher's session.Manager (map + RWMutex + background cleanup ticker +
// Close), with resolve lookups deduped via singleflight the way the
// teacher's handshake server collapses concurrent peer resolutions.
package sessionstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fatihtunali/whisper2-sub009/internal/identity"
	"github.com/fatihtunali/whisper2-sub009/internal/metrics"
	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// Session is the resolved view of an active session.
type Session struct {
	Token     string
	WhisperID string
	DeviceID  string
	ExpiresAt time.Time
}

// Store is the session store: durable storage.SessionStore plus a
// read-through cache, swept by a background ticker the same way the
// teacher's Manager sweeps expired sessions.
type Store struct {
	backend  storage.Store
	registry *identity.Registry

	mu    sync.RWMutex
	cache map[string]*Session

	resolveGroup singleflight.Group

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

// New builds a Store backed by backend, checking identity status against
// registry on every resolve.
func New(backend storage.Store, registry *identity.Registry, cleanupInterval time.Duration) *Store {
	if cleanupInterval <= 0 {
		cleanupInterval = 30 * time.Second
	}
	s := &Store{
		backend:       backend,
		registry:      registry,
		cache:         make(map[string]*Session),
		cleanupTicker: time.NewTicker(cleanupInterval),
		stopCleanup:   make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Issue mints a new ≥128-bit random token and stores {whisperId, deviceId,
// expiresAt}. Callers binding a new device must call RevokeAllFor first to
// enforce the single-active-device invariant (spec §4.2) — Issue itself
// only ever adds a session, it never displaces others.
func (s *Store) Issue(ctx context.Context, whisperID, deviceID string, ttl time.Duration) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	sess := &storage.Session{
		Token:        token,
		WhisperID:    whisperID,
		DeviceID:     deviceID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		LastActivity: now,
	}
	if err := s.backend.SessionStore().Create(ctx, sess); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cache[token] = &Session{Token: token, WhisperID: whisperID, DeviceID: deviceID, ExpiresAt: sess.ExpiresAt}
	s.mu.Unlock()

	metrics.SessionsIssued.Inc()
	return token, nil
}

// Resolve checks expiry and banned status atomically (spec §4.2): a session
// for a now-banned identity behaves as invalid. Returns *wire.Error(AUTH_FAILED)
// when the session is missing or expired, and *wire.Error(USER_BANNED) when
// the identity itself is banned (spec §8 property S-Ban).
func (s *Store) Resolve(ctx context.Context, token string) (*Session, error) {
	v, err, _ := s.resolveGroup.Do(token, func() (interface{}, error) {
		return s.resolve(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (s *Store) resolve(ctx context.Context, token string) (*Session, error) {
	s.mu.RLock()
	cached, ok := s.cache[token]
	s.mu.RUnlock()

	var sess *Session
	if ok && time.Now().Before(cached.ExpiresAt) {
		sess = cached
	} else {
		stored, err := s.backend.SessionStore().Get(ctx, token)
		if err != nil {
			return nil, wire.NewError(wire.ErrAuthFailed, "session not found or expired")
		}
		sess = &Session{Token: stored.Token, WhisperID: stored.WhisperID, DeviceID: stored.DeviceID, ExpiresAt: stored.ExpiresAt}
		s.mu.Lock()
		s.cache[token] = sess
		s.mu.Unlock()
	}

	id, err := s.registry.LookupKeys(ctx, sess.WhisperID)
	if err != nil {
		return nil, wire.NewError(wire.ErrAuthFailed, "identity is not active")
	}
	if id.Status == storage.IdentityBanned {
		return nil, wire.NewError(wire.ErrUserBanned, "identity is banned")
	}
	if id.Status != storage.IdentityActive {
		return nil, wire.NewError(wire.ErrAuthFailed, "identity is not active")
	}

	_ = s.backend.SessionStore().UpdateActivity(ctx, token)
	return sess, nil
}

// Refresh extends a session's expiry, returning a new token (monotonic
// expiresAt per spec.md's session invariant — issuing a fresh token keeps
// the "random index, no secret material" property simple to reason about).
func (s *Store) Refresh(ctx context.Context, token string, ttl time.Duration) (string, error) {
	sess, err := s.Resolve(ctx, token)
	if err != nil {
		return "", err
	}
	if err := s.Revoke(ctx, token); err != nil {
		return "", err
	}
	return s.Issue(ctx, sess.WhisperID, sess.DeviceID, ttl)
}

// Revoke invalidates a single token immediately.
func (s *Store) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.cache, token)
	s.mu.Unlock()
	if err := s.backend.SessionStore().Delete(ctx, token); err != nil && err != storage.ErrNotFound {
		return err
	}
	metrics.SessionsRevoked.WithLabelValues("logout").Inc()
	return nil
}

// RevokeAllFor invalidates every session for whisperID, called whenever a
// new device is bound (single-active-device) or an identity is banned.
func (s *Store) RevokeAllFor(ctx context.Context, whisperID string) (int64, error) {
	s.mu.Lock()
	for token, sess := range s.cache {
		if sess.WhisperID == whisperID {
			delete(s.cache, token)
		}
	}
	s.mu.Unlock()
	n, err := s.backend.SessionStore().DeleteForIdentity(ctx, whisperID)
	if err == nil && n > 0 {
		metrics.SessionsRevoked.WithLabelValues("re_register").Add(float64(n))
	}
	return n, err
}

// Close stops the background cleanup sweep.
func (s *Store) Close() {
	close(s.stopCleanup)
	s.cleanupTicker.Stop()
}

func (s *Store) cleanupLoop() {
	for {
		select {
		case <-s.cleanupTicker.C:
			s.sweep()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Store) sweep() {
	now := time.Now()
	s.mu.Lock()
	for token, sess := range s.cache {
		if now.After(sess.ExpiresAt) {
			delete(s.cache, token)
		}
	}
	s.mu.Unlock()
	_, _ = s.backend.SessionStore().DeleteExpired(context.Background())
}

func randomToken() (string, error) {
	buf := make([]byte, 20) // 160 bits, exceeds the ≥128-bit requirement
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
