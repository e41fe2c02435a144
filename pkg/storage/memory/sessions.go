package memory

import (
	"context"
	"time"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// SessionStore implements storage.SessionStore.
type SessionStore struct {
	store *Store
}

func (s *SessionStore) Create(ctx context.Context, session *storage.Session) error {
	s.store.sessionsMu.Lock()
	defer s.store.sessionsMu.Unlock()

	cp := *session
	s.store.sessions[session.Token] = &cp
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*storage.Session, error) {
	s.store.sessionsMu.RLock()
	defer s.store.sessionsMu.RUnlock()

	session, exists := s.store.sessions[token]
	if !exists {
		return nil, storage.ErrNotFound
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, storage.ErrNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *SessionStore) UpdateActivity(ctx context.Context, token string) error {
	s.store.sessionsMu.Lock()
	defer s.store.sessionsMu.Unlock()

	session, exists := s.store.sessions[token]
	if !exists {
		return storage.ErrNotFound
	}
	session.LastActivity = time.Now()
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	s.store.sessionsMu.Lock()
	defer s.store.sessionsMu.Unlock()

	if _, exists := s.store.sessions[token]; !exists {
		return storage.ErrNotFound
	}
	delete(s.store.sessions, token)
	return nil
}

func (s *SessionStore) DeleteForIdentity(ctx context.Context, whisperID string) (int64, error) {
	s.store.sessionsMu.Lock()
	defer s.store.sessionsMu.Unlock()

	var count int64
	for token, session := range s.store.sessions {
		if session.WhisperID == whisperID {
			delete(s.store.sessions, token)
			count++
		}
	}
	return count, nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.store.sessionsMu.Lock()
	defer s.store.sessionsMu.Unlock()

	now := time.Now()
	var count int64
	for token, session := range s.store.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.store.sessions, token)
			count++
		}
	}
	return count, nil
}

func (s *SessionStore) Count(ctx context.Context) (int64, error) {
	s.store.sessionsMu.RLock()
	defer s.store.sessionsMu.RUnlock()

	now := time.Now()
	var count int64
	for _, session := range s.store.sessions {
		if now.Before(session.ExpiresAt) {
			count++
		}
	}
	return count, nil
}
