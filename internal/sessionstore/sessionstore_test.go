package sessionstore

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatihtunali/whisper2-sub009/internal/identity"
	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage/memory"
)

func newTestRegistry(t *testing.T, whisperID string) *identity.Registry {
	t.Helper()
	backend := memory.NewStore()
	reg := identity.New(backend)
	encPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	signPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	require.NoError(t, reg.CreateIdentity(context.Background(), whisperID, encPub, signPub))
	return reg
}

func TestStore_IssueAndResolve(t *testing.T) {
	backend := memory.NewStore()
	reg := identity.New(backend)
	ctx := context.Background()
	encPub, _, _ := ed25519.GenerateKey(nil)
	signPub, _, _ := ed25519.GenerateKey(nil)
	require.NoError(t, reg.CreateIdentity(ctx, "WSP-AAAA-AAAA-AAAA", encPub, signPub))

	store := New(backend, reg, time.Hour)
	defer store.Close()

	token, err := store.Issue(ctx, "WSP-AAAA-AAAA-AAAA", "dev-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sess, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "WSP-AAAA-AAAA-AAAA", sess.WhisperID)
	assert.Equal(t, "dev-1", sess.DeviceID)
}

func TestStore_Resolve_BannedIdentityReturnsUserBanned(t *testing.T) {
	backend := memory.NewStore()
	reg := identity.New(backend)
	ctx := context.Background()
	encPub, _, _ := ed25519.GenerateKey(nil)
	signPub, _, _ := ed25519.GenerateKey(nil)
	require.NoError(t, reg.CreateIdentity(ctx, "WSP-AAAA-AAAA-AAAA", encPub, signPub))

	store := New(backend, reg, time.Hour)
	defer store.Close()

	token, err := store.Issue(ctx, "WSP-AAAA-AAAA-AAAA", "dev-1", time.Hour)
	require.NoError(t, err)

	require.NoError(t, reg.SetStatus(ctx, "WSP-AAAA-AAAA-AAAA", storage.IdentityBanned))

	_, err = store.Resolve(ctx, token)
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrUserBanned, werr.Code)
}

func TestStore_RevokeAllFor(t *testing.T) {
	reg := newTestRegistry(t, "WSP-AAAA-AAAA-AAAA")
	backend := reg // not used directly; storage comes via New below
	_ = backend

	st := New(memory.NewStore(), reg, time.Hour)
	defer st.Close()
	ctx := context.Background()

	tokenA, err := st.Issue(ctx, "WSP-AAAA-AAAA-AAAA", "dev-1", time.Hour)
	require.NoError(t, err)
	tokenB, err := st.Issue(ctx, "WSP-AAAA-AAAA-AAAA", "dev-2", time.Hour)
	require.NoError(t, err)

	count, err := st.RevokeAllFor(ctx, "WSP-AAAA-AAAA-AAAA")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = st.Resolve(ctx, tokenA)
	assert.Error(t, err)
	_, err = st.Resolve(ctx, tokenB)
	assert.Error(t, err)
}

func TestStore_Refresh_IssuesNewToken(t *testing.T) {
	reg := newTestRegistry(t, "WSP-AAAA-AAAA-AAAA")
	st := New(memory.NewStore(), reg, time.Hour)
	defer st.Close()
	ctx := context.Background()

	token, err := st.Issue(ctx, "WSP-AAAA-AAAA-AAAA", "dev-1", time.Hour)
	require.NoError(t, err)

	newToken, err := st.Refresh(ctx, token, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, token, newToken)

	_, err = st.Resolve(ctx, token)
	assert.Error(t, err)

	sess, err := st.Resolve(ctx, newToken)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", sess.DeviceID)
}
