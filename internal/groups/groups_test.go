package groups

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage/memory"
)

func TestManager_CreateAndMembership(t *testing.T) {
	m := New(memory.NewStore())
	ctx := context.Background()

	group, err := m.Create(ctx, "Friends", "WSP-OWNR-OWNR-OWNR")
	require.NoError(t, err)

	ok, err := m.IsActiveMember(ctx, group.ID, "WSP-OWNR-OWNR-OWNR")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.AddMember(ctx, group.ID, "WSP-OWNR-OWNR-OWNR", "WSP-AAAA-AAAA-AAAA"))
	ok, err = m.IsActiveMember(ctx, group.ID, "WSP-AAAA-AAAA-AAAA")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManager_AddMember_RejectsNonManager(t *testing.T) {
	m := New(memory.NewStore())
	ctx := context.Background()

	group, err := m.Create(ctx, "Friends", "WSP-OWNR-OWNR-OWNR")
	require.NoError(t, err)
	require.NoError(t, m.AddMember(ctx, group.ID, "WSP-OWNR-OWNR-OWNR", "WSP-AAAA-AAAA-AAAA"))

	err = m.AddMember(ctx, group.ID, "WSP-AAAA-AAAA-AAAA", "WSP-BBBB-BBBB-BBBB")
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrForbidden, werr.Code)
}

func TestManager_SetRole_OnlyOwner(t *testing.T) {
	m := New(memory.NewStore())
	ctx := context.Background()

	group, err := m.Create(ctx, "Friends", "WSP-OWNR-OWNR-OWNR")
	require.NoError(t, err)
	require.NoError(t, m.AddMember(ctx, group.ID, "WSP-OWNR-OWNR-OWNR", "WSP-AAAA-AAAA-AAAA"))

	err = m.SetRole(ctx, group.ID, "WSP-AAAA-AAAA-AAAA", "WSP-AAAA-AAAA-AAAA", storage.RoleAdmin)
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrForbidden, werr.Code)

	require.NoError(t, m.SetRole(ctx, group.ID, "WSP-OWNR-OWNR-OWNR", "WSP-AAAA-AAAA-AAAA", storage.RoleAdmin))
}
