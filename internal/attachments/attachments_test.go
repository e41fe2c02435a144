package attachments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage/memory"
)

func TestManager_PresignUploadThenGrantThenDownload(t *testing.T) {
	m := New(memory.NewStore(), time.Hour)
	defer m.Close()
	ctx := context.Background()

	ticket, err := m.PresignUpload(ctx, "WSP-AAAA-AAAA-AAAA", "image/png", 1024)
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.ObjectKey)

	require.NoError(t, m.GrantAccess(ctx, ticket.ObjectKey, "WSP-AAAA-AAAA-AAAA", "WSP-BBBB-BBBB-BBBB"))

	url, err := m.PresignDownload(ctx, "WSP-BBBB-BBBB-BBBB", ticket.ObjectKey)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestManager_PresignDownload_RejectsWithoutGrant(t *testing.T) {
	m := New(memory.NewStore(), time.Hour)
	defer m.Close()
	ctx := context.Background()

	ticket, err := m.PresignUpload(ctx, "WSP-AAAA-AAAA-AAAA", "image/png", 1024)
	require.NoError(t, err)

	_, err = m.PresignDownload(ctx, "WSP-CCCC-CCCC-CCCC", ticket.ObjectKey)
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrForbidden, werr.Code)
}

func TestManager_GrantAccess_RejectsNonOwner(t *testing.T) {
	m := New(memory.NewStore(), time.Hour)
	defer m.Close()
	ctx := context.Background()

	ticket, err := m.PresignUpload(ctx, "WSP-AAAA-AAAA-AAAA", "image/png", 1024)
	require.NoError(t, err)

	err = m.GrantAccess(ctx, ticket.ObjectKey, "WSP-ZZZZ-ZZZZ-ZZZZ", "WSP-BBBB-BBBB-BBBB")
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrForbidden, werr.Code)
}
