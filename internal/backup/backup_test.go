package backup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage/memory"
)

func TestStore_PutGetDelete(t *testing.T) {
	s := New(memory.NewStore())
	ctx := context.Background()
	nonce := make([]byte, NonceSize)

	require.NoError(t, s.Put(ctx, "WSP-AAAA-AAAA-AAAA", []byte("ciphertext"), nonce))

	got, err := s.Get(ctx, "WSP-AAAA-AAAA-AAAA")
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext"), got.Blob)

	require.NoError(t, s.Delete(ctx, "WSP-AAAA-AAAA-AAAA"))
	_, err = s.Get(ctx, "WSP-AAAA-AAAA-AAAA")
	assert.Error(t, err)
}

func TestStore_Put_RejectsBadNonceSize(t *testing.T) {
	s := New(memory.NewStore())
	err := s.Put(context.Background(), "WSP-AAAA-AAAA-AAAA", []byte("ciphertext"), []byte("short"))
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrInvalidPayload, werr.Code)
}

func TestStore_Put_RejectsOversizedBlob(t *testing.T) {
	s := New(memory.NewStore())
	nonce := make([]byte, NonceSize)
	err := s.Put(context.Background(), "WSP-AAAA-AAAA-AAAA", make([]byte, MaxBlobSize+1), nonce)
	werr, ok := err.(*wire.Error)
	require.True(t, ok)
	assert.Equal(t, wire.ErrInvalidPayload, werr.Code)
}

func TestStore_Delete_NonexistentIsNoop(t *testing.T) {
	s := New(memory.NewStore())
	assert.NoError(t, s.Delete(context.Background(), "WSP-AAAA-AAAA-AAAA"))
}
