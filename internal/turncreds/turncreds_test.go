package turncreds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_IssueAndVerify(t *testing.T) {
	issuer := New([]byte("secret"), []string{"turn:turn.example.com:3478"}, 5*time.Minute)

	creds, err := issuer.Issue("WSP-AAAA-AAAA-AAAA", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(60), creds.TTL)
	assert.NotEmpty(t, creds.Username)
	assert.NotEmpty(t, creds.Credential)

	whisperID, err := issuer.Verify(creds.Credential)
	require.NoError(t, err)
	assert.Equal(t, "WSP-AAAA-AAAA-AAAA", whisperID)
}

func TestIssuer_ClampsTTLToMax(t *testing.T) {
	issuer := New([]byte("secret"), nil, 5*time.Minute)
	creds, err := issuer.Issue("WSP-AAAA-AAAA-AAAA", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(MaxTTL/time.Second), creds.TTL)
}

func TestIssuer_VerifyRejectsWrongSecret(t *testing.T) {
	issuer := New([]byte("secret"), nil, time.Minute)
	creds, err := issuer.Issue("WSP-AAAA-AAAA-AAAA", time.Minute)
	require.NoError(t, err)

	other := New([]byte("other-secret"), nil, time.Minute)
	_, err = other.Verify(creds.Credential)
	assert.Error(t, err)
}
