package canonical

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFields() Fields {
	return Fields{
		MsgType:   "text",
		MessageID: "msg-1",
		From:      "WSP-AAAA-AAAA-AAAA",
		To:        "WSP-BBBB-BBBB-BBBB",
		Timestamp: "1700000000",
		NonceB64:  "bm9uY2U",
		CipherB64: "Y2lwaGVydGV4dA",
	}
}

func TestBuild_Deterministic(t *testing.T) {
	f := testFields()
	a := Build(f)
	b := Build(f)
	assert.Equal(t, a, b)
	assert.Equal(t, "v1\ntext\nmsg-1\nWSP-AAAA-AAAA-AAAA\nWSP-BBBB-BBBB-BBBB\n1700000000\nbm9uY2U\nY2lwaGVydGV4dA\n", string(a))
}

func TestSignAndVerify_RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	f := testFields()
	sig := Sign(priv, f)

	require.NoError(t, Verify(pub, f, sig))
}

func TestVerify_RejectsTamperedField(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	f := testFields()
	sig := Sign(priv, f)

	f.CipherB64 = "dGFtcGVyZWQ"
	err = Verify(pub, f, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_RejectsBadKeyLength(t *testing.T) {
	err := Verify(ed25519.PublicKey([]byte{1, 2, 3}), testFields(), []byte("sig"))
	assert.Error(t, err)
}
