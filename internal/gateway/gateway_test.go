package gateway

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/fatihtunali/whisper2-sub009/internal/attachments"
	"github.com/fatihtunali/whisper2-sub009/internal/canonical"
	"github.com/fatihtunali/whisper2-sub009/internal/dispatcher"
	"github.com/fatihtunali/whisper2-sub009/internal/groups"
	"github.com/fatihtunali/whisper2-sub009/internal/identity"
	"github.com/fatihtunali/whisper2-sub009/internal/pending"
	"github.com/fatihtunali/whisper2-sub009/internal/ratelimit"
	"github.com/fatihtunali/whisper2-sub009/internal/sessionstore"
	"github.com/fatihtunali/whisper2-sub009/internal/validator"
	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage/memory"
)

type testServer struct {
	hub    *Hub
	server *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	registry := identity.New(store)
	sessions := sessionstore.New(store, registry, time.Hour)
	groupMgr := groups.New(store)
	limiter := ratelimit.New(ratelimit.Limits{RatePerSecond: 1000, Burst: 1000}, time.Minute, time.Minute)
	val := validator.New(sessions, registry, groupMgr, limiter)
	pendingQueue := pending.New(store, time.Hour)
	attachMgr := attachments.New(store, time.Hour)

	hub := New(Config{
		Registry:    registry,
		Sessions:    sessions,
		Validator:   val,
		Pending:     pendingQueue,
		Attachments: attachMgr,
		SessionTTL:  time.Hour,
		CheckOrigin: func(r *http.Request) bool { return true },
	})
	hub.SetDispatcher(dispatcher.New(pendingQueue, groupMgr, hub))

	server := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		server.Close()
		hub.Close()
		sessions.Close()
		limiter.Close()
		pendingQueue.Close()
		attachMgr.Close()
	})
	return &testServer{hub: hub, server: server}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + ts.server.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

type registeredPeer struct {
	whisperID    string
	signPriv     ed25519.PrivateKey
	signPub      ed25519.PublicKey
	sessionToken string
}

// registerPeer drives the full register_begin/register_proof handshake over
// a live connection and returns the peer's keys and session token.
func registerPeer(t *testing.T, conn *websocket.Conn, whisperID string) registeredPeer {
	t.Helper()
	signPub, signPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	begin, err := wire.NewFrame(wire.TypeRegisterBegin, "r1", wire.RegisterBeginPayload{
		WhisperID:     whisperID,
		EncPublicKey:  base64.StdEncoding.EncodeToString(signPub),
		SignPublicKey: base64.StdEncoding.EncodeToString(signPub),
		DeviceID:      "device-1",
		Platform:      "ios",
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(begin))

	var challengeFrame wire.Frame
	require.NoError(t, conn.ReadJSON(&challengeFrame))
	require.Equal(t, wire.TypeRegisterChallenge, challengeFrame.Type)
	var challenge wire.RegisterChallengePayload
	require.NoError(t, challengeFrame.Decode(&challenge))

	rawChallenge, err := base64.StdEncoding.DecodeString(challenge.Challenge)
	require.NoError(t, err)
	digest := sha256.Sum256(rawChallenge)
	sig := ed25519.Sign(signPriv, digest[:])

	proof, err := wire.NewFrame(wire.TypeRegisterProof, "r2", wire.RegisterProofPayload{
		ChallengeID: challenge.ChallengeID,
		Signature:   base64.StdEncoding.EncodeToString(sig),
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(proof))

	var ackFrame wire.Frame
	require.NoError(t, conn.ReadJSON(&ackFrame))
	require.Equal(t, wire.TypeRegisterAck, ackFrame.Type)
	var ack wire.RegisterAckPayload
	require.NoError(t, ackFrame.Decode(&ack))
	require.True(t, ack.Success)

	return registeredPeer{whisperID: whisperID, signPriv: signPriv, signPub: signPub, sessionToken: ack.SessionToken}
}

func signEnvelope(priv ed25519.PrivateKey, msgType, messageID, from, to string, timestamp int64, nonceB64, cipherB64 string) string {
	sig := canonical.Sign(priv, canonical.Fields{
		MsgType: msgType, MessageID: messageID, From: from, To: to,
		Timestamp: strconv.FormatInt(timestamp, 10), NonceB64: nonceB64, CipherB64: cipherB64,
	})
	return base64.StdEncoding.EncodeToString(sig)
}

func TestHandshake_RegisterAndAuthenticate(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)
	defer conn.Close()

	peer := registerPeer(t, conn, "WSP-AAAA-AAAA-AAAA")
	require.NotEmpty(t, peer.sessionToken)
}

func TestSendMessage_DeliversLiveToOnlineRecipient(t *testing.T) {
	ts := newTestServer(t)

	aliceConn := ts.dial(t)
	defer aliceConn.Close()
	alice := registerPeer(t, aliceConn, "WSP-AAAA-AAAA-AAAA")

	bobConn := ts.dial(t)
	defer bobConn.Close()
	bob := registerPeer(t, bobConn, "WSP-BBBB-BBBB-BBBB")

	now := time.Now().UnixMilli()
	sig := signEnvelope(alice.signPriv, "text", "msg-1", alice.whisperID, bob.whisperID, now, "nonce", "ciphertext")

	send, err := wire.NewFrame(wire.TypeSendMessage, "s1", wire.SendMessagePayload{
		SignedEnvelope: wire.SignedEnvelope{
			ProtocolVersion: 1, CryptoVersion: 1, SessionToken: alice.sessionToken,
			From: alice.whisperID, To: bob.whisperID, Timestamp: now,
			Nonce: "nonce", Ciphertext: "ciphertext", Sig: sig,
		},
		MessageID: "msg-1", MsgType: wire.MsgText,
	})
	require.NoError(t, err)
	require.NoError(t, aliceConn.WriteJSON(send))

	// Live delivery to bob acks the envelope and notifies alice before the
	// dispatcher returns, so message_delivered precedes message_accepted.
	var delivered wire.Frame
	require.NoError(t, aliceConn.ReadJSON(&delivered))
	require.Equal(t, wire.TypeMessageDelivered, delivered.Type)

	var accepted wire.Frame
	require.NoError(t, aliceConn.ReadJSON(&accepted))
	require.Equal(t, wire.TypeMessageAccepted, accepted.Type)

	var received wire.Frame
	require.NoError(t, bobConn.ReadJSON(&received))
	require.Equal(t, wire.TypeMessageReceived, received.Type)
	var payload wire.MessageReceivedPayload
	require.NoError(t, received.Decode(&payload))
	require.Equal(t, "msg-1", payload.MessageID)
}
