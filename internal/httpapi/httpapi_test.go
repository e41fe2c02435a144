package httpapi

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatihtunali/whisper2-sub009/internal/attachments"
	"github.com/fatihtunali/whisper2-sub009/internal/backup"
	"github.com/fatihtunali/whisper2-sub009/internal/health"
	"github.com/fatihtunali/whisper2-sub009/internal/identity"
	"github.com/fatihtunali/whisper2-sub009/internal/sessionstore"
	"github.com/fatihtunali/whisper2-sub009/internal/turncreds"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage/memory"
)

func newTestAPI(t *testing.T) (*API, *identity.Registry, *sessionstore.Store, string) {
	t.Helper()
	store := memory.NewStore()
	registry := identity.New(store)
	sessions := sessionstore.New(store, registry, time.Minute)
	t.Cleanup(sessions.Close)

	signPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	encPub := make([]byte, 32)
	whisperID := "WSP-AAAA-AAAA-AAAA"
	require.NoError(t, registry.CreateIdentity(t.Context(), whisperID, encPub, signPub))

	token, err := sessions.Issue(t.Context(), whisperID, "device-1", time.Hour)
	require.NoError(t, err)

	backupStore := backup.New(store)
	attachMgr := attachments.New(store, time.Hour)
	t.Cleanup(attachMgr.Close)
	turnIssuer := turncreds.New([]byte("test-secret"), []string{"turn:turn.example.com:3478"}, 5*time.Minute)
	checker := health.NewChecker(store, "memory")

	api := New(Config{
		Sessions:    sessions,
		Registry:    registry,
		Backup:      backupStore,
		Attachments: attachMgr,
		TURN:        turnIssuer,
		Health:      checker,
	})
	return api, registry, sessions, token
}

func TestHandler_Health_IsUnauthenticated(t *testing.T) {
	api, _, _, _ := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ProtectedRoute_RejectsMissingBearer(t *testing.T) {
	api, _, _, _ := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/turn/credentials", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_UserKeys_ReturnsPublishedKeys(t *testing.T) {
	api, _, _, token := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/users/WSP-AAAA-AAAA-AAAA/keys", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp keysResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "WSP-AAAA-AAAA-AAAA", resp.WhisperID)
	assert.NotEmpty(t, resp.EncPublicKey)
}

func TestHandler_BackupContacts_PutGetDeleteRoundTrip(t *testing.T) {
	api, _, _, token := newTestAPI(t)

	body, err := json.Marshal(contactBackupRequest{
		Nonce:      base64.StdEncoding.EncodeToString(make([]byte, 24)),
		Ciphertext: base64.StdEncoding.EncodeToString([]byte("encrypted-contacts")),
	})
	require.NoError(t, err)

	putReq := httptest.NewRequest(http.MethodPut, "/backup/contacts", bytes.NewReader(body))
	putReq.Header.Set("Authorization", "Bearer "+token)
	putRec := httptest.NewRecorder()
	api.Handler().ServeHTTP(putRec, putReq)
	require.Equal(t, http.StatusNoContent, putRec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/backup/contacts", nil)
	getReq.Header.Set("Authorization", "Bearer "+token)
	getRec := httptest.NewRecorder()
	api.Handler().ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)

	var resp contactBackupResponse
	require.NoError(t, json.NewDecoder(getRec.Body).Decode(&resp))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("encrypted-contacts")), resp.Ciphertext)

	delReq := httptest.NewRequest(http.MethodDelete, "/backup/contacts", nil)
	delReq.Header.Set("Authorization", "Bearer "+token)
	delRec := httptest.NewRecorder()
	api.Handler().ServeHTTP(delRec, delReq)
	assert.Equal(t, http.StatusNoContent, delRec.Code)
}

func TestHandler_AttachmentPresign_UploadThenRejectsDownloadWithoutGrant(t *testing.T) {
	api, _, _, token := newTestAPI(t)

	uploadBody, err := json.Marshal(presignUploadRequest{ContentType: "image/png", Size: 1024})
	require.NoError(t, err)
	uploadReq := httptest.NewRequest(http.MethodPost, "/attachments/presign/upload", bytes.NewReader(uploadBody))
	uploadReq.Header.Set("Authorization", "Bearer "+token)
	uploadRec := httptest.NewRecorder()
	api.Handler().ServeHTTP(uploadRec, uploadReq)
	require.Equal(t, http.StatusCreated, uploadRec.Code)

	var uploadResp presignUploadResponse
	require.NoError(t, json.NewDecoder(uploadRec.Body).Decode(&uploadResp))
	require.NotEmpty(t, uploadResp.ObjectKey)

	downloadBody, err := json.Marshal(presignDownloadRequest{ObjectKey: uploadResp.ObjectKey})
	require.NoError(t, err)
	downloadReq := httptest.NewRequest(http.MethodPost, "/attachments/presign/download", bytes.NewReader(downloadBody))
	downloadReq.Header.Set("Authorization", "Bearer "+token)
	downloadRec := httptest.NewRecorder()
	api.Handler().ServeHTTP(downloadRec, downloadReq)
	assert.Equal(t, http.StatusForbidden, downloadRec.Code)
}

func TestHandler_TURNCredentials_ClampsToMaxTTL(t *testing.T) {
	api, _, _, token := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/turn/credentials?ttl=999999", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var creds turncreds.Credentials
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&creds))
	assert.Equal(t, int64(turncreds.MaxTTL/time.Second), creds.TTL)
}
