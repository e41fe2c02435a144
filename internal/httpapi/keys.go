package httpapi

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/fatihtunali/whisper2-sub009/internal/logger"
	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// keysResponse is the JSON body of GET /users/:whisperId/keys.
type keysResponse struct {
	WhisperID     string `json:"whisperId"`
	EncPublicKey  string `json:"encPublicKey"`
	SignPublicKey string `json:"signPublicKey"`
	Status        string `json:"status"`
}

// handleUserKeys serves GET /users/:whisperId/keys, the identity lookup
// bearer-protected callers use to learn a peer's published keys before
// encrypting an envelope to them.
func (a *API) handleUserKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, wire.ErrInvalidPayload, "method not allowed")
		return
	}

	whisperID, ok := whisperIDFromKeysPath(r.URL.Path)
	if !ok {
		writeError(w, http.StatusBadRequest, wire.ErrInvalidPayload, "malformed path")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, err := a.cfg.Registry.LookupKeys(ctx, whisperID)
	if err != nil {
		writeErrFromErr(w, err)
		return
	}
	if id.Status == storage.IdentityBanned {
		// Lookups to banned identities are FORBIDDEN, not USER_BANNED — that
		// code is reserved for a banned caller's own frames/sessions.
		a.loggerFrom(r).Warn("denied key lookup for banned identity", logger.String("target", whisperID))
		writeError(w, http.StatusForbidden, wire.ErrForbidden, "identity is banned")
		return
	}

	writeJSON(w, http.StatusOK, keysResponse{
		WhisperID:     id.WhisperID,
		EncPublicKey:  base64.StdEncoding.EncodeToString(id.EncPublicKey),
		SignPublicKey: base64.StdEncoding.EncodeToString(id.SignPublicKey),
		Status:        string(id.Status),
	})
}

// whisperIDFromKeysPath extracts ":whisperId" from "/users/:whisperId/keys".
func whisperIDFromKeysPath(path string) (string, bool) {
	trimmed := strings.TrimPrefix(path, "/users/")
	if trimmed == path {
		return "", false
	}
	whisperID, rest, found := strings.Cut(trimmed, "/")
	if !found || rest != "keys" || whisperID == "" {
		return "", false
	}
	return whisperID, true
}
