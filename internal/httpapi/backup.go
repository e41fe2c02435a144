package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/fatihtunali/whisper2-sub009/internal/wire"
)

// contactBackupRequest is the PUT /backup/contacts body.
type contactBackupRequest struct {
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// contactBackupResponse is the GET /backup/contacts body.
type contactBackupResponse struct {
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
	UpdatedAt  int64  `json:"updatedAt"`
}

// handleBackupContacts serves PUT/GET/DELETE /backup/contacts for the
// authenticated caller's own whisperId — the server never reads the blob it
// stores (spec §4.7: zero-knowledge backup).
func (a *API) handleBackupContacts(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodPut:
		var req contactBackupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, wire.ErrInvalidPayload, "malformed request body")
			return
		}
		nonce, err := base64.StdEncoding.DecodeString(req.Nonce)
		if err != nil {
			writeError(w, http.StatusBadRequest, wire.ErrInvalidPayload, "nonce is not valid base64")
			return
		}
		ciphertext, err := base64.StdEncoding.DecodeString(req.Ciphertext)
		if err != nil {
			writeError(w, http.StatusBadRequest, wire.ErrInvalidPayload, "ciphertext is not valid base64")
			return
		}
		if err := a.cfg.Backup.Put(ctx, sess.WhisperID, ciphertext, nonce); err != nil {
			writeErrFromErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodGet:
		backup, err := a.cfg.Backup.Get(ctx, sess.WhisperID)
		if err != nil {
			writeErrFromErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, contactBackupResponse{
			Nonce:      base64.StdEncoding.EncodeToString(backup.Nonce),
			Ciphertext: base64.StdEncoding.EncodeToString(backup.Blob),
			UpdatedAt:  backup.UpdatedAt.UnixMilli(),
		})

	case http.MethodDelete:
		if err := a.cfg.Backup.Delete(ctx, sess.WhisperID); err != nil {
			writeErrFromErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, wire.ErrInvalidPayload, "method not allowed")
	}
}
