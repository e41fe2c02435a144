package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fatihtunali/whisper2-sub009/internal/wire"
)

type presignUploadRequest struct {
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type presignUploadResponse struct {
	ObjectKey string `json:"objectKey"`
	UploadURL string `json:"uploadUrl"`
	ExpiresAt int64  `json:"expiresAt"`
}

// handlePresignUpload serves POST /attachments/presign/upload: the caller
// becomes objectKey's owner.
func (a *API) handlePresignUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, wire.ErrInvalidPayload, "method not allowed")
		return
	}
	sess := sessionFrom(r)

	var req presignUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, wire.ErrInvalidPayload, "malformed request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ticket, err := a.cfg.Attachments.PresignUpload(ctx, sess.WhisperID, req.ContentType, req.Size)
	if err != nil {
		writeErrFromErr(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, presignUploadResponse{
		ObjectKey: ticket.ObjectKey,
		UploadURL: ticket.UploadURL,
		ExpiresAt: ticket.ExpiresAt.UnixMilli(),
	})
}

type presignDownloadRequest struct {
	ObjectKey string `json:"objectKey"`
}

type presignDownloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// handlePresignDownload serves POST /attachments/presign/download: the
// caller must already hold a download grant (minted via a send_message
// referencing this attachment) or this returns FORBIDDEN.
func (a *API) handlePresignDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, wire.ErrInvalidPayload, "method not allowed")
		return
	}
	sess := sessionFrom(r)

	var req presignDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, wire.ErrInvalidPayload, "malformed request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	url, err := a.cfg.Attachments.PresignDownload(ctx, sess.WhisperID, req.ObjectKey)
	if err != nil {
		writeErrFromErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, presignDownloadResponse{DownloadURL: url})
}
