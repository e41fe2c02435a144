package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fatihtunali/whisper2-sub009/internal/turncreds"
	"github.com/fatihtunali/whisper2-sub009/internal/wire"
)

// handleTURNCredentials serves GET /turn/credentials?ttl=<seconds>, minting
// an ephemeral TURN credential bound to the caller's whisperId (spec §4.7).
func (a *API) handleTURNCredentials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, wire.ErrInvalidPayload, "method not allowed")
		return
	}
	sess := sessionFrom(r)

	ttl := time.Duration(0)
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			writeError(w, http.StatusBadRequest, wire.ErrInvalidPayload, "ttl must be a positive integer number of seconds")
			return
		}
		ttl = time.Duration(seconds) * time.Second
	}
	if ttl > turncreds.MaxTTL {
		ttl = turncreds.MaxTTL
	}

	creds, err := a.cfg.TURN.Issue(sess.WhisperID, ttl)
	if err != nil {
		writeErrFromErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, creds)
}
