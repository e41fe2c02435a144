package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/fatihtunali/whisper2-sub009/internal/wire"
)

// statusFor maps a wire.ErrorCode to the HTTP status spec §6 assigns it.
func statusFor(code wire.ErrorCode) int {
	switch code {
	case wire.ErrInvalidPayload, wire.ErrInvalidTimestamp:
		return http.StatusBadRequest
	case wire.ErrAuthFailed, wire.ErrNotRegistered:
		return http.StatusUnauthorized
	case wire.ErrForbidden, wire.ErrUserBanned:
		return http.StatusForbidden
	case wire.ErrNotFound:
		return http.StatusNotFound
	case wire.ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeErrFromErr translates any error into the {code, message} JSON body
// and status code spec §6's error envelope requires, defaulting unrecognized
// errors to a 500 INTERNAL_ERROR rather than leaking internals.
func writeErrFromErr(w http.ResponseWriter, err error) {
	payload := wire.AsErrorPayload(err, "")
	writeError(w, statusFor(payload.Code), payload.Code, payload.Message)
}

func writeError(w http.ResponseWriter, status int, code wire.ErrorCode, message string) {
	writeJSON(w, status, wire.ErrorPayload{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
