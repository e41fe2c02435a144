package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fatihtunali/whisper2-sub009/internal/logger"
	"github.com/fatihtunali/whisper2-sub009/internal/wire"
)

// auth resolves the bearer session token carried by every protected route
// (spec §6: "bearer-token auth") and attaches the resolved session to the
// request context, rejecting with AUTH_FAILED on a missing or invalid token.
// Every outcome is logged against a per-request id so an operator can follow
// one call across the auth failure/success and the handler it reaches.
func (a *API) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLog := a.log.WithContext(logger.WithRequestID(r.Context(), uuid.NewString()))

		token := bearerToken(r)
		if token == "" {
			reqLog.Warn("rejected request with no bearer token", logger.String("path", r.URL.Path))
			writeError(w, http.StatusUnauthorized, wire.ErrAuthFailed, "missing bearer token")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		sess, err := a.cfg.Sessions.Resolve(ctx, token)
		if err != nil {
			reqLog.Warn("session resolve failed", logger.String("path", r.URL.Path), logger.Error(err))
			writeErrFromErr(w, err)
			return
		}

		reqLog = reqLog.WithContext(logger.WithWhisperID(ctx, sess.WhisperID))
		ctx = context.WithValue(ctx, requestLoggerContextKey, reqLog)
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionContextKey, sess)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}
