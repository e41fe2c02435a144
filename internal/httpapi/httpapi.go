// Package httpapi exposes the relay's HTTP surface (spec §6): unauthenticated
// health/metrics probes plus the bearer-token-protected identity lookup,
// contact-backup, attachment-presign, and TURN-credential endpoints. Routing
// is a plain http.ServeMux, grounded on the teacher's pkg/health.Server and
// cmd/test-server's HTTP control-plane shape — the teacher never reaches for
// a router package for any of its HTTP surfaces, so neither does this one.
package httpapi

import (
	"net/http"
	"time"

	"github.com/fatihtunali/whisper2-sub009/internal/attachments"
	"github.com/fatihtunali/whisper2-sub009/internal/backup"
	"github.com/fatihtunali/whisper2-sub009/internal/health"
	"github.com/fatihtunali/whisper2-sub009/internal/identity"
	"github.com/fatihtunali/whisper2-sub009/internal/logger"
	"github.com/fatihtunali/whisper2-sub009/internal/metrics"
	"github.com/fatihtunali/whisper2-sub009/internal/sessionstore"
	"github.com/fatihtunali/whisper2-sub009/internal/turncreds"
)

// Config bundles every component the HTTP surface fronts.
type Config struct {
	Sessions    *sessionstore.Store
	Registry    *identity.Registry
	Backup      *backup.Store
	Attachments *attachments.Manager
	TURN        *turncreds.Issuer
	Health      *health.Checker
	MetricsPath string
	Logger      logger.Logger
}

// API wires Config into a single http.Handler.
type API struct {
	cfg Config
	log logger.Logger
}

// New builds the API. MetricsPath defaults to "/metrics" when empty.
func New(cfg Config) *API {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefaultLogger()
	}
	return &API{cfg: cfg, log: log}
}

// Handler builds the full mux: unauthenticated probes first, then the
// bearer-protected routes behind authMiddleware.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	healthHandler := health.NewHandler(a.cfg.Health)
	mux.HandleFunc("/health", healthHandler.Live)
	mux.HandleFunc("/ready", healthHandler.Ready)
	mux.Handle(a.cfg.MetricsPath, metrics.Handler())
	mux.Handle(a.cfg.MetricsPath+"/prometheus", metrics.Handler())

	mux.Handle("/users/", a.auth(http.HandlerFunc(a.handleUserKeys)))
	mux.Handle("/backup/contacts", a.auth(http.HandlerFunc(a.handleBackupContacts)))
	mux.Handle("/attachments/presign/upload", a.auth(http.HandlerFunc(a.handlePresignUpload)))
	mux.Handle("/attachments/presign/download", a.auth(http.HandlerFunc(a.handlePresignDownload)))
	mux.Handle("/turn/credentials", a.auth(http.HandlerFunc(a.handleTURNCredentials)))

	return mux
}

// contextKey avoids collisions with other packages' context values.
type contextKey int

const (
	sessionContextKey contextKey = iota
	requestLoggerContextKey
)

// sessionFrom extracts the *sessionstore.Session a preceding auth call
// stashed in the request context.
func sessionFrom(r *http.Request) *sessionstore.Session {
	sess, _ := r.Context().Value(sessionContextKey).(*sessionstore.Session)
	return sess
}

// loggerFrom returns the per-request logger auth attached, already carrying
// the request id and (once resolved) the calling whisperId, falling back to
// the API's base logger for routes auth never ran on.
func (a *API) loggerFrom(r *http.Request) logger.Logger {
	if l, ok := r.Context().Value(requestLoggerContextKey).(logger.Logger); ok {
		return l
	}
	return a.log
}

const requestTimeout = 10 * time.Second
