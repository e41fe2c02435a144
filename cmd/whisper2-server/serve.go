package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fatihtunali/whisper2-sub009/internal/attachments"
	"github.com/fatihtunali/whisper2-sub009/internal/backup"
	"github.com/fatihtunali/whisper2-sub009/internal/config"
	"github.com/fatihtunali/whisper2-sub009/internal/dispatcher"
	"github.com/fatihtunali/whisper2-sub009/internal/gateway"
	"github.com/fatihtunali/whisper2-sub009/internal/groups"
	"github.com/fatihtunali/whisper2-sub009/internal/health"
	"github.com/fatihtunali/whisper2-sub009/internal/httpapi"
	"github.com/fatihtunali/whisper2-sub009/internal/identity"
	"github.com/fatihtunali/whisper2-sub009/internal/logger"
	"github.com/fatihtunali/whisper2-sub009/internal/pending"
	"github.com/fatihtunali/whisper2-sub009/internal/ratelimit"
	"github.com/fatihtunali/whisper2-sub009/internal/revocation"
	"github.com/fatihtunali/whisper2-sub009/internal/sessionstore"
	"github.com/fatihtunali/whisper2-sub009/internal/turncreds"
	"github.com/fatihtunali/whisper2-sub009/internal/validator"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage/memory"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage/postgres"
)

var (
	configDir string
	environ   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&configDir, "config-dir", "config", "directory holding <environment>.yaml")
	serveCmd.Flags().StringVar(&environ, "env", "", "environment name (overrides WHISPER2_ENV)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{ConfigDir: configDir, Environment: environ})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewLogger(os.Stdout, parseLevel(cfg.Logging.Level))
	log.Info("starting whisper2-server", logger.String("environment", cfg.Environment), logger.String("listenAddr", cfg.Server.ListenAddr))

	store, err := openStorage(cmd.Context(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	revokeBus := newRevocationBus(store)

	registry := identity.New(store)
	registry.SetBus(revokeBus)
	sessions := sessionstore.New(store, registry, cfg.Session.CleanupInterval)
	groupMgr := groups.New(store)
	limiter := ratelimit.New(
		ratelimit.Limits{RatePerSecond: cfg.RateLimit.RatePerSecond, Burst: cfg.RateLimit.Burst},
		cfg.RateLimit.IdleTTL, cfg.RateLimit.SweepInterval,
	)
	val := validator.New(sessions, registry, groupMgr, limiter)
	pendingQueue := pending.New(store, cfg.Pending.SweepInterval)
	attachMgr := attachments.New(store, cfg.Attachments.GCInterval)
	backupStore := backup.New(store)
	turnIssuer := turncreds.New([]byte(cfg.TURN.SharedSecret), cfg.TURN.URLs, cfg.TURN.DefaultTTL)
	checker := health.NewChecker(store, cfg.Storage.Backend)

	hub := gateway.New(gateway.Config{
		Registry:      registry,
		Sessions:      sessions,
		Validator:     val,
		Pending:       pendingQueue,
		Attachments:   attachMgr,
		SessionTTL:    cfg.Session.TTL,
		CheckOrigin:   allowedOriginChecker(cfg.Server.AllowedOrigins),
		Logger:        log,
		RevocationBus: revokeBus,
	})
	disp := dispatcher.New(pendingQueue, groupMgr, hub)
	hub.SetDispatcher(disp)

	api := httpapi.New(httpapi.Config{
		Sessions:    sessions,
		Registry:    registry,
		Backup:      backupStore,
		Attachments: attachMgr,
		TURN:        turnIssuer,
		Health:      checker,
		MetricsPath: cfg.Metrics.Path,
		Logger:      log,
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler())
	mux.Handle("/", api.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", cfg.Server.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-sigCh:
		log.Info("shutting down", logger.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown did not complete cleanly", logger.Error(err))
	}

	hub.Close()
	sessions.Close()
	pendingQueue.Close()
	limiter.Close()
	attachMgr.Close()
	_ = revokeBus.Close()
	if err := store.Close(); err != nil {
		log.Warn("storage close failed", logger.Error(err))
	}

	return nil
}

// newRevocationBus picks the ban fan-out transport matching the storage
// backend: a PostgresBus (LISTEN/NOTIFY) when multiple whisper2-server
// processes might share one database, a MemoryBus otherwise. Either way
// identity.Registry publishes to it and gateway.Hub subscribes to it, so a
// ban force-closes the target's live socket within spec §8's S-Ban bound.
func newRevocationBus(store storage.Store) revocation.Bus {
	if pg, ok := store.(*postgres.Store); ok {
		return revocation.NewPostgresBus(pg.Pool())
	}
	return revocation.NewMemoryBus()
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return memory.NewStore(), nil
	case "postgres":
		return postgres.NewStore(ctx, &postgres.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Database: cfg.Database,
			SSLMode:  cfg.SSLMode,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func allowedOriginChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func parseLevel(level string) logger.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return logger.DebugLevel
	case "WARN":
		return logger.WarnLevel
	case "ERROR":
		return logger.ErrorLevel
	case "FATAL":
		return logger.FatalLevel
	default:
		return logger.InfoLevel
	}
}
