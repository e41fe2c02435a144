// Package config loads the relay's runtime configuration from a YAML file,
// environment variable substitution, and direct environment overrides, in
// that order of increasing precedence. Shape and load order are grounded on
// the teacher's config.Load/SubstituteEnvVarsInConfig/applyEnvironmentOverrides
// layering, with the SAGE-specific schema (blockchain, DID, keystore)
// replaced by the relay's own sections.
package config

import "time"

// Config is the top-level configuration for whisper2-server.
type Config struct {
	Environment string          `yaml:"environment" json:"environment"`
	Server      ServerConfig    `yaml:"server" json:"server"`
	Storage     StorageConfig   `yaml:"storage" json:"storage"`
	Session     SessionConfig   `yaml:"session" json:"session"`
	RateLimit   RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Pending     PendingConfig   `yaml:"pending" json:"pending"`
	Attachments AttachConfig    `yaml:"attachments" json:"attachments"`
	TURN        TURNConfig      `yaml:"turn" json:"turn"`
	Logging     LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig   `yaml:"metrics" json:"metrics"`
	Health      HealthConfig    `yaml:"health" json:"health"`
}

// ServerConfig controls the WebSocket/HTTP listener.
type ServerConfig struct {
	ListenAddr     string   `yaml:"listen_addr" json:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// StorageConfig selects and parameterizes the storage.Store backend.
type StorageConfig struct {
	Backend  string `yaml:"backend" json:"backend"` // "memory" or "postgres"
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Database string `yaml:"database" json:"database"`
	SSLMode  string `yaml:"ssl_mode" json:"ssl_mode"`
}

// SessionConfig controls device-session lifetime and cleanup cadence.
type SessionConfig struct {
	TTL             time.Duration `yaml:"ttl" json:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// RateLimitConfig parameterizes the per-key token bucket limiter.
type RateLimitConfig struct {
	RatePerSecond   float64       `yaml:"rate_per_second" json:"rate_per_second"`
	Burst           int           `yaml:"burst" json:"burst"`
	IdleTTL         time.Duration `yaml:"idle_ttl" json:"idle_ttl"`
	SweepInterval   time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

// PendingConfig controls the offline-message queue's expiry sweep cadence.
type PendingConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

// AttachConfig controls the attachment presign ticket GC cadence.
type AttachConfig struct {
	GCInterval time.Duration `yaml:"gc_interval" json:"gc_interval"`
}

// TURNConfig parameterizes ephemeral TURN credential issuance.
type TURNConfig struct {
	SharedSecret string        `yaml:"shared_secret" json:"shared_secret"`
	URLs         []string      `yaml:"urls" json:"urls"`
	DefaultTTL   time.Duration `yaml:"default_ttl" json:"default_ttl"`
}

// LoggingConfig controls the structured logger's minimum level.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// MetricsConfig controls whether /metrics is mounted on the HTTP server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig controls the /health and /ready endpoints.
type HealthConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// setDefaults fills the zero-value fields every Config needs to boot, the
// same way the teacher's setDefaults does for its own sections.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8443"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Storage.SSLMode == "" {
		cfg.Storage.SSLMode = "require"
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 30 * 24 * time.Hour
	}
	if cfg.Session.CleanupInterval <= 0 {
		cfg.Session.CleanupInterval = time.Hour
	}
	if cfg.RateLimit.RatePerSecond <= 0 {
		cfg.RateLimit.RatePerSecond = 10
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 20
	}
	if cfg.RateLimit.IdleTTL <= 0 {
		cfg.RateLimit.IdleTTL = 10 * time.Minute
	}
	if cfg.RateLimit.SweepInterval <= 0 {
		cfg.RateLimit.SweepInterval = 5 * time.Minute
	}
	if cfg.Pending.SweepInterval <= 0 {
		cfg.Pending.SweepInterval = time.Hour
	}
	if cfg.Attachments.GCInterval <= 0 {
		cfg.Attachments.GCInterval = time.Hour
	}
	if cfg.TURN.DefaultTTL <= 0 {
		cfg.TURN.DefaultTTL = 5 * time.Minute
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
