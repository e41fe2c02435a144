package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} or ${VAR:default}, same substitution syntax
// the teacher's config.SubstituteEnvVars supports.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// SubstituteEnvVars replaces ${VAR} or ${VAR:default} with environment
// variable values, leaving the match's default (or empty string) when unset.
func SubstituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// substituteEnvVarsInConfig substitutes environment variables in a fixed
// set of string fields a deployment is likely to template: storage
// credentials, the TURN secret, and log level.
func substituteEnvVarsInConfig(cfg *Config) {
	cfg.Storage.Host = SubstituteEnvVars(cfg.Storage.Host)
	cfg.Storage.User = SubstituteEnvVars(cfg.Storage.User)
	cfg.Storage.Password = SubstituteEnvVars(cfg.Storage.Password)
	cfg.Storage.Database = SubstituteEnvVars(cfg.Storage.Database)
	cfg.TURN.SharedSecret = SubstituteEnvVars(cfg.TURN.SharedSecret)
	cfg.Logging.Level = SubstituteEnvVars(cfg.Logging.Level)
}

// GetEnvironment returns the current environment from WHISPER2_ENV, falling
// back to ENVIRONMENT and then "development".
func GetEnvironment() string {
	if env := os.Getenv("WHISPER2_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "development"
}

// applyEnvironmentOverrides lets a handful of operationally critical
// settings be overridden directly by environment variable regardless of
// what the config file says — the highest-precedence layer, mirroring the
// teacher's applyEnvironmentOverrides.
func applyEnvironmentOverrides(cfg *Config) {
	if addr := os.Getenv("WHISPER2_LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
	if backend := os.Getenv("WHISPER2_STORAGE_BACKEND"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if secret := os.Getenv("WHISPER2_TURN_SECRET"); secret != "" {
		cfg.TURN.SharedSecret = secret
	}
	if level := os.Getenv("WHISPER2_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
