package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoaderOptions configures Load.
type LoaderOptions struct {
	// ConfigDir is the directory holding <environment>.yaml / default.yaml.
	ConfigDir string
	// Environment overrides automatic environment detection.
	Environment string
	// EnvFile is an optional dotenv file loaded before config resolution,
	// so ${VAR} substitution and the override layer can see its values.
	EnvFile string
}

// DefaultLoaderOptions matches the teacher's DefaultLoaderOptions shape.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{ConfigDir: "config", EnvFile: ".env"}
}

// Load resolves a Config in this order: the environment's YAML file (falling
// back to default.yaml, then an empty Config), built-in defaults for every
// field the file left zero, ${VAR} substitution, then direct environment
// variable overrides, which win over all earlier layers. Grounded on the
// teacher's config.Load layering.
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	if options.EnvFile != "" {
		_ = godotenv.Load(options.EnvFile)
	}

	env := options.Environment
	if env == "" {
		env = GetEnvironment()
	}

	cfg, err := loadConfigFile(filepath.Join(options.ConfigDir, env+".yaml"))
	if err != nil {
		cfg, err = loadConfigFile(filepath.Join(options.ConfigDir, "default.yaml"))
		if err != nil {
			cfg = &Config{}
		}
	}

	if cfg.Environment == "" {
		cfg.Environment = env
	}
	setDefaults(cfg)
	substituteEnvVarsInConfig(cfg)
	applyEnvironmentOverrides(cfg)

	return cfg, nil
}

// LoadFromFile loads and parses a single YAML config file without applying
// defaults, substitution, or overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func loadConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return LoadFromFile(path)
}

// MustLoad loads configuration or panics, for use in command entrypoints
// where a bad config is a fatal startup error.
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}
