package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fatihtunali/whisper2-sub009/internal/config"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage/memory"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage/postgres"
)

var (
	configDir string
	environ   string
)

func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configDir, "config-dir", "config", "directory holding <environment>.yaml")
	cmd.Flags().StringVar(&environ, "env", "", "environment name (overrides WHISPER2_ENV)")
}

// openStore loads the deployment's configuration and opens its storage
// backend directly, the same way whisper2-server's serve command does.
func openStore(ctx context.Context) (storage.Store, error) {
	cfg, err := config.Load(config.LoaderOptions{ConfigDir: configDir, Environment: environ})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	switch cfg.Storage.Backend {
	case "", "memory":
		return memory.NewStore(), nil
	case "postgres":
		return postgres.NewStore(ctx, &postgres.Config{
			Host:     cfg.Storage.Host,
			Port:     cfg.Storage.Port,
			User:     cfg.Storage.User,
			Password: cfg.Storage.Password,
			Database: cfg.Storage.Database,
			SSLMode:  cfg.Storage.SSLMode,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
