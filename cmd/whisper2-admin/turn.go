package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fatihtunali/whisper2-sub009/internal/config"
	"github.com/fatihtunali/whisper2-sub009/internal/turncreds"
)

var turnTTL time.Duration

var turnTestIssueCmd = &cobra.Command{
	Use:   "turn-test-issue <whisperId>",
	Short: "Mint a TURN credential for whisperId using the deployment's configured shared secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.LoaderOptions{ConfigDir: configDir, Environment: environ})
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		issuer := turncreds.New([]byte(cfg.TURN.SharedSecret), cfg.TURN.URLs, cfg.TURN.DefaultTTL)
		creds, err := issuer.Issue(args[0], turnTTL)
		if err != nil {
			return fmt.Errorf("issue credential: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(creds)
	},
}

func init() {
	addStorageFlags(turnTestIssueCmd)
	turnTestIssueCmd.Flags().DurationVar(&turnTTL, "ttl", 0, "requested credential lifetime (defaults to the deployment's configured TTL, clamped to 600s)")
	rootCmd.AddCommand(turnTestIssueCmd)
}
