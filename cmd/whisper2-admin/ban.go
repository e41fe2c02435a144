package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fatihtunali/whisper2-sub009/internal/identity"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

var banCmd = &cobra.Command{
	Use:   "ban <whisperId>",
	Short: "Set an identity's status to banned",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], storage.IdentityBanned)
	},
}

var unbanCmd = &cobra.Command{
	Use:   "unban <whisperId>",
	Short: "Restore a banned identity to active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], storage.IdentityActive)
	},
}

func init() {
	addStorageFlags(banCmd)
	addStorageFlags(unbanCmd)
	rootCmd.AddCommand(banCmd, unbanCmd)
}

func setStatus(cmd *cobra.Command, whisperID string, status storage.IdentityStatus) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	registry := identity.New(store)
	if err := registry.SetStatus(cmd.Context(), whisperID, status); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", whisperID, status)
	return nil
}
