package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fatihtunali/whisper2-sub009/internal/identity"
	"github.com/fatihtunali/whisper2-sub009/internal/sessionstore"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage issued sessions",
}

var sessionsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the total number of active sessions in storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.SessionStore().Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("count sessions: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

var sessionsRevokeCmd = &cobra.Command{
	Use:   "revoke <whisperId>",
	Short: "Revoke every session issued to an identity, forcing re-registration on all devices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		registry := identity.New(store)
		sessions := sessionstore.New(store, registry, 0)
		defer sessions.Close()

		n, err := sessions.RevokeAllFor(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked %d session(s) for %s\n", n, args[0])
		return nil
	},
}

func init() {
	addStorageFlags(sessionsCountCmd)
	addStorageFlags(sessionsRevokeCmd)
	sessionsCmd.AddCommand(sessionsCountCmd, sessionsRevokeCmd)
	rootCmd.AddCommand(sessionsCmd)
}
