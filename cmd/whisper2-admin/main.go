// Command whisper2-admin is the relay's operator CLI: ban/unban identities,
// inspect and revoke sessions, test-issue TURN credentials, and generate a
// throwaway client identity for manual protocol testing. Grounded on the
// teacher's cmd/sage-did-style single rootCmd-plus-subcommand-per-file cobra
// layout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "whisper2-admin",
	Short: "Whisper2 relay operator CLI",
	Long: `whisper2-admin performs out-of-band administrative operations
against a whisper2-server deployment's storage backend: banning and
unbanning identities, inspecting and revoking sessions, test-issuing TURN
credentials, and generating client identities for manual testing.`,
}

func main() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
