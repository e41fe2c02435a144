// Command whisper2-server runs the relay: the WebSocket gateway, its HTTP
// control surface, and every background sweep loop the in-process
// components own. Grounded on the teacher's cmd/sage-did-style single
// rootCmd-plus-subcommands cobra layout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "whisper2-server",
	Short: "Whisper2 relay server",
	Long: `whisper2-server runs the Whisper2 end-to-end encrypted messenger's
server-side real-time relay: identity and device registry, session store,
envelope validation pipeline, fanout dispatcher, pending-message queue,
call signaling, attachment presigning, contact backup, and TURN credential
issuance, exposed over a WebSocket gateway plus a small HTTP control
surface.`,
}

func main() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
