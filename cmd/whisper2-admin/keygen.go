package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fatihtunali/whisper2-sub009/internal/clientcrypto"
)

var keygenWords int

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a fresh client mnemonic and print its derived WhisperID and public keys",
	Long: `keygen exercises the same derivation chain a real client runs
(internal/clientcrypto): a fresh BIP39 mnemonic, the three HKDF sub-seeds it
stretches into, the resulting X25519/Ed25519 keypair, and the WhisperID that
falls out of the signing key. Useful for manually exercising register_begin
against a running relay without a full client.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entropyBits := clientcrypto.EntropyBits12Words
		if keygenWords == 24 {
			entropyBits = clientcrypto.EntropyBits24Words
		} else if keygenWords != 12 {
			return fmt.Errorf("--words must be 12 or 24")
		}

		mnemonic, err := clientcrypto.NewMnemonic(entropyBits)
		if err != nil {
			return fmt.Errorf("generate mnemonic: %w", err)
		}

		id, err := clientcrypto.DeriveIdentity(mnemonic, "")
		if err != nil {
			return fmt.Errorf("derive identity: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mnemonic:        %s\n", mnemonic)
		fmt.Fprintf(out, "whisperId:       %s\n", id.WhisperID)
		fmt.Fprintf(out, "encPublicKey:    %s\n", id.EncPublicKeyB64())
		fmt.Fprintf(out, "signPublicKey:   %s\n", id.SignPublicKeyB64())
		return nil
	},
}

func init() {
	keygenCmd.Flags().IntVar(&keygenWords, "words", 12, "mnemonic length: 12 or 24 words")
	rootCmd.AddCommand(keygenCmd)
}
