// Package clientcrypto is a test/interop reference implementation of the
// client-side key derivation spec.md §6 requires every client to reproduce
// bit-exact, plus the envelope encryption clients use over the wire. The
// relay server never imports this package for anything it does on an
// authenticated connection — identities are opaque key triples to it (see
// internal/identity) — but integration tests and the whisper2-admin
// `keygen` helper use it to act as a real client end to end.
package clientcrypto

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"io"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"
)

// EntropyBits selects a 12-word (128-bit) or 24-word (256-bit) mnemonic.
const (
	EntropyBits12Words = 128
	EntropyBits24Words = 256
)

// NewMnemonic generates a fresh BIP39 mnemonic at the given entropy size.
func NewMnemonic(entropyBits int) (string, error) {
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("clientcrypto: generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("clientcrypto: build mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidMnemonic reports whether mnemonic is a well-formed BIP39 phrase.
func ValidMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

const hkdfSalt = "whisper"

// subSeeds derives the three 32-byte domain-separated sub-seeds from the
// PBKDF2-stretched mnemonic seed (spec §6): encryption, signing, contacts.
// go-bip39's Seed already performs PBKDF2-HMAC-SHA512 over the NFKD-normalized
// mnemonic with salt "mnemonic"+passphrase at 2048 iterations, dkLen 64 —
// exactly the stretch spec.md §6 names.
func subSeeds(mnemonic, passphrase string) (encryption, signing, contacts [32]byte, err error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		err = fmt.Errorf("clientcrypto: invalid mnemonic")
		return
	}
	seed := bip39.NewSeed(mnemonic, passphrase)

	for info, dst := range map[string]*[32]byte{
		"encryption": &encryption,
		"signing":    &signing,
		"contacts":   &contacts,
	} {
		reader := hkdf.New(sha256.New, seed, []byte(hkdfSalt), []byte(info))
		if _, rerr := io.ReadFull(reader, dst[:]); rerr != nil {
			err = fmt.Errorf("clientcrypto: derive %s sub-seed: %w", info, rerr)
			return
		}
	}
	return
}

// whisperIDEncoding is RFC 4648 base32 without padding, matching the
// external WhisperID alphabet (spec §6): [A-Z2-7].
var whisperIDEncoding = base32.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZ234567").WithPadding(base32.NoPadding)

// DeriveWhisperID computes the deterministic WSP-XXXX-XXXX-XXXX label for a
// signing public key: the first 8 bytes of SHA-256(signPub), base32-encoded
// and grouped in 4s. Stable across reinstalls on the same mnemonic, since
// signPub is itself deterministic from the mnemonic (spec.md §6).
func DeriveWhisperID(signPub []byte) string {
	digest := sha256.Sum256(signPub)
	encoded := whisperIDEncoding.EncodeToString(digest[:8])[:12]
	return fmt.Sprintf("WSP-%s-%s-%s", encoded[0:4], encoded[4:8], encoded[8:12])
}
