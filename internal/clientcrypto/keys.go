package clientcrypto

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
)

// Identity holds one client's full derived key material plus the WhisperID
// it maps to. Everything here is reconstructible from the mnemonic alone —
// nothing is persisted by this package.
type Identity struct {
	WhisperID string

	EncPriv *ecdh.PrivateKey
	EncPub  *ecdh.PublicKey

	SignPriv ed25519.PrivateKey
	SignPub  ed25519.PublicKey

	// ContactsKey is the symmetric key sealing the zero-knowledge contact
	// backup blob (internal/backup); the server never sees it.
	ContactsKey [32]byte
}

// DeriveIdentity runs the full spec §6 derivation chain from a mnemonic
// phrase and optional BIP39 passphrase: mnemonic -> PBKDF2 seed -> three
// HKDF sub-seeds -> X25519 encryption keypair + Ed25519 signing keypair +
// symmetric contacts key, and computes the resulting WhisperID.
func DeriveIdentity(mnemonic, passphrase string) (*Identity, error) {
	encSeed, signSeed, contactsKey, err := subSeeds(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}

	encPriv, err := ecdh.X25519().NewPrivateKey(encSeed[:])
	if err != nil {
		return nil, fmt.Errorf("clientcrypto: derive X25519 key: %w", err)
	}

	signPriv := ed25519.NewKeyFromSeed(signSeed[:])
	signPub := signPriv.Public().(ed25519.PublicKey)

	return &Identity{
		WhisperID:   DeriveWhisperID(signPub),
		EncPriv:     encPriv,
		EncPub:      encPriv.PublicKey(),
		SignPriv:    signPriv,
		SignPub:     signPub,
		ContactsKey: contactsKey,
	}, nil
}

// EncPublicKeyB64 and SignPublicKeyB64 are the base64 forms the register_begin
// frame carries on the wire (spec §6: "keys are always represented base64 on
// the wire").
func (id *Identity) EncPublicKeyB64() string {
	return base64.StdEncoding.EncodeToString(id.EncPub.Bytes())
}

func (id *Identity) SignPublicKeyB64() string {
	return base64.StdEncoding.EncodeToString(id.SignPub)
}
