package indexd

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/sagarc03/sialo"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"
)

const appKeyDerivationTag = "sialo/app-key"

// DeriveAppKey derives the application key for appID from a BIP-39
// mnemonic. The same phrase and app id always yield the same key.
func DeriveAppKey(seedPhrase string, appID sialo.ObjectID) (sialo.AppKey, error) {
	mnemonic := strings.Join(strings.Fields(seedPhrase), " ")
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return sialo.AppKey{}, fmt.Errorf("%w: %v", ErrInvalidSeedPhrase, err)
	}

	h, err := blake2b.New256(seed)
	if err != nil {
		return sialo.AppKey{}, fmt.Errorf("derive app key: %w", err)
	}
	_, _ = h.Write([]byte(appKeyDerivationTag))
	_, _ = h.Write(appID[:])

	return sialo.AppKeyFromPrivateKey(ed25519.NewKeyFromSeed(h.Sum(nil)))
}

// NewSeedPhrase returns a fresh 12-word BIP-39 mnemonic.
func NewSeedPhrase() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return phrase, nil
}

// shardRoot is the content address of a shard.
func shardRoot(data []byte) sialo.ObjectID {
	return sialo.ObjectID(blake2b.Sum256(data))
}
