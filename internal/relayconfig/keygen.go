package relayconfig

import (
	"encoding/hex"
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// GenerateSecret produces a BIP-39 mnemonic and the hex-encoded 64-byte seed
// derived from it, so operators can generate and distribute a shared
// node.secret the same way a wallet seed is generated and backed up: the
// mnemonic is what gets written down, the seed is what goes in the config.
func GenerateSecret(passphrase string) (mnemonic, secretHex string, err error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", "", fmt.Errorf("relayconfig: generate entropy: %w", err)
	}
	mnemonic, err = bip39.NewMnemonic(entropy)
	if err != nil {
		return "", "", fmt.Errorf("relayconfig: generate mnemonic: %w", err)
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	return mnemonic, hex.EncodeToString(seed), nil
}
