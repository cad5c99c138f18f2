package ethereum

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// UnlockMode selects how a node authorizes outgoing transactions.
type UnlockMode string

const (
	// UnlockRawKey signs with a hex-encoded private key held in config.
	UnlockRawKey UnlockMode = "raw_key"
	// UnlockKeystore unlocks a go-ethereum keystore file with a password.
	UnlockKeystore UnlockMode = "keystore"
	// UnlockExternal holds only a sender address and no signing key.
	// TransactOpts returns an error in this mode, so every submission
	// through Client (CommitSending et al.) fails; there is no path that
	// submits without local signing.
	UnlockExternal UnlockMode = "external"
)

// UnlockConfig configures how a Client obtains transaction-signing
// authority.
type UnlockConfig struct {
	Mode UnlockMode

	// raw_key
	PrivateKeyHex string

	// keystore
	KeystorePath     string
	KeystorePassword string
	Address          string
}

// Signer produces *bind.TransactOpts for submitting transactions, or an
// error when its mode has no local signing key.
type Signer struct {
	Mode    UnlockMode
	Address common.Address

	key *ecdsa.PrivateKey
	ks  *keystore.KeyStore
	acc accounts.Account

	chainID *big.Int
}

// NewSigner builds a Signer from unlock configuration.
func NewSigner(cfg UnlockConfig, chainID *big.Int) (*Signer, error) {
	switch cfg.Mode {
	case UnlockRawKey:
		key, err := crypto.HexToECDSA(cfg.PrivateKeyHex)
		if err != nil {
			return nil, fmt.Errorf("unlock: parse private key: %w", err)
		}
		return &Signer{
			Mode:    UnlockRawKey,
			Address: crypto.PubkeyToAddress(key.PublicKey),
			key:     key,
			chainID: chainID,
		}, nil

	case UnlockKeystore:
		ks := keystore.NewKeyStore(cfg.KeystorePath, keystore.StandardScryptN, keystore.StandardScryptP)
		addr := common.HexToAddress(cfg.Address)
		acc, err := ks.Find(accounts.Account{Address: addr})
		if err != nil {
			return nil, fmt.Errorf("unlock: find keystore account %s: %w", cfg.Address, err)
		}
		if err := ks.Unlock(acc, cfg.KeystorePassword); err != nil {
			return nil, fmt.Errorf("unlock: unlock keystore account %s: %w", cfg.Address, err)
		}
		return &Signer{
			Mode:    UnlockKeystore,
			Address: addr,
			ks:      ks,
			acc:     acc,
			chainID: chainID,
		}, nil

	case UnlockExternal:
		return &Signer{
			Mode:    UnlockExternal,
			Address: common.HexToAddress(cfg.Address),
			chainID: chainID,
		}, nil

	default:
		return nil, fmt.Errorf("unlock: unknown mode %q", cfg.Mode)
	}
}

// TransactOpts returns authorization for submitting a transaction. It
// fails for UnlockExternal, which has no local signing authority.
func (s *Signer) TransactOpts() (*bind.TransactOpts, error) {
	switch s.Mode {
	case UnlockRawKey:
		return bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	case UnlockKeystore:
		return bind.NewKeyStoreTransactorWithChainID(s.ks, s.acc, s.chainID)
	default:
		return nil, fmt.Errorf("unlock: mode %q has no local signing authority", s.Mode)
	}
}

// Lock re-locks a keystore-backed signer. A no-op for the other modes.
func (s *Signer) Lock() error {
	if s.Mode != UnlockKeystore {
		return nil
	}
	return s.ks.Lock(s.acc.Address)
}
