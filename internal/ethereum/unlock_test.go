package ethereum

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestNewSignerRawKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	cfg := UnlockConfig{Mode: UnlockRawKey, PrivateKeyHex: hex.EncodeToString(crypto.FromECDSA(key))}

	s, err := NewSigner(cfg, big.NewInt(1))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	if s.Address != crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatalf("expected signer address to match the key's derived address")
	}

	opts, err := s.TransactOpts()
	if err != nil {
		t.Fatalf("TransactOpts: %v", err)
	}
	if opts.From != s.Address {
		t.Fatalf("expected TransactOpts.From to match signer address")
	}
	if err := s.Lock(); err != nil {
		t.Fatalf("Lock should be a no-op for raw_key, got %v", err)
	}
}

func TestNewSignerExternalHasNoTransactOpts(t *testing.T) {
	cfg := UnlockConfig{Mode: UnlockExternal, Address: "0x1111111111111111111111111111111111111111"}
	s, err := NewSigner(cfg, big.NewInt(1))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	if _, err := s.TransactOpts(); err == nil {
		t.Fatalf("expected external mode to refuse TransactOpts")
	}
}

func TestNewSignerKeystore(t *testing.T) {
	dir := t.TempDir()
	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	acc, err := ks.ImportECDSA(key, "password123")
	if err != nil {
		t.Fatalf("ImportECDSA: %v", err)
	}

	cfg := UnlockConfig{
		Mode:             UnlockKeystore,
		KeystorePath:     dir,
		KeystorePassword: "password123",
		Address:          acc.Address.Hex(),
	}
	s, err := NewSigner(cfg, big.NewInt(1))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	opts, err := s.TransactOpts()
	if err != nil {
		t.Fatalf("TransactOpts: %v", err)
	}
	if opts.From != acc.Address {
		t.Fatalf("expected TransactOpts.From to match imported account")
	}
	if err := s.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
}

func TestNewSignerUnknownMode(t *testing.T) {
	if _, err := NewSigner(UnlockConfig{Mode: "bogus"}, big.NewInt(1)); err == nil {
		t.Fatalf("expected error for an unknown unlock mode")
	}
}
