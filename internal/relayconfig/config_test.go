package relayconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaultsOnly(t *testing.T) {
	cfg, err := LoadConfig("", []string{
		"initiator=src",
		"responder=dst",
		"ledgers.src.type=eth",
		"ledgers.dst.type=eth",
	})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Service.ConfirmTransfer {
		t.Fatalf("expected default confirm_transfer=true")
	}
	if cfg.Service.TimeoutInitial != 30*time.Second {
		t.Fatalf("expected default timeout_initial=30s, got %v", cfg.Service.TimeoutInitial)
	}
	if cfg.Node.ID != 1 || cfg.Node.Count != 1 {
		t.Fatalf("expected default node id/count 1/1, got %d/%d", cfg.Node.ID, cfg.Node.Count)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dibd.yaml")
	yaml := `
service:
  timeout_initial: 10s
  seen_cache_size: 512
node:
  id: 2
  count: 3
  secret: "deadbeef"
initiator: src
responder: dst
ledgers:
  src:
    type: eth
    rpc_url: "http://localhost:8545"
    contract_address: "0x0000000000000000000000000000000000000001"
  dst:
    type: eth
    rpc_url: "http://localhost:8546"
    contract_address: "0x0000000000000000000000000000000000000002"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Node.ID != 2 || cfg.Node.Count != 3 {
		t.Fatalf("expected node id/count 2/3, got %d/%d", cfg.Node.ID, cfg.Node.Count)
	}
	if cfg.Service.TimeoutInitial != 10*time.Second {
		t.Fatalf("expected timeout_initial=10s, got %v", cfg.Service.TimeoutInitial)
	}
	section, ok := cfg.Ledgers["src"]
	if !ok || section.Type != LedgerEth {
		t.Fatalf("expected ledgers.src of type eth, got %+v, ok=%v", section, ok)
	}
}

func TestLoadConfigOverridesApplyInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dibd.yaml")
	yaml := `
node:
  id: 1
  count: 1
initiator: src
responder: dst
ledgers:
  src:
    type: eth
  dst:
    type: eth
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path, []string{"node.count=5", "node.id=3", "node.id=4"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Node.Count != 5 {
		t.Fatalf("expected node.count=5, got %d", cfg.Node.Count)
	}
	if cfg.Node.ID != 4 {
		t.Fatalf("expected last override to win (node.id=4), got %d", cfg.Node.ID)
	}
}

func TestValidateRejectsMissingLedgerSection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Initiator = "src"
	cfg.Responder = "dst"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for initiator/responder with no matching ledgers entry")
	}
}

func TestValidateRejectsNodeIDOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Node.Count = 2
	cfg.Node.ID = 3
	cfg.Initiator = "src"
	cfg.Responder = "dst"
	cfg.Ledgers["src"] = LedgerSection{Type: LedgerEth}
	cfg.Ledgers["dst"] = LedgerSection{Type: LedgerEth}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for node.id out of [1, node.count]")
	}
}

func TestSecretBytesRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Node.SecretHex = "deadbeef"
	secret, ok, err := cfg.SecretBytes()
	if err != nil {
		t.Fatalf("SecretBytes: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true for a set secret")
	}
	want := []byte{0xde, 0xad, 0xbe, 0xef}
	if len(secret) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(secret))
	}
	for i := range want {
		if secret[i] != want[i] {
			t.Fatalf("byte %d: got %x want %x", i, secret[i], want[i])
		}
	}
}

func TestSecretBytesUnset(t *testing.T) {
	cfg := DefaultConfig()
	_, ok, err := cfg.SecretBytes()
	if err != nil {
		t.Fatalf("SecretBytes: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false when node.secret is unset")
	}
}

func TestEthereumClientConfigRejectsNonEthSection(t *testing.T) {
	s := LedgerSection{Type: LedgerFabric}
	if _, err := s.EthereumClientConfig(); err == nil {
		t.Fatalf("expected error for a non-eth ledger section")
	}
}
