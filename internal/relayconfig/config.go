// Package relayconfig loads dibd's configuration: compiled-in defaults,
// layered with an optional YAML file, layered with positional
// section.key=value overrides applied in argument order.
package relayconfig

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/klingon-exchange/dib-relay/internal/duty"
	"github.com/klingon-exchange/dib-relay/internal/ethereum"
	"github.com/klingon-exchange/dib-relay/internal/relay"
)

// LedgerType names which adapter a ledger section routes to. Only "eth" is
// wired to a concrete adapter; the rest are accepted so a deployment's
// config can name its intended topology ahead of the adapter existing.
type LedgerType string

const (
	LedgerEth     LedgerType = "eth"
	LedgerKSI     LedgerType = "ksi"
	LedgerFabric  LedgerType = "fabric"
	LedgerIndy    LedgerType = "indy"
	LedgerLocal   LedgerType = "local"
)

// ServiceConfig holds the relay engine's process-wide knobs.
type ServiceConfig struct {
	ConfirmTransfer     bool          `mapstructure:"confirm_transfer"`
	TimeoutEnabled      bool          `mapstructure:"timeout_enabled"`
	VerificationEnabled bool          `mapstructure:"verification_enabled"`
	SeenCacheSize       int           `mapstructure:"seen_cache_size"`
	TimeoutInitial      time.Duration `mapstructure:"timeout_initial"`
	TimeoutBackoff      float64       `mapstructure:"timeout_backoff"`
	RouteToFirstNode    bool          `mapstructure:"route_to_first_node"`
}

// NodeConfig holds this node's identity within the duty oracle's rotation
// and the shared secret used to derive transfer ids.
type NodeConfig struct {
	ID           int    `mapstructure:"id"`
	Count        int    `mapstructure:"count"`
	SecretHex    string `mapstructure:"secret"`
	StatusListen string `mapstructure:"status_listen"`
}

// UnlockSection mirrors ethereum.UnlockConfig in config-file shape.
type UnlockSection struct {
	Mode             string `mapstructure:"mode"`
	PrivateKeyHex    string `mapstructure:"private_key"`
	KeystorePath     string `mapstructure:"keystore_path"`
	KeystorePassword string `mapstructure:"keystore_password"`
	Address          string `mapstructure:"address"`
}

// LedgerSection is one [ledgers.<name>] block.
type LedgerSection struct {
	Type            LedgerType    `mapstructure:"type"`
	RPCURL          string        `mapstructure:"rpc_url"`
	ContractAddress string        `mapstructure:"contract_address"`
	MaxScanBlocks   uint64        `mapstructure:"max_scan_blocks"`
	Unlock          UnlockSection `mapstructure:"unlock"`
}

// Config is the fully resolved dibd configuration.
type Config struct {
	Service ServiceConfig            `mapstructure:"service"`
	Node    NodeConfig               `mapstructure:"node"`
	Ledgers map[string]LedgerSection `mapstructure:"ledgers"`

	// Initiator / Responder name which entries of Ledgers play each role.
	Initiator string `mapstructure:"initiator"`
	Responder string `mapstructure:"responder"`
}

// DefaultConfig returns compiled-in defaults matching the duty oracle and
// relay engine's own zero-value-unsafe fields.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			ConfirmTransfer:     true,
			TimeoutEnabled:      true,
			VerificationEnabled: true,
			SeenCacheSize:       1024,
			TimeoutInitial:      30 * time.Second,
			TimeoutBackoff:      2,
			RouteToFirstNode:    false,
		},
		Node: NodeConfig{
			ID:    1,
			Count: 1,
		},
		Ledgers: map[string]LedgerSection{},
	}
}

// LoadConfig reads defaults, then an optional YAML file at path (skipped if
// path is empty), then applies positional "section.key=value" overrides in
// order — last one wins, exactly like setting the key again later in a file
// would.
func LoadConfig(path string, overrides []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	def := DefaultConfig()
	setDefaults(v, def)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("relayconfig: read %s: %w", path, err)
		}
	}

	for _, o := range overrides {
		key, val, err := splitOverride(o)
		if err != nil {
			return nil, fmt.Errorf("relayconfig: override %q: %w", o, err)
		}
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("relayconfig: unmarshal: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("relayconfig: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("service.confirm_transfer", def.Service.ConfirmTransfer)
	v.SetDefault("service.timeout_enabled", def.Service.TimeoutEnabled)
	v.SetDefault("service.verification_enabled", def.Service.VerificationEnabled)
	v.SetDefault("service.seen_cache_size", def.Service.SeenCacheSize)
	v.SetDefault("service.timeout_initial", def.Service.TimeoutInitial)
	v.SetDefault("service.timeout_backoff", def.Service.TimeoutBackoff)
	v.SetDefault("service.route_to_first_node", def.Service.RouteToFirstNode)
	v.SetDefault("node.id", def.Node.ID)
	v.SetDefault("node.count", def.Node.Count)
}

// splitOverride parses "section.key=value", tolerating '=' inside value.
func splitOverride(o string) (key, value string, err error) {
	i := strings.IndexByte(o, '=')
	if i < 0 {
		return "", "", fmt.Errorf("missing '='")
	}
	key = strings.TrimSpace(o[:i])
	value = o[i+1:]
	if key == "" {
		return "", "", fmt.Errorf("empty key")
	}
	return key, value, nil
}

// Validate checks cross-field invariants LoadConfig's Unmarshal can't catch
// on its own.
func Validate(cfg *Config) error {
	if cfg.Node.Count < 1 {
		return fmt.Errorf("node.count must be >= 1")
	}
	if cfg.Node.ID < 1 || cfg.Node.ID > cfg.Node.Count {
		return fmt.Errorf("node.id must be in [1, node.count]")
	}
	if cfg.Service.TimeoutInitial <= 0 {
		return fmt.Errorf("service.timeout_initial must be positive")
	}
	if cfg.Service.TimeoutBackoff <= 1 {
		return fmt.Errorf("service.timeout_backoff must be > 1")
	}
	if cfg.Initiator == "" || cfg.Responder == "" {
		return fmt.Errorf("initiator and responder ledger names must both be set")
	}
	if _, ok := cfg.Ledgers[cfg.Initiator]; !ok {
		return fmt.Errorf("initiator %q has no matching [ledgers] entry", cfg.Initiator)
	}
	if _, ok := cfg.Ledgers[cfg.Responder]; !ok {
		return fmt.Errorf("responder %q has no matching [ledgers] entry", cfg.Responder)
	}
	return nil
}

// DutyConfig translates the resolved config into the duty oracle's input
// shape.
func (c *Config) DutyConfig() duty.Config {
	return duty.Config{
		NodeID:           c.Node.ID,
		NodeCount:        c.Node.Count,
		TimeoutInitial:   c.Service.TimeoutInitial,
		TimeoutBackoff:   c.Service.TimeoutBackoff,
		RouteToFirstNode: c.Service.RouteToFirstNode,
	}
}

// EngineConfig translates the resolved config into the relay engine's input
// shape.
func (c *Config) EngineConfig() relay.Config {
	return relay.Config{
		Duty:                c.DutyConfig(),
		ConfirmTransfer:     c.Service.ConfirmTransfer,
		TimeoutEnabled:      c.Service.TimeoutEnabled,
		VerificationEnabled: c.Service.VerificationEnabled,
		SeenCacheSize:       c.Service.SeenCacheSize,
	}
}

// EthereumClientConfig translates a named ledger section into
// ethereum.ClientConfig. It's an error to call this on a section whose Type
// isn't LedgerEth.
func (s LedgerSection) EthereumClientConfig() (ethereum.ClientConfig, error) {
	if s.Type != LedgerEth {
		return ethereum.ClientConfig{}, fmt.Errorf("ledger type %q is not %q", s.Type, LedgerEth)
	}
	return ethereum.ClientConfig{
		RPCURL:        s.RPCURL,
		MaxScanBlocks: s.MaxScanBlocks,
		Unlock: ethereum.UnlockConfig{
			Mode:             ethereum.UnlockMode(s.Unlock.Mode),
			PrivateKeyHex:    s.Unlock.PrivateKeyHex,
			KeystorePath:     s.Unlock.KeystorePath,
			KeystorePassword: s.Unlock.KeystorePassword,
			Address:          s.Unlock.Address,
		},
	}, nil
}

// SecretBytes decodes Node.SecretHex, or reports ok=false when unset.
func (c *Config) SecretBytes() (secret []byte, ok bool, err error) {
	if c.Node.SecretHex == "" {
		return nil, false, nil
	}
	b, err := hex.DecodeString(c.Node.SecretHex)
	if err != nil {
		return nil, false, fmt.Errorf("node.secret: %w", err)
	}
	return b, true, nil
}
