// Package ethereum provides the concrete Ethereum/EVM ledger adapter: an
// Initiator bound to a source-chain contract and a Responder bound to a
// destination-chain contract, both built on ethclient and go-ethereum's
// transaction-signing helpers.
package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/klingon-exchange/dib-relay/pkg/logging"
)

// ClientConfig configures a connection to one Ethereum-compatible chain.
type ClientConfig struct {
	RPCURL string

	// MaxScanBlocks caps how far GetInterledgerCommitTx-style historical
	// scans walk backward from head. Zero means no ceiling.
	MaxScanBlocks uint64

	Unlock UnlockConfig
}

// Client wraps an ethclient connection with the chain id and signer this
// adapter needs on every call, resolved once at dial time.
type Client struct {
	RPC     *ethclient.Client
	ChainID *big.Int
	Signer  *Signer

	maxScanBlocks uint64
	log           *logging.Logger

	// cursor is the last block number scanned by ListenForEvents, which
	// advances it to the current head on each call. MonitorConfirmations
	// keeps its own cursor on the Initiator.
	cursor uint64
}

// Dial connects to an RPC endpoint and resolves chain id and signer.
func Dial(ctx context.Context, cfg ClientConfig, component string) (*Client, error) {
	rpc, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("ethereum: dial %s: %w", cfg.RPCURL, err)
	}
	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("ethereum: fetch chain id: %w", err)
	}
	signer, err := NewSigner(cfg.Unlock, chainID)
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("ethereum: configure signer: %w", err)
	}

	head, err := rpc.BlockNumber(ctx)
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("ethereum: fetch head block: %w", err)
	}

	return &Client{
		RPC:           rpc,
		ChainID:       chainID,
		Signer:        signer,
		maxScanBlocks: cfg.MaxScanBlocks,
		log:           logging.GetDefault().Component(component),
		cursor:        head,
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.RPC.Close()
}

// scanFloor returns the lowest block number a backward historical scan may
// reach, given the current head and this client's MaxScanBlocks ceiling.
func (c *Client) scanFloor(head uint64) uint64 {
	if c.maxScanBlocks == 0 || head < c.maxScanBlocks {
		return 0
	}
	return head - c.maxScanBlocks
}
