package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/klingon-exchange/dib-relay/internal/ledgeradapter"
)

// callMatcher decides whether tx, once recognized as a call to the right
// contract, is the specific call a historical scan is looking for.
type callMatcher func(selector string, args []byte) bool

// scanForCall walks backward from head looking for a mined transaction to
// contractAddr whose function selector callMatcher accepts, stopping once
// a block's timestamp falls before sinceTimestamp or the scan floor is
// reached, whichever comes first.
func (c *Client) scanForCall(ctx context.Context, contractAddr common.Address, sinceTimestamp int64, match callMatcher, selectorName func([]byte) string) (ledgeradapter.FunctionCall, error) {
	head, err := c.RPC.BlockNumber(ctx)
	if err != nil {
		return ledgeradapter.FunctionCall{}, fmt.Errorf("ethereum: fetch head: %w", err)
	}
	floor := c.scanFloor(head)

	for n := head; ; n-- {
		block, err := c.RPC.BlockByNumber(ctx, new(big.Int).SetUint64(n))
		if err != nil {
			return ledgeradapter.FunctionCall{}, fmt.Errorf("ethereum: fetch block %d: %w", n, err)
		}
		if int64(block.Time()) < sinceTimestamp {
			break
		}
		if call, ok := scanBlockForCall(block, contractAddr, match, selectorName); ok {
			return call, nil
		}
		if n <= floor || n == 0 {
			break
		}
	}
	return ledgeradapter.FunctionCall{Found: false}, nil
}

func scanBlockForCall(block *types.Block, contractAddr common.Address, match callMatcher, selectorName func([]byte) string) (ledgeradapter.FunctionCall, bool) {
	for _, tx := range block.Transactions() {
		to := tx.To()
		if to == nil || *to != contractAddr {
			continue
		}
		data := tx.Data()
		name := selectorName(data)
		if name == "" {
			continue
		}
		if !match(name, data) {
			continue
		}
		return ledgeradapter.FunctionCall{
			Found:  true,
			Block:  block.NumberU64(),
			TxHash: tx.Hash().Hex(),
			Func:   name,
		}, true
	}
	return ledgeradapter.FunctionCall{}, false
}
