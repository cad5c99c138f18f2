package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethereumgo "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/klingon-exchange/dib-relay/internal/ledgeradapter"
	"github.com/klingon-exchange/dib-relay/internal/reason"
)

// receiptTimeout bounds how long submit waits for a receipt; running out
// of it is reported as reason.KindTimeout.
const receiptTimeout = 120 * time.Second

// submit builds, signs and sends a transaction carrying calldata to to,
// then waits for it to be mined and classifies the outcome. There's no
// abigen-generated bound contract behind this: both deployments are
// assumed to already exist on chain, so a plain *types.Transaction built
// from the packed calldata is all a call needs.
func (c *Client) submit(ctx context.Context, to common.Address, calldata []byte) ledgeradapter.SubmitResult {
	opts, err := c.Signer.TransactOpts()
	if err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum: %w", err)}
	}

	nonce, err := c.RPC.PendingNonceAt(ctx, c.Signer.Address)
	if err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum: fetch nonce: %w", err)}
	}
	gasTipCap, err := c.RPC.SuggestGasTipCap(ctx)
	if err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum: suggest gas tip: %w", err)}
	}
	head, err := c.RPC.HeaderByNumber(ctx, nil)
	if err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum: fetch head header: %w", err)}
	}
	gasFeeCap := new(big.Int).Add(gasTipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	msg := ethereumgo.CallMsg{From: c.Signer.Address, To: &to, Data: calldata}
	gasLimit, err := c.RPC.EstimateGas(ctx, msg)
	if err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum: estimate gas: %w", err)}
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.ChainID,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gasLimit,
		To:        &to,
		Data:      calldata,
	})

	signed, err := opts.Signer(c.Signer.Address, tx)
	if err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum: sign tx: %w", err)}
	}
	if err := c.RPC.SendTransaction(ctx, signed); err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum: send tx: %w", err)}
	}

	waitCtx, cancel := context.WithTimeout(ctx, receiptTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, c.RPC, signed)
	if err != nil {
		result := ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum: wait mined %s: %w", signed.Hash(), err)}
		if ctx.Err() == nil && waitCtx.Err() == context.DeadlineExceeded {
			result.Kind = reason.KindTimeout
		}
		return result
	}

	result := ledgeradapter.SubmitResult{
		TxHash: signed.Hash().Hex(),
		Block:  receipt.BlockNumber.Uint64(),
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		result.Status = true
	} else {
		result.Kind = reason.KindTransactionFailure
		result.Err = fmt.Errorf("ethereum: tx %s reverted", signed.Hash())
	}
	return result
}
