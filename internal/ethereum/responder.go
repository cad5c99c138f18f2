package ethereum

import (
	"context"
	"fmt"
	"math/big"

	ethereumgo "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/klingon-exchange/dib-relay/internal/ethereum/contracts"
	"github.com/klingon-exchange/dib-relay/internal/ledgeradapter"
	"github.com/klingon-exchange/dib-relay/internal/reason"
	"github.com/klingon-exchange/dib-relay/internal/transfer"
)

// Responder is the destination-ledger side of a bridge: it submits
// interledgerReceive(nonce, data) and classifies the resulting outcome
// event from the mined receipt's logs.
type Responder struct {
	client   *Client
	contract *contracts.DestinationContract
}

// NewResponder binds a Responder to a deployed destination contract.
func NewResponder(client *Client, address common.Address) *Responder {
	return &Responder{client: client, contract: contracts.NewDestinationContract(address)}
}

// SendData submits interledgerReceive(nonce, data) and classifies the
// mined receipt's outcome event.
func (r *Responder) SendData(ctx context.Context, nonce string, data []byte) ledgeradapter.SubmitResult {
	id, ok := new(big.Int).SetString(nonce, 10)
	if !ok {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum responder: invalid nonce %q", nonce)}
	}
	calldata, err := r.contract.PackReceive(id, data)
	if err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum responder: pack receive: %w", err)}
	}
	result := r.client.submit(ctx, r.contract.Address, calldata)
	if result.Err != nil || result.TxHash == "" {
		return result
	}
	return r.classifyReceipt(ctx, result)
}

// GetSendResponse re-classifies a rediscovered interledgerReceive
// transaction without resubmitting it.
func (r *Responder) GetSendResponse(ctx context.Context, txHash, nonce string) ledgeradapter.SubmitResult {
	receipt, err := r.client.RPC.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum responder: fetch receipt %s: %w", txHash, err)}
	}
	result := ledgeradapter.SubmitResult{TxHash: txHash, Block: receipt.BlockNumber.Uint64()}
	return r.classifyReceiptLogs(receipt.Logs, result)
}

// CheckResponse returns "InterledgerEventAccepted", "InterledgerEventRejected",
// or "" for the given nonce by scanning destination contract logs since the
// chain's genesis scan floor.
func (r *Responder) CheckResponse(ctx context.Context, nonce string) (string, error) {
	id, ok := new(big.Int).SetString(nonce, 10)
	if !ok {
		return "", fmt.Errorf("ethereum responder: invalid nonce %q", nonce)
	}
	head, err := r.client.RPC.BlockNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("ethereum responder: fetch head: %w", err)
	}
	floor := r.client.scanFloor(head)
	logs, err := r.client.RPC.FilterLogs(ctx, ethereumgo.FilterQuery{
		FromBlock: new(big.Int).SetUint64(floor),
		ToBlock:   new(big.Int).SetUint64(head),
		Addresses: []common.Address{r.contract.Address},
	})
	if err != nil {
		return "", fmt.Errorf("ethereum responder: filter logs: %w", err)
	}
	for _, log := range logs {
		name := r.contract.AckEventName(log)
		if name != responderAccepted && name != responderRejected {
			continue
		}
		gotID, err := r.contract.AckEventID(log)
		if err != nil || gotID.Cmp(id) != 0 {
			continue
		}
		return name, nil
	}
	return "", nil
}

// GetInterledgerReceiveTx scans backward for the interledgerReceive call
// keyed by nonce = t.ID, populating Params["data"] from the decoded
// calldata so verifier.go's data-integrity check can compare it against
// the original transfer payload.
func (r *Responder) GetInterledgerReceiveTx(ctx context.Context, t *transfer.Transfer) (ledgeradapter.FunctionCall, error) {
	wantNonce, ok := new(big.Int).SetString(t.ID, 10)
	if !ok {
		return ledgeradapter.FunctionCall{}, fmt.Errorf("ethereum responder: invalid transfer id %q", t.ID)
	}
	match := func(selector string, data []byte) bool {
		if selector != "interledgerReceive" {
			return false
		}
		gotNonce, err := decodeUint256Arg(contracts.DestinationABI, selector, data, 0)
		return err == nil && gotNonce.Cmp(wantNonce) == 0
	}
	call, err := r.client.scanForCall(ctx, r.contract.Address, t.InitiationTimestamp, match, r.contract.DecodeFunctionSelector)
	if err != nil || !call.Found {
		return call, err
	}
	tx, _, err := r.client.RPC.TransactionByHash(ctx, common.HexToHash(call.TxHash))
	if err != nil {
		return call, fmt.Errorf("ethereum responder: refetch tx %s: %w", call.TxHash, err)
	}
	payload, err := decodeBytesArg(contracts.DestinationABI, "interledgerReceive", tx.Data(), 1)
	if err == nil {
		call.Params = map[string]any{"data": payload}
	}
	return call, nil
}

// ReportError best-effort submits interledgerError(nonce, reasonCode).
func (r *Responder) ReportError(ctx context.Context, nonce string, code reason.Code) {
	id, ok := new(big.Int).SetString(nonce, 10)
	if !ok {
		r.client.log.Warn("report error: invalid nonce", "nonce", nonce)
		return
	}
	calldata, err := r.contract.PackError(id, big.NewInt(int64(code)))
	if err != nil {
		r.client.log.Warn("report error: pack failed", "nonce", nonce, "error", err)
		return
	}
	result := r.client.submit(ctx, r.contract.Address, calldata)
	if result.Err != nil {
		r.client.log.Warn("report error: submit failed", "nonce", nonce, "error", result.Err)
	}
}

// SendDataInquire submits interledgerReceive(nonce, data) exactly as
// SendData does and classifies the receipt by InterledgerEventAccepted/
// Rejected. It is not a dry run: it calls no separate inquiry entry point
// and does not look for InterledgerInquiryAccepted/Rejected events. It
// satisfies ledgeradapter.MultiResponder.
func (r *Responder) SendDataInquire(ctx context.Context, nonce string, data []byte) ledgeradapter.SubmitResult {
	id, ok := new(big.Int).SetString(nonce, 10)
	if !ok {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum responder: invalid nonce %q", nonce)}
	}
	calldata, err := r.contract.PackReceive(id, data)
	if err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum responder: pack receive: %w", err)}
	}
	result := r.client.submit(ctx, r.contract.Address, calldata)
	if result.Err != nil || result.TxHash == "" {
		return result
	}
	return r.classifyReceipt(ctx, result)
}

// AbortSendData submits interledgerReceiveAbort(nonce, reasonCode).
func (r *Responder) AbortSendData(ctx context.Context, nonce string, code reason.Code) ledgeradapter.SubmitResult {
	id, ok := new(big.Int).SetString(nonce, 10)
	if !ok {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum responder: invalid nonce %q", nonce)}
	}
	calldata, err := r.contract.PackReceiveAbort(id, big.NewInt(int64(code)))
	if err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum responder: pack receive abort: %w", err)}
	}
	return r.client.submit(ctx, r.contract.Address, calldata)
}

func (r *Responder) classifyReceipt(ctx context.Context, result ledgeradapter.SubmitResult) ledgeradapter.SubmitResult {
	receipt, err := r.client.RPC.TransactionReceipt(ctx, common.HexToHash(result.TxHash))
	if err != nil {
		result.Err = fmt.Errorf("ethereum responder: fetch receipt %s: %w", result.TxHash, err)
		return result
	}
	return r.classifyReceiptLogs(receipt.Logs, result)
}

func (r *Responder) classifyReceiptLogs(logs []*types.Log, result ledgeradapter.SubmitResult) ledgeradapter.SubmitResult {
	for _, log := range logs {
		switch r.contract.AckEventName(*log) {
		case responderAccepted:
			result.Status = true
			return result
		case responderRejected:
			result.Kind = reason.KindApplicationReject
			result.Err = fmt.Errorf("ethereum responder: receive rejected in tx %s", result.TxHash)
			return result
		}
	}
	result.Err = fmt.Errorf("ethereum responder: no outcome event found in tx %s", result.TxHash)
	return result
}
