package ethereum

import (
	"context"
	"fmt"
	"math/big"

	ethereumgo "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/klingon-exchange/dib-relay/internal/ethereum/contracts"
	"github.com/klingon-exchange/dib-relay/internal/ledgeradapter"
	"github.com/klingon-exchange/dib-relay/internal/reason"
	"github.com/klingon-exchange/dib-relay/internal/transfer"
)

// Initiator is the source-ledger side of a bridge: it watches a deployed
// contract for InterledgerEventSending, and later submits the commit or
// abort that finalizes each transfer back onto that same chain.
type Initiator struct {
	client   *Client
	contract *contracts.SourceContract
	secret   []byte

	confirmCursor uint64
}

// NewInitiator binds an Initiator to a deployed source contract.
func NewInitiator(client *Client, address common.Address, secret []byte) *Initiator {
	return &Initiator{
		client:        client,
		contract:      contracts.NewSourceContract(address),
		secret:        secret,
		confirmCursor: client.cursor,
	}
}

// ListenForEvents drains InterledgerEventSending logs mined since the last
// call, catching up fully rather than one block at a time.
func (i *Initiator) ListenForEvents(ctx context.Context) ([]ledgeradapter.Event, error) {
	head, err := i.client.RPC.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("ethereum initiator: fetch head: %w", err)
	}
	if head <= i.client.cursor {
		return nil, nil
	}

	from := i.client.cursor + 1
	logs, err := i.client.RPC.FilterLogs(ctx, ethereumgo.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(head),
		Addresses: []common.Address{i.contract.Address},
	})
	if err != nil {
		return nil, fmt.Errorf("ethereum initiator: filter logs: %w", err)
	}

	var events []ledgeradapter.Event
	for _, log := range logs {
		sending, ok := i.contract.ParseSending(log)
		if !ok {
			continue
		}
		block, err := i.client.RPC.HeaderByNumber(ctx, new(big.Int).SetUint64(log.BlockNumber))
		if err != nil {
			return nil, fmt.Errorf("ethereum initiator: fetch header %d: %w", log.BlockNumber, err)
		}
		events = append(events, ledgeradapter.Event{
			BlockNumber: log.BlockNumber,
			TxHash:      log.TxHash.Hex(),
			LogIndex:    log.Index,
			BlockTime:   int64(block.Time),
			InitiatorID: sending.ID.String(),
			Data:        sending.Data,
		})
	}
	i.client.cursor = head
	return events, nil
}

// ProcessEvent deterministically builds a Transfer, deriving its id from
// the emitting event's location and the deployment secret.
func (i *Initiator) ProcessEvent(e ledgeradapter.Event) (*transfer.Transfer, error) {
	id := transfer.ComputeID(i.secret, transfer.IDInputs{
		SourceBlockNumber: e.BlockNumber,
		SourceTxHash:      e.TxHash,
		SourceLogIndex:    e.LogIndex,
	})
	return &transfer.Transfer{
		ID:                  id,
		InitiatorID:         e.InitiatorID,
		Data:                e.Data,
		InitiationTimestamp: e.BlockTime,
		InitiatorTxKey:      transfer.TxKey{BlockNumber: e.BlockNumber, TxHash: e.TxHash},
	}, nil
}

// CommitSending submits interledgerCommit(initiatorID, data).
func (i *Initiator) CommitSending(ctx context.Context, initiatorID string, data []byte) ledgeradapter.SubmitResult {
	id, ok := new(big.Int).SetString(initiatorID, 10)
	if !ok {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum initiator: invalid initiator id %q", initiatorID)}
	}
	call, err := i.contract.PackCommit(id, data)
	if err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum initiator: pack commit: %w", err)}
	}
	return i.client.submit(ctx, i.contract.Address, call)
}

// AbortSending submits interledgerAbort(initiatorID, reasonCode).
func (i *Initiator) AbortSending(ctx context.Context, initiatorID string, code reason.Code) ledgeradapter.SubmitResult {
	id, ok := new(big.Int).SetString(initiatorID, 10)
	if !ok {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum initiator: invalid initiator id %q", initiatorID)}
	}
	call, err := i.contract.PackAbort(id, big.NewInt(int64(code)))
	if err != nil {
		return ledgeradapter.SubmitResult{Err: fmt.Errorf("ethereum initiator: pack abort: %w", err)}
	}
	return i.client.submit(ctx, i.contract.Address, call)
}

// ReportError best-effort submits interledgerError(initiatorID, reasonCode).
func (i *Initiator) ReportError(ctx context.Context, initiatorID string, code reason.Code) {
	id, ok := new(big.Int).SetString(initiatorID, 10)
	if !ok {
		i.client.log.Warn("report error: invalid initiator id", "initiator_id", initiatorID)
		return
	}
	call, err := i.contract.PackError(id, big.NewInt(int64(code)))
	if err != nil {
		i.client.log.Warn("report error: pack failed", "initiator_id", initiatorID, "error", err)
		return
	}
	res := i.client.submit(ctx, i.contract.Address, call)
	if res.Err != nil {
		i.client.log.Warn("report error: submit failed", "initiator_id", initiatorID, "error", res.Err)
	}
}

// MonitorConfirmations scans one new block at a time for interledgerCommit
// / interledgerAbort calls against the source contract, returning the
// initiator ids they finalized.
func (i *Initiator) MonitorConfirmations(ctx context.Context) ([]string, error) {
	head, err := i.client.RPC.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("ethereum initiator: fetch head: %w", err)
	}
	if head <= i.confirmCursor {
		return nil, nil
	}
	next := i.confirmCursor + 1
	block, err := i.client.RPC.BlockByNumber(ctx, new(big.Int).SetUint64(next))
	if err != nil {
		return nil, fmt.Errorf("ethereum initiator: fetch block %d: %w", next, err)
	}
	i.confirmCursor = next

	var ids []string
	for _, tx := range block.Transactions() {
		to := tx.To()
		if to == nil || *to != i.contract.Address {
			continue
		}
		data := tx.Data()
		name := i.contract.DecodeFunctionSelector(data)
		if name != initiatorCommit && name != initiatorAbort {
			continue
		}
		id, err := decodeUint256Arg(contracts.SourceABI, name, data, 0)
		if err != nil {
			continue
		}
		ids = append(ids, id.String())
	}
	return ids, nil
}

// GetInterledgerCommitTx scans backward for the interledgerCommit call
// that finalized t.
func (i *Initiator) GetInterledgerCommitTx(ctx context.Context, t *transfer.Transfer) (ledgeradapter.FunctionCall, error) {
	return i.scanForID(ctx, t, initiatorCommit)
}

// GetInterledgerAbortTx scans backward for the interledgerAbort call that
// finalized t.
func (i *Initiator) GetInterledgerAbortTx(ctx context.Context, t *transfer.Transfer) (ledgeradapter.FunctionCall, error) {
	return i.scanForID(ctx, t, initiatorAbort)
}

func (i *Initiator) scanForID(ctx context.Context, t *transfer.Transfer, funcName string) (ledgeradapter.FunctionCall, error) {
	wantID, ok := new(big.Int).SetString(t.InitiatorID, 10)
	if !ok {
		return ledgeradapter.FunctionCall{}, fmt.Errorf("ethereum initiator: invalid initiator id %q", t.InitiatorID)
	}
	match := func(selector string, data []byte) bool {
		if selector != funcName {
			return false
		}
		gotID, err := decodeUint256Arg(contracts.SourceABI, selector, data, 0)
		return err == nil && gotID.Cmp(wantID) == 0
	}
	return i.client.scanForCall(ctx, i.contract.Address, t.InitiationTimestamp, match, i.contract.DecodeFunctionSelector)
}

// CheckConfirmation classifies a mined transaction by its decoded
// function selector.
func (i *Initiator) CheckConfirmation(ctx context.Context, txKey transfer.TxKey) (string, error) {
	tx, isPending, err := i.client.RPC.TransactionByHash(ctx, common.HexToHash(txKey.TxHash))
	if err != nil {
		return "", fmt.Errorf("ethereum initiator: fetch tx %s: %w", txKey.TxHash, err)
	}
	if isPending {
		return "", nil
	}
	return i.contract.DecodeFunctionSelector(tx.Data()), nil
}
