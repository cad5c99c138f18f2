// Package ledgeradapter defines the capability contracts a concrete ledger
// driver must satisfy to plug into the relay engine. The relay engine
// programs only against these interfaces. Ethereum is the one backend
// implemented in this repository; any other ledger backend plugs in behind
// the same contract.
package ledgeradapter

import (
	"context"

	"github.com/klingon-exchange/dib-relay/internal/reason"
	"github.com/klingon-exchange/dib-relay/internal/transfer"
)

// Event is a raw source-ledger intent event, not yet turned into a
// Transfer.
type Event struct {
	BlockNumber uint64
	TxHash      string
	LogIndex    uint
	BlockTime   int64
	InitiatorID string
	Data        []byte
}

// SubmitResult is the outcome of submitting a transaction. Failures are
// values, never exceptions: Status=false reports a failure, Err describes
// it, and Kind carries its reason when known.
type SubmitResult struct {
	Status bool
	TxHash string
	Block  uint64
	Kind   reason.Kind
	Err    error
}

// FunctionCall is what a historical block scan returns when it finds a
// transaction invoking a tracked entry point.
type FunctionCall struct {
	Found  bool
	Block  uint64
	TxHash string
	Func   string
	Params map[string]any
}

// Initiator is the source-ledger side of the bridge.
type Initiator interface {
	// ListenForEvents drains new source-ledger intent events observed
	// since the last call. It may block briefly (~100ms) when nothing new
	// is available.
	ListenForEvents(ctx context.Context) ([]Event, error)

	// ProcessEvent deterministically builds a Transfer from an event,
	// computing the transfer id here.
	ProcessEvent(e Event) (*transfer.Transfer, error)

	// CommitSending submits interledgerCommit(initiatorID[, data]).
	CommitSending(ctx context.Context, initiatorID string, data []byte) SubmitResult

	// AbortSending submits interledgerAbort(initiatorID, reasonCode).
	AbortSending(ctx context.Context, initiatorID string, code reason.Code) SubmitResult

	// ReportError best-effort submits interledgerError(initiatorID, reasonCode).
	ReportError(ctx context.Context, initiatorID string, code reason.Code)

	// MonitorConfirmations returns the initiator ids of interledgerCommit /
	// interledgerAbort calls mined since the last invocation, advancing an
	// internal block cursor by at most one block per call.
	MonitorConfirmations(ctx context.Context) ([]string, error)

	// GetInterledgerCommitTx / GetInterledgerAbortTx scan backward from
	// head, stopping at t.InitiationTimestamp, looking for a call to the
	// named function with id = t.InitiatorID.
	GetInterledgerCommitTx(ctx context.Context, t *transfer.Transfer) (FunctionCall, error)
	GetInterledgerAbortTx(ctx context.Context, t *transfer.Transfer) (FunctionCall, error)

	// CheckConfirmation classifies a transaction by its decoded function
	// selector: "interledgerCommit", "interledgerAbort", or "".
	CheckConfirmation(ctx context.Context, txKey transfer.TxKey) (string, error)
}

// Responder is the destination-ledger side of the bridge.
type Responder interface {
	// SendData submits interledgerReceive(nonce, data) and classifies the
	// resulting Accepted/Rejected/failure outcome from the mined receipt's
	// logs.
	SendData(ctx context.Context, nonce string, data []byte) SubmitResult

	// GetSendResponse re-classifies a rediscovered transaction the same
	// way SendData does, without resubmitting it.
	GetSendResponse(ctx context.Context, txHash, nonce string) SubmitResult

	// CheckResponse returns "InterledgerEventAccepted",
	// "InterledgerEventRejected", or "" for a given nonce.
	CheckResponse(ctx context.Context, nonce string) (string, error)

	// GetInterledgerReceiveTx performs the historical scan for the
	// interledgerReceive call keyed by nonce = transfer id.
	GetInterledgerReceiveTx(ctx context.Context, t *transfer.Transfer) (FunctionCall, error)

	// ReportError best-effort submits interledgerError(nonce, reasonCode).
	ReportError(ctx context.Context, nonce string, code reason.Code)
}

// MultiResponder is an optional multi-ledger extension. The Ethereum
// Responder has both of its methods; the relay engine never calls them.
type MultiResponder interface {
	Responder

	// SendDataInquire performs a dry-run send, watching for
	// InterledgerInquiryAccepted/Rejected instead of the normal
	// Accepted/Rejected events.
	SendDataInquire(ctx context.Context, nonce string, data []byte) SubmitResult

	// AbortSendData submits interledgerReceiveAbort(nonce, reasonCode).
	AbortSendData(ctx context.Context, nonce string, code reason.Code) SubmitResult
}
