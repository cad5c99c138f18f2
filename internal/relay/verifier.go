package relay

import (
	"bytes"
	"context"
	"time"

	"github.com/klingon-exchange/dib-relay/internal/ledgeradapter"
	"github.com/klingon-exchange/dib-relay/internal/reason"
	"github.com/klingon-exchange/dib-relay/internal/transfer"
)

const (
	responderAccepted = "InterledgerEventAccepted"
	responderRejected = "InterledgerEventRejected"
	initiatorCommit    = "interledgerCommit"
	initiatorAbort     = "interledgerAbort"
)

// verify cross-checks that what the initiator emitted, the responder
// received, and the initiator finally confirmed are all mutually
// consistent. It always either deregisters t (valid or invalid) or leaves
// it exactly as it was (inconclusive this tick) — it never partially
// mutates register state.
func (e *Engine) verify(ctx context.Context, t *transfer.Transfer) {
	log := e.log.WithTransfer(t.ID)
	recvTx, err := e.responder.GetInterledgerReceiveTx(ctx, t)
	if err != nil {
		log.Warn("verify: receive tx lookup failed", "error", err)
		return
	}

	ack, err := e.responder.CheckResponse(ctx, t.ID)
	if err != nil {
		log.Warn("verify: check response failed", "error", err)
		return
	}
	if ack == "" {
		// Inconclusive this tick; try again next time monitor_confirmations
		// surfaces this initiator id.
		return
	}

	dataOK := recvTx.Found && bytes.Equal(dataParam(recvTx), t.Data)
	ackOK := e.verifyAckConsistency(ctx, t, ack)

	if dataOK && ackOK {
		e.register.Deregister(t.ID)
		e.emit(Event{TransferID: t.ID, InitiatorID: t.InitiatorID, Type: EventVerified, Timestamp: time.Now()})
		return
	}

	log.Warn("verify: invalid transfer",
		"initiator_id", t.InitiatorID,
		"data_ok", dataOK, "ack_ok", ackOK, "responder_ack", ack)

	code := reason.InvalidTransfer
	e.initiator.ReportError(ctx, t.InitiatorID, code)
	e.responder.ReportError(ctx, t.ID, code)
	e.register.Deregister(t.ID)
	e.emit(Event{TransferID: t.ID, InitiatorID: t.InitiatorID, Type: EventVerificationFailed, Timestamp: time.Now()})
}

// verifyAckConsistency checks that the finalization function the initiator
// actually called matches the semantics of the responder's ack.
func (e *Engine) verifyAckConsistency(ctx context.Context, t *transfer.Transfer, ack string) bool {
	switch ack {
	case responderAccepted:
		call, err := e.initiator.GetInterledgerCommitTx(ctx, t)
		if err != nil || !call.Found {
			return false
		}
		fn, err := e.initiator.CheckConfirmation(ctx, transfer.TxKey{BlockNumber: call.Block, TxHash: call.TxHash})
		return err == nil && fn == initiatorCommit
	case responderRejected:
		call, err := e.initiator.GetInterledgerAbortTx(ctx, t)
		if err != nil || !call.Found {
			return false
		}
		fn, err := e.initiator.CheckConfirmation(ctx, transfer.TxKey{BlockNumber: call.Block, TxHash: call.TxHash})
		return err == nil && fn == initiatorAbort
	default:
		return false
	}
}

func dataParam(call ledgeradapter.FunctionCall) []byte {
	if call.Params == nil {
		return nil
	}
	if d, ok := call.Params["data"].([]byte); ok {
		return d
	}
	return nil
}
