package relay

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/klingon-exchange/dib-relay/internal/duty"
	"github.com/klingon-exchange/dib-relay/internal/ledgeradapter"
	"github.com/klingon-exchange/dib-relay/internal/reason"
	"github.com/klingon-exchange/dib-relay/internal/transfer"
	"github.com/klingon-exchange/dib-relay/pkg/logging"
)

// Config holds the engine's process-wide, immutable-after-startup knobs
// that aren't duty-oracle inputs.
type Config struct {
	Duty                duty.Config
	ConfirmTransfer     bool
	TimeoutEnabled      bool
	VerificationEnabled bool

	// SeenCacheSize bounds the LRU of recently-deregistered initiator ids
	// used to skip redundant re-verification. Zero disables the cache.
	SeenCacheSize int
}

// Engine is the main relay loop.
type Engine struct {
	initiator ledgeradapter.Initiator
	responder ledgeradapter.Responder
	register  *transfer.Register
	cfg       Config
	log       *logging.Logger

	tasks taskSet

	handlersMu sync.RWMutex
	handlers   []EventHandler

	seen *lru.Cache[string, struct{}]

	running atomic.Bool
}

// New creates a relay engine wired to the given adapters and register.
func New(initiator ledgeradapter.Initiator, responder ledgeradapter.Responder, register *transfer.Register, cfg Config) *Engine {
	e := &Engine{
		initiator: initiator,
		responder: responder,
		register:  register,
		cfg:       cfg,
		log:       logging.GetDefault().Component("relay"),
	}
	if cfg.SeenCacheSize > 0 {
		c, err := lru.New[string, struct{}](cfg.SeenCacheSize)
		if err == nil {
			e.seen = c
		}
	}
	e.running.Store(true)
	return e
}

// OnEvent registers a lifecycle event handler.
func (e *Engine) OnEvent(h EventHandler) {
	e.handlersMu.Lock()
	defer e.handlersMu.Unlock()
	e.handlers = append(e.handlers, h)
}

func (e *Engine) emit(ev Event) {
	e.handlersMu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.handlersMu.RUnlock()
	for _, h := range handlers {
		h := h
		e.tasks.spawn(func(uuid.UUID) { h(ev) })
	}
}

// Stop flips the running flag; the loop exits at the next tick boundary
// and Run returns once every in-flight task has drained.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Run drives the engine until Stop is called or ctx is cancelled. Each
// iteration runs the three phases in strict order — ingest, verify, reap —
// and that ordering is load-bearing and must not change.
func (e *Engine) Run(ctx context.Context) error {
	for e.running.Load() {
		select {
		case <-ctx.Done():
			e.tasks.wait()
			return ctx.Err()
		default:
		}

		if err := e.ingestPhase(ctx); err != nil {
			e.log.Warn("ingest phase error", "error", err)
		}

		if e.cfg.VerificationEnabled {
			if err := e.verifyPhase(ctx); err != nil {
				e.log.Warn("verify phase error", "error", err)
			}
		}

		if e.cfg.TimeoutEnabled {
			if err := e.reapPhase(ctx); err != nil {
				e.log.Warn("reap phase error", "error", err)
			}
		}
	}
	e.tasks.wait()
	return nil
}

// ingestPhase drains new source events, registers each as a Transfer, and
// executes it if this node currently owns it.
func (e *Engine) ingestPhase(ctx context.Context) error {
	events, err := e.initiator.ListenForEvents(ctx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ev := range events {
		ev := ev
		g.Go(func() error {
			e.ingestOne(gctx, ev)
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) ingestOne(ctx context.Context, ev ledgeradapter.Event) {
	t, err := e.initiator.ProcessEvent(ev)
	if err != nil {
		e.log.Warn("failed to process event", "tx", ev.TxHash, "log_index", ev.LogIndex, "error", err)
		return
	}
	e.register.Register(t)
	e.emit(Event{TransferID: t.ID, InitiatorID: t.InitiatorID, Type: EventRegistered, Timestamp: time.Now()})

	mine, _ := duty.Evaluate(t, time.Now(), e.cfg.Duty)
	if !mine {
		return
	}
	e.execute(ctx, t)
}

// verifyPhase fans out verify() over every initiator id the adapter
// reports as newly finalized.
func (e *Engine) verifyPhase(ctx context.Context) error {
	iids, err := e.initiator.MonitorConfirmations(ctx)
	if err != nil {
		return err
	}
	if len(iids) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, iid := range iids {
		iid := iid
		if e.seen != nil {
			if _, ok := e.seen.Get(iid); ok {
				continue
			}
		}
		t := e.register.FindByInitiatorID(iid)
		if t == nil {
			continue
		}
		g.Go(func() error {
			e.verify(gctx, t)
			if e.seen != nil && e.register.Get(t.ID) == nil {
				e.seen.Add(iid, struct{}{})
			}
			return nil
		})
	}
	return g.Wait()
}

// reapPhase fans out processTimeout() over every transfer this node owns
// that has aged past period 0.
func (e *Engine) reapPhase(ctx context.Context) error {
	live := e.register.Iterate()
	if len(live) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	now := time.Now()
	for _, t := range live {
		t := t
		mine, timedOut := duty.Evaluate(t, now, e.cfg.Duty)
		if !mine || !timedOut {
			continue
		}
		g.Go(func() error {
			e.processTimeout(gctx, t)
			return nil
		})
	}
	return g.Wait()
}

// execute submits the transfer to the responder and, if confirm_transfer is
// set, immediately confirms or aborts on the initiator based on the result.
func (e *Engine) execute(ctx context.Context, t *transfer.Transfer) {
	result := e.responder.SendData(ctx, t.ID, t.Data)
	e.emit(Event{TransferID: t.ID, InitiatorID: t.InitiatorID, Type: EventExecuted, Timestamp: time.Now(), Err: result.Err})

	if !e.cfg.ConfirmTransfer {
		return
	}
	if result.Status {
		e.confirm(ctx, t, true, reason.KindNone)
		return
	}
	// A failed send with no explicit error code is still confirmed — as
	// an abort with a generic failure reason.
	e.confirm(ctx, t, false, result.Kind)
}

// confirm finalizes t on the source ledger and deregisters it. The
// submission's own outcome is logged but never blocks deregistration:
// ownership of finalization has already passed to the source contract's
// state by this point. ok reports whether the destination-side operation
// succeeded; failure only carries a reason when ok is false.
func (e *Engine) confirm(ctx context.Context, t *transfer.Transfer, ok bool, failure reason.Kind) {
	log := e.log.WithTransfer(t.ID)
	if ok {
		res := e.initiator.CommitSending(ctx, t.InitiatorID, nil)
		if !res.Status {
			log.Warn("commit submission failed (likely a racing node already finalized)",
				"initiator_id", t.InitiatorID, "error", res.Err)
		}
		e.register.Deregister(t.ID)
		e.emit(Event{TransferID: t.ID, InitiatorID: t.InitiatorID, Type: EventConfirmed, Timestamp: time.Now()})
		return
	}

	res := e.initiator.AbortSending(ctx, t.InitiatorID, failure.ToCode())
	if !res.Status {
		log.Warn("abort submission failed (likely a racing node already finalized)",
			"initiator_id", t.InitiatorID, "error", res.Err)
	}
	e.register.Deregister(t.ID)
	e.emit(Event{TransferID: t.ID, InitiatorID: t.InitiatorID, Type: EventAborted, Timestamp: time.Now()})
}

// processTimeout is the step-wise recovery procedure: probe how far the
// previous owner got and pick up from there.
func (e *Engine) processTimeout(ctx context.Context, t *transfer.Transfer) {
	log := e.log.WithTransfer(t.ID)
	e.emit(Event{TransferID: t.ID, InitiatorID: t.InitiatorID, Type: EventTimedOut, Timestamp: time.Now()})

	sendTx, err := e.responder.GetInterledgerReceiveTx(ctx, t)
	if err != nil {
		log.Warn("timeout: receive tx lookup failed", "error", err)
		return
	}

	// A. No send on destination: the previous owner never sent.
	if !sendTx.Found {
		e.execute(ctx, t)
		return
	}

	ack, err := e.responder.CheckResponse(ctx, t.ID)
	if err != nil {
		log.Warn("timeout: check response failed", "error", err)
		return
	}

	// B. Sent, no ack yet: wait for another tick.
	if ack == "" {
		return
	}

	// D. Fully finalized: verification phase will deregister it.
	commitTx, err := e.initiator.GetInterledgerCommitTx(ctx, t)
	if err != nil {
		log.Warn("timeout: commit tx lookup failed", "error", err)
		return
	}
	abortTx, err := e.initiator.GetInterledgerAbortTx(ctx, t)
	if err != nil {
		log.Warn("timeout: abort tx lookup failed", "error", err)
		return
	}
	if commitTx.Found || abortTx.Found {
		return
	}

	// C. Sent, ack emitted, no source-side finalization: recover the
	// outcome from the destination and confirm it.
	outcome := e.responder.GetSendResponse(ctx, sendTx.TxHash, t.ID)
	e.confirm(ctx, t, outcome.Status, outcome.Kind)
}
