// Package relay implements the main event loop and the cross-ledger
// verifier: the per-tick ingest/verify/reap cycle that drains initiator
// events, drives the responder, confirms back to the initiator, reaps
// timed-out transfers, and cross-checks completed ones.
package relay

import "time"

// EventType labels a RelayEvent pushed to any observer (e.g. the status
// surface's WebSocket feed). These are purely observational — nothing in
// the engine itself consumes them.
type EventType string

const (
	EventRegistered         EventType = "registered"
	EventExecuted           EventType = "executed"
	EventConfirmed          EventType = "confirmed"
	EventAborted            EventType = "aborted"
	EventTimedOut           EventType = "timed_out"
	EventVerificationFailed EventType = "verification_failed"
	EventVerified           EventType = "verified"
)

// Event is a lifecycle notification for one transfer.
type Event struct {
	TransferID  string
	InitiatorID string
	Type        EventType
	Timestamp   time.Time
	Err         error
}

// EventHandler receives lifecycle notifications. Handlers run on their own
// goroutine and must not block the engine.
type EventHandler func(Event)
