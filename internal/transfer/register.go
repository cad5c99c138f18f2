package transfer

import "sync"

// Register is the in-memory mapping of live transfers. It is single-node
// and lost on restart by design: surviving state is
// reconstructed by querying the ledgers, not by persisting this map.
//
// The register is touched only by the relay engine's loop goroutine plus
// whatever per-phase fan-out tasks it spawns; the mutex exists because those
// fan-out tasks run concurrently with each other and with the engine's own
// iteration, not because multiple independent callers share a Register.
type Register struct {
	mu          sync.RWMutex
	byID        map[string]*Transfer
	byInitiator map[string]*Transfer
}

// New creates an empty register.
func New() *Register {
	return &Register{
		byID:        make(map[string]*Transfer),
		byInitiator: make(map[string]*Transfer),
	}
}

// Register inserts t, making it visible to Iterate and lookups immediately.
// Re-registering an id already present overwrites the previous entry and
// drops the previous entry's initiator-id index; the engine registers every
// ingested event without checking, so duplicate on-chain events for the
// same id simply replace the earlier entry.
func (r *Register) Register(t *Transfer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byID[t.ID]; ok && r.byInitiator[old.InitiatorID] == old {
		delete(r.byInitiator, old.InitiatorID)
	}
	r.byID[t.ID] = t
	r.byInitiator[t.InitiatorID] = t
}

// Deregister removes a transfer by id and returns it, or nil if absent.
func (r *Register) Deregister(id string) *Transfer {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byID, id)
	delete(r.byInitiator, t.InitiatorID)
	return t
}

// FindByInitiatorID looks up the live transfer for a source-ledger
// initiator id, or nil if none is registered.
func (r *Register) FindByInitiatorID(initiatorID string) *Transfer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byInitiator[initiatorID]
}

// Get looks up a live transfer by its own id, or nil if none is registered.
func (r *Register) Get(id string) *Transfer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Len returns the number of live transfers.
func (r *Register) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Iterate returns a snapshot of the currently-registered transfers. Taking
// the snapshot under the lock and handing back a plain slice means a caller
// ranging over the result is safe even if Register/Deregister run
// concurrently with the range.
func (r *Register) Iterate() []*Transfer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Transfer, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}
	return out
}
