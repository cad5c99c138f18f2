package relay

import (
	"sync"

	"github.com/google/uuid"
)

// taskSet tracks in-flight background work so Stop can drain it before the
// process exits. Go's goroutines can't be garbage-collected mid-flight, so
// the set here exists purely for shutdown draining and log correlation, not
// for keeping anything alive.
type taskSet struct {
	wg   sync.WaitGroup
	ids  sync.Map // uuid.UUID -> struct{}, for log correlation only
}

// spawn runs fn in its own goroutine, tracked until it returns.
func (s *taskSet) spawn(fn func(taskID uuid.UUID)) {
	id := uuid.New()
	s.ids.Store(id, struct{}{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.ids.Delete(id)
		fn(id)
	}()
}

// wait blocks until every tracked task has returned.
func (s *taskSet) wait() {
	s.wg.Wait()
}
