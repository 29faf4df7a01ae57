package moderation

import (
	"sync"

	"stan-guard/internal/scheduler"
)

// timerRegistry tracks the in-memory expiry timer of each sanction row so an
// explicit reversal can cancel it. Timers are volatile; the periodic sweep
// covers rows whose timer was lost to a restart.
type timerRegistry struct {
	mu      sync.Mutex
	handles map[uint]*scheduler.Handle
}

func newTimerRegistry() *timerRegistry {
	return &timerRegistry{handles: make(map[uint]*scheduler.Handle)}
}

func (t *timerRegistry) register(sanctionID uint, handle *scheduler.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handles[sanctionID] = handle
}

// cancel stops and forgets the timer for a sanction. Unknown ids are a
// no-op.
func (t *timerRegistry) cancel(sanctionID uint) {
	t.mu.Lock()
	handle := t.handles[sanctionID]
	delete(t.handles, sanctionID)
	t.mu.Unlock()
	if handle != nil {
		handle.Cancel()
	}
}

// drop forgets a timer without cancelling, used from inside the fired
// callback itself.
func (t *timerRegistry) drop(sanctionID uint) {
	t.mu.Lock()
	delete(t.handles, sanctionID)
	t.mu.Unlock()
}
