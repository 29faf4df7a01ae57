// Package scheduler runs deferred and periodic jobs on in-process timers.
// Timers are volatile: nothing survives a restart, so callers pair every
// timer with a periodic sweep over durable state.
package scheduler

import (
	"sync"
	"time"

	"stan-guard/internal/crash"
)

// Handle cancels a scheduled job. Cancel is idempotent and cancelling an
// already-fired job is a no-op.
type Handle struct {
	timer *time.Timer
	once  sync.Once
}

func (h *Handle) Cancel() {
	h.once.Do(func() {
		h.timer.Stop()
	})
}

// After runs fn once when fireAt is reached. A fireAt in the past fires
// immediately. Panics inside fn are recovered and logged.
func After(fireAt time.Time, name string, fn func()) *Handle {
	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}
	timer := time.AfterFunc(delay, func() {
		defer crash.RecoverWithStack(name)
		fn()
	})
	return &Handle{timer: timer}
}

// Every runs fn on a fixed interval until the returned stop function is
// called. The first run happens one interval after scheduling.
func Every(interval time.Duration, name string, fn func()) (stop func()) {
	done := make(chan struct{})
	var once sync.Once

	crash.SafeGoroutine(name, func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				func() {
					defer crash.RecoverWithStack(name)
					fn()
				}()
			case <-done:
				return
			}
		}
	})

	return func() {
		once.Do(func() { close(done) })
	}
}
