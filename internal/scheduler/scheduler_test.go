package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAfterFires(t *testing.T) {
	fired := make(chan struct{})
	After(time.Now().Add(10*time.Millisecond), "test-fire", func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not fire")
	}
}

func TestAfterPastInstantFiresImmediately(t *testing.T) {
	fired := make(chan struct{})
	After(time.Now().Add(-time.Minute), "test-past", func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not fire")
	}
}

func TestCancelPreventsFiring(t *testing.T) {
	var count atomic.Int32
	handle := After(time.Now().Add(50*time.Millisecond), "test-cancel", func() {
		count.Add(1)
	})
	handle.Cancel()

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, count.Load())
}

func TestCancelIsIdempotent(t *testing.T) {
	handle := After(time.Now().Add(time.Hour), "test-idempotent", func() {})
	handle.Cancel()
	handle.Cancel()
}

func TestCancelAfterFiringIsNoOp(t *testing.T) {
	fired := make(chan struct{})
	handle := After(time.Now().Add(5*time.Millisecond), "test-late-cancel", func() {
		close(fired)
	})

	<-fired
	handle.Cancel()
}

func TestEveryRunsUntilStopped(t *testing.T) {
	var count atomic.Int32
	stop := Every(20*time.Millisecond, "test-ticker", func() {
		count.Add(1)
	})

	time.Sleep(110 * time.Millisecond)
	stop()
	time.Sleep(30 * time.Millisecond)
	seen := count.Load()
	assert.GreaterOrEqual(t, seen, int32(2))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, seen, count.Load())

	// stopping twice must not panic
	stop()
}

func TestEveryRecoversPanickingCallback(t *testing.T) {
	var count atomic.Int32
	stop := Every(20*time.Millisecond, "test-panic", func() {
		count.Add(1)
		panic("boom")
	})
	defer stop()

	time.Sleep(110 * time.Millisecond)
	assert.GreaterOrEqual(t, count.Load(), int32(2))
}
