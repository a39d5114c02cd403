package conversation

import (
	"sync"
	"time"
)

// Tracker counts background terminations still in flight so the process
// can give them a moment to be delivered before it exits.
type Tracker struct {
	wg sync.WaitGroup
}

// Go runs f in a new goroutine and tracks it.
func (t *Tracker) Go(f func()) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		f()
	}()
}

// Wait blocks until all tracked goroutines finish or timeout elapses. It
// reports whether everything finished.
func (t *Tracker) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
