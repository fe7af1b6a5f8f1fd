package result

import "sync"

// HaltController implements the "typed suspension request" REDESIGN FLAG:
// halt-on-failure/halt-on-exception is exposed as a request observed by an
// external controller, not a bare blocking primitive wired directly into
// the reporter's lock. The shape — a mutex-guarded set of waiters notified
// by closing a channel, plus an idempotent release — follows the teacher's
// emergency.Controller (stopCh chan struct{} + mutex-guarded stopped bool).
type HaltController struct {
	mu      sync.Mutex
	waiters []chan struct{}
	// pending records the most recent status each waiter suspended on, so an
	// external controller (CLI/REST) can report what is currently blocked.
	pending []Status
}

// NewHaltController creates an unarmed controller.
func NewHaltController() *HaltController {
	return &HaltController{}
}

// Wait suspends the calling goroutine until Release (or ReleaseAll) is
// called. The caller is responsible for only calling Wait when a halt flag
// is actually armed for the given status.
func (h *HaltController) Wait(status Status) {
	ch := make(chan struct{})
	h.mu.Lock()
	h.waiters = append(h.waiters, ch)
	h.pending = append(h.pending, status)
	h.mu.Unlock()

	<-ch
}

// Pending reports the statuses currently suspended, for an external
// controller to display ("2 producers suspended on FAIL").
func (h *HaltController) Pending() []Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Status, len(h.pending))
	copy(out, h.pending)
	return out
}

// Release wakes exactly one suspended producer (FIFO), if any are waiting.
// Returns false if nothing was waiting.
func (h *HaltController) Release() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.waiters) == 0 {
		return false
	}
	ch := h.waiters[0]
	h.waiters = h.waiters[1:]
	h.pending = h.pending[1:]
	close(ch)
	return true
}

// ReleaseAll wakes every currently suspended producer.
func (h *HaltController) ReleaseAll() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.waiters)
	for _, ch := range h.waiters {
		close(ch)
	}
	h.waiters = nil
	h.pending = nil
	return n
}
