// Package eventsched implements the date/interval-triggered event
// scheduler and the resource lock pool events serialize over, grounded on
// original_source/core/testengine/eventdriven/{scheduler.py,eventbase.py,
// resourcelockpool.py} and, for the Go realization of the blocking
// time-driven loop, on the teacher's pkg/emergency/controller.go
// ticker-goroutine idiom.
package eventsched

import (
	"fmt"
	"sync"
	"time"

	"github.com/jihwankim/caseforge/pkg/engineerr"
)

type lockRecord struct {
	event   string
	since   time.Time
	release chan struct{}
}

// ResourceLockPool serializes events over named resources: at any moment at
// most one event holds a given resource name (spec §4.F invariant).
type ResourceLockPool struct {
	mu    sync.Mutex
	locks map[string]*lockRecord
}

// NewResourceLockPool returns an empty lock pool.
func NewResourceLockPool() *ResourceLockPool {
	return &ResourceLockPool{locks: map[string]*lockRecord{}}
}

// Lock acquires resourceName for event, waiting up to timeout if another
// event currently holds it. On timeout it fails with
// engineerr.ErrResourceIsLocked.
func (p *ResourceLockPool) Lock(resourceName, event string, timeout time.Duration) error {
	for {
		p.mu.Lock()
		rec, held := p.locks[resourceName]
		if !held {
			p.locks[resourceName] = &lockRecord{event: event, since: time.Now(), release: make(chan struct{})}
			p.mu.Unlock()
			return nil
		}
		release := rec.release
		p.mu.Unlock()

		select {
		case <-release:
			// The holder released; loop back and try to install our own
			// record — another waiter may have won the race first.
			continue
		case <-time.After(timeout):
			return fmt.Errorf("eventsched: %w: %q held by %q", engineerr.ErrResourceIsLocked, resourceName, rec.event)
		}
	}
}

// Release releases resourceName, which must currently be held by event.
func (p *ResourceLockPool) Release(resourceName, event string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, held := p.locks[resourceName]
	if !held {
		return fmt.Errorf("eventsched: %w: %q is not locked", engineerr.ErrInvalidLockOperation, resourceName)
	}
	if rec.event != event {
		return fmt.Errorf("eventsched: %w: %q is held by %q, not %q", engineerr.ErrInvalidLockOperation, resourceName, rec.event, event)
	}
	close(rec.release)
	delete(p.locks, resourceName)
	return nil
}

// Holder returns the event currently holding resourceName, if any.
func (p *ResourceLockPool) Holder(resourceName string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, held := p.locks[resourceName]
	if !held {
		return "", false
	}
	return rec.event, true
}
