package eventsched

import (
	"context"
	"fmt"
	"sync"

	"github.com/jihwankim/caseforge/pkg/result"
)

// Hooks is the three-phase contract a scheduled event implements, the
// event-scheduler analogue of casemodel.Case's four-phase contract.
type Hooks interface {
	PreCheck(ctx context.Context) bool
	Action(ctx context.Context) error
	Final(ctx context.Context)
}

// eventLock is the single system-wide event lock, grounded on
// original_source/core/testengine/eventdriven/eventbase.py's
// `event_lock = Lock()`, defined once on EventBase and shared by every
// subclass (confirmed by product/event/demo_event.py, which never redefines
// it) — one lock for the whole system, not one per event Class.
var eventLock sync.Mutex

// EventBase wraps a Hooks implementation with the shared event lock and the
// fire/publish protocol described in spec §4.F: acquire eventLock (if
// NeedLock), run PreCheck, run Action capturing any error/panic as ERROR,
// always run Final, release the lock, publish status to an event group
// under the reporter.
type EventBase struct {
	Name     string
	NeedLock bool

	hooks Hooks
}

// Class is a named event definition: NeedLock plus a constructor for fresh
// Hooks instances. Every NeedLock event, regardless of Class, serializes
// against every other NeedLock event through the single package-wide
// eventLock.
type Class struct {
	Name     string
	NeedLock bool
	New      func() Hooks
}

// NewEvent builds one fireable EventBase from a Class.
func NewEvent(c *Class) *EventBase {
	return &EventBase{Name: c.Name, NeedLock: c.NeedLock, hooks: c.New()}
}

// Fire runs the full lifecycle and publishes its outcome as an event group
// directly under the reporter's root.
func (e *EventBase) Fire(ctx context.Context, reporter *result.Reporter) {
	if e.NeedLock {
		eventLock.Lock()
		defer eventLock.Unlock()
	}

	node := reporter.AddEventGroup(e.Name)

	ok := safeBool(func() bool { return e.hooks.PreCheck(ctx) })
	if !ok {
		reporter.AddAt(node, result.StatusFail, "PreCheck", "precondition not met")
		e.runFinal(ctx, reporter, node)
		return
	}

	if err := safeCall(func() error { return e.hooks.Action(ctx) }); err != nil {
		reporter.AddAt(node, result.StatusError, "Action", err.Error())
	} else {
		reporter.AddAt(node, result.StatusPass, "Action", "")
	}

	e.runFinal(ctx, reporter, node)
}

func (e *EventBase) runFinal(ctx context.Context, reporter *result.Reporter, node *result.Node) {
	defer func() {
		if rec := recover(); rec != nil {
			reporter.AddAt(node, result.StatusError, "Final", fmt.Sprintf("panic: %v", rec))
		}
	}()
	e.hooks.Final(ctx)
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}

func safeBool(fn func() bool) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()
	return fn()
}
