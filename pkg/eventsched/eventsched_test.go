package eventsched_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/caseforge/pkg/engineerr"
	"github.com/jihwankim/caseforge/pkg/eventsched"
	"github.com/jihwankim/caseforge/pkg/result"
)

// TestLockPool_SecondLockWaitsForRelease reproduces spec §8 scenario S3 +
// invariant 4: a second concurrent Lock call on the same resource only
// returns after the first holder releases.
func TestLockPool_SecondLockWaitsForRelease(t *testing.T) {
	pool := eventsched.NewResourceLockPool()
	require.NoError(t, pool.Lock("device-1", "event-a", time.Second))

	unblocked := make(chan struct{})
	go func() {
		require.NoError(t, pool.Lock("device-1", "event-b", time.Second))
		close(unblocked)
	}()

	select {
	case <-unblocked:
		t.Fatal("second Lock returned before release")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, pool.Release("device-1", "event-a"))

	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatal("second Lock did not unblock after release")
	}
}

func TestLockPool_TimesOut(t *testing.T) {
	pool := eventsched.NewResourceLockPool()
	require.NoError(t, pool.Lock("device-1", "event-a", time.Second))

	err := pool.Lock("device-1", "event-b", 20*time.Millisecond)
	require.ErrorIs(t, err, engineerr.ErrResourceIsLocked)
}

func TestLockPool_ReleaseByWrongEventFails(t *testing.T) {
	pool := eventsched.NewResourceLockPool()
	require.NoError(t, pool.Lock("device-1", "event-a", time.Second))

	err := pool.Release("device-1", "event-b")
	require.ErrorIs(t, err, engineerr.ErrInvalidLockOperation)
}

func TestLockPool_ReleaseUnlockedFails(t *testing.T) {
	pool := eventsched.NewResourceLockPool()
	err := pool.Release("device-1", "event-a")
	require.ErrorIs(t, err, engineerr.ErrInvalidLockOperation)
}

type countingHooks struct {
	mu       sync.Mutex
	actions  int32
	preCheck bool
	finals   int32
}

func (h *countingHooks) PreCheck(context.Context) bool { return h.preCheck }
func (h *countingHooks) Action(context.Context) error {
	atomic.AddInt32(&h.actions, 1)
	return nil
}
func (h *countingHooks) Final(context.Context) { atomic.AddInt32(&h.finals, 1) }

func TestEventBase_FirePublishesPassOnSuccess(t *testing.T) {
	rep := result.New()
	hooks := &countingHooks{preCheck: true}
	class := &eventsched.Class{Name: "tick", New: func() eventsched.Hooks { return hooks }}
	ev := eventsched.NewEvent(class)

	ev.Fire(context.Background(), rep)

	node := rep.SearchResult("tick")
	require.NotNil(t, node)
	require.Equal(t, result.StatusPass, node.Children[0].Status)
	require.Equal(t, int32(1), atomic.LoadInt32(&hooks.actions))
	require.Equal(t, int32(1), atomic.LoadInt32(&hooks.finals))
}

func TestEventBase_FireSkipsActionOnFailedPreCheck(t *testing.T) {
	rep := result.New()
	hooks := &countingHooks{preCheck: false}
	class := &eventsched.Class{Name: "tick", New: func() eventsched.Hooks { return hooks }}
	ev := eventsched.NewEvent(class)

	ev.Fire(context.Background(), rep)

	require.Equal(t, int32(0), atomic.LoadInt32(&hooks.actions))
	require.Equal(t, int32(1), atomic.LoadInt32(&hooks.finals))
}

func TestScheduler_FiresDateJobOnce(t *testing.T) {
	rep := result.New()
	sched := eventsched.NewScheduler(rep)
	hooks := &countingHooks{preCheck: true}
	class := &eventsched.Class{Name: "once", New: func() eventsched.Hooks { return hooks }}

	sched.SubmitDate(time.Now().Add(10*time.Millisecond), 0, 1, eventsched.NewEvent(class))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	sched.Start(ctx)

	require.Equal(t, int32(1), atomic.LoadInt32(&hooks.actions))
}

func TestScheduler_RemoveEventPreventsFiring(t *testing.T) {
	rep := result.New()
	sched := eventsched.NewScheduler(rep)
	hooks := &countingHooks{preCheck: true}
	class := &eventsched.Class{Name: "cancelled", New: func() eventsched.Hooks { return hooks }}

	id := sched.SubmitDate(time.Now().Add(50*time.Millisecond), 0, 1, eventsched.NewEvent(class))
	require.True(t, sched.RemoveEvent(id))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	sched.Start(ctx)

	require.Equal(t, int32(0), atomic.LoadInt32(&hooks.actions))
}

type blockingHooks struct {
	entered  chan struct{}
	release  chan struct{}
	finished *int32
}

func (h *blockingHooks) PreCheck(context.Context) bool { return true }
func (h *blockingHooks) Action(context.Context) error {
	h.entered <- struct{}{}
	<-h.release
	return nil
}
func (h *blockingHooks) Final(context.Context) { atomic.AddInt32(h.finished, 1) }

// TestEventBase_NeedLockSerializesAcrossDifferentClasses reproduces spec
// §4.F's class-wide event lock as a single system-wide lock: two distinct
// NeedLock Classes must still serialize against each other, not just
// against themselves.
func TestEventBase_NeedLockSerializesAcrossDifferentClasses(t *testing.T) {
	rep := result.New()
	var finished int32

	first := &blockingHooks{entered: make(chan struct{}), release: make(chan struct{}), finished: &finished}
	second := &blockingHooks{entered: make(chan struct{}), release: make(chan struct{}), finished: &finished}

	classA := &eventsched.Class{Name: "class-a", NeedLock: true, New: func() eventsched.Hooks { return first }}
	classB := &eventsched.Class{Name: "class-b", NeedLock: true, New: func() eventsched.Hooks { return second }}

	go eventsched.NewEvent(classA).Fire(context.Background(), rep)

	select {
	case <-first.entered:
	case <-time.After(time.Second):
		t.Fatal("first event never entered Action")
	}

	secondStarted := make(chan struct{})
	go func() {
		eventsched.NewEvent(classB).Fire(context.Background(), rep)
		close(secondStarted)
	}()

	select {
	case <-second.entered:
		t.Fatal("second class's event ran Action while first class's event still held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	first.release <- struct{}{}

	select {
	case <-second.entered:
	case <-time.After(time.Second):
		t.Fatal("second event never entered Action after first released the lock")
	}
	second.release <- struct{}{}

	select {
	case <-secondStarted:
	case <-time.After(time.Second):
		t.Fatal("second Fire never returned")
	}
	require.Equal(t, int32(2), atomic.LoadInt32(&finished))
}
