package eventsched

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jihwankim/caseforge/pkg/result"
)

// Trigger selects when a job fires.
type Trigger int

const (
	// TriggerDate fires the job once at FireAt.
	TriggerDate Trigger = iota
	// TriggerInterval fires the job every Interval, starting at FireAt.
	TriggerInterval
)

// job is one scheduled firing. A one-shot (TriggerDate) job with
// LoopCount > 1 is re-pushed at FireAt+Interval with LoopCount decremented,
// per spec §4.F's loop semantics.
type job struct {
	id        string
	trigger   Trigger
	fireAt    time.Time
	interval  time.Duration
	loopCount int
	event     *EventBase
	removed   bool
	heapIndex int
}

type jobHeap []*job

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Less(i, j int) bool  { return h[i].fireAt.Before(h[j].fireAt) }
func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}
func (h *jobHeap) Push(x any) {
	j := x.(*job)
	j.heapIndex = len(*h)
	*h = append(*h, j)
}
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return j
}

// Scheduler is a purpose-built heap-and-worker time-driven executor
// (REDESIGN FLAG: no general-purpose cron/scheduler library is wired here —
// the domain needs only a min-heap of fire times plus one worker loop, and
// every library in the example pack that offers this is either a full cron
// DSL or tied to an unrelated transport). Start blocks the caller's
// goroutine (the "event loop") until ctx is cancelled, per spec §5.
type Scheduler struct {
	mu       sync.Mutex
	jobs     jobHeap
	index    map[string]*job
	reporter *result.Reporter
	wake     chan struct{}
	nextID   int
}

// NewScheduler creates a scheduler that publishes fired events to reporter.
func NewScheduler(reporter *result.Reporter) *Scheduler {
	return &Scheduler{
		index:    map[string]*job{},
		reporter: reporter,
		wake:     make(chan struct{}, 1),
	}
}

// SubmitDate schedules a one-shot event at fireAt. If loopCount > 1, the
// event is re-submitted at fireAt+interval, loopCount-1 after each firing.
func (s *Scheduler) SubmitDate(fireAt time.Time, interval time.Duration, loopCount int, ev *EventBase) string {
	return s.submit(TriggerDate, fireAt, interval, loopCount, ev)
}

// SubmitInterval schedules a recurring event every interval, starting at
// fireAt ("background" events per spec §4.F: they stay on their native
// interval trigger indefinitely).
func (s *Scheduler) SubmitInterval(fireAt time.Time, interval time.Duration, ev *EventBase) string {
	return s.submit(TriggerInterval, fireAt, interval, 0, ev)
}

func (s *Scheduler) submit(trigger Trigger, fireAt time.Time, interval time.Duration, loopCount int, ev *EventBase) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := fmt.Sprintf("job-%d", s.nextID)
	j := &job{id: id, trigger: trigger, fireAt: fireAt, interval: interval, loopCount: loopCount, event: ev}
	heap.Push(&s.jobs, j)
	s.index[id] = j
	s.wakeLocked()
	return id
}

// RemoveEvent cancels a future firing of a previously submitted job. A job
// already popped off the heap for firing cannot be cancelled.
func (s *Scheduler) RemoveEvent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.index[id]
	if !ok {
		return false
	}
	j.removed = true
	delete(s.index, id)
	return true
}

func (s *Scheduler) wakeLocked() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start blocks the calling goroutine, firing jobs as their time arrives,
// until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		s.mu.Lock()
		for len(s.jobs) > 0 && s.jobs[0].removed {
			popped := heap.Pop(&s.jobs).(*job)
			delete(s.index, popped.id)
		}
		if len(s.jobs) == 0 {
			s.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}
		next := s.jobs[0]
		wait := time.Until(next.fireAt)
		s.mu.Unlock()

		if wait <= 0 {
			s.fireNext(ctx)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		case <-s.wake:
		}
	}
}

func (s *Scheduler) fireNext(ctx context.Context) {
	s.mu.Lock()
	if len(s.jobs) == 0 {
		s.mu.Unlock()
		return
	}
	j := heap.Pop(&s.jobs).(*job)
	delete(s.index, j.id)
	s.mu.Unlock()

	if j.removed {
		return
	}

	if j.trigger == TriggerInterval {
		next := &job{id: j.id, trigger: j.trigger, fireAt: j.fireAt.Add(j.interval), interval: j.interval, event: j.event}
		s.mu.Lock()
		heap.Push(&s.jobs, next)
		s.index[next.id] = next
		s.mu.Unlock()
		go j.event.Fire(ctx, s.reporter)
		return
	}

	go func() {
		j.event.Fire(ctx, s.reporter)
		if j.loopCount > 1 {
			s.mu.Lock()
			// Anchored on the job's own scheduled fire time, not wall-clock
			// after Fire returns, so a loop-count job holds its fixed cadence
			// instead of drifting later by however long Action/Final took —
			// matches original_source/.../scheduler.py's _event_listen
			// (scheduled_run_time + delta).
			rescheduled := &job{
				id: j.id, trigger: TriggerDate, fireAt: j.fireAt.Add(j.interval),
				interval: j.interval, loopCount: j.loopCount - 1, event: j.event,
			}
			heap.Push(&s.jobs, rescheduled)
			s.index[rescheduled.id] = rescheduled
			s.wakeLocked()
			s.mu.Unlock()
		}
	}()
}
