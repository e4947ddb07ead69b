// Package fiber implements the cooperative scheduler of spec §4.6/§9: a
// set of lightweight, priority-ordered execution contexts each wrapping a
// chain of continuations, suspended at explicit safepoints rather than
// preempted. Grounded on the teacher's priority task queue and worker
// pool (sentra internal/concurrency/concurrency.go's TaskQueue/
// WorkerPool), narrowed from goroutine-per-job concurrency to a single
// driving goroutine per fiber plus a global safepoint barrier, and using
// golang.org/x/sync/semaphore to bound how many fibers may run
// concurrently (the teacher uses a bare buffered channel for the same
// purpose; x/sync's weighted semaphore adds context-aware acquisition,
// which the safepoint-coordinated shutdown path in Scheduler.Drain needs).
package fiber

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/valence-lang/valence/internal/continuation"
	"github.com/valence-lang/valence/internal/diagnostic"
)

// Priority mirrors the teacher's TaskPriority levels.
type Priority int

const (
	Low Priority = iota
	Normal
	High
	Critical
)

// Status is a fiber's observable lifecycle state.
type Status int

const (
	Runnable Status = iota
	Running
	Suspended
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case Runnable:
		return "runnable"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "status(?)"
	}
}

// Stepper runs one slice of a fiber's continuation chain until it either
// finishes, fails, or voluntarily suspends. Implemented by whatever glues
// l1.Run/l2.Run together (the runtime package), kept as an interface here
// so package fiber has no hard dependency on l1 or l2.
type Stepper interface {
	// Step runs from c until termination, suspension, or error. Suspended
	// must be true only when the fiber itself asked to yield (not on
	// error); resumeAt is the continuation to resume from next.
	Step(ctx context.Context, c *continuation.Continuation) (result any, resumeAt *continuation.Continuation, suspended bool, err error)
}

// Fiber is one cooperative execution context.
type Fiber struct {
	ID       uint64
	Priority Priority
	current  *continuation.Continuation
	status   atomic.Int32
	result   any
	err      error
	done     chan struct{}
}

func (f *Fiber) Status() Status { return Status(f.status.Load()) }
func (f *Fiber) Result() (any, error) {
	<-f.done
	return f.result, f.err
}

// Scheduler runs a pool of fibers cooperatively: at most maxConcurrent
// run at once (enforced with a weighted semaphore so Drain can wait on a
// safepoint barrier), dispatched high-before-normal-before-low like the
// teacher's dispatchTasks, with ties broken by submission order.
type Scheduler struct {
	stepper Stepper
	sem     *semaphore.Weighted

	mu      sync.Mutex
	high    []*Fiber
	normal  []*Fiber
	low     []*Fiber
	nextID  uint64
	safepoint sync.WaitGroup // running fibers register here; Drain waits on it
}

func NewScheduler(stepper Stepper, maxConcurrent int64) *Scheduler {
	return &Scheduler{stepper: stepper, sem: semaphore.NewWeighted(maxConcurrent)}
}

// Spawn creates and enqueues a fiber beginning at root.
func (s *Scheduler) Spawn(root *continuation.Continuation, priority Priority) *Fiber {
	s.mu.Lock()
	s.nextID++
	f := &Fiber{ID: s.nextID, Priority: priority, current: root, done: make(chan struct{})}
	f.status.Store(int32(Runnable))
	switch priority {
	case Critical, High:
		s.high = append(s.high, f)
	case Normal:
		s.normal = append(s.normal, f)
	default:
		s.low = append(s.low, f)
	}
	s.mu.Unlock()
	return f
}

// next pops the highest-priority runnable fiber, preferring high over
// normal over low exactly like the teacher's dispatchTasks preference
// order.
func (s *Scheduler) next() *Fiber {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.high) > 0 {
		f := s.high[0]
		s.high = s.high[1:]
		return f
	}
	if len(s.normal) > 0 {
		f := s.normal[0]
		s.normal = s.normal[1:]
		return f
	}
	if len(s.low) > 0 {
		f := s.low[0]
		s.low = s.low[1:]
		return f
	}
	return nil
}

func (s *Scheduler) requeue(f *Fiber) {
	s.mu.Lock()
	switch f.Priority {
	case Critical, High:
		s.high = append(s.high, f)
	case Normal:
		s.normal = append(s.normal, f)
	default:
		s.low = append(s.low, f)
	}
	s.mu.Unlock()
}

// RunOne dequeues and runs a single step of the highest-priority runnable
// fiber, returning false if there was none to run. Resuming from a
// suspension point re-enters the stepper at the fiber's saved
// continuation, matching spec §4.6's safepoint-coordinated suspend
// protocol: a fiber only ever yields between instructions, never mid
// instruction.
func (s *Scheduler) RunOne(ctx context.Context) (bool, error) {
	f := s.next()
	if f == nil {
		return false, nil
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.requeue(f)
		return false, err
	}
	s.safepoint.Add(1)
	defer s.safepoint.Done()
	defer s.sem.Release(1)

	f.status.Store(int32(Running))
	result, resumeAt, suspended, err := s.stepper.Step(ctx, f.current)
	switch {
	case err != nil:
		f.err = err
		f.status.Store(int32(Failed))
		close(f.done)
	case suspended:
		f.current = resumeAt
		f.status.Store(int32(Suspended))
		s.requeue(f)
	default:
		f.result = result
		f.status.Store(int32(Completed))
		close(f.done)
	}
	return true, err
}

// Drain runs fibers to exhaustion, returning once none remain runnable.
func (s *Scheduler) Drain(ctx context.Context) error {
	for {
		ran, err := s.RunOne(ctx)
		if err != nil && err != context.Canceled {
			return err
		}
		if !ran {
			return nil
		}
	}
}

// AwaitSafepoint blocks until every currently running fiber has reached a
// suspension boundary — used by the serializer (component K) before
// snapshotting shared state, and by repository mutations that require a
// safepoint per spec §4.8.
func (s *Scheduler) AwaitSafepoint() {
	s.safepoint.Wait()
}

var errCancelled = diagnostic.Internal("fiber scheduler cancelled")

// Cancel fails every queued fiber without running it, for shutdown.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range [][]*Fiber{s.high, s.normal, s.low} {
		for _, f := range list {
			f.err = errCancelled
			f.status.Store(int32(Failed))
			close(f.done)
		}
	}
	s.high, s.normal, s.low = nil, nil, nil
}
