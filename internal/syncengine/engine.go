package syncengine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/relentnet/matchops-sync/internal/errs"
	"github.com/relentnet/matchops-sync/internal/syncqueue"
)

const (
	// defaultTimeout bounds every executor call: the context handed to it
	// carries this deadline, so a hung network call cannot stall the loop.
	defaultTimeout = 30 * time.Second
	// maxAttempts is the per-entry retry cap; exceeding it drops the entry
	// with a surfaced failure event.
	maxAttempts = 5
	// idlePoll is how often the loop re-checks an empty/paused queue absent
	// an explicit wake signal.
	idlePoll = 2 * time.Second
	backoffBase = 500 * time.Millisecond
	backoffCap  = 30 * time.Second
)

// ExecuteFunc applies one queue entry to the remote store. *Executor
// satisfies this via its Execute method; SyncedDataStore injects it with
// SetExecutor.
type ExecuteFunc func(ctx context.Context, entry syncqueue.Entry) error

// Engine is the single-writer scheduler that drains the queue.
type Engine struct {
	queue   *syncqueue.Queue
	execute ExecuteFunc
	online  func() bool
	bcast   Broadcaster

	timeout     time.Duration
	maxAttempts int

	mu           sync.Mutex
	state        State
	lastSyncedAt time.Time
	lastError    string
	listeners    []func(Status)

	wake    chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New builds an Engine over queue. online reports current connectivity; it
// may be nil to mean "always online".
func New(queue *syncqueue.Queue, online func() bool) *Engine {
	if online == nil {
		online = func() bool { return true }
	}
	return &Engine{
		queue:       queue,
		online:      online,
		timeout:     defaultTimeout,
		maxAttempts: maxAttempts,
		state:       StateIdle,
		wake:        make(chan struct{}, 1),
	}
}

// SetExecutor injects (or replaces) the executor function.
func (e *Engine) SetExecutor(fn ExecuteFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.execute = fn
}

// SetTimeout overrides the per-operation deadline (default 30s). Exposed
// mainly so tests can run the retry/backoff path quickly.
func (e *Engine) SetTimeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timeout = d
}

// SetMaxAttempts overrides the per-entry retry cap (default 5).
func (e *Engine) SetMaxAttempts(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxAttempts = n
}

// SetBroadcaster attaches a status fan-out sink.
func (e *Engine) SetBroadcaster(b Broadcaster) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bcast = b
}

// Notify wakes the loop immediately — called after enqueue and after an
// online transition, instead of waiting out idlePoll.
func (e *Engine) Notify() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// SetOnline records an online/offline transition observed by the caller
// (e.g. a network watchdog). Going offline pauses the loop; going online
// wakes it immediately.
func (e *Engine) SetOnline(online bool) {
	e.mu.Lock()
	e.online = func() bool { return online }
	e.mu.Unlock()
	if online {
		e.Notify()
	}
}

func (e *Engine) isOnline() bool {
	e.mu.Lock()
	fn := e.online
	e.mu.Unlock()
	return fn()
}

// Start launches the drain loop in a background goroutine. Calling Start on
// an already-running engine is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.mu.Unlock()

	go e.loop(ctx)
}

// Stop cancels any in-flight executor call and halts scheduling; it blocks
// until the loop goroutine has actually exited, so callers never race a
// still-running drain.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	close(e.stopCh)
	done := e.doneCh
	e.mu.Unlock()

	<-done

	e.mu.Lock()
	e.running = false
	e.setStateLocked(StateStopped, "")
	e.mu.Unlock()
}

func (e *Engine) loop(parentCtx context.Context) {
	defer close(e.doneCh)

	for {
		select {
		case <-e.stopCh:
			return
		case <-parentCtx.Done():
			return
		default:
		}

		if !e.isOnline() {
			e.setState(StatePaused, "")
			if !e.waitForWake(parentCtx) {
				return
			}
			continue
		}

		entry, err := e.queue.Peek(parentCtx)
		if err != nil {
			log.Printf("[Sync] failed to peek queue: %v", err)
			if !e.waitForWake(parentCtx) {
				return
			}
			continue
		}
		if entry == nil {
			// A surfaced failure stays visible as StateError until the next
			// entry is attempted; an empty queue does not reset it to idle.
			e.mu.Lock()
			if e.state != StateError {
				e.setStateLocked(StateIdle, "")
			}
			e.mu.Unlock()
			if !e.waitForWake(parentCtx) {
				return
			}
			continue
		}

		e.setState(StateSyncing, "")
		if !e.runOne(parentCtx, *entry) {
			return
		}
	}
}

// runOne executes a single queue head entry and applies the retry/drop/
// surface classification. It returns false if the engine was stopped while
// the call was in flight.
func (e *Engine) runOne(parentCtx context.Context, entry syncqueue.Entry) bool {
	e.mu.Lock()
	exec := e.execute
	timeout := e.timeout
	e.mu.Unlock()

	if exec == nil {
		// No executor injected yet: nothing to drain against. Wait rather
		// than busy-loop on the same head entry.
		return e.waitForWake(parentCtx)
	}

	callCtx, cancel := context.WithTimeout(parentCtx, timeout)
	done := make(chan error, 1)
	go func() { done <- exec(callCtx, entry) }()

	var callErr error
	select {
	case callErr = <-done:
	case <-e.stopCh:
		cancel()
		<-done
		return false
	}
	cancel()

	if callErr == nil {
		if err := e.queue.Remove(parentCtx, entry.ID); err != nil {
			log.Printf("[Sync] failed to dequeue %s after success: %v", entry.ID, err)
		}
		e.mu.Lock()
		e.lastSyncedAt = time.Now().UTC()
		e.mu.Unlock()
		e.setState(StateIdle, "")
		return true
	}

	if errs.IsTransient(callErr) && entry.Attempts+1 < e.maxAttempts {
		if err := e.queue.ReinsertWithError(parentCtx, entry.ID, callErr.Error()); err != nil {
			log.Printf("[Sync] failed to reinsert %s: %v", entry.ID, err)
		}
		return e.backoffWait(parentCtx, entry.Attempts)
	}

	// Either non-transient (surface immediately) or the retry budget is
	// exhausted (drop with a surfaced failure).
	if err := e.queue.Remove(parentCtx, entry.ID); err != nil {
		log.Printf("[Sync] failed to drop %s: %v", entry.ID, err)
	}
	log.Printf("[Sync] dropping %s/%s after error: %v", entry.EntityType, entry.EntityID, callErr)
	e.setState(StateError, callErr.Error())
	return true
}

func (e *Engine) backoffWait(ctx context.Context, attempts int) bool {
	delay := backoffBase * time.Duration(1<<attempts)
	if delay > backoffCap {
		delay = backoffCap
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-e.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) waitForWake(ctx context.Context) bool {
	timer := time.NewTimer(idlePoll)
	defer timer.Stop()
	select {
	case <-e.wake:
		return true
	case <-timer.C:
		return true
	case <-e.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) setState(s State, lastError string) {
	e.mu.Lock()
	e.setStateLocked(s, lastError)
	e.mu.Unlock()
}

func (e *Engine) setStateLocked(s State, lastError string) {
	e.state = s
	if lastError != "" {
		e.lastError = lastError
	}
	status := e.snapshotLocked()
	listeners := append([]func(Status){}, e.listeners...)
	bcast := e.bcast
	go func() {
		for _, l := range listeners {
			l(status)
		}
		if bcast != nil {
			bcast.Publish(status)
		}
	}()
}

func (e *Engine) snapshotLocked() Status {
	stats, _ := e.queue.GetStats(context.Background())
	return Status{
		State:        e.state,
		PendingCount: stats.PendingCount,
		FailedCount:  stats.FailedCount,
		LastSyncedAt: e.lastSyncedAt,
		LastError:    e.lastError,
	}
}

// Status returns the current observable snapshot.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// OnStatusChange registers a listener invoked on every state transition. It
// returns an unsubscribe function.
func (e *Engine) OnStatusChange(fn func(Status)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
	idx := len(e.listeners) - 1
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if idx < len(e.listeners) {
			e.listeners[idx] = func(Status) {}
		}
	}
}
