package syncengine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/relentnet/matchops-sync/internal/errs"
	"github.com/relentnet/matchops-sync/internal/kv"
	"github.com/relentnet/matchops-sync/internal/synclock"
	"github.com/relentnet/matchops-sync/internal/syncqueue"
)

func newTestEngine(online func() bool) (*Engine, *syncqueue.Queue) {
	q := syncqueue.New(kv.NewMemoryStore(), synclock.New())
	e := New(q, online)
	e.SetTimeout(500 * time.Millisecond)
	return e, q
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestEngineDrainsSuccessfulEntry(t *testing.T) {
	ctx := context.Background()
	e, q := newTestEngine(nil)

	var calls int32
	e.SetExecutor(func(ctx context.Context, entry syncqueue.Entry) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	if _, err := q.Enqueue(ctx, syncqueue.EntityPlayer, "p1", syncqueue.OpCreate, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	e.Start(ctx)
	defer e.Stop()

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&calls) == 1 })

	all, err := q.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected queue drained, got %d entries", len(all))
	}
}

func TestEngineSurfacesNonTransientErrorWithoutRetry(t *testing.T) {
	ctx := context.Background()
	e, q := newTestEngine(nil)

	var calls int32
	e.SetExecutor(func(ctx context.Context, entry syncqueue.Entry) error {
		atomic.AddInt32(&calls, 1)
		return errs.New(errs.Validation, "bad payload")
	})

	if _, err := q.Enqueue(ctx, syncqueue.EntityPlayer, "p1", syncqueue.OpCreate, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	e.Start(ctx)
	defer e.Stop()

	waitFor(t, time.Second, func() bool { return e.Status().State == StateError })

	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one call for a non-transient error, got %d", calls)
	}
	all, _ := q.All(ctx)
	if len(all) != 0 {
		t.Fatalf("expected the non-retryable entry to be dropped, got %d entries", len(all))
	}
}

func TestEngineRetriesTransientErrorThenSucceeds(t *testing.T) {
	ctx := context.Background()
	e, q := newTestEngine(nil)

	var calls int32
	e.SetExecutor(func(ctx context.Context, entry syncqueue.Entry) error {
		n := atomic.AddInt32(&calls, 1)
		if n < 2 {
			return errs.New(errs.Network, "offline blip")
		}
		return nil
	})

	if _, err := q.Enqueue(ctx, syncqueue.EntityPlayer, "p1", syncqueue.OpCreate, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	e.Start(ctx)
	defer e.Stop()

	waitFor(t, 3*time.Second, func() bool { return atomic.LoadInt32(&calls) >= 2 })
	waitFor(t, 3*time.Second, func() bool {
		all, _ := q.All(ctx)
		return len(all) == 0
	})
}

func TestEngineDoesNotExecuteWhileOffline(t *testing.T) {
	ctx := context.Background()
	var online int32 // 0 = offline
	e, q := newTestEngine(func() bool { return atomic.LoadInt32(&online) == 1 })

	var calls int32
	e.SetExecutor(func(ctx context.Context, entry syncqueue.Entry) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	if _, err := q.Enqueue(ctx, syncqueue.EntityPlayer, "p1", syncqueue.OpCreate, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	e.Start(ctx)
	defer e.Stop()

	waitFor(t, time.Second, func() bool { return e.Status().State == StatePaused })
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no executor calls while offline, got %d", calls)
	}

	atomic.StoreInt32(&online, 1)
	e.SetOnline(true)

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&calls) == 1 })
}

func TestEngineStopCancelsInFlightCall(t *testing.T) {
	ctx := context.Background()
	e, q := newTestEngine(nil)

	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	e.SetExecutor(func(ctx context.Context, entry syncqueue.Entry) error {
		close(started)
		defer wg.Done()
		<-ctx.Done()
		return ctx.Err()
	})

	if _, err := q.Enqueue(ctx, syncqueue.EntityPlayer, "p1", syncqueue.OpCreate, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	e.Start(ctx)
	<-started
	e.Stop()
	wg.Wait()

	if e.Status().State != StateStopped {
		t.Fatalf("expected stopped state, got %s", e.Status().State)
	}
}
