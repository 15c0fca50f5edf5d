package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSemaphore_BoundsConcurrency(t *testing.T) {
	const permits = 3
	const tasks = 20

	sem := NewSemaphore(permits)
	ctx := context.Background()

	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < tasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx); err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			defer sem.Release()

			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > permits {
		t.Errorf("peak concurrency %d exceeded cap %d", got, permits)
	}
}

func TestSemaphore_AcquireRespectsContext(t *testing.T) {
	sem := NewSemaphore(1)
	ctx := context.Background()

	if err := sem.Acquire(ctx); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := sem.Acquire(cancelled); err == nil {
		t.Error("expected acquire on cancelled context to fail")
	}

	sem.Release()
	if err := sem.Acquire(ctx); err != nil {
		t.Errorf("acquire after release failed: %v", err)
	}
}

func TestSemaphore_ClampsNonPositiveCap(t *testing.T) {
	if got := NewSemaphore(0).Cap(); got != 1 {
		t.Errorf("expected cap 1 for zero input, got %d", got)
	}
	if got := NewSemaphore(-3).Cap(); got != 1 {
		t.Errorf("expected cap 1 for negative input, got %d", got)
	}
}

func TestSemaphore_ReleaseWithoutAcquirePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on unmatched release")
		}
	}()
	NewSemaphore(1).Release()
}
