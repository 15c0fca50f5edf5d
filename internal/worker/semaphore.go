// Package worker provides the concurrency primitives shared by the pipeline
// stages: a counting semaphore for bounded fan-out and a per-host rate
// limiter for outbound politeness.
package worker

import "context"

// Semaphore bounds the number of simultaneously in-flight operations of one
// kind. Each pipeline stage owns its own instance; permits are acquired
// around each task so resource accounting stays explicit.
type Semaphore struct {
	permits chan struct{}
}

// NewSemaphore creates a semaphore with n permits. Non-positive n is clamped
// to one so a misconfigured cap degrades to serial execution rather than
// deadlock.
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		n = 1
	}
	return &Semaphore{permits: make(chan struct{}, n)}
}

// Acquire blocks until a permit is available or the context is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.permits <- struct{}{}:
		return nil
	}
}

// Release returns a permit. Calling Release without a matching Acquire is a
// programming error and panics.
func (s *Semaphore) Release() {
	select {
	case <-s.permits:
	default:
		panic("worker: semaphore released without acquire")
	}
}

// Cap returns the permit count.
func (s *Semaphore) Cap() int {
	return cap(s.permits)
}
