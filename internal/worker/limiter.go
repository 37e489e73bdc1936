package worker

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrLimiterDrain = errors.New("draining routines")
)

// requirements
// - limit running items based on concurrency value
// - DispatchWait blocks until a running routine returns or the context is done
// - drain blocks adding more items to be run, waits until all items are complete
// - accepts func() - all error handling must be wrapped in a closure by the caller

// Limiter runs go routines limiting them by the defined concurrency.
type Limiter struct {
	// waitgroup for running routines.
	wg *sync.WaitGroup
	// slots holds a token for each running routine.
	slots chan struct{}
	// mu is the guard for drain.
	mu sync.RWMutex
	// drain is the flag set when StopWait() invoked, with drain=true, no further routines are accepted.
	drain bool
}

// NewLimiter returns a new limiting go routine runner.
// To ensure the routines spawned by Limiter are complete, the StopWait() method should be invoked.
//
// concurrency is the limit on the number of running go routines, values below 1 are treated as 1.
func NewLimiter(concurrency int) *Limiter {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Limiter{
		wg:    &sync.WaitGroup{},
		slots: make(chan struct{}, concurrency),
	}
}

// DispatchWait runs the given routine once the number of running routines is below the concurrency limit,
// the routine to be executed should be wrapped in a closure.
//
// It returns the context error if the context is done before the routine could be run.
func (l *Limiter) DispatchWait(ctx context.Context, f func()) error {
	if l.draining() {
		return ErrLimiterDrain
	}

	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	return l.run(f)
}

// run expects a slot to be held, the slot is released once f returns.
func (l *Limiter) run(f func()) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.drain {
		<-l.slots
		return ErrLimiterDrain
	}

	l.wg.Add(1)

	go func() {
		defer func() {
			<-l.slots
			l.wg.Done()
		}()

		f()
	}()

	return nil
}

func (l *Limiter) draining() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.drain
}

// StopWait prevents any further routines from being added
// and waits until all the routines complete.
func (l *Limiter) StopWait() {
	l.mu.Lock()
	l.drain = true
	l.mu.Unlock()

	l.wg.Wait()
}
