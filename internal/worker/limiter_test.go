package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func Test_Limiter_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewLimiter(5)

	returnCh := make(chan struct{})

	count := 3
	for i := 0; i < count; i++ {
		err := limiter.DispatchWait(context.Background(), func() {
			returnCh <- struct{}{}
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < count; i++ {
		<-returnCh
	}

	limiter.StopWait()
}

func Test_Limiter_Run_limits(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewLimiter(3)

	returnCh := make(chan struct{})

	count := 3
	for i := 0; i < count; i++ {
		err := limiter.DispatchWait(context.Background(), func() {
			<-returnCh
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	// another func exceeding the concurrency limit of 3 waits for a slot
	dispatched := make(chan error, 1)
	var ran int32

	go func() {
		dispatched <- limiter.DispatchWait(context.Background(), func() {
			atomic.StoreInt32(&ran, 1)
		})
	}()

	select {
	case <-dispatched:
		t.Fatal("expected limiter to limit concurrency, by blocking the dispatch")
	case <-time.After(20 * time.Millisecond):
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))

	// unblock routines
	for i := 0; i < count; i++ {
		returnCh <- struct{}{}
	}

	require.NoError(t, <-dispatched)

	limiter.StopWait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func Test_Limiter_DispatchWait(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewLimiter(2)

	var running, peak, done int32

	count := 10
	for i := 0; i < count; i++ {
		err := limiter.DispatchWait(context.Background(), func() {
			n := atomic.AddInt32(&running, 1)

			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}

			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			atomic.AddInt32(&done, 1)
		})
		require.NoError(t, err)
	}

	limiter.StopWait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Equal(t, int32(count), atomic.LoadInt32(&done))
}

func Test_Limiter_DispatchWait_ContextDone(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewLimiter(1)

	releaseCh := make(chan struct{})

	err := limiter.DispatchWait(context.Background(), func() { <-releaseCh })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = limiter.DispatchWait(ctx, func() {
		t.Error("expected routine not to run")
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(releaseCh)
	limiter.StopWait()
}

func Test_Limiter_StopWait(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewLimiter(5)

	returnCh := make(chan struct{})

	count := 3
	for i := 0; i < count; i++ {
		err := limiter.DispatchWait(context.Background(), func() {
			time.Sleep(100 * time.Millisecond)
			returnCh <- struct{}{}
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	stopped := make(chan struct{})

	go func() {
		limiter.StopWait()
		close(stopped)
	}()

	// give a few ms for StopWait to run
	time.Sleep(10 * time.Millisecond)

	// assert drain was set
	assert.True(t, limiter.draining())

	err := limiter.DispatchWait(context.Background(), func() {
		t.Error("expected limiter to not accept methods in after StopWait()")
	})
	assert.ErrorIs(t, err, ErrLimiterDrain)

	for i := 0; i < count; i++ {
		<-returnCh
	}

	<-stopped
}
