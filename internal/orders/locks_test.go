package orders

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocks_SerializesSameOrder(t *testing.T) {
	locks := NewLocks()
	ctx := context.Background()

	var inside, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Acquire(ctx, "X1")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
	assert.Equal(t, 0, locks.Len(), "released locks must be evicted")
}

func TestLocks_DifferentOrdersDoNotBlock(t *testing.T) {
	locks := NewLocks()
	ctx := context.Background()

	releaseA, err := locks.Acquire(ctx, "A")
	require.NoError(t, err)
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, err := locks.Acquire(ctx, "B")
		if assert.NoError(t, err) {
			releaseB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for B blocked on A")
	}
}

func TestLocks_ContextCancelWhileWaiting(t *testing.T) {
	locks := NewLocks()
	release, err := locks.Acquire(context.Background(), "X1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Acquire(ctx, "X1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, locks.Len())

	release()
	release() // second call is a no-op
	assert.Equal(t, 0, locks.Len())
}
