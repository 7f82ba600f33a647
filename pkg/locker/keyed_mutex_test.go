package locker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	m := NewKeyedMutex(0)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(context.Background(), "user:1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, m.Len())
}

func TestKeyedMutexDifferentKeysIndependent(t *testing.T) {
	m := NewKeyedMutex(0)

	unlockA, err := m.Lock(context.Background(), "user:1")
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := m.Lock(context.Background(), "user:2")
		if err == nil {
			unlockB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyedMutexTimeout(t *testing.T) {
	m := NewKeyedMutex(20 * time.Millisecond)

	unlock, err := m.Lock(context.Background(), "user:1")
	require.NoError(t, err)

	_, err = m.Lock(context.Background(), "user:1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	unlock() // 重复释放无副作用
	assert.Equal(t, 0, m.Len())

	unlock, err = m.Lock(context.Background(), "user:1")
	require.NoError(t, err)
	unlock()
}

func TestKeyedMutexContextCanceled(t *testing.T) {
	m := NewKeyedMutex(0)

	unlock, err := m.Lock(context.Background(), "user:1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Lock(ctx, "user:1")
	assert.ErrorIs(t, err, context.Canceled)
}
