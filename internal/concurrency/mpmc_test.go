package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockFreeQueue_MPMC(t *testing.T) {
	q := NewLockFreeQueue[int](1024)
	producers := 10
	consumers := 10
	itemsPerProducer := 10000

	var wg sync.WaitGroup
	var sentSum int64
	var receivedSum int64

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				val := pid*itemsPerProducer + i + 1
				for !q.Enqueue(val) {
					runtime.Gosched()
				}
				atomic.AddInt64(&sentSum, int64(val))
			}
		}(p)
	}

	var receivedCount int64
	totalItems := int64(producers * itemsPerProducer)

	consumerWg := sync.WaitGroup{}
	for c := 0; c < consumers; c++ {
		consumerWg.Add(1)
		go func() {
			defer consumerWg.Done()
			for {
				if val, ok := q.Dequeue(); ok {
					atomic.AddInt64(&receivedSum, int64(val))
					if atomic.AddInt64(&receivedCount, 1) == totalItems {
						return
					}
				} else {
					if atomic.LoadInt64(&receivedCount) >= totalItems {
						return
					}
					runtime.Gosched()
				}
			}
		}()
	}

	wg.Wait()

	done := make(chan struct{})
	go func() {
		consumerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		assert.Equal(t, sentSum, receivedSum, "checksum mismatch")
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for consumers, received %d/%d", atomic.LoadInt64(&receivedCount), totalItems)
	}
}

func TestLockFreeQueue_PerProducerOrder(t *testing.T) {
	q := NewLockFreeQueue[[2]int](16)
	const producers, items = 4, 5000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for i := 0; i < items; i++ {
				for !q.Enqueue([2]int{pid, i}) {
					runtime.Gosched()
				}
			}
		}(p)
	}

	next := make([]int, producers)
	for got := 0; got < producers*items; {
		v, ok := q.Dequeue()
		if !ok {
			runtime.Gosched()
			continue
		}
		require.Equal(t, next[v[0]], v[1], "producer %d out of order", v[0])
		next[v[0]]++
		got++
	}
	wg.Wait()
}

func TestLockFreeQueue_Bounds(t *testing.T) {
	q := NewLockFreeQueue[int](3)
	require.Equal(t, 4, q.Cap())

	for i := 0; i < 4; i++ {
		require.True(t, q.Enqueue(i))
	}
	assert.False(t, q.Enqueue(99), "enqueue into full queue")
	assert.Equal(t, 4, q.Len())

	for i := 0; i < 4; i++ {
		v, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.Dequeue()
	assert.False(t, ok, "dequeue from empty queue")
	assert.Equal(t, 0, q.Len())

	assert.Equal(t, 2, NewLockFreeQueue[int](0).Cap())
}

func TestExecutor_RunsAllTasks(t *testing.T) {
	e := NewExecutor(3)
	const tasks = 5000

	var ran atomic.Int64
	var wg sync.WaitGroup
	wg.Add(tasks)
	for i := 0; i < tasks; i++ {
		require.NoError(t, e.Submit(func() {
			defer wg.Done()
			ran.Add(1)
		}))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout, ran %d/%d", ran.Load(), tasks)
	}

	e.Close()
	assert.Equal(t, int64(tasks), ran.Load())
	assert.Equal(t, 3, e.NumWorkers())
	assert.ErrorIs(t, e.Submit(func() {}), ErrExecutorClosed)
}

func TestExecutor_BlockingTasksMoreThanWorkers(t *testing.T) {
	// tasks block until released; queued ones must still run afterwards
	e := NewExecutor(2)
	defer e.Close()

	release := make(chan struct{})
	var finished atomic.Int64
	for i := 0; i < 8; i++ {
		require.NoError(t, e.Submit(func() {
			<-release
			finished.Add(1)
		}))
	}
	close(release)

	require.Eventually(t, func() bool { return finished.Load() == 8 }, 5*time.Second, time.Millisecond)
}

func TestExecutor_RecoversPanics(t *testing.T) {
	var recovered atomic.Value
	e := NewExecutor(1, WithPanicHandler(func(r any) { recovered.Store(r) }))

	require.NoError(t, e.Submit(func() { panic("boom") }))
	done := make(chan struct{})
	require.NoError(t, e.Submit(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not survive panic")
	}
	e.Close()
	assert.Equal(t, "boom", recovered.Load())
}

func TestExecutor_CloseDrainsQueued(t *testing.T) {
	e := NewExecutor(1)
	var ran atomic.Int64
	for i := 0; i < 100; i++ {
		require.NoError(t, e.Submit(func() { ran.Add(1) }))
	}
	e.Close()
	assert.Equal(t, int64(100), ran.Load())
	assert.Zero(t, e.Pending())
}

func TestBackoff_Progression(t *testing.T) {
	b := Backoff{Spins: 2, MaxSleep: 4 * time.Microsecond}
	b.Wait()
	b.Wait()
	assert.Equal(t, 2, b.round)
	assert.Zero(t, b.sleep)

	b.Wait()
	assert.Equal(t, 2*time.Microsecond, b.sleep)
	b.Wait()
	b.Wait()
	assert.Equal(t, 4*time.Microsecond, b.sleep)

	b.Reset()
	assert.Zero(t, b.round)
	assert.Zero(t, b.sleep)
}
