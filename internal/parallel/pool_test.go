package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolCreate(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	assert.Equal(t, 4, pool.Workers())
	assert.True(t, pool.IsRunning())
}

func TestWorkerPoolDefaultsToGOMAXPROCS(t *testing.T) {
	for _, n := range []int{0, -3} {
		pool := NewWorkerPool(n)
		assert.Equal(t, runtime.GOMAXPROCS(0), pool.Workers())
		pool.Close()
	}
}

func TestWorkerPoolRunIsBarrier(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	tasks := make([]func(), 200)
	for i := range tasks {
		tasks[i] = func() {
			if i%17 == 0 {
				time.Sleep(time.Millisecond)
			}
			counter.Add(1)
		}
	}

	require.NoError(t, pool.Run(tasks))
	assert.EqualValues(t, 200, counter.Load())
}

func TestWorkerPoolRunEmpty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	assert.NoError(t, pool.Run(nil))
}

func TestWorkerPoolRunAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	assert.False(t, pool.IsRunning())
	assert.ErrorIs(t, pool.Run([]func(){func() {}}), ErrClosed)
}

func TestWorkerPoolMoreTasksThanQueueSpace(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	var counter atomic.Int64
	tasks := make([]func(), 1000)
	for i := range tasks {
		tasks[i] = func() { counter.Add(1) }
	}

	require.NoError(t, pool.Run(tasks))
	assert.EqualValues(t, 1000, counter.Load())
}

func TestWorkerPoolRunRacingClose(t *testing.T) {
	for range 50 {
		pool := NewWorkerPool(4)

		var (
			wg   sync.WaitGroup
			ran  atomic.Int64
			want atomic.Int64
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tasks := make([]func(), 64)
				for i := range tasks {
					tasks[i] = func() { ran.Add(1) }
				}
				if err := pool.Run(tasks); err == nil {
					want.Add(int64(len(tasks)))
				} else {
					assert.ErrorIs(t, err, ErrClosed)
				}
			}()
		}
		pool.Close()

		finished := make(chan struct{})
		go func() {
			wg.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after Close")
		}
		assert.Equal(t, want.Load(), ran.Load(), "every accepted task runs")
	}
}
