package parallel

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dd0wney/cluso-aco/pkg/logging"
)

// WorkerPool manages a fixed set of long-lived worker goroutines. The colony
// keeps one pool for the life of a session and fans each iteration's walks
// out through Run.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
	panics    atomic.Int64
	logger    logging.Logger
}

var (
	// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")
	// ErrPoolClosed is returned by Run after Close.
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrTaskPanicked is returned by Run when one or more tasks panicked.
	ErrTaskPanicked = errors.New("task panicked")
)

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// DefaultWorkers is the pool size used when callers pass workers <= 0.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// NewWorkerPool creates a pool with the given number of workers.
// workers <= 0 selects DefaultWorkers. A nil logger discards panic reports.
func NewWorkerPool(workers int, logger logging.Logger) (*WorkerPool, error) {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
		logger:    logging.OrNop(logger).With(logging.Component("worker_pool")),
	}

	for i := 0; i < pool.workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool, nil
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Panics returns the number of task panics recovered since creation.
func (wp *WorkerPool) Panics() int64 {
	return wp.panics.Load()
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		task()
	}
}

// guard runs task and converts a panic into a false return.
func (wp *WorkerPool) guard(task func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			wp.panics.Add(1)
			wp.logger.Error("task panic recovered", logging.Any("panic", fmt.Sprint(r)))
			ok = false
		}
	}()
	task()
	return true
}

// Submit queues a task. It returns false if the pool is closed.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	wp.taskQueue <- func() { wp.guard(task) }
	return true
}

// Run executes fn(0) … fn(n-1) on the pool and returns once every call has
// finished. It is the join point between an iteration's walks and its
// pheromone update. Run must not be called from inside a pool task.
func (wp *WorkerPool) Run(n int, fn func(i int)) error {
	if n <= 0 {
		return nil
	}

	var (
		done   sync.WaitGroup
		failed atomic.Int64
	)

	wp.mu.RLock()
	if wp.closed {
		wp.mu.RUnlock()
		return ErrPoolClosed
	}
	done.Add(n)
	for i := 0; i < n; i++ {
		i := i
		wp.taskQueue <- func() {
			defer done.Done()
			if !wp.guard(func() { fn(i) }) {
				failed.Add(1)
			}
		}
	}
	wp.mu.RUnlock()

	done.Wait()
	if f := failed.Load(); f > 0 {
		return fmt.Errorf("%w: %d of %d", ErrTaskPanicked, f, n)
	}
	return nil
}

// Close stops accepting work, drains queued tasks and waits for the workers
// to exit. It is safe to call more than once.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}
