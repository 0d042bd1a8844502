package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrQueueFull is returned when a job is submitted while the pending
	// slots are taken
	ErrQueueFull = errors.New("run queue is full")

	// ErrQueueClosed is returned when a job is submitted after Close
	ErrQueueClosed = errors.New("run queue is closed")
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type queuedJob struct {
	job  Job
	done chan Result
}

// Queue runs jobs one at a time on a single background worker. Jobs never
// overlap; at most capacity jobs wait behind the running one.
type Queue struct {
	jobs       chan queuedJob
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
	logger     zerolog.Logger
}

// NewQueue creates a queue and starts its worker. A non-positive capacity
// uses one pending slot.
func NewQueue(capacity int, logger zerolog.Logger) *Queue {
	if capacity <= 0 {
		capacity = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:       make(chan queuedJob, capacity),
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger,
	}

	q.wg.Add(1)
	go q.worker()
	return q
}

// worker is the goroutine that processes jobs in submission order
func (q *Queue) worker() {
	defer q.wg.Done()

	for item := range q.jobs {
		item.done <- item.job.Execute(q.ctx)
		close(item.done)
	}
}

// Submit enqueues a job without blocking. The returned channel delivers the
// job's result once it has run.
func (q *Queue) Submit(job Job) (<-chan Result, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, ErrQueueClosed
	}

	item := queuedJob{job: job, done: make(chan Result, 1)}
	select {
	case q.jobs <- item:
		return item.done, nil
	default:
		q.logger.Debug().Int("pending", len(q.jobs)).Msg("Run queue full")
		return nil, ErrQueueFull
	}
}

// SubmitWait enqueues a job, waiting for a free slot
func (q *Queue) SubmitWait(ctx context.Context, job Job) (<-chan Result, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, ErrQueueClosed
	}

	item := queuedJob{job: job, done: make(chan Result, 1)}
	select {
	case q.jobs <- item:
		return item.done, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.ctx.Done():
		return nil, ErrQueueClosed
	}
}

// Pending returns the number of jobs waiting behind the running one
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// Close stops accepting jobs and waits for queued jobs to finish
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	q.wg.Wait()
}

// Shutdown cancels the running job, then closes the queue. Jobs still
// queued run with a cancelled context.
func (q *Queue) Shutdown() {
	q.cancelFunc()
	q.Close()
}
