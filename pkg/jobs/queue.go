package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of background work. Payload is opaque to the queue.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Enqueued time.Time
}

// Handler processes a job. A handler error is terminal: solver runs are never
// retried, the job's registry entry carries the failure instead.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	Logger     *zap.Logger
}

// Queue fans jobs out to a fixed pool of worker goroutines over a
// buffered channel. Enqueue blocks once the buffer is full, which acts
// as natural backpressure on the submit endpoint.
type Queue struct {
	name    string
	handler Handler
	logger  *zap.Logger

	workers int
	jobs    chan Job

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    sync.WaitGroup
}

// NewQueue builds an idle queue. Call Start to begin consuming.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = workers * 4
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		logger:  log,
		workers: workers,
		jobs:    make(chan Job, buffer),
	}
}

// Start launches the worker pool. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.started = true

	for i := 0; i < q.workers; i++ {
		q.done.Add(1)
		go q.run(i + 1)
	}
	q.logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.workers)
}

// Stop cancels the pool context and blocks until every worker returns.
// Jobs still sitting in the buffer are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()

	q.done.Wait()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Enqueue hands a job to the pool, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	started, ctx := q.started, q.ctx
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	}
}

func (q *Queue) run(worker int) {
	defer q.done.Done()
	log := q.logger.Sugar().With("queue", q.name, "worker", worker)

	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			waited := time.Since(job.Enqueued)
			if err := q.handler(q.ctx, job); err != nil {
				log.Errorw("job failed", "job_id", job.ID, "type", job.Type, "queued_for", waited, "error", err)
				continue
			}
			log.Debugw("job finished", "job_id", job.ID, "type", job.Type, "queued_for", waited)
		}
	}
}
