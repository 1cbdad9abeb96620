package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the buffer has no room; callers decide
	// whether to fail the request or degrade.
	ErrQueueFull = errors.New("queue full")
	// ErrQueueClosed is returned before Start and after Stop.
	ErrQueueClosed = errors.New("queue closed")
)

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is the first backoff step; each further attempt doubles it
	// up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	// OnGiveUp runs once per job that exhausted its retries or could not be requeued.
	OnGiveUp func(Job, error)
	Logger   *zap.Logger
}

// Dispatcher accepts jobs for asynchronous processing.
type Dispatcher interface {
	Enqueue(job Job) error
}

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// Queue is an in-memory worker pool. Stop drains what is already buffered
// before the workers exit.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger

	mu     sync.RWMutex
	state  state
	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc

	workers sync.WaitGroup
	retries sync.WaitGroup
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = 30 * cfg.RetryDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Handlers run under a context that keeps the
// values of ctx but is only cancelled by Stop, so a shutdown signal does not
// abort deliveries that are still draining. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != stateIdle {
		return
	}
	q.ctx, q.cancel = context.WithCancel(context.WithoutCancel(ctx))
	q.state = stateRunning
	for i := 1; i <= q.cfg.Workers; i++ {
		q.workers.Add(1)
		go q.work(i)
	}
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop refuses new jobs and waits for buffered ones to finish. When ctx
// expires first, in-flight handlers are cancelled and ctx's error returned.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.state != stateRunning {
		q.mu.Unlock()
		return nil
	}
	q.state = stateStopped
	close(q.jobs)
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.workers.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		err = ctx.Err()
		q.cancel()
		<-drained
	}
	q.cancel()
	q.retries.Wait()
	q.logger.Info("queue stopped", zap.Error(err))
	return err
}

// Enqueue hands job to a worker without blocking.
func (q *Queue) Enqueue(job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.state != stateRunning {
		return fmt.Errorf("%s: %w", q.name, ErrQueueClosed)
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("%s: %w", q.name, ErrQueueFull)
	}
}

// Pending reports how many jobs are buffered and waiting for a worker.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

func (q *Queue) work(workerID int) {
	defer q.workers.Done()
	for job := range q.jobs {
		err := q.handler(q.ctx, job)
		if err == nil {
			continue
		}
		q.logger.Debug("job handler error", zap.Int("worker", workerID), zap.String("job_id", job.ID), zap.Error(err))
		q.retry(job, err)
	}
}

// backoff returns the wait before the given retry attempt (1-based).
func (q *Queue) backoff(attempt int) time.Duration {
	d := q.cfg.RetryDelay
	for i := 1; i < attempt && d < q.cfg.MaxRetryDelay; i++ {
		d *= 2
	}
	if d > q.cfg.MaxRetryDelay {
		d = q.cfg.MaxRetryDelay
	}
	return d
}

func (q *Queue) retry(job Job, cause error) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.giveUp(job, cause)
		return
	}
	wait := q.backoff(job.Attempt)
	q.logger.Warn("job failed, retrying",
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempt),
		zap.Duration("backoff", wait),
		zap.Error(cause),
	)

	q.retries.Add(1)
	go func() {
		defer q.retries.Done()
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.giveUp(job, q.ctx.Err())
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				q.giveUp(job, err)
			}
		}
	}()
}

func (q *Queue) giveUp(job Job, cause error) {
	q.logger.Error("job abandoned",
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempts", job.Attempt),
		zap.Error(cause),
	)
	if q.cfg.OnGiveUp != nil {
		q.cfg.OnGiveUp(job, cause)
	}
}
