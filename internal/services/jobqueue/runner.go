// Package jobqueue is a durable at-least-once task queue backed by the jobs
// table. Enqueue persists before returning; a bounded worker pool claims jobs
// with SKIP LOCKED and retries failures with exponential backoff. Jobs that
// exhaust their attempts are parked in a dead state for inspection, never
// dropped. Handlers must be idempotent: duplicate execution is inherent to
// at-least-once delivery.
package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
)

// Handler executes one job. A nil return completes the job; an error
// schedules a retry (or kills the job once attempts run out).
type Handler func(ctx context.Context, job *models.Job) error

// Enqueuer is the producer side of the queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload models.JSON) error
}

// Config tunes the worker pool.
type Config struct {
	Workers      int
	PollInterval time.Duration
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	MaxAttempts  int
	// VisibilityTimeout is how long a claimed job may sit in running before
	// it is presumed orphaned by a dead worker and requeued.
	VisibilityTimeout time.Duration
}

// Runner is the queue implementation.
type Runner struct {
	repo     repositories.JobRepository
	config   Config
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRunner creates a job runner over the given repository.
func NewRunner(repo repositories.JobRepository, config Config) *Runner {
	if repo == nil {
		panic("repo is required")
	}
	if config.Workers == 0 {
		config.Workers = 4
	}
	if config.PollInterval == 0 {
		config.PollInterval = time.Second
	}
	if config.BaseBackoff == 0 {
		config.BaseBackoff = 10 * time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 10 * time.Minute
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 5
	}
	if config.VisibilityTimeout == 0 {
		config.VisibilityTimeout = 5 * time.Minute
	}
	return &Runner{
		repo:     repo,
		config:   config,
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a job type. Must be called before Start.
func (r *Runner) Register(jobType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = h
}

// Enqueue durably persists a job; it is runnable immediately.
func (r *Runner) Enqueue(ctx context.Context, jobType string, payload models.JSON) error {
	job := &models.Job{
		Type:        jobType,
		Payload:     payload,
		Status:      models.JobStatusPending,
		MaxAttempts: r.config.MaxAttempts,
		NextRunAt:   time.Now(),
	}
	if err := r.repo.CreateJob(job); err != nil {
		return fmt.Errorf("failed to enqueue %s job: %w", jobType, err)
	}
	return nil
}

// Start launches the worker pool and blocks until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	r.reclaimStale()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.reclaimLoop(ctx)
	}()
	for i := 0; i < r.config.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r.workerLoop(ctx, worker)
		}(i)
	}
	wg.Wait()
}

// reclaimLoop periodically requeues jobs orphaned in the running state by a
// worker that died before finishing them. Without it a crash would strand the
// job forever: never retried, never dead-lettered.
func (r *Runner) reclaimLoop(ctx context.Context) {
	ticker := time.NewTicker(r.config.VisibilityTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reclaimStale()
		}
	}
}

func (r *Runner) reclaimStale() {
	n, err := r.repo.ReclaimStale(time.Now().Add(-r.config.VisibilityTimeout))
	if err != nil {
		log.Printf("failed to reclaim stale jobs: %v", err)
		return
	}
	if n > 0 {
		log.Printf("requeued %d jobs orphaned in the running state", n)
	}
}

func (r *Runner) workerLoop(ctx context.Context, worker int) {
	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for r.runOne(ctx) {
				// drain runnable jobs before sleeping again
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// runOne claims and executes a single job. Returns false when no job was
// runnable.
func (r *Runner) runOne(ctx context.Context) bool {
	job, err := r.repo.ClaimNext(time.Now())
	if err != nil {
		if !errors.Is(err, repositories.ErrNoJobs) {
			log.Printf("job claim failed: %v", err)
		}
		return false
	}

	r.execute(ctx, job)
	return true
}

func (r *Runner) execute(ctx context.Context, job *models.Job) {
	r.mu.RLock()
	handler, ok := r.handlers[job.Type]
	r.mu.RUnlock()

	if !ok {
		// No handler means the job can never succeed; park it.
		job.Status = models.JobStatusDead
		job.LastError = fmt.Sprintf("no handler registered for type %q", job.Type)
		if err := r.repo.UpdateJob(job); err != nil {
			log.Printf("failed to kill job %d: %v", job.ID, err)
		}
		return
	}

	job.Attempts++
	if err := handler(ctx, job); err != nil {
		r.handleFailure(job, err)
		return
	}

	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.CompletedAt = &now
	job.LastError = ""
	if err := r.repo.UpdateJob(job); err != nil {
		log.Printf("failed to complete job %d: %v", job.ID, err)
	}
}

func (r *Runner) handleFailure(job *models.Job, execErr error) {
	job.LastError = execErr.Error()

	if job.Attempts >= job.MaxAttempts {
		job.Status = models.JobStatusDead
		log.Printf("job %d (%s) dead after %d attempts: %v", job.ID, job.Type, job.Attempts, execErr)
	} else {
		job.Status = models.JobStatusPending
		job.NextRunAt = time.Now().Add(r.Backoff(job.Attempts))
		log.Printf("job %d (%s) attempt %d failed, retrying at %s: %v",
			job.ID, job.Type, job.Attempts, job.NextRunAt.Format(time.RFC3339), execErr)
	}

	if err := r.repo.UpdateJob(job); err != nil {
		log.Printf("failed to reschedule job %d: %v", job.ID, err)
	}
}

// Backoff returns the delay before the given retry attempt: base doubled per
// attempt, capped at MaxBackoff.
func (r *Runner) Backoff(attempt int) time.Duration {
	d := r.config.BaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= r.config.MaxBackoff {
			return r.config.MaxBackoff
		}
	}
	if d > r.config.MaxBackoff {
		return r.config.MaxBackoff
	}
	return d
}
