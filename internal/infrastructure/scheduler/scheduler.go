package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobKind names a periodic maintenance job
type JobKind string

const (
	JobStockReconcile        JobKind = "STOCK_RECONCILE"
	JobSupplierBalanceVerify JobKind = "SUPPLIER_BALANCE_VERIFY"
)

// JobFunc does the work of one job run
type JobFunc func(ctx context.Context) error

// Job is one run of a JobKind
type Job struct {
	ID          uuid.UUID
	Kind        JobKind
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

// NewJob creates a pending job
func NewJob(kind JobKind, maxRetries int) *Job {
	return &Job{ID: uuid.New(), Kind: kind, Status: JobStatusPending, MaxRetries: maxRetries}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry reports whether a failed job has retries left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// Config holds scheduler configuration
type Config struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Workers:       2,
		QueueSize:     16,
		JobTimeout:    10 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    time.Minute,
	}
}

// Scheduler runs registered job functions on a small worker pool.
// Failed runs are re-queued after RetryDelay until MaxRetries is reached.
type Scheduler struct {
	config Config
	logger *zap.Logger

	funcs map[JobKind]JobFunc
	jobs  chan *Job

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	// OnFinish, when set, is called after every run with the final job state
	OnFinish func(job Job)
}

// New creates a scheduler
func New(config Config, logger *zap.Logger) *Scheduler {
	defaults := DefaultConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	return &Scheduler{
		config: config,
		logger: logger,
		funcs:  make(map[JobKind]JobFunc),
		jobs:   make(chan *Job, config.QueueSize),
	}
}

// Register binds a function to a job kind. Call before Start.
func (s *Scheduler) Register(kind JobKind, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcs[kind] = fn
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("job_timeout", s.config.JobTimeout))
	return nil
}

// Stop cancels running jobs and waits for the workers, bounded by ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues a new run of kind
func (s *Scheduler) Submit(kind JobKind) (*Job, error) {
	s.mu.Lock()
	_, known := s.funcs[kind]
	running := s.isRunning
	s.mu.Unlock()

	if !known {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, kind)
	}
	if !running {
		return nil, ErrSchedulerNotRunning
	}
	job := NewJob(kind, s.config.RetryAttempts)
	if err := s.enqueue(job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Scheduler) enqueue(job *Job) error {
	select {
	case s.jobs <- job:
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)))
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.process(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) process(ctx context.Context, job *Job, workerID int) {
	s.mu.Lock()
	fn := s.funcs[job.Kind]
	s.mu.Unlock()

	job.Start()
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)))

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := fn(jobCtx)
	cancel()

	if err == nil {
		job.Complete()
		log.Info("Job completed", zap.Duration("took", job.CompletedAt.Sub(*job.StartedAt)))
		s.finish(job)
		return
	}

	job.Fail(err.Error())
	log.Error("Job failed", zap.Int("retry_count", job.RetryCount), zap.Error(err))
	s.finish(job)
	if !job.ShouldRetry() || ctx.Err() != nil {
		return
	}

	job.RetryCount++
	job.Status = JobStatusPending
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
		case <-time.After(s.config.RetryDelay):
			if err := s.enqueue(job); err != nil {
				log.Warn("Failed to re-queue job for retry", zap.Error(err))
			}
		}
	}()
}

func (s *Scheduler) finish(job *Job) {
	if s.OnFinish != nil {
		s.OnFinish(*job)
	}
}
