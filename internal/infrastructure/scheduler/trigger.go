package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IntervalTrigger submits a job kind to the scheduler every interval
type IntervalTrigger struct {
	kind      JobKind
	interval  time.Duration
	scheduler *Scheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewIntervalTrigger creates a trigger for kind
func NewIntervalTrigger(kind JobKind, interval time.Duration, scheduler *Scheduler, logger *zap.Logger) *IntervalTrigger {
	return &IntervalTrigger{kind: kind, interval: interval, scheduler: scheduler, logger: logger}
}

// Start begins ticking. A non-positive interval leaves the trigger idle.
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning || t.interval <= 0 {
		return nil
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.wg.Add(1)
	go t.run(ctx)

	t.logger.Info("Interval trigger started",
		zap.String("kind", string(t.kind)),
		zap.Duration("interval", t.interval))
	return nil
}

// Stop stops ticking and waits for the loop to exit
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.cancel()
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *IntervalTrigger) run(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := t.scheduler.Submit(t.kind); err != nil {
				level := zap.WarnLevel
				if errors.Is(err, ErrSchedulerNotRunning) {
					level = zap.DebugLevel
				}
				t.logger.Log(level, "Failed to submit scheduled job",
					zap.String("kind", string(t.kind)), zap.Error(err))
			}
		}
	}
}
