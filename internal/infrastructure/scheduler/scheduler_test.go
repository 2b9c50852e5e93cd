package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	financeapp "github.com/tyrefleet/backend/internal/application/finance"
	stockapp "github.com/tyrefleet/backend/internal/application/stock"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"go.uber.org/zap/zaptest"
)

func testConfig() Config {
	return Config{Workers: 1, QueueSize: 4, JobTimeout: time.Second, RetryAttempts: 2, RetryDelay: 10 * time.Millisecond}
}

// finished collects OnFinish callbacks
type finished struct {
	mu   sync.Mutex
	jobs []Job
	ch   chan Job
}

func watch(s *Scheduler) *finished {
	f := &finished{ch: make(chan Job, 16)}
	s.OnFinish = func(j Job) {
		f.mu.Lock()
		f.jobs = append(f.jobs, j)
		f.mu.Unlock()
		f.ch <- j
	}
	return f
}

func (f *finished) next(t *testing.T) Job {
	t.Helper()
	select {
	case j := <-f.ch:
		return j
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job")
		return Job{}
	}
}

func TestScheduler_RunsRegisteredJob(t *testing.T) {
	s := New(testConfig(), zaptest.NewLogger(t))
	var runs atomic.Int32
	s.Register(JobStockReconcile, func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		runs.Add(1)
		return nil
	})
	f := watch(s)

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	job, err := s.Submit(JobStockReconcile)
	require.NoError(t, err)

	done := f.next(t)
	assert.Equal(t, job.ID, done.ID)
	assert.Equal(t, JobStatusSuccess, done.Status)
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_RetriesThenGivesUp(t *testing.T) {
	s := New(testConfig(), zaptest.NewLogger(t))
	s.Register(JobSupplierBalanceVerify, func(context.Context) error { return errors.New("db down") })
	f := watch(s)

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	_, err := s.Submit(JobSupplierBalanceVerify)
	require.NoError(t, err)

	for want := 0; want <= 2; want++ {
		j := f.next(t)
		assert.Equal(t, JobStatusFailed, j.Status)
		assert.Equal(t, want, j.RetryCount)
		assert.Equal(t, "db down", j.Error)
	}
	select {
	case j := <-f.ch:
		t.Fatalf("unexpected extra run %+v", j)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduler_SubmitErrors(t *testing.T) {
	s := New(testConfig(), zaptest.NewLogger(t))
	s.Register(JobStockReconcile, func(context.Context) error { return nil })

	_, err := s.Submit(JobSupplierBalanceVerify)
	assert.ErrorIs(t, err, ErrUnknownJob)

	_, err = s.Submit(JobStockReconcile)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestIntervalTrigger_Submits(t *testing.T) {
	s := New(testConfig(), zaptest.NewLogger(t))
	s.Register(JobStockReconcile, func(context.Context) error { return nil })
	f := watch(s)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	trigger := NewIntervalTrigger(JobStockReconcile, 10*time.Millisecond, s, zaptest.NewLogger(t))
	require.NoError(t, trigger.Start(context.Background()))
	f.next(t)
	require.NoError(t, trigger.Stop(context.Background()))
}

type reconcilerMock struct{ mock.Mock }

func (m *reconcilerMock) Reconcile(ctx context.Context, key *asset.StockKey) (*stockapp.ReconcileReport, error) {
	args := m.Called(ctx, key)
	if r := args.Get(0); r != nil {
		return r.(*stockapp.ReconcileReport), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestStockReconcileJob(t *testing.T) {
	logger := zaptest.NewLogger(t)

	ok := new(reconcilerMock)
	ok.On("Reconcile", mock.Anything, (*asset.StockKey)(nil)).Return(&stockapp.ReconcileReport{KeysChecked: 3}, nil)
	assert.NoError(t, StockReconcileJob(ok, logger)(context.Background()))

	held := new(reconcilerMock)
	held.On("Reconcile", mock.Anything, mock.Anything).Return(nil,
		shared.NewStateConflictError("StockReconcile", stockapp.ReconcileLockName, "RUNNING", "RECONCILE", "busy"))
	assert.NoError(t, StockReconcileJob(held, logger)(context.Background()))

	broken := new(reconcilerMock)
	broken.On("Reconcile", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	assert.Error(t, StockReconcileJob(broken, logger)(context.Background()))
}

type verifierFunc func(context.Context) ([]financeapp.BalanceResponse, error)

func (f verifierFunc) VerifyAllSupplierBalances(ctx context.Context) ([]financeapp.BalanceResponse, error) {
	return f(ctx)
}

type fakeLock struct {
	held     bool
	released int
}

func (l *fakeLock) Obtain(context.Context, string, time.Duration) (func(context.Context) error, error) {
	if l.held {
		return nil, stockapp.ErrLockNotObtained
	}
	return func(context.Context) error { l.released++; return nil }, nil
}

func TestSupplierBalanceVerifyJob(t *testing.T) {
	logger := zaptest.NewLogger(t)
	calls := 0
	verifier := verifierFunc(func(context.Context) ([]financeapp.BalanceResponse, error) {
		calls++
		return []financeapp.BalanceResponse{{Consistent: false}}, nil
	})

	lock := &fakeLock{}
	require.NoError(t, SupplierBalanceVerifyJob(verifier, lock, time.Minute, logger)(context.Background()))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, lock.released)

	lock.held = true
	require.NoError(t, SupplierBalanceVerifyJob(verifier, lock, time.Minute, logger)(context.Background()))
	assert.Equal(t, 1, calls, "skipped while another instance holds the lock")

	require.NoError(t, SupplierBalanceVerifyJob(verifier, nil, 0, logger)(context.Background()))
	assert.Equal(t, 2, calls)
}
