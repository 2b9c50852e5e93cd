package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LifecycleMetrics records tire lifecycle, receiving, posting and reconciliation metrics.
// Callers pass plain strings so this package stays free of domain imports.
type LifecycleMetrics struct {
	logger *zap.Logger

	transitions      *Counter
	tiresReceived    *Counter
	retreadOutcomes  *Counter
	postings         *Counter
	postedAmountCent *Counter
	stockDrift       *Counter
	belowReorder     *Counter
	jobDuration      *Histogram
	lastDriftCount   *Gauge
}

// LifecycleMetricsConfig holds configuration for lifecycle metrics.
type LifecycleMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = &MetricsError{Op: "NewLifecycleMetrics", Err: "meter cannot be nil"}

// MetricsError is a metrics setup error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// NewLifecycleMetrics creates the instruments
func NewLifecycleMetrics(cfg LifecycleMetricsConfig) (*LifecycleMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &LifecycleMetrics{logger: logger}

	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&m.transitions, "tyre_tire_transitions_total", "Committed tire state transitions", "{transitions}"},
		{&m.tiresReceived, "tyre_tires_received_total", "Tires created by goods or retread receipts", "{tires}"},
		{&m.retreadOutcomes, "tyre_retread_outcomes_total", "Retread line outcomes recorded", "{lines}"},
		{&m.postings, "tyre_postings_total", "Accounting transactions posted", "{transactions}"},
		{&m.postedAmountCent, "tyre_posted_amount_total", "Posted amount in cents", "{cents}"},
		{&m.stockDrift, "tyre_stock_drift_total", "Stock counters corrected by reconciliation", "{keys}"},
		{&m.belowReorder, "tyre_stock_below_reorder_total", "Deltas that left a key at or below its reorder level", "{events}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	m.jobDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "tyre_job_duration_seconds",
		Description: "Scheduled job run time",
		Unit:        "s",
		Boundaries:  DurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	m.lastDriftCount, err = NewGauge(cfg.Meter, "tyre_stock_drift_last_run", "Keys found drifted by the last reconcile run", "{keys}")
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordTransition counts one committed transition
func (m *LifecycleMetrics) RecordTransition(ctx context.Context, trigger, from, to string) {
	m.transitions.Inc(ctx, AttrTrigger.String(trigger), AttrFromStatus.String(from), AttrToStatus.String(to))
}

// RecordTiresReceived counts tires created by a receipt
func (m *LifecycleMetrics) RecordTiresReceived(ctx context.Context, kind string, n int) {
	m.tiresReceived.Add(ctx, int64(n), AttrTireKind.String(kind))
}

// RecordRetreadOutcome counts retread lines by outcome
func (m *LifecycleMetrics) RecordRetreadOutcome(ctx context.Context, outcome string, n int) {
	if n == 0 {
		return
	}
	m.retreadOutcomes.Add(ctx, int64(n), AttrOutcome.String(outcome))
}

// RecordPosting counts a posted transaction and its amount
func (m *LifecycleMetrics) RecordPosting(ctx context.Context, kind string, amount decimal.Decimal) {
	m.postings.Inc(ctx, AttrPostingKind.String(kind))
	m.postedAmountCent.Add(ctx, amount.Shift(2).IntPart(), AttrPostingKind.String(kind))
}

// RecordBelowReorder counts a low stock signal for a key
func (m *LifecycleMetrics) RecordBelowReorder(ctx context.Context, key string) {
	m.belowReorder.Inc(ctx, AttrStockKey.String(key))
}

// RecordReconcile records the result of a reconcile run
func (m *LifecycleMetrics) RecordReconcile(ctx context.Context, drifted int) {
	m.lastDriftCount.Record(ctx, int64(drifted))
	if drifted > 0 {
		m.stockDrift.Add(ctx, int64(drifted))
	}
}

// RecordJob records a scheduled job run
func (m *LifecycleMetrics) RecordJob(ctx context.Context, name, status string, d time.Duration) {
	m.jobDuration.RecordDuration(ctx, d, AttrJobName.String(name), AttrJobStatus.String(status))
}
