package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.ForceFlush(context.Background()))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestStartServiceSpan_EndSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "purchasing", "receive_line",
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, 4))
	telemetry.EndSpan(span, errors.New("boom"))

	_, ok := telemetry.StartSpan(context.Background(), "asset.install")
	telemetry.EndSpan(ok, nil)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "purchasing.receive_line", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))

	setupTestTracer(t)
	ctx, span := telemetry.StartSpan(context.Background(), "x")
	defer span.End()
	assert.Len(t, telemetry.GetTraceID(ctx), 32)
}

func TestLifecycleMetrics(t *testing.T) {
	_, err := telemetry.NewLifecycleMetrics(telemetry.LifecycleMetricsConfig{})
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)

	m, err := telemetry.NewLifecycleMetrics(telemetry.LifecycleMetricsConfig{Meter: noop.NewMeterProvider().Meter("test")})
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordTransition(ctx, "INSTALLED", "IN_STORE", "ON_VEHICLE")
	m.RecordTiresReceived(ctx, "NEW", 40)
	m.RecordRetreadOutcome(ctx, "ACCEPTED", 2)
	m.RecordRetreadOutcome(ctx, "REJECTED", 0)
	m.RecordPosting(ctx, "PURCHASE_RECEIPT", decimal.RequireFromString("1234.56"))
	m.RecordBelowReorder(ctx, "295/80R22.5|Michelin|X Multi|NEW")
	m.RecordReconcile(ctx, 3)
	m.RecordJob(ctx, "stock_reconcile", "success", 150*time.Millisecond)
}

func TestNewZapOTELCore_Disabled(t *testing.T) {
	core := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{ServiceName: "test"})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))

	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	core = telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{ServiceName: "test", LoggerProvider: lp})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewBridgedLogger(t *testing.T) {
	observed, logs := observer.New(zapcore.InfoLevel)
	logger := telemetry.NewBridgedLogger(observed, zapcore.NewNopCore())

	logger.Info("tire installed", zap.String("serial", "SN-1"))
	logger.Debug("dropped")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "tire installed", logs.All()[0].Message)
}
