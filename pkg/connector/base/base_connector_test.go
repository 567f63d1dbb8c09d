package base

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/core"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/metrics"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/observability"
)

func newTestConnector(t *testing.T, name string) (*BaseConnector, *tracetest.SpanRecorder, *observer.ObservedLogs) {
	t.Helper()
	bc := NewBaseConnector(name, core.ConnectorTypeSource, "0.1.0")

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	bc.SetTracer(observability.NewConnectorTracerWithProvider("source", name, tp))

	zcore, logs := observer.New(zap.DebugLevel)
	bc.SetLogger(zap.New(zcore))
	return bc, recorder, logs
}

func TestIdentity(t *testing.T) {
	bc := NewBaseConnector("base-identity", core.ConnectorTypeSource, "1.2.3")
	assert.Equal(t, "base-identity", bc.Name())
	assert.Equal(t, core.ConnectorTypeSource, bc.Type())
	assert.Equal(t, "1.2.3", bc.Version())
	assert.NotNil(t, bc.GetLogger())
	assert.NotNil(t, bc.GetTracer())
	assert.Equal(t, "base-identity", bc.GetMetricsCollector().Name())
}

func TestObserveSuccess(t *testing.T) {
	bc, recorder, logs := newTestConnector(t, "base-observe-ok")

	called := false
	err := bc.Observe(context.Background(), "check", func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "source.base-observe-ok.check", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	assert.Equal(t, 1, logs.FilterMessage("operation completed").Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Errors.WithLabelValues("base-observe-ok", "check", "internal")))
}

func TestObserveFailure(t *testing.T) {
	bc, recorder, logs := newTestConnector(t, "base-observe-fail")

	want := nebulaerrors.New(nebulaerrors.ErrorTypeQuery, "search returned status 500")
	err := bc.Observe(context.Background(), "discover", func(ctx context.Context) error {
		return want
	})
	assert.Same(t, want, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	entries := logs.FilterMessage("operation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "query", entries[0].ContextMap()["error_type"])
	assert.Equal(t, "base-observe-fail", entries[0].ContextMap()["connector"])

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Errors.WithLabelValues("base-observe-fail", "discover", "query")))
}

func TestProgressReporter(t *testing.T) {
	zcore, logs := observer.New(zap.InfoLevel)
	pr := NewProgressReporter(zap.New(zcore), metrics.NewCollector("base-progress"), "orders")

	clock := pr.startTime
	pr.now = func() time.Time { return clock }
	pr.SetReportInterval(time.Second)
	pr.SetTotal(10)

	pr.IncrementProcessed(2)
	assert.Equal(t, 0, logs.FilterMessage("progress update").Len())

	clock = clock.Add(2 * time.Second)
	pr.IncrementProcessed(3)

	processed, total := pr.GetProgress()
	assert.Equal(t, int64(5), processed)
	assert.Equal(t, int64(10), total)
	assert.InDelta(t, 2.5, pr.GetAverageThroughput(), 0.001)
	assert.Equal(t, 2*time.Second, pr.GetETA())

	updates := logs.FilterMessage("progress update").All()
	require.Len(t, updates, 1)
	assert.Equal(t, float64(50), updates[0].ContextMap()["percentage"])

	pr.Finish()
	assert.Equal(t, 1, logs.FilterMessage("stream completed").Len())
}

func TestProgressReporterWithoutTotal(t *testing.T) {
	pr := NewProgressReporter(zap.NewNop(), metrics.NewCollector("base-progress-none"), "orders")
	pr.IncrementProcessed(1)
	assert.Zero(t, pr.GetETA())

	processed, total := pr.GetProgress()
	assert.Equal(t, int64(1), processed)
	assert.Zero(t, total)
}
