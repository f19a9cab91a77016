package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/stencil/internal/adapters/telemetry"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/stencil/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func setupMonitor(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return sr
}

func TestOTelTracer_StartAndAttributes(t *testing.T) {
	sr := setupMonitor(t)
	tracer := telemetry.NewOTelTracer("test-tracer")

	ctx, span := tracer.Start(context.Background(), "batch", ports.WithBatch(7))
	span.SetAttribute("events", 3)
	span.SetAttribute("rebuilt", false)
	span.SetAttribute("keys", []string{"a", "b"})
	tracer.EmitBatch(ctx, []string{"/w/a.html"}, []string{"default:html"})
	_, err := span.Write([]byte("note"))
	require.NoError(t, err)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "batch", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("batch", 7))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("events", 3))
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("rebuilt", false))

	events := spans[0].Events()
	require.Len(t, events, 2)
	assert.Equal(t, "batch_planned", events[0].Name)
	assert.Equal(t, "log", events[1].Name)
}

func TestOTelTracer_EmitBatchWithoutSpan(t *testing.T) {
	sr := setupMonitor(t)
	telemetry.NewOTelTracer("test-tracer").EmitBatch(context.Background(), nil, nil)
	assert.Empty(t, sr.Ended())
}

func TestOTelSpan_RecordError(t *testing.T) {
	sr := setupMonitor(t)

	_, span := telemetry.NewOTelTracer("test-tracer").Start(context.Background(), "stage")
	span.RecordError(nil)
	span.RecordError(errors.New("boom"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
}

func TestLogBridge(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug(gomock.Any()).Times(1)
	mockLogger.EXPECT().Error(gomock.Any()).Times(1)

	tp := trace.NewTracerProvider(trace.WithSpanProcessor(telemetry.NewLogBridge(mockLogger)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := tp.Tracer("test")
	_, ok := tracer.Start(context.Background(), "ok")
	ok.End()

	_, failed := tracer.Start(context.Background(), "failed")
	failed.SetStatus(codes.Error, "bad")
	failed.End()
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	gotCtx, span := tracer.Start(ctx, "x")
	assert.Equal(t, ctx, gotCtx)
	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	n, err := span.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	span.End()
	tracer.EmitBatch(ctx, nil, nil)
}
