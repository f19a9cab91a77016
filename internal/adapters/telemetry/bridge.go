package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

// LogBridge implements sdktrace.SpanProcessor by logging finished spans at debug level.
type LogBridge struct {
	logger ports.Logger
}

// NewLogBridge returns a new LogBridge.
func NewLogBridge(logger ports.Logger) *LogBridge {
	return &LogBridge{logger: logger}
}

// OnStart does nothing; spans are reported when they end.
func (b *LogBridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name and duration, or its error status.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !s.SpanContext().IsValid() {
		return
	}

	if s.Status().Code == codes.Error {
		b.logger.Error(zerr.With(zerr.New(s.Status().Description), "span", s.Name()))
		return
	}

	b.logger.Debug(fmt.Sprintf("%s finished in %s", s.Name(), s.EndTime().Sub(s.StartTime())))
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(_ context.Context) error {
	return nil
}

// Setup installs a global tracer provider that reports spans through the bridge.
// The returned provider must be shut down by the caller.
func Setup(bridge *LogBridge) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bridge),
	)
	otel.SetTracerProvider(tp)
	return tp
}
