package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitBatch signals that a batch is about to recompute the given files and contexts.
	EmitBatch(ctx context.Context, files []string, contexts []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Batch is the generation number of the batch the span belongs to, if any.
	Batch uint64
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithBatch tags a span with the batch generation it runs in.
func WithBatch(n uint64) SpanOption {
	return func(c *SpanConfig) {
		c.Batch = n
	}
}
