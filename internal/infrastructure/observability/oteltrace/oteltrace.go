package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

// New returns a Tracer from the global provider. Without an SDK provider
// installed, spans are non-recording but still carry propagated context.
func New(service string, opts ...trace.TracerOption) observability.Tracer {
	if service == "" {
		service = "minishop"
	}
	return &tracer{t: otel.Tracer(service, opts...)}
}

// NewWithProvider binds the tracer to an explicit provider, e.g. one from tests.
func NewWithProvider(tp trace.TracerProvider, service string) observability.Tracer {
	return &tracer{t: tp.Tracer(service)}
}

// Start opens an internal span; the HTTP layer opens its own server spans.
func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...), trace.WithSpanKind(trace.SpanKindInternal))
}
