package oteltrace_test

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/observability/oteltrace"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestStartKeepsParentContext(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), parent)

	tr := oteltrace.NewWithProvider(noop.NewTracerProvider(), "minishop-test")
	ctx, span := tr.Start(ctx, "UC.CreateOrder", attribute.String("order.id", "o-1"))
	defer span.End()

	assert.Equal(t, parent.TraceID(), trace.SpanContextFromContext(ctx).TraceID())
}

func TestNewDefaultsServiceName(t *testing.T) {
	tr := oteltrace.New("")
	_, span := tr.Start(context.Background(), "UC.GetOrder")
	defer span.End()
	assert.NotNil(t, span)
}
