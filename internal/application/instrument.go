package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	spanPrefix     = "UC."
	publishPeer    = "outbox"
	PublishTimeout = 300 * time.Millisecond
)

// Instruments holds the tracer, base logger and RED metrics a service's use
// cases share. Build it once per service and pass it to every use case.
type Instruments struct {
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInstruments(tel observability.Observability, service string) *Instruments {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Instruments{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (in *Instruments) Logger() observability.Logger { return in.log }

// Run is one use case execution. End must be deferred right after Begin.
type Run struct {
	in      *Instruments
	useCase string
	ctx     context.Context
	span    trace.Span
	logger  observability.Logger
	start   time.Time
	outcome string
	status  string
	fields  []observability.Field
}

func (in *Instruments) Begin(ctx context.Context, useCase, name string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, spanPrefix+name, attrs...)
	return ctx, &Run{
		in:      in,
		useCase: useCase,
		ctx:     ctx,
		span:    span,
		logger:  logger,
		start:   time.Now(),
		outcome: "success",
		status:  "OK",
	}
}

// Fail marks the run as failed with a machine-readable status.
func (r *Run) Fail(status string) {
	r.outcome, r.status = "error", status
}

// Status overrides the status text without changing the outcome.
func (r *Run) Status(status string) {
	r.status = status
}

// Annotate adds fields to the closing use_case_done line.
func (r *Run) Annotate(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

func (r *Run) Logger() observability.Logger { return r.logger }

func (r *Run) Span() trace.Span { return r.span }

func (r *Run) End(err error) {
	if err != nil && r.outcome == "success" {
		r.outcome = "error"
		if r.status == "OK" {
			r.status = "ERROR"
		}
	}
	lat := time.Since(r.start).Seconds()

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.status)
		} else {
			r.span.SetStatus(codes.Ok, r.status)
		}
		r.span.End()
	}

	r.in.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.outcome),
	)
	r.in.durHistogram.Observe(lat,
		observability.L("use_case", r.useCase),
	)

	fields := append([]observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}, r.fields...)
	if sc := trace.SpanContextFromContext(r.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}

	r.logger.Info("use_case_done", fields...)
}

// Call runs fn as a call to an external peer and records it in the external RED metrics.
func (r *Run) Call(ctx context.Context, peer, endpoint string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		outcome = "canceled"
	default:
		outcome = "error"
	}
	r.in.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	r.in.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
	return err
}

// Publish flushes events after the triggering write has been persisted.
// Publishing failures are recorded on the run but never fail the use case:
// the state change already happened.
func (r *Run) Publish(ctx context.Context, pub domoutbox.Publisher, events []domoutbox.Event) {
	if pub == nil || len(events) == 0 {
		return
	}
	var errs []error
	for _, e := range events {
		err := r.Call(ctx, publishPeer, e.EventName(), func(ctx context.Context) error {
			pubCtx, cancel := context.WithTimeout(ctx, PublishTimeout)
			defer cancel()
			return pub.Publish(pubCtx, e)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.EventName(), err))
			continue
		}
		r.span.AddEvent(e.EventName(), trace.WithAttributes(attribute.String("event.id", e.EventID())))
	}
	if err := errors.Join(errs...); err != nil {
		r.Status("EVENT_PUBLISH_FAILED")
		r.Annotate(observability.F("event_publish_error", err.Error()))
	}
}
