package outbox

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const componentOutbox = "outbox"

const (
	defaultQueueSize          = 1024
	defaultWorkers            = 4
	defaultHandlerConcurrency = 8
	defaultHandlerTimeout     = 30 * time.Second
)

type subscription struct {
	name    string
	handler domoutbox.Handler
}

// envelope carries the publisher's span so handler spans link back to the request.
type envelope struct {
	event domoutbox.Event
	span  trace.SpanContext
}

// Bus is an in-memory event bus with at-least-once, best-effort fanout.
// It is not durable: queued events are lost on crash, and failed handler
// results are handed to the ResultSink for reconciliation.
type Bus struct {
	mu          sync.RWMutex
	subs        map[string][]subscription
	queue       chan envelope
	startOnce   sync.Once
	stopOnce    sync.Once
	cancel      context.CancelFunc
	workers     sync.WaitGroup
	closed      atomic.Bool
	pendingMu   sync.Mutex
	pending     int
	idle        chan struct{}
	workerCount int
	concurrency int
	timeout     time.Duration
	sink        domoutbox.ResultSink
	dedup       domoutbox.Deduplicator
	log         observability.Logger
	tel         observability.Observability
}

type Option func(*Bus)

func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan envelope, n)
		}
	}
}

func WithWorkers(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.workerCount = n
		}
	}
}

// WithHandlerConcurrency caps how many handlers of one event run at once.
func WithHandlerConcurrency(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func WithHandlerTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithResultSink(s domoutbox.ResultSink) Option {
	return func(b *Bus) { b.sink = s }
}

func WithDeduplicator(d domoutbox.Deduplicator) Option {
	return func(b *Bus) { b.dedup = d }
}

func NewBus(tel observability.Observability, opts ...Option) *Bus {
	if tel == nil {
		tel = observability.Nop()
	}
	idle := make(chan struct{})
	close(idle)
	b := &Bus{
		subs:        make(map[string][]subscription),
		queue:       make(chan envelope, defaultQueueSize),
		idle:        idle,
		workerCount: defaultWorkers,
		concurrency: defaultHandlerConcurrency,
		timeout:     defaultHandlerTimeout,
		log:         tel.Logger().With(observability.F("component", componentOutbox)),
		tel:         tel,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Subscribe(eventName, handlerName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], subscription{name: handlerName, handler: h})
}

// Handlers returns the handler names registered for eventName.
func (b *Bus) Handlers(eventName string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.subs[eventName]))
	for _, s := range b.subs[eventName] {
		names = append(names, s.name)
	}
	return names
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		b.cancel = cancel
		for i := 0; i < b.workerCount; i++ {
			b.workers.Add(1)
			go b.dispatchLoop(bg)
		}
		logctx.FromOr(ctx, b.log).Info("event_bus_started",
			observability.F("workers", b.workerCount),
			observability.F("queue_capacity", cap(b.queue)),
		)
	})
}

// Stop refuses new events, waits for queued ones to drain (bounded by ctx),
// then stops the workers.
func (b *Bus) Stop(ctx context.Context) error {
	var err error
	b.stopOnce.Do(func() {
		b.closed.Store(true)
		err = b.WaitIdle(ctx)
		if b.cancel != nil {
			b.cancel()
		}
		b.workers.Wait()
		logger := logctx.FromOr(ctx, b.log)
		if err != nil {
			logger.Warn("event_bus_stopped_with_backlog", observability.F("pending", b.Pending()), observability.F("error", err))
			return
		}
		logger.Info("event_bus_stopped")
	})
	return err
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	logger := logctx.FromOr(ctx, b.log).With(
		observability.F("event", e.EventName()),
		observability.F("event_id", e.EventID()),
	)
	if b.closed.Load() {
		logger.Warn("event_rejected_bus_closed")
		return domoutbox.ErrBusClosed
	}

	b.track()
	select {
	case b.queue <- envelope{event: e, span: trace.SpanContextFromContext(ctx)}:
		logger.Debug("event_enqueued")
		return nil
	case <-ctx.Done():
		b.done()
		logger.Warn("event_enqueue_aborted", observability.F("error", ctx.Err()))
		return ctx.Err()
	}
}

// WaitIdle blocks until every published event has been fanned out.
func (b *Bus) WaitIdle(ctx context.Context) error {
	b.pendingMu.Lock()
	idle := b.idle
	b.pendingMu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) Pending() int {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	return b.pending
}

func (b *Bus) track() {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	if b.pending == 0 {
		b.idle = make(chan struct{})
	}
	b.pending++
}

func (b *Bus) done() {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	b.pending--
	if b.pending == 0 {
		close(b.idle)
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer b.workers.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-b.queue:
			b.fanout(ctx, env)
			b.done()
		}
	}
}

func (b *Bus) fanout(ctx context.Context, env envelope) {
	e := env.event
	name := e.EventName()

	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[name]...)
	b.mu.RUnlock()

	logger := b.log.With(observability.F("event", name), observability.F("event_id", e.EventID()))
	if len(subs) == 0 {
		logger.Debug("event_dropped_no_subscriber")
		return
	}

	ctx = context.WithoutCancel(ctx)
	if env.span.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, env.span)
	}

	sem := make(chan struct{}, b.concurrency)
	results := make([]domoutbox.Result, len(subs))
	var wg sync.WaitGroup

	for i, s := range subs {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			results[i] = b.invoke(ctx, e, s, logger.With(observability.F("handler", s.name)))
		}()
	}

	wg.Wait()

	var failed int
	for _, r := range results {
		b.report(ctx, r, logger)
		if r.Failed() {
			failed++
		}
	}

	logger.Debug("event_fanned_out",
		observability.F("handlers", len(subs)),
		observability.F("failed", failed),
	)
}

func (b *Bus) invoke(ctx context.Context, e domoutbox.Event, s subscription, logger observability.Logger) (res domoutbox.Result) {
	start := time.Now()
	res = domoutbox.Result{
		EventID:   e.EventID(),
		EventName: e.EventName(),
		Handler:   s.name,
		Outcome:   domoutbox.OutcomeSuccess,
	}

	if b.dedup != nil {
		claimed, err := b.dedup.Claim(ctx, s.name, e.EventID())
		if err != nil {
			logger.Warn("event_dedup_unavailable", observability.F("error", err))
		} else if !claimed {
			res.Outcome = domoutbox.OutcomeSkipped
			res.At = time.Now().UTC()
			return res
		}
	}

	ctx, span := b.tel.Tracer().Start(ctx, "Event."+e.EventName(),
		attribute.String("event.id", e.EventID()),
		attribute.String("event.handler", s.name),
	)
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	ctx = logctx.With(ctx, logger)

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = domoutbox.OutcomePanic
			res.Err = fmt.Errorf("handler panic: %v", r)
			logger.Error("event_handler_panic",
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
		}
		cancel()
		res.Duration = time.Since(start)
		res.At = time.Now().UTC()
		if res.Failed() {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, string(res.Outcome))
			if b.dedup != nil {
				if err := b.dedup.Release(context.WithoutCancel(ctx), s.name, e.EventID()); err != nil {
					logger.Warn("event_dedup_release_failed", observability.F("error", err))
				}
			}
		}
		span.End()
	}()

	if err := s.handler(ctx, e); err != nil {
		res.Outcome = domoutbox.OutcomeError
		res.Err = err
	}
	return res
}

func (b *Bus) report(ctx context.Context, r domoutbox.Result, logger observability.Logger) {
	metrics := b.tel.Metrics()
	metrics.Counter(observability.MEventHandlerResults).Add(1,
		observability.L("event", r.EventName),
		observability.L("handler", r.Handler),
		observability.L("outcome", string(r.Outcome)),
	)
	if r.Outcome != domoutbox.OutcomeSkipped {
		metrics.Histogram(observability.MEventHandlerDuration).Observe(r.Duration.Seconds(),
			observability.L("event", r.EventName),
			observability.L("handler", r.Handler),
		)
	}

	if !r.Failed() {
		return
	}
	logger.Warn("event_handler_error",
		observability.F("handler", r.Handler),
		observability.F("outcome", string(r.Outcome)),
		observability.F("error", r.Err),
		observability.F("duration_ms", r.Duration.Milliseconds()),
	)
	if b.sink == nil {
		return
	}
	if err := b.sink.Record(ctx, r); err != nil {
		logger.Error("event_result_sink_failed", observability.F("error", err))
	}
}
