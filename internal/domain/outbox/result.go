package outbox

import (
	"context"
	"time"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomePanic   Outcome = "panic"
	OutcomeSkipped Outcome = "skipped"
)

// Result is the outcome of one handler processing one event.
type Result struct {
	EventID   string
	EventName string
	Handler   string
	Outcome   Outcome
	Err       error
	Duration  time.Duration
	At        time.Time
}

func (r Result) Failed() bool {
	return r.Outcome == OutcomeError || r.Outcome == OutcomePanic
}

// ResultSink receives handler results, e.g. to journal failures for reconciliation.
type ResultSink interface {
	Record(ctx context.Context, r Result) error
}

// Deduplicator guards against processing the same event twice in one handler.
type Deduplicator interface {
	// Claim reports whether the caller won the right to process eventID for handler.
	Claim(ctx context.Context, handler, eventID string) (bool, error)
	// Release gives the claim back so a redelivery can be processed again.
	Release(ctx context.Context, handler, eventID string) error
}
