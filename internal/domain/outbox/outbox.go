package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBusClosed       = errors.New("outbox: bus closed")
	ErrUnexpectedEvent = errors.New("outbox: unexpected event type")
)

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
	EventID() string
	OccurredAt() time.Time
}

// Metadata carries the identity every event shares. Events embed it.
type Metadata struct {
	ID   string
	Time time.Time
}

func NewMetadata() Metadata {
	return Metadata{ID: uuid.NewString(), Time: time.Now().UTC()}
}

func (m Metadata) EventID() string       { return m.ID }
func (m Metadata) OccurredAt() time.Time { return m.Time }

// Handler processes a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher publishes events to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers named handlers for event names.
type Subscriber interface {
	Subscribe(eventName, handlerName string, h Handler)
}

// On registers fn for the event type E. The event name is taken from E's zero value.
func On[E Event](sub Subscriber, handlerName string, fn func(ctx context.Context, e E) error) {
	var zero E
	sub.Subscribe(zero.EventName(), handlerName, func(ctx context.Context, e Event) error {
		evt, ok := e.(E)
		if !ok {
			return fmt.Errorf("%w: %s received %T", ErrUnexpectedEvent, handlerName, e)
		}
		return fn(ctx, evt)
	})
}

// PublishAll publishes events in order and joins every failure.
func PublishAll(ctx context.Context, pub Publisher, events []Event) error {
	var errs []error
	for _, e := range events {
		if err := pub.Publish(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", e.EventName(), err))
		}
	}
	return errors.Join(errs...)
}

// Recorder buffers events raised by an aggregate until they are pulled for publishing.
type Recorder struct {
	pending []Event
}

func (r *Recorder) Record(e Event) {
	r.pending = append(r.pending, e)
}

// PullEvents returns the buffered events and clears the buffer.
func (r *Recorder) PullEvents() []Event {
	out := r.pending
	r.pending = nil
	return out
}

// PendingEvents returns the buffered events without clearing them.
func (r *Recorder) PendingEvents() []Event {
	return append([]Event(nil), r.pending...)
}
