package memory

import (
	"context"
	"sync"
)

// Deduplicator remembers (handler, event id) pairs for the process lifetime.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

func (d *Deduplicator) Claim(ctx context.Context, handler, eventID string) (bool, error) {
	_ = ctx
	d.mu.Lock()
	defer d.mu.Unlock()

	key := handler + ":" + eventID
	if _, ok := d.seen[key]; ok {
		return false, nil
	}
	d.seen[key] = struct{}{}
	return true, nil
}

func (d *Deduplicator) Release(ctx context.Context, handler, eventID string) error {
	_ = ctx
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.seen, handler+":"+eventID)
	return nil
}
