package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/cart"
)

type CartRepository struct {
	mu    sync.RWMutex
	carts map[string][]domain.Item
}

func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string][]domain.Item)}
}

func (r *CartRepository) FindByCustomerID(ctx context.Context, customerID string) (*domain.Cart, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return &domain.Cart{
		CustomerID: customerID,
		Items:      append([]domain.Item(nil), r.carts[customerID]...),
	}, nil
}

func (r *CartRepository) Save(ctx context.Context, c *domain.Cart) error {
	_ = ctx
	if c == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[c.CustomerID] = append([]domain.Item(nil), c.Items...)
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, customerID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, customerID)
	return nil
}
