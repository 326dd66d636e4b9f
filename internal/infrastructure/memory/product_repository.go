package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/product"
)

// ProductRepository is the in-memory stock ledger. Check and decrement happen
// under one lock so concurrent confirmations cannot drive stock negative.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewProductRepository(seed ...*domain.Product) *ProductRepository {
	r := &ProductRepository{products: make(map[string]*domain.Product, len(seed))}
	for _, p := range seed {
		r.products[p.ID] = p.Clone()
	}
	return r
}

// Put inserts or replaces a product.
func (r *ProductRepository) Put(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[p.ID] = p.Clone()
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *ProductRepository) DecreaseStock(ctx context.Context, id string, quantity int) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	return p.Deduct(quantity)
}

func (r *ProductRepository) IncreaseStock(ctx context.Context, id string, quantity int) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	return p.Restock(quantity)
}
