package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/shipping"
)

type ShippingRepository struct {
	mu        sync.RWMutex
	shipments map[string]*domain.Shipping
	byOrder   map[string]string
}

func NewShippingRepository() *ShippingRepository {
	return &ShippingRepository{
		shipments: make(map[string]*domain.Shipping),
		byOrder:   make(map[string]string),
	}
}

func (r *ShippingRepository) Save(ctx context.Context, s *domain.Shipping) error {
	_ = ctx
	if s == nil || s.ID == "" {
		return fmt.Errorf("shipping repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOrder[s.OrderID]; exists {
		return domain.ErrAlreadyExists
	}
	if _, exists := r.shipments[s.ID]; exists {
		return domain.ErrConflict
	}
	r.shipments[s.ID] = s.Clone()
	r.byOrder[s.OrderID] = s.ID
	return nil
}

func (r *ShippingRepository) FindByID(ctx context.Context, id string) (*domain.Shipping, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.shipments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

func (r *ShippingRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Shipping, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.shipments[id].Clone(), nil
}

func (r *ShippingRepository) Update(ctx context.Context, s *domain.Shipping) error {
	_ = ctx
	if s == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shipments[s.ID]; !ok {
		return domain.ErrNotFound
	}
	r.shipments[s.ID] = s.Clone()
	return nil
}
