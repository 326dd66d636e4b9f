package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
)

type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	byOrder  map[string]string
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments: make(map[string]*domain.Payment),
		byOrder:  make(map[string]string),
	}
}

// Save enforces one payment per order.
func (r *PaymentRepository) Save(ctx context.Context, p *domain.Payment) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("payment repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[p.ID]; exists {
		return domain.ErrConflict
	}
	if _, exists := r.byOrder[p.OrderID]; exists {
		return domain.ErrAlreadyExists
	}
	r.payments[p.ID] = p.Clone()
	r.byOrder[p.OrderID] = p.ID
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.payments[id].Clone(), nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	_ = ctx
	if p == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.payments[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.payments[p.ID] = p.Clone()
	return nil
}
