package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/promotion"
)

type PromotionRepository struct {
	mu      sync.RWMutex
	coupons map[string]*domain.Coupon
	issues  map[string]*domain.Issue // key: couponID/customerID
}

func NewPromotionRepository() *PromotionRepository {
	return &PromotionRepository{
		coupons: make(map[string]*domain.Coupon),
		issues:  make(map[string]*domain.Issue),
	}
}

func issueKey(couponID, customerID string) string {
	return couponID + "/" + customerID
}

func (r *PromotionRepository) SaveCoupon(ctx context.Context, c *domain.Coupon) error {
	_ = ctx
	if c == nil || c.ID == "" {
		return fmt.Errorf("promotion repository: coupon id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.coupons[c.ID]; exists {
		return domain.ErrConflict
	}
	r.coupons[c.ID] = c.Clone()
	return nil
}

func (r *PromotionRepository) FindCoupon(ctx context.Context, id string) (*domain.Coupon, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.coupons[id]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}
	return c.Clone(), nil
}

func (r *PromotionRepository) UpdateCoupon(ctx context.Context, c *domain.Coupon) error {
	_ = ctx
	if c == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.coupons[c.ID]; !ok {
		return domain.ErrCouponNotFound
	}
	r.coupons[c.ID] = c.Clone()
	return nil
}

func (r *PromotionRepository) SaveIssue(ctx context.Context, i *domain.Issue) error {
	_ = ctx
	if i == nil || i.ID == "" {
		return fmt.Errorf("promotion repository: issue id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := issueKey(i.CouponID, i.CustomerID)
	if _, exists := r.issues[key]; exists {
		return domain.ErrAlreadyIssued
	}
	r.issues[key] = i.Clone()
	return nil
}

func (r *PromotionRepository) FindIssue(ctx context.Context, couponID, customerID string) (*domain.Issue, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.issues[issueKey(couponID, customerID)]
	if !ok {
		return nil, domain.ErrIssueNotFound
	}
	return i.Clone(), nil
}

func (r *PromotionRepository) FindIssueByOrderID(ctx context.Context, orderID string) (*domain.Issue, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, i := range r.issues {
		if i.Used && i.OrderID == orderID {
			return i.Clone(), nil
		}
	}
	return nil, domain.ErrIssueNotFound
}

func (r *PromotionRepository) UpdateIssue(ctx context.Context, i *domain.Issue) error {
	_ = ctx
	if i == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := issueKey(i.CouponID, i.CustomerID)
	if _, ok := r.issues[key]; !ok {
		return domain.ErrIssueNotFound
	}
	r.issues[key] = i.Clone()
	return nil
}
