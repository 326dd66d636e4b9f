package order

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domproduct "github.com/Zhima-Mochi/minishop-saga/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
)

// stock applies line items to the product ledger and counts every conditional update.
type stock struct {
	products domproduct.Repository
	ops      observability.Counter // stock_operations_total{op,result}
}

func newStock(products domproduct.Repository, tel observability.Observability) *stock {
	if tel == nil {
		tel = observability.Nop()
	}
	return &stock{products: products, ops: tel.Metrics().Counter(observability.MStockOperations)}
}

// deduct takes every item from the ledger or none of them: when an item is
// short, the items already taken in this call are put back.
func (s *stock) deduct(ctx context.Context, items []domain.LineItem) error {
	for i, it := range items {
		err := s.products.DecreaseStock(ctx, it.ProductID, it.Quantity)
		s.count("decrease", err)
		if err == nil {
			continue
		}
		if rerr := s.restore(ctx, items[:i]); rerr != nil {
			return errors.Join(fmt.Errorf("decrease stock %s: %w", it.ProductID, err), rerr)
		}
		return fmt.Errorf("decrease stock %s: %w", it.ProductID, err)
	}
	return nil
}

// restore puts every item back, continuing past failures.
func (s *stock) restore(ctx context.Context, items []domain.LineItem) error {
	var errs []error
	for _, it := range items {
		err := s.products.IncreaseStock(ctx, it.ProductID, it.Quantity)
		s.count("increase", err)
		if err != nil {
			errs = append(errs, fmt.Errorf("restore stock %s: %w", it.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *stock) count(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domproduct.ErrInsufficientStock):
		result = "insufficient"
	case errors.Is(err, domproduct.ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	s.ops.Add(1, observability.L("op", op), observability.L("result", result))
}
