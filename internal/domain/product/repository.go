package product

import "context"

// Repository is the stock ledger port. DecreaseStock must be an atomic
// conditional update: it either removes quantity or fails with
// ErrInsufficientStock and leaves the counter untouched.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	DecreaseStock(ctx context.Context, id string, quantity int) error
	IncreaseStock(ctx context.Context, id string, quantity int) error
}
