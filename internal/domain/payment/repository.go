package payment

import "context"

type Repository interface {
	// Save fails with ErrAlreadyExists when the order already has a payment.
	Save(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id string) (*Payment, error)
	FindByOrderID(ctx context.Context, orderID string) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
}
