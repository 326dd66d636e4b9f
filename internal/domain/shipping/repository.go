package shipping

import "context"

type Repository interface {
	// Save fails with ErrAlreadyExists when the order already has a shipment.
	Save(ctx context.Context, s *Shipping) error
	FindByID(ctx context.Context, id string) (*Shipping, error)
	FindByOrderID(ctx context.Context, orderID string) (*Shipping, error)
	Update(ctx context.Context, s *Shipping) error
}
