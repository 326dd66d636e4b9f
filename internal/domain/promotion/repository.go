package promotion

import "context"

type Repository interface {
	SaveCoupon(ctx context.Context, c *Coupon) error
	FindCoupon(ctx context.Context, id string) (*Coupon, error)
	UpdateCoupon(ctx context.Context, c *Coupon) error

	// SaveIssue fails with ErrAlreadyIssued for a second (coupon, customer) pair.
	SaveIssue(ctx context.Context, i *Issue) error
	FindIssue(ctx context.Context, couponID, customerID string) (*Issue, error)
	FindIssueByOrderID(ctx context.Context, orderID string) (*Issue, error)
	UpdateIssue(ctx context.Context, i *Issue) error
}
