package order

import "context"

type IDGenerator interface {
	NewID() string
}

type OrderNumberGenerator interface {
	NewOrderNumber() string
}

// CouponRedeemer is the promotion side of order creation. Redeem marks the
// customer's coupon used by orderID and returns the discount granted; Release
// undoes it when the order could not be stored.
type CouponRedeemer interface {
	Redeem(ctx context.Context, couponID, customerID, orderID string, orderAmount int64) (int64, error)
	Release(ctx context.Context, couponID, customerID string) error
}
