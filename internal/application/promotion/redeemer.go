package promotion

import "context"

// Redeemer lets order creation spend and give back a coupon without knowing
// about issues.
type Redeemer struct {
	uc *UseCases
}

func NewRedeemer(uc *UseCases) *Redeemer {
	return &Redeemer{uc: uc}
}

func (r *Redeemer) Redeem(ctx context.Context, couponID, customerID, orderID string, orderAmount int64) (int64, error) {
	res, err := r.uc.Use.Execute(ctx, UseCouponInput{
		CouponID:    couponID,
		CustomerID:  customerID,
		OrderID:     orderID,
		OrderAmount: orderAmount,
	})
	if err != nil {
		return 0, err
	}
	return res.Discount, nil
}

func (r *Redeemer) Release(ctx context.Context, couponID, customerID string) error {
	_, err := r.uc.CancelUse.Execute(ctx, CancelCouponUseInput{CouponID: couponID, CustomerID: customerID})
	return err
}
