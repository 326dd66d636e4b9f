package promotion

import "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"

type CouponIssuedEvent struct {
	outbox.Metadata
	CouponID   string
	IssueID    string
	CustomerID string
	CouponName string
}

func (CouponIssuedEvent) EventName() string { return "coupon.issued" }

func NewCouponIssuedEvent(c *Coupon, i *Issue) CouponIssuedEvent {
	return CouponIssuedEvent{
		Metadata:   outbox.NewMetadata(),
		CouponID:   c.ID,
		IssueID:    i.ID,
		CustomerID: i.CustomerID,
		CouponName: c.Name,
	}
}

type CouponUsedEvent struct {
	outbox.Metadata
	CouponID       string
	IssueID        string
	CustomerID     string
	OrderID        string
	DiscountAmount int64
}

func (CouponUsedEvent) EventName() string { return "coupon.used" }

func NewCouponUsedEvent(c *Coupon, i *Issue, discount int64) CouponUsedEvent {
	return CouponUsedEvent{
		Metadata:       outbox.NewMetadata(),
		CouponID:       c.ID,
		IssueID:        i.ID,
		CustomerID:     i.CustomerID,
		OrderID:        i.OrderID,
		DiscountAmount: discount,
	}
}

type CouponUseCancelledEvent struct {
	outbox.Metadata
	CouponID   string
	IssueID    string
	CustomerID string
	OrderID    string
}

func (CouponUseCancelledEvent) EventName() string { return "coupon.use_cancelled" }

func NewCouponUseCancelledEvent(c *Coupon, i *Issue, orderID string) CouponUseCancelledEvent {
	return CouponUseCancelledEvent{
		Metadata:   outbox.NewMetadata(),
		CouponID:   c.ID,
		IssueID:    i.ID,
		CustomerID: i.CustomerID,
		OrderID:    orderID,
	}
}
