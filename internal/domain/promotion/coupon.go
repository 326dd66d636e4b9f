package promotion

import (
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
)

var (
	ErrCouponNotFound  = errors.New("promotion: coupon not found")
	ErrIssueNotFound   = errors.New("promotion: coupon not issued to customer")
	ErrNotIssuable     = errors.New("promotion: coupon cannot be issued")
	ErrAlreadyIssued   = errors.New("promotion: coupon already issued to customer")
	ErrNotUsable       = errors.New("promotion: coupon cannot be used")
	ErrInvalidDiscount = errors.New("promotion: invalid discount rule")
	ErrIssueMismatch   = errors.New("promotion: issue belongs to another coupon")
	ErrInvalidValidity = errors.New("promotion: validity window ends before it starts")
	ErrConflict        = errors.New("promotion: conflict")
)

type DiscountType string

const (
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
	DiscountPercentage  DiscountType = "PERCENTAGE"
)

type Coupon struct {
	outbox.Recorder

	ID                string
	Code              string
	Name              string
	DiscountType      DiscountType
	DiscountValue     int64
	MaxDiscountAmount int64 // 0 means uncapped
	MinOrderAmount    int64
	ValidFrom         time.Time
	ValidUntil        time.Time
	Active            bool
	TotalQuantity     int // 0 means unlimited
	IssuedQuantity    int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Issue records that a customer holds one instance of a coupon.
type Issue struct {
	ID         string
	CouponID   string
	CustomerID string
	Used       bool
	OrderID    string
	UsedAt     *time.Time
	IssuedAt   time.Time
}

func NewCoupon(id, code, name string, kind DiscountType, value int64, validFrom, validUntil time.Time) (*Coupon, error) {
	switch kind {
	case DiscountFixedAmount:
		if value <= 0 {
			return nil, ErrInvalidDiscount
		}
	case DiscountPercentage:
		if value <= 0 || value > 100 {
			return nil, ErrInvalidDiscount
		}
	default:
		return nil, ErrInvalidDiscount
	}
	if validUntil.Before(validFrom) {
		return nil, ErrInvalidValidity
	}
	now := time.Now().UTC()
	return &Coupon{
		ID:            id,
		Code:          strings.ToUpper(strings.TrimSpace(code)),
		Name:          name,
		DiscountType:  kind,
		DiscountValue: value,
		ValidFrom:     validFrom,
		ValidUntil:    validUntil,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsValidAt reports whether the coupon is active and inside its window.
func (c *Coupon) IsValidAt(now time.Time) bool {
	if !c.Active {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	return true
}

func (c *Coupon) IsExhausted() bool {
	return c.TotalQuantity > 0 && c.IssuedQuantity >= c.TotalQuantity
}

func (c *Coupon) IsIssuableAt(now time.Time) bool {
	return c.IsValidAt(now) && !c.IsExhausted()
}

// IssueTo hands an instance of the coupon to customerID. existing is the
// customer's current issue of this coupon, or nil.
func (c *Coupon) IssueTo(issueID, customerID string, existing *Issue, now time.Time) (*Issue, error) {
	if !c.IsIssuableAt(now) {
		return nil, ErrNotIssuable
	}
	if existing != nil {
		return nil, ErrAlreadyIssued
	}
	c.IssuedQuantity++
	c.UpdatedAt = now.UTC()
	issue := &Issue{
		ID:         issueID,
		CouponID:   c.ID,
		CustomerID: customerID,
		IssuedAt:   now.UTC(),
	}
	c.Record(NewCouponIssuedEvent(c, issue))
	return issue, nil
}

func (c *Coupon) CalculateDiscount(orderAmount int64) int64 {
	return c.DiscountAt(orderAmount, time.Now())
}

// DiscountAt computes the discount for orderAmount at the given instant.
// Percentage discounts round down; the result never exceeds the order amount.
func (c *Coupon) DiscountAt(orderAmount int64, now time.Time) int64 {
	if orderAmount <= 0 || !c.IsValidAt(now) || orderAmount < c.MinOrderAmount {
		return 0
	}
	var discount int64
	switch c.DiscountType {
	case DiscountFixedAmount:
		discount = c.DiscountValue
	case DiscountPercentage:
		discount = orderAmount * c.DiscountValue / 100
	}
	if c.MaxDiscountAmount > 0 && discount > c.MaxDiscountAmount {
		discount = c.MaxDiscountAmount
	}
	if discount > orderAmount {
		discount = orderAmount
	}
	return discount
}

// Use marks issue as consumed by orderID and returns the discount granted.
func (c *Coupon) Use(issue *Issue, orderID string, orderAmount int64, now time.Time) (int64, error) {
	if issue.CouponID != c.ID {
		return 0, ErrIssueMismatch
	}
	if issue.Used || !c.IsValidAt(now) {
		return 0, ErrNotUsable
	}
	discount := c.DiscountAt(orderAmount, now)
	usedAt := now.UTC()
	issue.Used = true
	issue.OrderID = orderID
	issue.UsedAt = &usedAt
	c.Record(NewCouponUsedEvent(c, issue, discount))
	return discount, nil
}

// CancelUse makes the issue available again. Cancelling an unused issue is a no-op.
func (c *Coupon) CancelUse(issue *Issue) error {
	if issue.CouponID != c.ID {
		return ErrIssueMismatch
	}
	if !issue.Used {
		return nil
	}
	orderID := issue.OrderID
	issue.Used = false
	issue.OrderID = ""
	issue.UsedAt = nil
	c.Record(NewCouponUseCancelledEvent(c, issue, orderID))
	return nil
}

func (c *Coupon) Clone() *Coupon {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Recorder = outbox.Recorder{}
	return &cp
}

func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	cp := *i
	if i.UsedAt != nil {
		t := *i.UsedAt
		cp.UsedAt = &t
	}
	return &cp
}
