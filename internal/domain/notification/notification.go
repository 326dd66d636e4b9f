package notification

import (
	"context"
	"errors"
)

var ErrNoRecipient = errors.New("notification: no recipient for channel")

type Type string

const (
	TypeOrderPlaced       Type = "ORDER_PLACED"
	TypeOrderConfirmed    Type = "ORDER_CONFIRMED"
	TypePaymentCompleted  Type = "PAYMENT_COMPLETED"
	TypeShippingStarted   Type = "SHIPPING_STARTED"
	TypeShippingDelivered Type = "SHIPPING_DELIVERED"
	TypeCouponIssued      Type = "COUPON_ISSUED"
)

type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelPush  Channel = "PUSH"
)

type ReferenceType string

const (
	ReferenceOrder    ReferenceType = "ORDER"
	ReferencePayment  ReferenceType = "PAYMENT"
	ReferenceShipping ReferenceType = "SHIPPING"
	ReferenceCoupon   ReferenceType = "COUPON"
)

// Message is one outbound notification. Delivery is fire-and-forget.
type Message struct {
	CustomerID    string        `json:"customer_id"`
	Type          Type          `json:"type"`
	Channel       Channel       `json:"channel"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	Recipient     string        `json:"recipient"`
	ReferenceID   string        `json:"reference_id"`
	ReferenceType ReferenceType `json:"reference_type"`
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// RecipientResolver maps a customer to an address on a channel
// (mailbox, phone number, device token).
type RecipientResolver interface {
	Resolve(ctx context.Context, customerID string, ch Channel) (string, error)
}
