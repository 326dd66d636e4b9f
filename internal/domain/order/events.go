package order

import "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"

// OrderPlacedEvent is emitted once the item list is frozen and the total is final.
type OrderPlacedEvent struct {
	outbox.Metadata
	OrderID     string
	OrderNumber string
	CustomerID  string
	TotalAmount int64
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		Metadata:    outbox.NewMetadata(),
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		TotalAmount: o.totalAmount,
	}
}

type OrderConfirmedEvent struct {
	outbox.Metadata
	OrderID   string
	PaymentID string
}

func (OrderConfirmedEvent) EventName() string { return "order.confirmed" }

func NewOrderConfirmedEvent(o *Order) OrderConfirmedEvent {
	return OrderConfirmedEvent{Metadata: outbox.NewMetadata(), OrderID: o.ID, PaymentID: o.PaymentID}
}

// OrderCancelledEvent triggers the compensations owned by other domains.
type OrderCancelledEvent struct {
	outbox.Metadata
	OrderID   string
	PaymentID string
	Reason    string
}

func (OrderCancelledEvent) EventName() string { return "order.cancelled" }

func NewOrderCancelledEvent(o *Order) OrderCancelledEvent {
	return OrderCancelledEvent{
		Metadata:  outbox.NewMetadata(),
		OrderID:   o.ID,
		PaymentID: o.PaymentID,
		Reason:    o.CancelReason,
	}
}

type OrderCompletedEvent struct {
	outbox.Metadata
	OrderID    string
	CustomerID string
}

func (OrderCompletedEvent) EventName() string { return "order.completed" }

func NewOrderCompletedEvent(o *Order) OrderCompletedEvent {
	return OrderCompletedEvent{Metadata: outbox.NewMetadata(), OrderID: o.ID, CustomerID: o.CustomerID}
}

// OrderStatusChangedEvent covers the fulfillment moves between confirmation and completion.
type OrderStatusChangedEvent struct {
	outbox.Metadata
	OrderID string
	From    Status
	To      Status
}

func (OrderStatusChangedEvent) EventName() string { return "order.status_changed" }

func NewOrderStatusChangedEvent(o *Order, from Status) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{Metadata: outbox.NewMetadata(), OrderID: o.ID, From: from, To: o.Status}
}
