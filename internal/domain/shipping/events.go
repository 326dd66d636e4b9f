package shipping

import (
	"time"

	"github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
)

type ShippingCreatedEvent struct {
	outbox.Metadata
	ShippingID string
	OrderID    string
}

func (ShippingCreatedEvent) EventName() string { return "shipping.created" }

func NewShippingCreatedEvent(s *Shipping) ShippingCreatedEvent {
	return ShippingCreatedEvent{Metadata: outbox.NewMetadata(), ShippingID: s.ID, OrderID: s.OrderID}
}

// ShippingStartedEvent is emitted when the carrier picks the parcel up.
type ShippingStartedEvent struct {
	outbox.Metadata
	ShippingID     string
	OrderID        string
	Carrier        string
	TrackingNumber string
}

func (ShippingStartedEvent) EventName() string { return "shipping.started" }

func NewShippingStartedEvent(s *Shipping) ShippingStartedEvent {
	return ShippingStartedEvent{
		Metadata:       outbox.NewMetadata(),
		ShippingID:     s.ID,
		OrderID:        s.OrderID,
		Carrier:        s.Carrier,
		TrackingNumber: s.TrackingNumber,
	}
}

type ShippingDeliveredEvent struct {
	outbox.Metadata
	ShippingID     string
	OrderID        string
	TrackingNumber string
	DeliveredAt    time.Time
}

func (ShippingDeliveredEvent) EventName() string { return "shipping.delivered" }

func NewShippingDeliveredEvent(s *Shipping) ShippingDeliveredEvent {
	e := ShippingDeliveredEvent{
		Metadata:       outbox.NewMetadata(),
		ShippingID:     s.ID,
		OrderID:        s.OrderID,
		TrackingNumber: s.TrackingNumber,
	}
	if s.DeliveredAt != nil {
		e.DeliveredAt = *s.DeliveredAt
	}
	return e
}

type ShippingReturnedEvent struct {
	outbox.Metadata
	ShippingID string
	OrderID    string
	Reason     string
}

func (ShippingReturnedEvent) EventName() string { return "shipping.returned" }

func NewShippingReturnedEvent(s *Shipping) ShippingReturnedEvent {
	return ShippingReturnedEvent{
		Metadata:   outbox.NewMetadata(),
		ShippingID: s.ID,
		OrderID:    s.OrderID,
		Reason:     s.ReturnReason,
	}
}
