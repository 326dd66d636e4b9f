package shipping

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-saga/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
)

var (
	ErrNotFound                  = errors.New("shipping: not found")
	ErrAlreadyExists             = errors.New("shipping: order already has a shipment")
	ErrConflict                  = errors.New("shipping: conflict")
	ErrInvalidShippingTransition = errors.New("shipping: invalid transition")
	ErrTrackingNumberRequired    = errors.New("shipping: carrier and tracking number are required")
)

type Status string

const (
	StatusPending        Status = "PENDING"
	StatusPreparing      Status = "PREPARING"
	StatusPickedUp       Status = "PICKED_UP"
	StatusInTransit      Status = "IN_TRANSIT"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusReturned       Status = "RETURNED"
)

// EstimatedDeliveryWindow is added to the pickup time to estimate arrival.
const EstimatedDeliveryWindow = 48 * time.Hour

var transitions = map[Status]map[Status]struct{}{
	StatusPending:        {StatusPreparing: {}, StatusReturned: {}},
	StatusPreparing:      {StatusPickedUp: {}, StatusReturned: {}},
	StatusPickedUp:       {StatusInTransit: {}, StatusReturned: {}},
	StatusInTransit:      {StatusOutForDelivery: {}, StatusReturned: {}},
	StatusOutForDelivery: {StatusDelivered: {}, StatusReturned: {}},
	StatusDelivered:      {},
	StatusReturned:       {},
}

func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusPending, StatusPreparing, StatusPickedUp, StatusInTransit,
		StatusOutForDelivery, StatusDelivered, StatusReturned,
	}
}

type TransitionError struct {
	ShippingID string
	From       Status
	To         Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("shipping: %s cannot move from %s to %s", e.ShippingID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidShippingTransition }

type Shipping struct {
	outbox.Recorder

	ID                  string
	OrderID             string
	Address             address.Address
	Carrier             string
	TrackingNumber      string
	Status              Status
	ReturnReason        string
	EstimatedDeliveryAt *time.Time
	PreparingAt         *time.Time
	PickedUpAt          *time.Time
	InTransitAt         *time.Time
	OutForDeliveryAt    *time.Time
	DeliveredAt         *time.Time
	ReturnedAt          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func New(id, orderID string, to address.Address, carrier string) (*Shipping, error) {
	if err := to.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	s := &Shipping{
		ID:        id,
		OrderID:   orderID,
		Address:   to,
		Carrier:   carrier,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Record(NewShippingCreatedEvent(s))
	return s, nil
}

func (s *Shipping) StartPreparing() error {
	return s.moveTo(StatusPreparing, func(now time.Time) { s.PreparingAt = &now })
}

// PickUp hands the parcel to the carrier, which assigns the tracking number.
func (s *Shipping) PickUp(carrier, trackingNumber string) error {
	carrier, trackingNumber = strings.TrimSpace(carrier), strings.TrimSpace(trackingNumber)
	if carrier == "" {
		carrier = s.Carrier
	}
	if carrier == "" || trackingNumber == "" {
		return ErrTrackingNumberRequired
	}
	err := s.moveTo(StatusPickedUp, func(now time.Time) {
		eta := now.Add(EstimatedDeliveryWindow)
		s.Carrier = carrier
		s.TrackingNumber = trackingNumber
		s.PickedUpAt = &now
		s.EstimatedDeliveryAt = &eta
	})
	if err != nil {
		return err
	}
	s.Record(NewShippingStartedEvent(s))
	return nil
}

func (s *Shipping) MarkInTransit() error {
	return s.moveTo(StatusInTransit, func(now time.Time) { s.InTransitAt = &now })
}

func (s *Shipping) MarkOutForDelivery() error {
	return s.moveTo(StatusOutForDelivery, func(now time.Time) { s.OutForDeliveryAt = &now })
}

func (s *Shipping) Complete() error {
	if err := s.moveTo(StatusDelivered, func(now time.Time) { s.DeliveredAt = &now }); err != nil {
		return err
	}
	s.Record(NewShippingDeliveredEvent(s))
	return nil
}

func (s *Shipping) Return(reason string) error {
	if err := s.moveTo(StatusReturned, func(now time.Time) {
		s.ReturnedAt = &now
		s.ReturnReason = reason
	}); err != nil {
		return err
	}
	s.Record(NewShippingReturnedEvent(s))
	return nil
}

func (s *Shipping) Clone() *Shipping {
	if s == nil {
		return nil
	}
	c := *s
	c.Recorder = outbox.Recorder{}
	return &c
}

// moveTo checks the adjacency table before any field is touched.
func (s *Shipping) moveTo(to Status, stamp func(now time.Time)) error {
	if !CanTransition(s.Status, to) {
		return &TransitionError{ShippingID: s.ID, From: s.Status, To: to}
	}
	now := time.Now().UTC()
	stamp(now)
	s.Status = to
	s.UpdatedAt = now
	return nil
}
