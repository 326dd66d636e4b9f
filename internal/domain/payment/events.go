package payment

import "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"

// PaymentCompletedEvent is the only trigger that moves an order to CONFIRMED.
type PaymentCompletedEvent struct {
	outbox.Metadata
	PaymentID     string
	OrderID       string
	Amount        int64
	Method        Method
	TransactionID string
}

func (PaymentCompletedEvent) EventName() string { return "payment.completed" }

func NewPaymentCompletedEvent(p *Payment) PaymentCompletedEvent {
	return PaymentCompletedEvent{
		Metadata:      outbox.NewMetadata(),
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		Amount:        p.Amount,
		Method:        p.Method,
		TransactionID: p.TransactionID,
	}
}

type PaymentFailedEvent struct {
	outbox.Metadata
	PaymentID string
	OrderID   string
	Amount    int64
	Reason    string
}

func (PaymentFailedEvent) EventName() string { return "payment.failed" }

func NewPaymentFailedEvent(p *Payment) PaymentFailedEvent {
	return PaymentFailedEvent{
		Metadata:  outbox.NewMetadata(),
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount,
		Reason:    p.FailureReason,
	}
}

type PaymentCancelledEvent struct {
	outbox.Metadata
	PaymentID string
	OrderID   string
	Reason    string
}

func (PaymentCancelledEvent) EventName() string { return "payment.cancelled" }

func NewPaymentCancelledEvent(p *Payment) PaymentCancelledEvent {
	return PaymentCancelledEvent{
		Metadata:  outbox.NewMetadata(),
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Reason:    p.CancelReason,
	}
}

type PaymentRefundedEvent struct {
	outbox.Metadata
	PaymentID         string
	OrderID           string
	RefundAmount      int64
	TotalRefundAmount int64
	Reason            string
}

func (PaymentRefundedEvent) EventName() string { return "payment.refunded" }

func NewPaymentRefundedEvent(p *Payment, amount int64, reason string) PaymentRefundedEvent {
	return PaymentRefundedEvent{
		Metadata:          outbox.NewMetadata(),
		PaymentID:         p.ID,
		OrderID:           p.OrderID,
		RefundAmount:      amount,
		TotalRefundAmount: p.RefundedAmount,
		Reason:            reason,
	}
}
