package payment

import (
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
)

type Status string

const (
	StatusPending           Status = "PENDING"
	StatusProcessing        Status = "PROCESSING"
	StatusCompleted         Status = "COMPLETED"
	StatusFailed            Status = "FAILED"
	StatusCancelled         Status = "CANCELLED"
	StatusPartiallyRefunded Status = "PARTIALLY_REFUNDED"
	StatusRefunded          Status = "REFUNDED"
)

type Method string

const (
	MethodCard           Method = "CARD"
	MethodTransfer       Method = "TRANSFER"
	MethodVirtualAccount Method = "VIRTUAL_ACCOUNT"
	MethodEasyPay        Method = "EASY_PAY"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(s))); m {
	case MethodCard, MethodTransfer, MethodVirtualAccount, MethodEasyPay:
		return m, nil
	default:
		return "", ErrInvalidMethod
	}
}

type Payment struct {
	outbox.Recorder

	ID                    string
	OrderID               string
	Amount                int64
	Method                Method
	Status                Status
	Provider              string
	PaymentKey            string
	TransactionID         string
	ProviderTransactionID string
	RefundedAmount        int64
	FailureReason         string
	CancelReason          string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	CompletedAt           *time.Time
	FailedAt              *time.Time
	CancelledAt           *time.Time
	RefundedAt            *time.Time
}

func New(id, orderID string, amount int64, method Method) (*Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Payment{
		ID:        id,
		OrderID:   orderID,
		Amount:    amount,
		Method:    method,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *Payment) StartProcessing(provider, paymentKey string) error {
	if err := p.require("start processing", StatusPending); err != nil {
		return err
	}
	p.Provider = provider
	p.PaymentKey = paymentKey
	p.Status = StatusProcessing
	p.touch()
	return nil
}

func (p *Payment) Complete(transactionID, providerTransactionID string) error {
	if err := p.require("complete", StatusPending, StatusProcessing); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.TransactionID = transactionID
	p.ProviderTransactionID = providerTransactionID
	p.Status = StatusCompleted
	p.CompletedAt = &now
	p.touch()
	p.Record(NewPaymentCompletedEvent(p))
	return nil
}

func (p *Payment) Fail(reason string) error {
	if err := p.require("fail", StatusPending, StatusProcessing); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.FailureReason = reason
	p.Status = StatusFailed
	p.FailedAt = &now
	p.touch()
	p.Record(NewPaymentFailedEvent(p))
	return nil
}

func (p *Payment) Cancel(reason string) error {
	if err := p.require("cancel", StatusPending, StatusProcessing); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.CancelReason = reason
	p.Status = StatusCancelled
	p.CancelledAt = &now
	p.touch()
	p.Record(NewPaymentCancelledEvent(p))
	return nil
}

func (p *Payment) CanRefund() bool {
	return p.Status == StatusCompleted || p.Status == StatusPartiallyRefunded
}

func (p *Payment) RefundableAmount() int64 {
	if !p.CanRefund() {
		return 0
	}
	return p.Amount - p.RefundedAmount
}

// CheckRefund validates a refund without applying it, so the gateway is only
// called for refunds the aggregate would accept.
func (p *Payment) CheckRefund(amount int64) error {
	if !p.CanRefund() {
		return p.stateError("refund")
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if p.RefundedAmount+amount > p.Amount {
		return ErrRefundExceedsAmount
	}
	return nil
}

func (p *Payment) Refund(amount int64, reason string) error {
	if err := p.CheckRefund(amount); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.RefundedAmount += amount
	if p.RefundedAmount == p.Amount {
		p.Status = StatusRefunded
	} else {
		p.Status = StatusPartiallyRefunded
	}
	p.RefundedAt = &now
	p.touch()
	p.Record(NewPaymentRefundedEvent(p, amount, reason))
	return nil
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	c := *p
	c.Recorder = outbox.Recorder{}
	return &c
}

func (p *Payment) require(op string, allowed ...Status) error {
	for _, s := range allowed {
		if p.Status == s {
			return nil
		}
	}
	return p.stateError(op)
}

func (p *Payment) stateError(op string) error {
	return &StateError{PaymentID: p.ID, Current: p.Status, Operation: op}
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now().UTC()
}
