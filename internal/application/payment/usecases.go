package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/Zhima-Mochi/minishop-saga/internal/pkg/keylock"
)

const (
	paymentService         = "payment-service"
	gatewayPeer            = "payment-gateway"
	useCasePaymentInitiate = "payment.initiate"
	useCasePaymentConfirm  = "payment.confirm"
	useCasePaymentCancel   = "payment.cancel"
	useCasePaymentRefund   = "payment.refund"
	useCasePaymentGet      = "payment.get"
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrRepository = errors.New("payment: repository failure")
)

type IDGenerator interface {
	NewID() string
}

// OrderFinder is the read side of the order store; payments never write orders.
type OrderFinder interface {
	FindByID(ctx context.Context, id string) (*domorder.Order, error)
}

type Deps struct {
	Payments  domain.Repository
	Orders    OrderFinder
	Gateway   domain.Gateway
	Publisher domoutbox.Publisher
	IDs       IDGenerator
	Locks     *keylock.Locker
	Tel       observability.Observability
}

type UseCases struct {
	Initiate *InitiatePaymentUseCase
	Confirm  *ConfirmPaymentUseCase
	Cancel   *CancelPaymentUseCase
	Refund   *RefundPaymentUseCase
	Get      *GetPaymentUseCase
}

func NewUseCases(d Deps) *UseCases {
	if d.Locks == nil {
		d.Locks = keylock.New()
	}
	in := application.NewInstruments(d.Tel, paymentService)
	return &UseCases{
		Initiate: &InitiatePaymentUseCase{deps: d, in: in},
		Confirm:  &ConfirmPaymentUseCase{deps: d, in: in},
		Cancel:   &CancelPaymentUseCase{deps: d, in: in},
		Refund:   &RefundPaymentUseCase{deps: d, in: in},
		Get:      &GetPaymentUseCase{deps: d, in: in},
	}
}

var (
	_ application.UseCase[InitiatePaymentInput, *View] = (*InitiatePaymentUseCase)(nil)
	_ application.UseCase[ConfirmPaymentInput, *View]  = (*ConfirmPaymentUseCase)(nil)
	_ application.UseCase[CancelPaymentInput, *View]   = (*CancelPaymentUseCase)(nil)
	_ application.UseCase[RefundPaymentInput, *View]   = (*RefundPaymentUseCase)(nil)
	_ application.UseCase[string, *View]               = (*GetPaymentUseCase)(nil)
)

type View struct {
	ID               string
	OrderID          string
	Amount           int64
	RefundedAmount   int64
	RefundableAmount int64
	Method           domain.Method
	Status           domain.Status
	Provider         string
	PaymentKey       string
	TransactionID    string
	FailureReason    string
	CheckoutURL      string
}

func viewOf(p *domain.Payment) *View {
	return &View{
		ID:               p.ID,
		OrderID:          p.OrderID,
		Amount:           p.Amount,
		RefundedAmount:   p.RefundedAmount,
		RefundableAmount: p.RefundableAmount(),
		Method:           p.Method,
		Status:           p.Status,
		Provider:         p.Provider,
		PaymentKey:       p.PaymentKey,
		TransactionID:    p.TransactionID,
		FailureReason:    p.FailureReason,
	}
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrConflict):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}

// lockAndLoad serializes gateway round trips per payment.
func lockAndLoad(ctx context.Context, d Deps, run *application.Run, paymentID string) (*domain.Payment, func(), error) {
	if paymentID == "" {
		run.Fail("PAYMENT_ID_REQUIRED")
		return nil, nil, application.Validation("payment id is required")
	}
	unlock, err := d.Locks.Lock(ctx, paymentID)
	if err != nil {
		run.Fail("LOCK_TIMEOUT")
		return nil, nil, err
	}
	p, err := d.Payments.FindByID(ctx, paymentID)
	if err != nil {
		unlock()
		run.Fail("PAYMENT_LOOKUP_FAILED")
		return nil, nil, wrapRepositoryError(err)
	}
	return p, unlock, nil
}

// failPayment moves p to FAILED after a gateway error and announces it. The
// gateway error is what the caller sees.
func failPayment(ctx context.Context, d Deps, run *application.Run, p *domain.Payment, gerr *domain.GatewayError) error {
	if err := p.Fail(gerr.Code + ": " + gerr.Message); err != nil {
		return errors.Join(gerr, err)
	}
	if err := d.Payments.Update(context.WithoutCancel(ctx), p); err != nil {
		run.Logger().Error("payment_fail_not_saved",
			observability.F("payment_id", p.ID),
			observability.F("error", err),
		)
		return errors.Join(gerr, wrapRepositoryError(err))
	}
	run.Publish(ctx, d.Publisher, p.PullEvents())
	return gerr
}
