package shipping

import (
	"context"
	"errors"

	domorder "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability/logctx"
)

const (
	HandlerCreateOnConfirmed   = "shipping.create_on_order_confirmed"
	HandlerWithdrawOnCancelled = "shipping.withdraw_on_order_cancelled"
)

type Listener struct {
	uc  *UseCases
	log observability.Logger
}

func NewListener(uc *UseCases, tel observability.Observability) *Listener {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Listener{
		uc:  uc,
		log: tel.Logger().With(observability.F("component", "shipping_listener")),
	}
}

func (l *Listener) Register(sub domoutbox.Subscriber) {
	domoutbox.On(sub, HandlerCreateOnConfirmed, l.onOrderConfirmed)
	domoutbox.On(sub, HandlerWithdrawOnCancelled, l.onOrderCancelled)
}

// onOrderConfirmed can run after the order was already cancelled, since
// listeners are not ordered. That case is skipped rather than journaled.
func (l *Listener) onOrderConfirmed(ctx context.Context, e domorder.OrderConfirmedEvent) error {
	_, err := l.uc.Create.Execute(ctx, CreateShippingInput{OrderID: e.OrderID})
	var stateErr *domorder.StateError
	if errors.As(err, &stateErr) && stateErr.Current == domorder.StatusCancelled {
		logctx.FromOr(ctx, l.log).Info("shipping_create_skipped",
			observability.F("order_id", e.OrderID),
			observability.F("status", string(stateErr.Current)),
		)
		return nil
	}
	return err
}

func (l *Listener) onOrderCancelled(ctx context.Context, e domorder.OrderCancelledEvent) error {
	res, err := l.uc.Withdraw.Execute(ctx, WithdrawShippingInput{OrderID: e.OrderID, Reason: "order cancelled"})
	if err != nil {
		return err
	}
	if res.Shipping != nil && !res.Withdrawn {
		logctx.FromOr(ctx, l.log).Warn("shipping_withdraw_skipped",
			observability.F("order_id", e.OrderID),
			observability.F("shipping_id", res.Shipping.ID),
			observability.F("status", string(res.Shipping.Status)),
		)
	}
	return nil
}
