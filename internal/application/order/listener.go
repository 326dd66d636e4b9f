package order

import (
	"context"
	"errors"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	domshipping "github.com/Zhima-Mochi/minishop-saga/internal/domain/shipping"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability/logctx"
)

const (
	HandlerConfirmOnPayment   = "order.confirm_on_payment_completed"
	HandlerCancelOnFailed     = "order.cancel_on_payment_failed"
	HandlerCancelOnCancelled  = "order.cancel_on_payment_cancelled"
	HandlerShipOnPickup       = "order.ship_on_shipping_started"
	HandlerDeliverOnDelivered = "order.deliver_on_shipping_delivered"
)

type ListenerOptions struct {
	// FollowShipping advances the order along with its shipment. Off by
	// default: a delivered shipment leaves the order where it is.
	FollowShipping bool
}

// Listener is the order domain's side of the choreography.
type Listener struct {
	uc   *UseCases
	opts ListenerOptions
	log  observability.Logger
}

func NewListener(uc *UseCases, tel observability.Observability, opts ListenerOptions) *Listener {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Listener{
		uc:   uc,
		opts: opts,
		log:  tel.Logger().With(observability.F("component", "order_listener")),
	}
}

func (l *Listener) Register(sub domoutbox.Subscriber) {
	domoutbox.On(sub, HandlerConfirmOnPayment, l.onPaymentCompleted)
	domoutbox.On(sub, HandlerCancelOnFailed, l.onPaymentFailed)
	domoutbox.On(sub, HandlerCancelOnCancelled, l.onPaymentCancelled)
	if l.opts.FollowShipping {
		domoutbox.On(sub, HandlerShipOnPickup, l.onShippingStarted)
		domoutbox.On(sub, HandlerDeliverOnDelivered, l.onShippingDelivered)
	}
}

// onPaymentCompleted is the only path to CONFIRMED. A stock shortfall leaves
// the order PENDING and the payment untouched; the error goes back to the
// bus for the reconciliation journal.
func (l *Listener) onPaymentCompleted(ctx context.Context, e dompayment.PaymentCompletedEvent) error {
	_, err := l.uc.Confirm.Execute(ctx, ConfirmOrderInput{OrderID: e.OrderID, PaymentID: e.PaymentID})
	if errors.Is(err, ErrDuplicateConfirmation) {
		logctx.FromOr(ctx, l.log).Info("duplicate_payment_completed_ignored",
			observability.F("order_id", e.OrderID),
			observability.F("payment_id", e.PaymentID),
		)
		return nil
	}
	return err
}

// A payment can be attempted once per order, so a failed or cancelled
// payment ends a PENDING order. OrderCancelled then releases its coupon.
func (l *Listener) onPaymentFailed(ctx context.Context, e dompayment.PaymentFailedEvent) error {
	logctx.FromOr(ctx, l.log).Warn("order_payment_failed",
		observability.F("order_id", e.OrderID),
		observability.F("payment_id", e.PaymentID),
		observability.F("reason", e.Reason),
	)
	return l.cancelPending(ctx, e.OrderID, "payment failed: "+e.Reason)
}

func (l *Listener) onPaymentCancelled(ctx context.Context, e dompayment.PaymentCancelledEvent) error {
	return l.cancelPending(ctx, e.OrderID, "payment cancelled: "+e.Reason)
}

func (l *Listener) cancelPending(ctx context.Context, orderID, reason string) error {
	o, err := l.uc.Get.Execute(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != domain.StatusPending {
		logctx.FromOr(ctx, l.log).Info("order_payment_compensation_skipped",
			observability.F("order_id", orderID),
			observability.F("status", string(o.Status)),
		)
		return nil
	}
	_, err = l.uc.Cancel.Execute(ctx, CancelOrderInput{OrderID: orderID, Reason: reason})
	var stateErr *domain.StateError
	if errors.As(err, &stateErr) {
		logctx.FromOr(ctx, l.log).Info("order_payment_compensation_skipped",
			observability.F("order_id", orderID),
			observability.F("status", string(stateErr.Current)),
		)
		return nil
	}
	return err
}

func (l *Listener) onShippingStarted(ctx context.Context, e domshipping.ShippingStartedEvent) error {
	o, err := l.uc.Get.Execute(ctx, e.OrderID)
	if err != nil {
		return err
	}
	if o.Status == domain.StatusConfirmed {
		if _, err := l.uc.Advance.Execute(ctx, AdvanceOrderInput{OrderID: e.OrderID, Target: domain.StatusPreparing}); err != nil {
			return err
		}
		o.Status = domain.StatusPreparing
	}
	if o.Status != domain.StatusPreparing {
		return l.skip(ctx, e.OrderID, o.Status, domain.StatusShipped)
	}
	_, err = l.uc.Advance.Execute(ctx, AdvanceOrderInput{OrderID: e.OrderID, Target: domain.StatusShipped})
	return err
}

func (l *Listener) onShippingDelivered(ctx context.Context, e domshipping.ShippingDeliveredEvent) error {
	o, err := l.uc.Get.Execute(ctx, e.OrderID)
	if err != nil {
		return err
	}
	if o.Status != domain.StatusShipped {
		return l.skip(ctx, e.OrderID, o.Status, domain.StatusDelivered)
	}
	_, err = l.uc.Advance.Execute(ctx, AdvanceOrderInput{OrderID: e.OrderID, Target: domain.StatusDelivered})
	return err
}

func (l *Listener) skip(ctx context.Context, orderID string, current, target domain.Status) error {
	logctx.FromOr(ctx, l.log).Info("order_follow_shipping_skipped",
		observability.F("order_id", orderID),
		observability.F("status", string(current)),
		observability.F("target", string(target)),
	)
	return nil
}
