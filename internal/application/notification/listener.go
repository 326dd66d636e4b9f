package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/notification"
	domorder "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	dompromotion "github.com/Zhima-Mochi/minishop-saga/internal/domain/promotion"
	domshipping "github.com/Zhima-Mochi/minishop-saga/internal/domain/shipping"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

const (
	notificationService = "notification-service"
	useCaseNotify       = "notification.send"
	senderPeer          = "notification-sender"
)

const (
	HandlerOrderPlaced       = "notification.on_order_placed"
	HandlerOrderConfirmed    = "notification.on_order_confirmed"
	HandlerPaymentCompleted  = "notification.on_payment_completed"
	HandlerShippingStarted   = "notification.on_shipping_started"
	HandlerShippingDelivered = "notification.on_shipping_delivered"
	HandlerCouponIssued      = "notification.on_coupon_issued"
)

// OrderFinder resolves the customer behind events that only carry an order id.
type OrderFinder interface {
	FindByID(ctx context.Context, id string) (*domorder.Order, error)
}

type Deps struct {
	Sender     domain.Sender
	Recipients domain.RecipientResolver
	Orders     OrderFinder
	// Channels every notification goes out on. Defaults to email.
	Channels []domain.Channel
	Tel      observability.Observability
}

// Listener turns saga events into customer notifications. A failed delivery
// goes back to the bus as the handler's error and never reaches the command
// that raised the event.
type Listener struct {
	deps Deps
	in   *application.Instruments
}

func NewListener(d Deps) *Listener {
	if len(d.Channels) == 0 {
		d.Channels = []domain.Channel{domain.ChannelEmail}
	}
	return &Listener{deps: d, in: application.NewInstruments(d.Tel, notificationService)}
}

func (l *Listener) Register(sub domoutbox.Subscriber) {
	domoutbox.On(sub, HandlerOrderPlaced, l.onOrderPlaced)
	domoutbox.On(sub, HandlerOrderConfirmed, l.onOrderConfirmed)
	domoutbox.On(sub, HandlerPaymentCompleted, l.onPaymentCompleted)
	domoutbox.On(sub, HandlerShippingStarted, l.onShippingStarted)
	domoutbox.On(sub, HandlerShippingDelivered, l.onShippingDelivered)
	domoutbox.On(sub, HandlerCouponIssued, l.onCouponIssued)
}

func (l *Listener) onOrderPlaced(ctx context.Context, e domorder.OrderPlacedEvent) error {
	return l.notify(ctx, e.CustomerID, draft{
		typ:     domain.TypeOrderPlaced,
		title:   "Order received",
		content: fmt.Sprintf("Your order %s for %d has been received.", e.OrderNumber, e.TotalAmount),
		refID:   e.OrderID,
		refType: domain.ReferenceOrder,
	})
}

func (l *Listener) onOrderConfirmed(ctx context.Context, e domorder.OrderConfirmedEvent) error {
	o, err := l.deps.Orders.FindByID(ctx, e.OrderID)
	if err != nil {
		return fmt.Errorf("notification: order %s: %w", e.OrderID, err)
	}
	return l.notify(ctx, o.CustomerID, draft{
		typ:     domain.TypeOrderConfirmed,
		title:   "Order confirmed",
		content: fmt.Sprintf("Your order %s is confirmed and will be prepared for shipping.", o.OrderNumber),
		refID:   o.ID,
		refType: domain.ReferenceOrder,
	})
}

func (l *Listener) onPaymentCompleted(ctx context.Context, e dompayment.PaymentCompletedEvent) error {
	o, err := l.deps.Orders.FindByID(ctx, e.OrderID)
	if err != nil {
		return fmt.Errorf("notification: order %s: %w", e.OrderID, err)
	}
	return l.notify(ctx, o.CustomerID, draft{
		typ:     domain.TypePaymentCompleted,
		title:   "Payment completed",
		content: fmt.Sprintf("We received your payment of %d for order %s.", e.Amount, o.OrderNumber),
		refID:   e.PaymentID,
		refType: domain.ReferencePayment,
	})
}

func (l *Listener) onShippingStarted(ctx context.Context, e domshipping.ShippingStartedEvent) error {
	o, err := l.deps.Orders.FindByID(ctx, e.OrderID)
	if err != nil {
		return fmt.Errorf("notification: order %s: %w", e.OrderID, err)
	}
	return l.notify(ctx, o.CustomerID, draft{
		typ:     domain.TypeShippingStarted,
		title:   "Your order has shipped",
		content: fmt.Sprintf("Order %s was picked up by %s, tracking number %s.", o.OrderNumber, e.Carrier, e.TrackingNumber),
		refID:   e.ShippingID,
		refType: domain.ReferenceShipping,
	})
}

func (l *Listener) onShippingDelivered(ctx context.Context, e domshipping.ShippingDeliveredEvent) error {
	o, err := l.deps.Orders.FindByID(ctx, e.OrderID)
	if err != nil {
		return fmt.Errorf("notification: order %s: %w", e.OrderID, err)
	}
	return l.notify(ctx, o.CustomerID, draft{
		typ:     domain.TypeShippingDelivered,
		title:   "Delivered",
		content: fmt.Sprintf("Order %s was delivered. Please confirm receipt.", o.OrderNumber),
		refID:   e.ShippingID,
		refType: domain.ReferenceShipping,
	})
}

func (l *Listener) onCouponIssued(ctx context.Context, e dompromotion.CouponIssuedEvent) error {
	return l.notify(ctx, e.CustomerID, draft{
		typ:     domain.TypeCouponIssued,
		title:   "You received a coupon",
		content: fmt.Sprintf("The coupon %q is now in your account.", e.CouponName),
		refID:   e.CouponID,
		refType: domain.ReferenceCoupon,
	})
}

type draft struct {
	typ     domain.Type
	title   string
	content string
	refID   string
	refType domain.ReferenceType
}

// notify sends d on every configured channel. A channel without a recipient
// is skipped; send failures are joined.
func (l *Listener) notify(ctx context.Context, customerID string, d draft) (err error) {
	ctx, run := l.in.Begin(ctx, useCaseNotify, "SendNotification",
		attribute.String("notification.type", string(d.typ)),
		attribute.String("customer.id", customerID),
	)
	defer func() { run.End(err) }()

	var errs []error
	sent := 0
	for _, ch := range l.deps.Channels {
		recipient, err := l.deps.Recipients.Resolve(ctx, customerID, ch)
		if errors.Is(err, domain.ErrNoRecipient) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("resolve %s: %w", ch, err))
			continue
		}
		msg := domain.Message{
			CustomerID:    customerID,
			Type:          d.typ,
			Channel:       ch,
			Title:         d.title,
			Content:       d.content,
			Recipient:     recipient,
			ReferenceID:   d.refID,
			ReferenceType: d.refType,
		}
		if err := run.Call(ctx, senderPeer, string(ch), func(ctx context.Context) error {
			return l.deps.Sender.Send(ctx, msg)
		}); err != nil {
			errs = append(errs, fmt.Errorf("send %s: %w", ch, err))
			continue
		}
		sent++
	}

	run.Annotate(observability.F("type", string(d.typ)), observability.F("sent", sent))
	if err := errors.Join(errs...); err != nil {
		run.Fail("SEND_FAILED")
		return err
	}
	if sent == 0 {
		run.Status("NO_RECIPIENT")
	}
	return nil
}
