// Package bootstrap assembles the use cases, listeners and event bus. Every
// adapter left nil in Adapters falls back to its in-memory version.
package bootstrap

import (
	"context"

	appNotification "github.com/Zhima-Mochi/minishop-saga/internal/application/notification"
	appOrder "github.com/Zhima-Mochi/minishop-saga/internal/application/order"
	appPayment "github.com/Zhima-Mochi/minishop-saga/internal/application/payment"
	appPromotion "github.com/Zhima-Mochi/minishop-saga/internal/application/promotion"
	appShipping "github.com/Zhima-Mochi/minishop-saga/internal/application/shipping"
	"github.com/Zhima-Mochi/minishop-saga/internal/config"
	domcart "github.com/Zhima-Mochi/minishop-saga/internal/domain/cart"
	domnotification "github.com/Zhima-Mochi/minishop-saga/internal/domain/notification"
	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	domproduct "github.com/Zhima-Mochi/minishop-saga/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/notify"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/paymentgateway"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/Zhima-Mochi/minishop-saga/internal/pkg/keylock"
)

type Adapters struct {
	Products   domproduct.Repository
	Carts      domcart.Repository
	Dedup      domoutbox.Deduplicator
	Journal    domoutbox.ResultSink
	Gateway    dompayment.Gateway
	Sender     domnotification.Sender
	Recipients domnotification.RecipientResolver
}

type App struct {
	Bus        *outbox.Bus
	Orders     *appOrder.UseCases
	Payments   *appPayment.UseCases
	Shippings  *appShipping.UseCases
	Promotions *appPromotion.UseCases
	Carts      domcart.Repository
	Gateway    dompayment.Gateway
}

func New(cfg config.Config, tel observability.Observability, a Adapters) *App {
	if tel == nil {
		tel = observability.Nop()
	}
	a = withDefaults(cfg, tel, a)

	opts := []outbox.Option{
		outbox.WithQueueSize(cfg.Bus.QueueSize),
		outbox.WithWorkers(cfg.Bus.Workers),
		outbox.WithHandlerConcurrency(cfg.Bus.HandlerConcurrency),
		outbox.WithHandlerTimeout(cfg.Bus.HandlerTimeout),
		outbox.WithDeduplicator(a.Dedup),
	}
	if a.Journal != nil {
		opts = append(opts, outbox.WithResultSink(a.Journal))
	}
	bus := outbox.NewBus(tel, opts...)

	orders := memory.NewOrderRepository()
	ids := id.NewUUIDGenerator()
	locks := keylock.New()

	promotions := appPromotion.NewUseCases(appPromotion.Deps{
		Promotions: memory.NewPromotionRepository(),
		Publisher:  bus,
		IDs:        ids,
		Locks:      locks,
		Tel:        tel,
	})
	orderUC := appOrder.NewUseCases(appOrder.Deps{
		Orders:    orders,
		Products:  a.Products,
		Carts:     a.Carts,
		Coupons:   appPromotion.NewRedeemer(promotions),
		Publisher: bus,
		IDs:       ids,
		Numbers:   id.NewOrderNumberGenerator(),
		Locks:     locks,
		Tel:       tel,
	})
	payments := appPayment.NewUseCases(appPayment.Deps{
		Payments:  memory.NewPaymentRepository(),
		Orders:    orders,
		Gateway:   a.Gateway,
		Publisher: bus,
		IDs:       ids,
		Locks:     locks,
		Tel:       tel,
	})
	shippings := appShipping.NewUseCases(appShipping.Deps{
		Shippings:      memory.NewShippingRepository(),
		Orders:         orders,
		Publisher:      bus,
		IDs:            ids,
		Tracking:       id.TrackingNumberGenerator{},
		DefaultCarrier: cfg.DefaultCarrier,
		Locks:          locks,
		Tel:            tel,
	})

	appOrder.NewListener(orderUC, tel, appOrder.ListenerOptions{FollowShipping: cfg.OrderAdvanceOnDelivery}).Register(bus)
	appShipping.NewListener(shippings, tel).Register(bus)
	appPromotion.NewListener(promotions).Register(bus)
	appNotification.NewListener(appNotification.Deps{
		Sender:     a.Sender,
		Recipients: a.Recipients,
		Orders:     orders,
		Tel:        tel,
	}).Register(bus)

	return &App{
		Bus:        bus,
		Orders:     orderUC,
		Payments:   payments,
		Shippings:  shippings,
		Promotions: promotions,
		Carts:      a.Carts,
		Gateway:    a.Gateway,
	}
}

func (app *App) Start(ctx context.Context) { app.Bus.Start(ctx) }

// Stop drains queued events, bounded by ctx.
func (app *App) Stop(ctx context.Context) error { return app.Bus.Stop(ctx) }

func withDefaults(cfg config.Config, tel observability.Observability, a Adapters) Adapters {
	if a.Products == nil {
		a.Products = memory.NewProductRepository()
	}
	if a.Carts == nil {
		a.Carts = memory.NewCartRepository()
	}
	if a.Dedup == nil {
		a.Dedup = memory.NewDeduplicator()
	}
	if a.Gateway == nil {
		a.Gateway = paymentgateway.NewBreaker(
			paymentgateway.NewSimulated(paymentgateway.WithSuccessRate(cfg.Gateway.SuccessRate)),
			paymentgateway.BreakerConfig{
				Timeout:     cfg.Gateway.Timeout,
				Failures:    cfg.Gateway.BreakerFailures,
				OpenTimeout: cfg.Gateway.BreakerOpenTimeout,
			},
			tel,
		)
	}
	if a.Sender == nil {
		a.Sender = notify.NewLogSender(tel.Logger())
	}
	if a.Recipients == nil {
		a.Recipients = notify.DirectoryResolver{MailDomain: "customers.minishop.local"}
	}
	return a
}
