package shipping

import (
	"context"
	"sync"
	"testing"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	"github.com/Zhima-Mochi/minishop-saga/internal/domain/address"
	domorder "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/shipping"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventName() == name {
			n++
		}
	}
	return n
}

type captureSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (c *captureSubscriber) Subscribe(_, handlerName string, h domoutbox.Handler) {
	if c.handlers == nil {
		c.handlers = map[string]domoutbox.Handler{}
	}
	c.handlers[handlerName] = h
}

type fixture struct {
	uc     *UseCases
	orders *memory.OrderRepository
	pub    *recordingPublisher
}

func newFixture(t *testing.T, confirm bool) *fixture {
	t.Helper()
	f := &fixture{orders: memory.NewOrderRepository(), pub: &recordingPublisher{}}
	f.uc = NewUseCases(Deps{
		Shippings:      memory.NewShippingRepository(),
		Orders:         f.orders,
		Publisher:      f.pub,
		IDs:            id.NewUUIDGenerator(),
		Tracking:       id.TrackingNumberGenerator{},
		DefaultCarrier: "CJ",
		Tel:            observability.Nop(),
	})

	addr, err := address.New("Kim", "010-1111-2222", "06236", "Teheran-ro 1", "3F", "")
	require.NoError(t, err)
	o, err := domorder.New("o-1", "ORD-20261015-ABCDEF01", "c-1", addr)
	require.NoError(t, err)
	item, err := domorder.NewLineItem("p-1", "Mug", "", 1, 5_000)
	require.NoError(t, err)
	require.NoError(t, o.AddItem(item))
	require.NoError(t, o.Place())
	if confirm {
		require.NoError(t, o.Confirm("pay-1"))
	}
	require.NoError(t, f.orders.Save(context.Background(), o))
	return f
}

func TestListenerCreatesOneShipmentPerOrder(t *testing.T) {
	f := newFixture(t, true)
	sub := &captureSubscriber{}
	NewListener(f.uc, observability.Nop()).Register(sub)
	h := sub.handlers[HandlerCreateOnConfirmed]
	require.NotNil(t, h)

	evt := domorder.OrderConfirmedEvent{Metadata: domoutbox.NewMetadata(), OrderID: "o-1", PaymentID: "pay-1"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h(context.Background(), evt))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.pub.count("shipping.created"))
	v, err := f.uc.Get.ByOrder(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, v.Status)
	assert.Equal(t, "CJ", v.Carrier)
	assert.Contains(t, v.Address, "Teheran-ro 1")
}

func TestCreateRequiresConfirmedOrder(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.uc.Create.Execute(context.Background(), CreateShippingInput{OrderID: "o-1"})
	assert.ErrorIs(t, err, domorder.ErrInvalidState)

	_, err = f.uc.Create.Execute(context.Background(), CreateShippingInput{OrderID: "missing"})
	assert.ErrorIs(t, err, domorder.ErrNotFound)
}

func TestAdvanceThroughDelivery(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	res, err := f.uc.Create.Execute(ctx, CreateShippingInput{OrderID: "o-1"})
	require.NoError(t, err)
	require.True(t, res.Created)
	shipID := res.Shipping.ID

	_, err = f.uc.Advance.Execute(ctx, AdvanceShippingInput{ShippingID: shipID, Target: ParseTarget("in_transit")})
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusPending, te.From)
	assert.ErrorIs(t, err, domain.ErrInvalidShippingTransition)

	for _, target := range []string{"preparing", "picked-up", "in_transit", "out_for_delivery", "delivered"} {
		v, err := f.uc.Advance.Execute(ctx, AdvanceShippingInput{ShippingID: shipID, Target: ParseTarget(target)})
		require.NoError(t, err, target)
		assert.Equal(t, ParseTarget(target), v.Status)
	}

	v, err := f.uc.Get.Execute(ctx, shipID)
	require.NoError(t, err)
	assert.Regexp(t, `^CJ-[0-9A-F]{12}$`, v.TrackingNumber)
	assert.NotEmpty(t, v.EstimatedDeliveryAt)
	assert.NotEmpty(t, v.DeliveredAt)
	assert.Equal(t, 1, f.pub.count("shipping.started"))
	assert.Equal(t, 1, f.pub.count("shipping.delivered"))

	_, err = f.uc.Advance.Execute(ctx, AdvanceShippingInput{ShippingID: shipID, Target: domain.StatusReturned, Reason: "late"})
	assert.ErrorIs(t, err, domain.ErrInvalidShippingTransition)

	_, err = f.uc.Advance.Execute(ctx, AdvanceShippingInput{ShippingID: shipID, Target: "LOST"})
	assert.ErrorIs(t, err, application.ErrValidation)
}

func TestReturnBeforeDelivery(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	res, err := f.uc.Create.Execute(ctx, CreateShippingInput{OrderID: "o-1"})
	require.NoError(t, err)

	v, err := f.uc.Advance.Execute(ctx, AdvanceShippingInput{ShippingID: res.Shipping.ID, Target: domain.StatusReturned, Reason: "refused"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReturned, v.Status)
	assert.Equal(t, "refused", v.ReturnReason)
	assert.Equal(t, 1, f.pub.count("shipping.returned"))
}

func TestListenerSkipsOrderCancelledBeforeShipment(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	o, err := f.orders.FindByID(ctx, "o-1")
	require.NoError(t, err)
	require.NoError(t, o.Cancel("changed mind"))
	require.NoError(t, f.orders.Update(ctx, o))

	sub := &captureSubscriber{}
	NewListener(f.uc, observability.Nop()).Register(sub)
	require.NoError(t, sub.handlers[HandlerWithdrawOnCancelled](ctx, domorder.OrderCancelledEvent{Metadata: domoutbox.NewMetadata(), OrderID: "o-1"}))
	require.NoError(t, sub.handlers[HandlerCreateOnConfirmed](ctx, domorder.OrderConfirmedEvent{Metadata: domoutbox.NewMetadata(), OrderID: "o-1", PaymentID: "pay-1"}))

	_, err = f.uc.Get.ByOrder(ctx, "o-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, f.pub.count("shipping.created"))
}

func TestListenerWithdrawsShipmentOfCancelledOrder(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	res, err := f.uc.Create.Execute(ctx, CreateShippingInput{OrderID: "o-1"})
	require.NoError(t, err)
	_, err = f.uc.Advance.Execute(ctx, AdvanceShippingInput{ShippingID: res.Shipping.ID, Target: domain.StatusPreparing})
	require.NoError(t, err)

	sub := &captureSubscriber{}
	NewListener(f.uc, observability.Nop()).Register(sub)
	evt := domorder.OrderCancelledEvent{Metadata: domoutbox.NewMetadata(), OrderID: "o-1", Reason: "changed mind"}
	h := sub.handlers[HandlerWithdrawOnCancelled]
	require.NoError(t, h(ctx, evt))
	require.NoError(t, h(ctx, evt))

	v, err := f.uc.Get.Execute(ctx, res.Shipping.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReturned, v.Status)
	assert.Equal(t, "order cancelled", v.ReturnReason)
	assert.Equal(t, 1, f.pub.count("shipping.returned"))

	_, err = f.uc.Advance.Execute(ctx, AdvanceShippingInput{ShippingID: res.Shipping.ID, Target: domain.StatusPickedUp})
	assert.ErrorIs(t, err, domain.ErrInvalidShippingTransition)
}
