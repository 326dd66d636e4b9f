package payment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	"github.com/Zhima-Mochi/minishop-saga/internal/domain/address"
	domorder "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Provider() string { return "mockpay" }

func (m *mockGateway) Initiate(ctx context.Context, req domain.InitiateRequest) (domain.InitiateResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.InitiateResponse), args.Error(1)
}

func (m *mockGateway) Confirm(ctx context.Context, req domain.ConfirmRequest) (domain.ConfirmResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.ConfirmResponse), args.Error(1)
}

func (m *mockGateway) Cancel(ctx context.Context, paymentKey, reason string) error {
	return m.Called(ctx, paymentKey, reason).Error(0)
}

func (m *mockGateway) Refund(ctx context.Context, req domain.RefundRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockGateway) GetStatus(ctx context.Context, paymentKey string) (domain.GatewayStatus, error) {
	args := m.Called(ctx, paymentKey)
	return args.Get(0).(domain.GatewayStatus), args.Error(1)
}

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

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

type fixedIDs string

func (f fixedIDs) NewID() string { return string(f) }

type fixture struct {
	uc       *UseCases
	gw       *mockGateway
	payments *memory.PaymentRepository
	orders   *memory.OrderRepository
	pub      *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gw:       &mockGateway{},
		payments: memory.NewPaymentRepository(),
		orders:   memory.NewOrderRepository(),
		pub:      &recordingPublisher{},
	}
	f.uc = NewUseCases(Deps{
		Payments:  f.payments,
		Orders:    f.orders,
		Gateway:   f.gw,
		Publisher: f.pub,
		IDs:       fixedIDs("pay-1"),
		Tel:       observability.Nop(),
	})

	addr, err := address.New("Kim", "010-1111-2222", "06236", "Teheran-ro 1", "", "")
	require.NoError(t, err)
	o, err := domorder.New("o-1", "ORD-20261015-ABCDEF01", "c-1", addr)
	require.NoError(t, err)
	item, err := domorder.NewLineItem("p-1", "Mug", "", 2, 5_000)
	require.NoError(t, err)
	require.NoError(t, o.AddItem(item))
	require.NoError(t, o.Place())
	require.NoError(t, o.ApplyDiscount("cp-1", 1_000))
	require.NoError(t, f.orders.Save(context.Background(), o))
	return f
}

func (f *fixture) initiate(t *testing.T) *View {
	t.Helper()
	f.gw.On("Initiate", mock.Anything, mock.MatchedBy(func(r domain.InitiateRequest) bool {
		return r.OrderRef == "o-1" && r.Amount == 9_000 && r.Method == domain.MethodCard
	})).Return(domain.InitiateResponse{PaymentKey: "pk-1", CheckoutURL: "https://pay.example/pk-1"}, nil).Once()

	v, err := f.uc.Initiate.Execute(context.Background(), InitiatePaymentInput{OrderID: "o-1", Method: "card"})
	require.NoError(t, err)
	return v
}

func (f *fixture) confirm(t *testing.T) *View {
	t.Helper()
	f.gw.On("Confirm", mock.Anything, domain.ConfirmRequest{PaymentKey: "pk-1", OrderRef: "o-1", Amount: 9_000}).
		Return(domain.ConfirmResponse{TransactionID: "tx-1", ProviderTransactionID: "ptx-1"}, nil).Once()
	v, err := f.uc.Confirm.Execute(context.Background(), ConfirmPaymentInput{PaymentID: "pay-1", PaymentKey: "pk-1", Amount: 9_000})
	require.NoError(t, err)
	return v
}

func TestInitiateUsesPayableAmount(t *testing.T) {
	f := newFixture(t)
	v := f.initiate(t)

	assert.Equal(t, int64(9_000), v.Amount)
	assert.Equal(t, domain.StatusProcessing, v.Status)
	assert.Equal(t, "mockpay", v.Provider)
	assert.Equal(t, "pk-1", v.PaymentKey)
	assert.Equal(t, "https://pay.example/pk-1", v.CheckoutURL)
	assert.Empty(t, f.pub.names())

	_, err := f.uc.Initiate.Execute(context.Background(), InitiatePaymentInput{OrderID: "o-1", Method: "CARD"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	f.gw.AssertExpectations(t)
}

func TestInitiateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Initiate.Execute(ctx, InitiatePaymentInput{OrderID: "o-1", Method: "BITCOIN"})
	assert.ErrorIs(t, err, application.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrInvalidMethod)

	_, err = f.uc.Initiate.Execute(ctx, InitiatePaymentInput{OrderID: "missing", Method: "CARD"})
	assert.ErrorIs(t, err, domorder.ErrNotFound)

	o, err := f.orders.FindByID(ctx, "o-1")
	require.NoError(t, err)
	require.NoError(t, o.Cancel("changed mind"))
	require.NoError(t, f.orders.Update(ctx, o))
	_, err = f.uc.Initiate.Execute(ctx, InitiatePaymentInput{OrderID: "o-1", Method: "CARD"})
	assert.ErrorIs(t, err, domorder.ErrInvalidState)
	f.gw.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything)
}

func TestInitiateGatewayFailureFailsPayment(t *testing.T) {
	f := newFixture(t)
	f.gw.On("Initiate", mock.Anything, mock.Anything).
		Return(domain.InitiateResponse{}, &domain.GatewayError{Code: "INVALID_CARD", Message: "card rejected"}).Once()

	_, err := f.uc.Initiate.Execute(context.Background(), InitiatePaymentInput{OrderID: "o-1", Method: "CARD"})
	var ge *domain.GatewayError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "INVALID_CARD", ge.Code)
	assert.Equal(t, "card rejected", ge.Message)

	stored, err := f.payments.FindByID(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Equal(t, []string{"payment.failed"}, f.pub.names())
}

func TestConfirmPublishesCompleted(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)
	v := f.confirm(t)

	assert.Equal(t, domain.StatusCompleted, v.Status)
	assert.Equal(t, "tx-1", v.TransactionID)
	require.Equal(t, []string{"payment.completed"}, f.pub.names())
	evt := f.pub.events[0].(domain.PaymentCompletedEvent)
	assert.Equal(t, "o-1", evt.OrderID)
	assert.Equal(t, int64(9_000), evt.Amount)

	_, err := f.uc.Confirm.Execute(context.Background(), ConfirmPaymentInput{PaymentID: "pay-1", PaymentKey: "pk-1", Amount: 9_000})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	f.gw.AssertExpectations(t)
}

func TestConfirmRejectsWrongAmount(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)

	_, err := f.uc.Confirm.Execute(context.Background(), ConfirmPaymentInput{PaymentID: "pay-1", PaymentKey: "pk-1", Amount: 10_000})
	assert.ErrorIs(t, err, domain.ErrAmountMismatch)

	_, err = f.uc.Confirm.Execute(context.Background(), ConfirmPaymentInput{PaymentID: "pay-1", PaymentKey: "pk-other", Amount: 9_000})
	assert.ErrorIs(t, err, application.ErrValidation)

	f.gw.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	stored, err := f.payments.FindByID(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, stored.Status)
}

func TestConfirmGatewayErrorIsPassedThrough(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)
	f.gw.On("Confirm", mock.Anything, mock.Anything).
		Return(domain.ConfirmResponse{}, errors.New("connection reset")).Once()

	_, err := f.uc.Confirm.Execute(context.Background(), ConfirmPaymentInput{PaymentID: "pay-1", PaymentKey: "pk-1", Amount: 9_000})
	var ge *domain.GatewayError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, domain.CodeGatewayUnavailable, ge.Code)
	assert.ErrorIs(t, err, domain.ErrGateway)

	v, err := f.uc.Get.Execute(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, v.Status)
	assert.Contains(t, v.FailureReason, "connection reset")
}

func TestRefundIsMonotone(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)
	f.confirm(t)
	ctx := context.Background()

	f.gw.On("Refund", mock.Anything, mock.Anything).Return(nil).Twice()

	v, err := f.uc.Refund.Execute(ctx, RefundPaymentInput{PaymentID: "pay-1", Amount: 4_000, Reason: "one broken"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPartiallyRefunded, v.Status)
	assert.Equal(t, int64(5_000), v.RefundableAmount)

	_, err = f.uc.Refund.Execute(ctx, RefundPaymentInput{PaymentID: "pay-1", Amount: 5_001})
	assert.ErrorIs(t, err, domain.ErrRefundExceedsAmount)

	_, err = f.uc.Refund.Execute(ctx, RefundPaymentInput{PaymentID: "pay-1", Amount: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	v, err = f.uc.Refund.Execute(ctx, RefundPaymentInput{PaymentID: "pay-1", Amount: 5_000})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, v.Status)
	assert.Equal(t, int64(9_000), v.RefundedAmount)

	f.gw.AssertNumberOfCalls(t, "Refund", 2)
	assert.Equal(t, []string{"payment.completed", "payment.refunded", "payment.refunded"}, f.pub.names())
}

func TestRefundGatewayFailureLeavesPayment(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)
	f.confirm(t)
	f.gw.On("Refund", mock.Anything, mock.Anything).
		Return(&domain.GatewayError{Code: domain.CodeGatewayTimeout, Message: "deadline"}).Once()

	_, err := f.uc.Refund.Execute(context.Background(), RefundPaymentInput{PaymentID: "pay-1", Amount: 1_000})
	assert.ErrorIs(t, err, domain.ErrGateway)

	v, err := f.uc.Get.Execute(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, v.Status)
	assert.Zero(t, v.RefundedAmount)
}

func TestCancelProcessingPayment(t *testing.T) {
	f := newFixture(t)
	f.initiate(t)
	f.gw.On("Cancel", mock.Anything, "pk-1", "customer left").Return(nil).Once()

	v, err := f.uc.Cancel.Execute(context.Background(), CancelPaymentInput{PaymentID: "pay-1", Reason: "customer left"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, v.Status)
	assert.Equal(t, []string{"payment.cancelled"}, f.pub.names())

	_, err = f.uc.Cancel.Execute(context.Background(), CancelPaymentInput{PaymentID: "pay-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	f.gw.AssertExpectations(t)

	byOrder, err := f.uc.Get.ByOrder(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", byOrder.ID)
}
