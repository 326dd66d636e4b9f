package paymentgateway_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/paymentgateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initiate(t *testing.T, g domain.Gateway, amount int64) string {
	t.Helper()
	resp, err := g.Initiate(context.Background(), domain.InitiateRequest{OrderRef: "o-1", Amount: amount, Method: domain.MethodCard})
	require.NoError(t, err)
	require.NotEmpty(t, resp.PaymentKey)
	assert.Contains(t, resp.CheckoutURL, resp.PaymentKey)
	return resp.PaymentKey
}

func TestSimulatedAlwaysApproves(t *testing.T) {
	g := paymentgateway.NewSimulated(paymentgateway.WithSuccessRate(1))
	key := initiate(t, g, 9000)

	resp, err := g.Confirm(context.Background(), domain.ConfirmRequest{PaymentKey: key, OrderRef: "o-1", Amount: 9000})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.TransactionID)

	status, err := g.GetStatus(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayStatusDone, status)

	require.NoError(t, g.Refund(context.Background(), domain.RefundRequest{PaymentKey: key, Amount: 4000}))
	err = g.Refund(context.Background(), domain.RefundRequest{PaymentKey: key, Amount: 6000})
	var ge *domain.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, paymentgateway.CodeNotRefundable, ge.Code)
}

func TestSimulatedAlwaysDeclines(t *testing.T) {
	g := paymentgateway.NewSimulated(paymentgateway.WithSuccessRate(0))
	key := initiate(t, g, 9000)

	_, err := g.Confirm(context.Background(), domain.ConfirmRequest{PaymentKey: key, OrderRef: "o-1", Amount: 9000})
	var ge *domain.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, paymentgateway.CodeRejectedCard, ge.Code)
	assert.ErrorIs(t, err, domain.ErrGateway)

	status, err := g.GetStatus(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayStatusAborted, status)
}

func TestSimulatedRejectsMismatchedConfirmation(t *testing.T) {
	g := paymentgateway.NewSimulated(paymentgateway.WithSuccessRate(1))
	key := initiate(t, g, 9000)

	_, err := g.Confirm(context.Background(), domain.ConfirmRequest{PaymentKey: key, OrderRef: "o-1", Amount: 100})
	var ge *domain.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, paymentgateway.CodeInvalidRequest, ge.Code)

	_, err = g.Confirm(context.Background(), domain.ConfirmRequest{PaymentKey: "sim_missing", OrderRef: "o-1", Amount: 9000})
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, paymentgateway.CodeNotFoundPayment, ge.Code)
}

func TestSimulatedCancelTwice(t *testing.T) {
	g := paymentgateway.NewSimulated()
	key := initiate(t, g, 500)

	require.NoError(t, g.Cancel(context.Background(), key, "changed mind"))
	err := g.Cancel(context.Background(), key, "again")
	var ge *domain.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, paymentgateway.CodeAlreadyCanceled, ge.Code)
}

// flaky fails every call with a plain transport error until healed.
type flaky struct {
	*paymentgateway.Simulated
	calls  atomic.Int32
	broken atomic.Bool
}

func (f *flaky) GetStatus(ctx context.Context, key string) (domain.GatewayStatus, error) {
	f.calls.Add(1)
	if f.broken.Load() {
		return "", errors.New("connection refused")
	}
	return domain.GatewayStatusReady, nil
}

func TestBreakerTimesOutSlowGateway(t *testing.T) {
	slow := paymentgateway.NewSimulated(paymentgateway.WithLatency(200 * time.Millisecond))
	b := paymentgateway.NewBreaker(slow, paymentgateway.BreakerConfig{Timeout: 20 * time.Millisecond}, nil)

	_, err := b.Initiate(context.Background(), domain.InitiateRequest{OrderRef: "o-1", Amount: 100})
	var ge *domain.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, domain.CodeGatewayTimeout, ge.Code)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	f := &flaky{Simulated: paymentgateway.NewSimulated()}
	f.broken.Store(true)
	b := paymentgateway.NewBreaker(f, paymentgateway.BreakerConfig{Failures: 3, OpenTimeout: time.Hour}, nil)

	for i := 0; i < 3; i++ {
		_, err := b.GetStatus(context.Background(), "k")
		var ge *domain.GatewayError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, domain.CodeGatewayUnavailable, ge.Code)
		assert.Equal(t, "connection refused", ge.Message)
	}
	assert.Equal(t, "open", b.State())

	f.broken.Store(false)
	_, err := b.GetStatus(context.Background(), "k")
	var ge *domain.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, domain.CodeGatewayUnavailable, ge.Code)
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestBreakerIgnoresBusinessDeclines(t *testing.T) {
	g := paymentgateway.NewSimulated(paymentgateway.WithSuccessRate(0))
	b := paymentgateway.NewBreaker(g, paymentgateway.BreakerConfig{Failures: 1, OpenTimeout: time.Hour}, nil)

	for i := 0; i < 3; i++ {
		key := initiate(t, b, 100)
		_, err := b.Confirm(context.Background(), domain.ConfirmRequest{PaymentKey: key, OrderRef: "o-1", Amount: 100})
		var ge *domain.GatewayError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, paymentgateway.CodeRejectedCard, ge.Code)
	}
	assert.Equal(t, "closed", b.State())
	assert.Equal(t, "simulated", b.Provider())
}
