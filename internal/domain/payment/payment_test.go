package payment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedPayment(t *testing.T, amount int64) *Payment {
	t.Helper()
	p, err := New("pay-1", "o-1", amount, MethodCard)
	require.NoError(t, err)
	require.NoError(t, p.StartProcessing("simulated", "key-1"))
	require.NoError(t, p.Complete("tx-1", "ptx-1"))
	p.PullEvents()
	return p
}

func TestNewValidates(t *testing.T) {
	_, err := New("pay", "o", 0, MethodCard)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = New("pay", "o", 100, Method("CASH"))
	assert.ErrorIs(t, err, ErrInvalidMethod)

	m, err := ParseMethod(" easy_pay ")
	require.NoError(t, err)
	assert.Equal(t, MethodEasyPay, m)
}

func TestHappyPathEmitsCompleted(t *testing.T) {
	p, err := New("pay-1", "o-1", 20_000, MethodCard)
	require.NoError(t, err)
	require.NoError(t, p.StartProcessing("simulated", "key-1"))
	assert.Equal(t, StatusProcessing, p.Status)
	assert.Equal(t, "key-1", p.PaymentKey)

	require.ErrorIs(t, p.StartProcessing("simulated", "key-2"), ErrInvalidState)

	require.NoError(t, p.Complete("tx-1", "ptx-1"))
	assert.Equal(t, StatusCompleted, p.Status)
	require.NotNil(t, p.CompletedAt)

	events := p.PullEvents()
	require.Len(t, events, 1)
	done := events[0].(PaymentCompletedEvent)
	assert.Equal(t, "pay-1", done.PaymentID)
	assert.Equal(t, "o-1", done.OrderID)
	assert.Equal(t, int64(20_000), done.Amount)
	assert.Equal(t, MethodCard, done.Method)
	assert.Equal(t, "tx-1", done.TransactionID)
}

func TestCompleteAllowedFromPending(t *testing.T) {
	p, err := New("pay-1", "o-1", 100, MethodTransfer)
	require.NoError(t, err)
	require.NoError(t, p.Complete("tx", "ptx"))

	err = p.Complete("tx", "ptx")
	var se *StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StatusCompleted, se.Current)
	assert.Equal(t, "complete", se.Operation)
}

func TestFailAndCancelOnlyBeforeCompletion(t *testing.T) {
	p, err := New("pay-1", "o-1", 100, MethodCard)
	require.NoError(t, err)
	require.NoError(t, p.Fail("card declined"))
	assert.Equal(t, StatusFailed, p.Status)
	failed := p.PullEvents()[0].(PaymentFailedEvent)
	assert.Equal(t, "card declined", failed.Reason)
	assert.Equal(t, int64(100), failed.Amount)
	assert.ErrorIs(t, p.Cancel("late"), ErrInvalidState)

	q, err := New("pay-2", "o-2", 100, MethodCard)
	require.NoError(t, err)
	require.NoError(t, q.StartProcessing("simulated", "k"))
	require.NoError(t, q.Cancel("customer abandoned"))
	assert.Equal(t, StatusCancelled, q.Status)
	assert.Equal(t, "payment.cancelled", q.PullEvents()[0].EventName())

	c := completedPayment(t, 100)
	assert.ErrorIs(t, c.Fail("x"), ErrInvalidState)
	assert.ErrorIs(t, c.Cancel("x"), ErrInvalidState)
}

func TestRefundAccounting(t *testing.T) {
	p := completedPayment(t, 10_000)
	var last int64

	steps := []struct {
		amount int64
		status Status
		err    error
	}{
		{3_000, StatusPartiallyRefunded, nil},
		{0, StatusPartiallyRefunded, ErrInvalidAmount},
		{8_000, StatusPartiallyRefunded, ErrRefundExceedsAmount},
		{5_000, StatusPartiallyRefunded, nil},
		{2_000, StatusRefunded, nil},
		{1, StatusRefunded, ErrInvalidState},
	}
	for i, s := range steps {
		err := p.Refund(s.amount, fmt.Sprintf("step %d", i))
		if s.err != nil {
			require.ErrorIs(t, err, s.err, "step %d", i)
		} else {
			require.NoError(t, err, "step %d", i)
		}
		assert.Equal(t, s.status, p.Status, "step %d", i)
		assert.GreaterOrEqual(t, p.RefundedAmount, last, "step %d", i)
		assert.LessOrEqual(t, p.RefundedAmount, p.Amount, "step %d", i)
		last = p.RefundedAmount
	}

	events := p.PullEvents()
	require.Len(t, events, 3)
	final := events[2].(PaymentRefundedEvent)
	assert.Equal(t, int64(2_000), final.RefundAmount)
	assert.Equal(t, int64(10_000), final.TotalRefundAmount)
	assert.Equal(t, "step 4", final.Reason)
}

func TestFullRefundAtOnce(t *testing.T) {
	p := completedPayment(t, 7_000)
	assert.Equal(t, int64(7_000), p.RefundableAmount())
	require.NoError(t, p.Refund(7_000, "defective"))
	assert.Equal(t, StatusRefunded, p.Status)
	assert.Equal(t, int64(0), p.RefundableAmount())
}

func TestRefundRequiresCompletion(t *testing.T) {
	p, err := New("pay-1", "o-1", 100, MethodCard)
	require.NoError(t, err)
	assert.False(t, p.CanRefund())
	assert.ErrorIs(t, p.Refund(10, "x"), ErrInvalidState)
	assert.Zero(t, p.RefundedAmount)
}

func TestAsGatewayError(t *testing.T) {
	assert.Nil(t, AsGatewayError(nil))

	orig := &GatewayError{Code: "REJECT_CARD_COMPANY", Message: "limit exceeded"}
	wrapped := fmt.Errorf("confirm: %w", orig)
	assert.Same(t, orig, AsGatewayError(wrapped))
	assert.ErrorIs(t, wrapped, ErrGateway)

	ge := AsGatewayError(errors.New("connection reset"))
	assert.Equal(t, CodeGatewayUnavailable, ge.Code)
	assert.Equal(t, "connection reset", ge.Message)
}

func TestCloneDropsEvents(t *testing.T) {
	p, err := New("pay-1", "o-1", 100, MethodCard)
	require.NoError(t, err)
	require.NoError(t, p.Fail("x"))
	c := p.Clone()
	assert.Empty(t, c.PendingEvents())
	assert.Len(t, p.PendingEvents(), 1)
}
