package payment

import (
	"context"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// ConfirmPaymentUseCase settles a processing payment with the gateway. Success
// raises PaymentCompleted, which is what confirms the order.
type ConfirmPaymentUseCase struct {
	deps Deps
	in   *application.Instruments
}

type ConfirmPaymentInput struct {
	PaymentID  string
	PaymentKey string
	Amount     int64
}

func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, cmd ConfirmPaymentInput) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCasePaymentConfirm, "ConfirmPayment",
		attribute.String("payment.id", cmd.PaymentID),
	)
	defer func() { run.End(err) }()

	p, unlock, err := lockAndLoad(ctx, uc.deps, run, cmd.PaymentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if p.Status != domain.StatusProcessing {
		run.Fail("INVALID_STATE")
		return nil, &domain.StateError{PaymentID: p.ID, Current: p.Status, Operation: "confirm"}
	}
	if cmd.PaymentKey != "" && cmd.PaymentKey != p.PaymentKey {
		run.Fail("PAYMENT_KEY_MISMATCH")
		return nil, application.Validation("payment key does not belong to this payment")
	}
	if cmd.Amount != p.Amount {
		run.Fail("AMOUNT_MISMATCH")
		return nil, domain.ErrAmountMismatch
	}

	var resp domain.ConfirmResponse
	callErr := run.Call(ctx, gatewayPeer, "confirm", func(ctx context.Context) error {
		var err error
		resp, err = uc.deps.Gateway.Confirm(ctx, domain.ConfirmRequest{
			PaymentKey: p.PaymentKey,
			OrderRef:   p.OrderID,
			Amount:     p.Amount,
		})
		return err
	})
	if callErr != nil {
		run.Fail("GATEWAY_CONFIRM_FAILED")
		return nil, failPayment(ctx, uc.deps, run, p, domain.AsGatewayError(callErr))
	}

	if err := p.Complete(resp.TransactionID, resp.ProviderTransactionID); err != nil {
		run.Fail("INVALID_STATE")
		return nil, err
	}
	if err := uc.deps.Payments.Update(ctx, p); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.Publish(ctx, uc.deps.Publisher, p.PullEvents())
	run.Annotate(
		observability.F("payment_id", p.ID),
		observability.F("order_id", p.OrderID),
		observability.F("transaction_id", p.TransactionID),
	)
	return viewOf(p), nil
}
