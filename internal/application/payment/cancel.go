package payment

import (
	"context"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	"go.opentelemetry.io/otel/attribute"
)

// CancelPaymentUseCase abandons a payment that has not settled. A gateway
// refusal leaves the payment as it was.
type CancelPaymentUseCase struct {
	deps Deps
	in   *application.Instruments
}

type CancelPaymentInput struct {
	PaymentID string
	Reason    string
}

func (uc *CancelPaymentUseCase) Execute(ctx context.Context, cmd CancelPaymentInput) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCasePaymentCancel, "CancelPayment",
		attribute.String("payment.id", cmd.PaymentID),
	)
	defer func() { run.End(err) }()

	p, unlock, err := lockAndLoad(ctx, uc.deps, run, cmd.PaymentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if p.Status != domain.StatusPending && p.Status != domain.StatusProcessing {
		run.Fail("INVALID_STATE")
		return nil, &domain.StateError{PaymentID: p.ID, Current: p.Status, Operation: "cancel"}
	}

	if p.PaymentKey != "" {
		callErr := run.Call(ctx, gatewayPeer, "cancel", func(ctx context.Context) error {
			return uc.deps.Gateway.Cancel(ctx, p.PaymentKey, cmd.Reason)
		})
		if callErr != nil {
			run.Fail("GATEWAY_CANCEL_FAILED")
			return nil, domain.AsGatewayError(callErr)
		}
	}

	if err := p.Cancel(cmd.Reason); err != nil {
		run.Fail("INVALID_STATE")
		return nil, err
	}
	if err := uc.deps.Payments.Update(ctx, p); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.Publish(ctx, uc.deps.Publisher, p.PullEvents())
	return viewOf(p), nil
}
