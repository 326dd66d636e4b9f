package payment

import (
	"context"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// RefundPaymentUseCase returns part or all of a settled payment. The aggregate
// checks the amount before the gateway is called and is only changed after
// the gateway accepted the refund.
type RefundPaymentUseCase struct {
	deps Deps
	in   *application.Instruments
}

type RefundPaymentInput struct {
	PaymentID string
	Amount    int64
	Reason    string
}

func (uc *RefundPaymentUseCase) Execute(ctx context.Context, cmd RefundPaymentInput) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCasePaymentRefund, "RefundPayment",
		attribute.String("payment.id", cmd.PaymentID),
		attribute.Int64("payment.refund_amount", cmd.Amount),
	)
	defer func() { run.End(err) }()

	p, unlock, err := lockAndLoad(ctx, uc.deps, run, cmd.PaymentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := p.CheckRefund(cmd.Amount); err != nil {
		run.Fail("REFUND_REJECTED")
		return nil, err
	}

	callErr := run.Call(ctx, gatewayPeer, "refund", func(ctx context.Context) error {
		return uc.deps.Gateway.Refund(ctx, domain.RefundRequest{
			PaymentKey: p.PaymentKey,
			Amount:     cmd.Amount,
			Reason:     cmd.Reason,
		})
	})
	if callErr != nil {
		run.Fail("GATEWAY_REFUND_FAILED")
		return nil, domain.AsGatewayError(callErr)
	}

	if err := p.Refund(cmd.Amount, cmd.Reason); err != nil {
		run.Fail("INVALID_STATE")
		return nil, err
	}
	if err := uc.deps.Payments.Update(ctx, p); err != nil {
		// The provider already refunded; the row is behind and needs reconciling.
		run.Fail("REPO_UPDATE_FAILED")
		run.Logger().Error("refund_not_saved",
			observability.F("payment_id", p.ID),
			observability.F("amount", cmd.Amount),
			observability.F("error", err),
		)
		return nil, wrapRepositoryError(err)
	}

	run.Publish(ctx, uc.deps.Publisher, p.PullEvents())
	run.Annotate(
		observability.F("payment_id", p.ID),
		observability.F("refunded_amount", p.RefundedAmount),
		observability.F("status", string(p.Status)),
	)
	return viewOf(p), nil
}
