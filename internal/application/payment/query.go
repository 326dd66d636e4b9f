package payment

import (
	"context"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	"go.opentelemetry.io/otel/attribute"
)

type GetPaymentUseCase struct {
	deps Deps
	in   *application.Instruments
}

func (uc *GetPaymentUseCase) Execute(ctx context.Context, paymentID string) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCasePaymentGet, "GetPayment", attribute.String("payment.id", paymentID))
	defer func() { run.End(err) }()

	if paymentID == "" {
		run.Fail("PAYMENT_ID_REQUIRED")
		return nil, application.Validation("payment id is required")
	}
	p, err := uc.deps.Payments.FindByID(ctx, paymentID)
	if err != nil {
		run.Fail("PAYMENT_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return viewOf(p), nil
}

// ByOrder returns the payment opened for orderID.
func (uc *GetPaymentUseCase) ByOrder(ctx context.Context, orderID string) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCasePaymentGet, "GetPaymentByOrder", attribute.String("order.id", orderID))
	defer func() { run.End(err) }()

	p, err := uc.deps.Payments.FindByOrderID(ctx, orderID)
	if err != nil {
		run.Fail("PAYMENT_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return viewOf(p), nil
}
