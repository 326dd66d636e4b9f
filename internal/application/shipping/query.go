package shipping

import (
	"context"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	"go.opentelemetry.io/otel/attribute"
)

type GetShippingUseCase struct {
	deps Deps
	in   *application.Instruments
}

func (uc *GetShippingUseCase) Execute(ctx context.Context, shippingID string) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseShippingGet, "GetShipping", attribute.String("shipping.id", shippingID))
	defer func() { run.End(err) }()

	if shippingID == "" {
		run.Fail("SHIPPING_ID_REQUIRED")
		return nil, application.Validation("shipping id is required")
	}
	s, err := uc.deps.Shippings.FindByID(ctx, shippingID)
	if err != nil {
		run.Fail("SHIPPING_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return viewOf(s), nil
}

func (uc *GetShippingUseCase) ByOrder(ctx context.Context, orderID string) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseShippingGet, "GetShippingByOrder", attribute.String("order.id", orderID))
	defer func() { run.End(err) }()

	s, err := uc.deps.Shippings.FindByOrderID(ctx, orderID)
	if err != nil {
		run.Fail("SHIPPING_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return viewOf(s), nil
}
