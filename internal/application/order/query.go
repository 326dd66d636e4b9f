package order

import (
	"context"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	"go.opentelemetry.io/otel/attribute"
)

type GetOrderUseCase struct {
	deps Deps
	in   *application.Instruments
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, orderID string) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseOrderGet, "GetOrder", attribute.String("order.id", orderID))
	defer func() { run.End(err) }()

	if orderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, application.Validation("order id is required")
	}
	entity, err := uc.deps.Orders.FindByID(ctx, orderID)
	if err != nil {
		run.Fail("ORDER_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return viewOf(entity), nil
}
