package order

import (
	"context"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	"go.opentelemetry.io/otel/attribute"
)

// CompleteOrderUseCase is the customer acknowledging a delivered order.
type CompleteOrderUseCase struct {
	deps Deps
	in   *application.Instruments
}

type CompleteOrderInput struct {
	OrderID string
}

func (uc *CompleteOrderUseCase) Execute(ctx context.Context, cmd CompleteOrderInput) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseOrderComplete, "CompleteOrder",
		attribute.String("order.id", cmd.OrderID),
	)
	defer func() { run.End(err) }()

	entity, err := uc.deps.Orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		run.Fail("ORDER_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}
	if err := entity.Complete(); err != nil {
		run.Fail("INVALID_STATE")
		return nil, err
	}
	if err := uc.deps.Orders.Update(ctx, entity); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.Publish(ctx, uc.deps.Publisher, entity.PullEvents())
	return viewOf(entity), nil
}
