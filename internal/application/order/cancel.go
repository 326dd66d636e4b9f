package order

import (
	"context"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// CancelOrderUseCase cancels an order and puts its stock back when it had
// already been taken. Coupon compensation reacts to OrderCancelled.
type CancelOrderUseCase struct {
	deps  Deps
	in    *application.Instruments
	stock *stock
}

type CancelOrderInput struct {
	OrderID string
	Reason  string
}

func (uc *CancelOrderUseCase) Execute(ctx context.Context, cmd CancelOrderInput) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseOrderCancel, "CancelOrder",
		attribute.String("order.id", cmd.OrderID),
	)
	defer func() { run.End(err) }()

	if cmd.OrderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, application.Validation("order id is required")
	}

	unlock, err := uc.deps.Locks.Lock(ctx, cmd.OrderID)
	if err != nil {
		run.Fail("LOCK_TIMEOUT")
		return nil, err
	}
	defer unlock()

	entity, err := uc.deps.Orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		run.Fail("ORDER_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}

	if err := entity.Cancel(cmd.Reason); err != nil {
		run.Fail("INVALID_STATE")
		return nil, err
	}
	if err := uc.deps.Orders.Update(ctx, entity); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return nil, wrapRepositoryError(err)
	}
	events := entity.PullEvents()

	if entity.StockDeducted {
		if err := uc.stock.restore(ctx, entity.Items()); err != nil {
			run.Status("STOCK_RESTORE_FAILED")
			run.Logger().Error("stock_restore_failed",
				observability.F("order_id", entity.ID),
				observability.F("error", err),
			)
		} else {
			entity.MarkStockRestored()
			if err := uc.deps.Orders.Update(ctx, entity); err != nil {
				run.Logger().Warn("stock_restored_flag_not_saved",
					observability.F("order_id", entity.ID),
					observability.F("error", err),
				)
			}
		}
	}

	run.Publish(ctx, uc.deps.Publisher, events)
	run.Annotate(observability.F("order_id", entity.ID), observability.F("reason", cmd.Reason))
	return viewOf(entity), nil
}
