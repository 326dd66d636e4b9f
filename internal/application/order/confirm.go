package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// ConfirmOrderUseCase takes stock for every item and confirms the order
// against a completed payment. Calls for the same order are serialized.
type ConfirmOrderUseCase struct {
	deps  Deps
	in    *application.Instruments
	stock *stock
}

type ConfirmOrderInput struct {
	OrderID   string
	PaymentID string
}

func (uc *ConfirmOrderUseCase) Execute(ctx context.Context, cmd ConfirmOrderInput) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseOrderConfirm, "ConfirmOrder",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("payment.id", cmd.PaymentID),
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

	// The domain guard rejects anything but PENDING, which also stops a
	// redelivered PaymentCompleted from taking stock twice.
	if err := entity.Confirm(cmd.PaymentID); err != nil {
		if errors.Is(err, domain.ErrInvalidState) && entity.PaymentID != "" && entity.PaymentID == cmd.PaymentID {
			run.Fail("ALREADY_CONFIRMED")
			return nil, fmt.Errorf("%w: %w", ErrDuplicateConfirmation, err)
		}
		run.Fail("INVALID_STATE")
		return nil, err
	}

	items := entity.Items()
	if !entity.StockDeducted {
		if err := uc.stock.deduct(ctx, items); err != nil {
			run.Fail("STOCK_DEDUCT_FAILED")
			return nil, fmt.Errorf("order: confirm %s: %w", entity.ID, err)
		}
		entity.MarkStockDeducted()
	}

	if err := uc.deps.Orders.Update(ctx, entity); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		if rerr := uc.stock.restore(context.WithoutCancel(ctx), items); rerr != nil {
			run.Logger().Error("stock_restore_failed",
				observability.F("order_id", entity.ID),
				observability.F("error", rerr),
			)
		}
		return nil, wrapRepositoryError(err)
	}

	run.Publish(ctx, uc.deps.Publisher, entity.PullEvents())
	run.Annotate(observability.F("order_id", entity.ID), observability.F("payment_id", cmd.PaymentID))
	return viewOf(entity), nil
}
