package order

import (
	"context"
	"strings"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	"go.opentelemetry.io/otel/attribute"
)

// AdvanceOrderUseCase moves an order through fulfillment: preparing, shipped,
// delivered and returned.
type AdvanceOrderUseCase struct {
	deps Deps
	in   *application.Instruments
}

type AdvanceOrderInput struct {
	OrderID string
	Target  domain.Status
}

// ParseTarget accepts lower-case route values such as "shipped".
func ParseTarget(s string) domain.Status {
	return domain.Status(strings.ToUpper(strings.TrimSpace(s)))
}

func (uc *AdvanceOrderUseCase) Execute(ctx context.Context, cmd AdvanceOrderInput) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseOrderAdvance, "AdvanceOrder",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.target", string(cmd.Target)),
	)
	defer func() { run.End(err) }()

	var move func(*domain.Order) error
	switch cmd.Target {
	case domain.StatusPreparing:
		move = (*domain.Order).StartPreparing
	case domain.StatusShipped:
		move = (*domain.Order).Ship
	case domain.StatusDelivered:
		move = (*domain.Order).MarkDelivered
	case domain.StatusReturned:
		move = (*domain.Order).MarkReturned
	default:
		run.Fail("TARGET_INVALID")
		return nil, application.Validation("unsupported target status " + string(cmd.Target))
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
	if err := move(entity); err != nil {
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
