package shipping

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/shipping"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// CreateShippingUseCase opens the shipment of a confirmed order. Running it
// again for the same order returns the existing shipment.
type CreateShippingUseCase struct {
	deps Deps
	in   *application.Instruments
}

type CreateShippingInput struct {
	OrderID string
}

type CreateShippingResult struct {
	Shipping *View
	Created  bool
}

func (uc *CreateShippingUseCase) Execute(ctx context.Context, cmd CreateShippingInput) (_ *CreateShippingResult, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseShippingCreate, "CreateShipping",
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

	existing, err := uc.deps.Shippings.FindByOrderID(ctx, cmd.OrderID)
	switch {
	case err == nil:
		run.Status("ALREADY_EXISTS")
		return &CreateShippingResult{Shipping: viewOf(existing)}, nil
	case !errors.Is(err, domain.ErrNotFound):
		run.Fail("SHIPPING_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}

	o, err := uc.deps.Orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		run.Fail("ORDER_LOOKUP_FAILED")
		return nil, err
	}
	if o.Status == domorder.StatusPending || o.Status == domorder.StatusCancelled {
		run.Fail("ORDER_NOT_CONFIRMED")
		return nil, &domorder.StateError{OrderID: o.ID, Current: o.Status, Operation: "ship"}
	}

	s, err := domain.New(uc.deps.IDs.NewID(), o.ID, o.ShippingAddress, uc.deps.DefaultCarrier)
	if err != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return nil, err
	}
	if err := uc.deps.Shippings.Save(ctx, s); err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.Publish(ctx, uc.deps.Publisher, s.PullEvents())
	run.Annotate(observability.F("shipping_id", s.ID), observability.F("order_id", o.ID))
	return &CreateShippingResult{Shipping: viewOf(s), Created: true}, nil
}
