package shipping

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/shipping"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// WithdrawShippingUseCase returns the shipment of a cancelled order. An order
// without a shipment, or whose shipment was already delivered or returned,
// is left alone.
type WithdrawShippingUseCase struct {
	deps Deps
	in   *application.Instruments
}

type WithdrawShippingInput struct {
	OrderID string
	Reason  string
}

type WithdrawShippingResult struct {
	Shipping  *View
	Withdrawn bool
}

func (uc *WithdrawShippingUseCase) Execute(ctx context.Context, cmd WithdrawShippingInput) (_ *WithdrawShippingResult, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseShippingWithdraw, "WithdrawShipping",
		attribute.String("order.id", cmd.OrderID),
	)
	defer func() { run.End(err) }()

	if cmd.OrderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, application.Validation("order id is required")
	}

	// Same key as CreateShipping, so a shipment is either seen here or
	// created against an order that is already cancelled.
	unlockOrder, err := uc.deps.Locks.Lock(ctx, cmd.OrderID)
	if err != nil {
		run.Fail("LOCK_TIMEOUT")
		return nil, err
	}
	defer unlockOrder()

	s, err := uc.deps.Shippings.FindByOrderID(ctx, cmd.OrderID)
	if errors.Is(err, domain.ErrNotFound) {
		run.Status("NO_SHIPMENT")
		return &WithdrawShippingResult{}, nil
	}
	if err != nil {
		run.Fail("SHIPPING_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}

	unlock, err := uc.deps.Locks.Lock(ctx, s.ID)
	if err != nil {
		run.Fail("LOCK_TIMEOUT")
		return nil, err
	}
	defer unlock()

	if s, err = uc.deps.Shippings.FindByID(ctx, s.ID); err != nil {
		run.Fail("SHIPPING_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}
	if !domain.CanTransition(s.Status, domain.StatusReturned) {
		run.Status("ALREADY_SETTLED")
		return &WithdrawShippingResult{Shipping: viewOf(s)}, nil
	}

	from := s.Status
	if err := s.Return(cmd.Reason); err != nil {
		run.Fail("INVALID_TRANSITION")
		return nil, err
	}
	if err := uc.deps.Shippings.Update(ctx, s); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.Publish(ctx, uc.deps.Publisher, s.PullEvents())
	run.Annotate(
		observability.F("shipping_id", s.ID),
		observability.F("order_id", s.OrderID),
		observability.F("from", string(from)),
	)
	return &WithdrawShippingResult{Shipping: viewOf(s), Withdrawn: true}, nil
}
