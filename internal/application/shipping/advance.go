package shipping

import (
	"context"
	"strings"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/shipping"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// AdvanceShippingUseCase applies one carrier progression step.
type AdvanceShippingUseCase struct {
	deps Deps
	in   *application.Instruments
}

type AdvanceShippingInput struct {
	ShippingID     string
	Target         domain.Status
	Carrier        string
	TrackingNumber string
	Reason         string
}

// ParseTarget accepts route values such as "picked_up" or "out-for-delivery".
func ParseTarget(s string) domain.Status {
	s = strings.ToUpper(strings.TrimSpace(s))
	return domain.Status(strings.ReplaceAll(s, "-", "_"))
}

func (uc *AdvanceShippingUseCase) Execute(ctx context.Context, cmd AdvanceShippingInput) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseShippingAdvance, "AdvanceShipping",
		attribute.String("shipping.id", cmd.ShippingID),
		attribute.String("shipping.target", string(cmd.Target)),
	)
	defer func() { run.End(err) }()

	if cmd.ShippingID == "" {
		run.Fail("SHIPPING_ID_REQUIRED")
		return nil, application.Validation("shipping id is required")
	}

	unlock, err := uc.deps.Locks.Lock(ctx, cmd.ShippingID)
	if err != nil {
		run.Fail("LOCK_TIMEOUT")
		return nil, err
	}
	defer unlock()

	s, err := uc.deps.Shippings.FindByID(ctx, cmd.ShippingID)
	if err != nil {
		run.Fail("SHIPPING_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}
	from := s.Status

	switch cmd.Target {
	case domain.StatusPreparing:
		err = s.StartPreparing()
	case domain.StatusPickedUp:
		carrier := cmd.Carrier
		if carrier == "" {
			carrier = s.Carrier
		}
		tracking := cmd.TrackingNumber
		if tracking == "" && uc.deps.Tracking != nil && carrier != "" {
			tracking = uc.deps.Tracking.NewTrackingNumber(carrier)
		}
		err = s.PickUp(carrier, tracking)
	case domain.StatusInTransit:
		err = s.MarkInTransit()
	case domain.StatusOutForDelivery:
		err = s.MarkOutForDelivery()
	case domain.StatusDelivered:
		err = s.Complete()
	case domain.StatusReturned:
		err = s.Return(cmd.Reason)
	default:
		run.Fail("TARGET_INVALID")
		return nil, application.Validation("unsupported target status " + string(cmd.Target))
	}
	if err != nil {
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
		observability.F("to", string(s.Status)),
	)
	return viewOf(s), nil
}
