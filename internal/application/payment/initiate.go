package payment

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// InitiatePaymentUseCase opens the single payment an order may have and asks
// the gateway for a checkout session. The amount is the order's payable
// amount at this moment and never changes afterwards.
type InitiatePaymentUseCase struct {
	deps Deps
	in   *application.Instruments
}

type InitiatePaymentInput struct {
	OrderID    string
	Method     string
	SuccessURL string
	FailURL    string
}

func (uc *InitiatePaymentUseCase) Execute(ctx context.Context, cmd InitiatePaymentInput) (_ *View, err error) {
	ctx, run := uc.in.Begin(ctx, useCasePaymentInitiate, "InitiatePayment",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("payment.method", cmd.Method),
	)
	defer func() { run.End(err) }()

	if cmd.OrderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, application.Validation("order id is required")
	}
	method, err := domain.ParseMethod(cmd.Method)
	if err != nil {
		run.Fail("METHOD_INVALID")
		return nil, fmt.Errorf("%w: %w", application.ErrValidation, err)
	}

	o, err := uc.deps.Orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		run.Fail("ORDER_LOOKUP_FAILED")
		return nil, err
	}
	if o.Status != domorder.StatusPending || !o.IsPlaced() {
		run.Fail("ORDER_NOT_PAYABLE")
		return nil, &domorder.StateError{OrderID: o.ID, Current: o.Status, Operation: "pay"}
	}

	p, err := domain.New(uc.deps.IDs.NewID(), o.ID, o.PayableAmount(), method)
	if err != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return nil, err
	}
	run.Span().SetAttributes(attribute.String("payment.id", p.ID), attribute.Int64("payment.amount", p.Amount))

	if err := uc.deps.Payments.Save(ctx, p); err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return nil, wrapRepositoryError(err)
	}

	var resp domain.InitiateResponse
	callErr := run.Call(ctx, gatewayPeer, "initiate", func(ctx context.Context) error {
		var err error
		resp, err = uc.deps.Gateway.Initiate(ctx, domain.InitiateRequest{
			OrderRef:   o.ID,
			OrderName:  orderName(o),
			Amount:     p.Amount,
			Method:     method,
			SuccessURL: cmd.SuccessURL,
			FailURL:    cmd.FailURL,
		})
		return err
	})
	if callErr != nil {
		run.Fail("GATEWAY_INITIATE_FAILED")
		return nil, failPayment(ctx, uc.deps, run, p, domain.AsGatewayError(callErr))
	}

	if err := p.StartProcessing(uc.deps.Gateway.Provider(), resp.PaymentKey); err != nil {
		run.Fail("INVALID_STATE")
		return nil, err
	}
	if err := uc.deps.Payments.Update(ctx, p); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.Annotate(
		observability.F("payment_id", p.ID),
		observability.F("order_id", o.ID),
		observability.F("amount", p.Amount),
	)
	v := viewOf(p)
	v.CheckoutURL = resp.CheckoutURL
	return v, nil
}

func orderName(o *domorder.Order) string {
	items := o.Items()
	switch len(items) {
	case 0:
		return o.OrderNumber
	case 1:
		return items[0].ProductName
	default:
		return fmt.Sprintf("%s and %d more", items[0].ProductName, len(items)-1)
	}
}
