package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	"github.com/Zhima-Mochi/minishop-saga/internal/domain/address"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domproduct "github.com/Zhima-Mochi/minishop-saga/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// CreateOrderUseCase turns the customer's cart into a placed order. Stock is
// checked here but only taken at confirmation.
type CreateOrderUseCase struct {
	deps Deps
	in   *application.Instruments
}

type CreateOrderInput struct {
	CustomerID      string
	ShippingAddress address.Address
	CouponID        string
}

type CreateOrderResult = View

func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *CreateOrderResult, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseOrderCreate, "CreateOrder",
		attribute.String("order.customer_id", cmd.CustomerID),
	)
	defer func() { run.End(err) }()

	if strings.TrimSpace(cmd.CustomerID) == "" {
		run.Fail("CUSTOMER_ID_REQUIRED")
		return nil, application.Validation("customer id is required")
	}
	if err := cmd.ShippingAddress.Validate(); err != nil {
		run.Fail("ADDRESS_INVALID")
		return nil, fmt.Errorf("%w: %w", application.ErrValidation, err)
	}

	cart, err := uc.deps.Carts.FindByCustomerID(ctx, cmd.CustomerID)
	if err != nil {
		run.Fail("CART_LOOKUP_FAILED")
		return nil, fmt.Errorf("order: load cart: %w", err)
	}
	if cart.IsEmpty() {
		run.Fail("CART_EMPTY")
		return nil, ErrEmptyCart
	}

	entity, err := domain.New(uc.deps.IDs.NewID(), uc.deps.Numbers.NewOrderNumber(), cmd.CustomerID, cmd.ShippingAddress)
	if err != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return nil, fmt.Errorf("order: construct: %w", err)
	}
	run.Span().SetAttributes(attribute.String("order.id", entity.ID))

	for _, ci := range cart.Items {
		p, err := uc.deps.Products.FindByID(ctx, ci.ProductID)
		if err != nil {
			run.Fail("PRODUCT_LOOKUP_FAILED")
			return nil, fmt.Errorf("order: product %s: %w", ci.ProductID, err)
		}
		if !p.HasStock(ci.Quantity) {
			run.Fail("INSUFFICIENT_STOCK")
			return nil, fmt.Errorf("order: product %s: %w", ci.ProductID, domproduct.ErrInsufficientStock)
		}
		item, err := domain.NewLineItem(p.ID, p.Name, p.PrimaryImage(), ci.Quantity, p.Price)
		if err != nil {
			run.Fail("LINE_ITEM_INVALID")
			return nil, fmt.Errorf("order: product %s: %w", ci.ProductID, err)
		}
		if err := entity.AddItem(item); err != nil {
			run.Fail("LINE_ITEM_INVALID")
			return nil, err
		}
	}

	if err := entity.Place(); err != nil {
		run.Fail("PLACE_FAILED")
		return nil, err
	}

	couponUsed := false
	if cmd.CouponID != "" {
		if uc.deps.Coupons == nil {
			run.Fail("COUPONS_DISABLED")
			return nil, ErrCouponUnavailable
		}
		discount, err := uc.deps.Coupons.Redeem(ctx, cmd.CouponID, cmd.CustomerID, entity.ID, entity.TotalAmount())
		if err != nil {
			run.Fail("COUPON_REJECTED")
			return nil, fmt.Errorf("order: coupon %s: %w", cmd.CouponID, err)
		}
		couponUsed = true
		if err := entity.ApplyDiscount(cmd.CouponID, discount); err != nil {
			uc.releaseCoupon(ctx, run, cmd)
			run.Fail("DISCOUNT_INVALID")
			return nil, err
		}
		// Only PaymentCompleted confirms an order, and a payment needs a
		// positive amount.
		if entity.PayableAmount() == 0 {
			uc.releaseCoupon(ctx, run, cmd)
			run.Fail("NOTHING_TO_PAY")
			return nil, fmt.Errorf("order: coupon %s: %w", cmd.CouponID, ErrNothingToPay)
		}
	}

	if err := uc.deps.Orders.Save(ctx, entity); err != nil {
		if couponUsed {
			uc.releaseCoupon(ctx, run, cmd)
		}
		run.Fail("REPO_INSERT_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.Publish(ctx, uc.deps.Publisher, entity.PullEvents())

	if err := uc.deps.Carts.Clear(ctx, cmd.CustomerID); err != nil {
		run.Logger().Warn("cart_clear_failed",
			observability.F("order_id", entity.ID),
			observability.F("error", err),
		)
	}

	run.Annotate(
		observability.F("order_id", entity.ID),
		observability.F("order_number", entity.OrderNumber),
		observability.F("total_amount", entity.TotalAmount()),
		observability.F("discount_amount", entity.DiscountAmount),
	)
	return viewOf(entity), nil
}

func (uc *CreateOrderUseCase) releaseCoupon(ctx context.Context, run *application.Run, cmd CreateOrderInput) {
	if err := uc.deps.Coupons.Release(context.WithoutCancel(ctx), cmd.CouponID, cmd.CustomerID); err != nil {
		run.Logger().Error("coupon_release_failed",
			observability.F("coupon_id", cmd.CouponID),
			observability.F("error", err),
		)
	}
}
