package promotion

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/promotion"
	"go.opentelemetry.io/otel/attribute"
)

// CreateCouponUseCase defines a new coupon. Catalog tooling and the demo seed
// are its only callers.
type CreateCouponUseCase struct {
	deps Deps
	in   *application.Instruments
}

type CreateCouponInput struct {
	Code              string
	Name              string
	DiscountType      domain.DiscountType
	DiscountValue     int64
	MaxDiscountAmount int64
	MinOrderAmount    int64
	TotalQuantity     int
	ValidFrom         time.Time
	ValidUntil        time.Time
}

func (uc *CreateCouponUseCase) Execute(ctx context.Context, cmd CreateCouponInput) (_ *domain.Coupon, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseCouponCreate, "CreateCoupon",
		attribute.String("coupon.code", cmd.Code),
	)
	defer func() { run.End(err) }()

	if cmd.MaxDiscountAmount < 0 || cmd.MinOrderAmount < 0 || cmd.TotalQuantity < 0 {
		run.Fail("LIMITS_INVALID")
		return nil, application.Validation("coupon limits must not be negative")
	}
	c, err := domain.NewCoupon(uc.deps.IDs.NewID(), cmd.Code, cmd.Name, cmd.DiscountType, cmd.DiscountValue, cmd.ValidFrom, cmd.ValidUntil)
	if err != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return nil, err
	}
	c.MaxDiscountAmount = cmd.MaxDiscountAmount
	c.MinOrderAmount = cmd.MinOrderAmount
	c.TotalQuantity = cmd.TotalQuantity

	if err := uc.deps.Promotions.SaveCoupon(ctx, c); err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return c.Clone(), nil
}
