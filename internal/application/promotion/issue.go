package promotion

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/promotion"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// IssueCouponUseCase hands a coupon to a customer, at most once per customer
// and never beyond the coupon's total quantity.
type IssueCouponUseCase struct {
	deps Deps
	in   *application.Instruments
}

type IssueCouponInput struct {
	CouponID   string
	CustomerID string
}

func (uc *IssueCouponUseCase) Execute(ctx context.Context, cmd IssueCouponInput) (_ *IssueView, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseCouponIssue, "IssueCoupon",
		attribute.String("coupon.id", cmd.CouponID),
		attribute.String("customer.id", cmd.CustomerID),
	)
	defer func() { run.End(err) }()

	if cmd.CouponID == "" || cmd.CustomerID == "" {
		run.Fail("ID_REQUIRED")
		return nil, application.Validation("coupon id and customer id are required")
	}

	unlock, err := uc.deps.Locks.Lock(ctx, cmd.CouponID)
	if err != nil {
		run.Fail("LOCK_TIMEOUT")
		return nil, err
	}
	defer unlock()

	c, err := uc.deps.Promotions.FindCoupon(ctx, cmd.CouponID)
	if err != nil {
		run.Fail("COUPON_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}
	existing, err := uc.deps.Promotions.FindIssue(ctx, cmd.CouponID, cmd.CustomerID)
	if err != nil && !errors.Is(err, domain.ErrIssueNotFound) {
		run.Fail("ISSUE_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}

	issue, err := c.IssueTo(uc.deps.IDs.NewID(), cmd.CustomerID, existing, uc.deps.Now())
	if err != nil {
		run.Fail("NOT_ISSUABLE")
		return nil, err
	}
	if err := uc.deps.Promotions.SaveIssue(ctx, issue); err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return nil, wrapRepositoryError(err)
	}
	if err := uc.deps.Promotions.UpdateCoupon(ctx, c); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.Publish(ctx, uc.deps.Publisher, c.PullEvents())
	run.Annotate(
		observability.F("issue_id", issue.ID),
		observability.F("issued_quantity", c.IssuedQuantity),
	)
	return issueViewOf(issue), nil
}
