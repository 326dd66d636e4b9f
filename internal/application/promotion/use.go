package promotion

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/promotion"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// UseCouponUseCase consumes the customer's issue for an order and reports the
// discount it is worth.
type UseCouponUseCase struct {
	deps Deps
	in   *application.Instruments
}

type UseCouponInput struct {
	CouponID    string
	CustomerID  string
	OrderID     string
	OrderAmount int64
}

type UseCouponResult struct {
	Issue    *IssueView
	Discount int64
}

func (uc *UseCouponUseCase) Execute(ctx context.Context, cmd UseCouponInput) (_ *UseCouponResult, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseCouponUse, "UseCoupon",
		attribute.String("coupon.id", cmd.CouponID),
		attribute.String("order.id", cmd.OrderID),
	)
	defer func() { run.End(err) }()

	if cmd.CouponID == "" || cmd.CustomerID == "" || cmd.OrderID == "" {
		run.Fail("ID_REQUIRED")
		return nil, application.Validation("coupon, customer and order ids are required")
	}

	unlock, err := uc.deps.Locks.Lock(ctx, issueKey(cmd.CouponID, cmd.CustomerID))
	if err != nil {
		run.Fail("LOCK_TIMEOUT")
		return nil, err
	}
	defer unlock()

	c, issue, err := loadIssue(ctx, uc.deps, cmd.CouponID, cmd.CustomerID)
	if err != nil {
		run.Fail("LOOKUP_FAILED")
		return nil, err
	}

	discount, err := c.Use(issue, cmd.OrderID, cmd.OrderAmount, uc.deps.Now())
	if err != nil {
		run.Fail("NOT_USABLE")
		return nil, err
	}
	if err := uc.deps.Promotions.UpdateIssue(ctx, issue); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.Publish(ctx, uc.deps.Publisher, c.PullEvents())
	run.Annotate(observability.F("discount", discount))
	return &UseCouponResult{Issue: issueViewOf(issue), Discount: discount}, nil
}

// CancelCouponUseUseCase makes a used issue available again.
type CancelCouponUseUseCase struct {
	deps Deps
	in   *application.Instruments
}

type CancelCouponUseInput struct {
	CouponID   string
	CustomerID string
}

func (uc *CancelCouponUseUseCase) Execute(ctx context.Context, cmd CancelCouponUseInput) (_ *IssueView, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseCouponCancelUse, "CancelCouponUse",
		attribute.String("coupon.id", cmd.CouponID),
		attribute.String("customer.id", cmd.CustomerID),
	)
	defer func() { run.End(err) }()

	unlock, err := uc.deps.Locks.Lock(ctx, issueKey(cmd.CouponID, cmd.CustomerID))
	if err != nil {
		run.Fail("LOCK_TIMEOUT")
		return nil, err
	}
	defer unlock()

	c, issue, err := loadIssue(ctx, uc.deps, cmd.CouponID, cmd.CustomerID)
	if err != nil {
		run.Fail("LOOKUP_FAILED")
		return nil, err
	}
	return cancelUse(ctx, uc.deps, run, c, issue)
}

// CancelCouponUseByOrderUseCase is the compensation for a cancelled order. An
// order that used no coupon is not an error.
type CancelCouponUseByOrderUseCase struct {
	deps Deps
	in   *application.Instruments
}

func (uc *CancelCouponUseByOrderUseCase) Execute(ctx context.Context, orderID string) (_ *IssueView, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseCouponCancelByID, "CancelCouponUseByOrder",
		attribute.String("order.id", orderID),
	)
	defer func() { run.End(err) }()

	found, err := uc.deps.Promotions.FindIssueByOrderID(ctx, orderID)
	if errors.Is(err, domain.ErrIssueNotFound) {
		run.Status("NO_COUPON")
		return nil, nil
	}
	if err != nil {
		run.Fail("ISSUE_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}

	unlock, err := uc.deps.Locks.Lock(ctx, issueKey(found.CouponID, found.CustomerID))
	if err != nil {
		run.Fail("LOCK_TIMEOUT")
		return nil, err
	}
	defer unlock()

	c, issue, err := loadIssue(ctx, uc.deps, found.CouponID, found.CustomerID)
	if err != nil {
		run.Fail("LOOKUP_FAILED")
		return nil, err
	}
	if issue.OrderID != orderID {
		// Released and reused by another order in the meantime.
		run.Status("ALREADY_RELEASED")
		return issueViewOf(issue), nil
	}
	return cancelUse(ctx, uc.deps, run, c, issue)
}

func loadIssue(ctx context.Context, d Deps, couponID, customerID string) (*domain.Coupon, *domain.Issue, error) {
	c, err := d.Promotions.FindCoupon(ctx, couponID)
	if err != nil {
		return nil, nil, wrapRepositoryError(err)
	}
	issue, err := d.Promotions.FindIssue(ctx, couponID, customerID)
	if err != nil {
		return nil, nil, wrapRepositoryError(err)
	}
	return c, issue, nil
}

func cancelUse(ctx context.Context, d Deps, run *application.Run, c *domain.Coupon, issue *domain.Issue) (*IssueView, error) {
	orderID := issue.OrderID
	if err := c.CancelUse(issue); err != nil {
		run.Fail("CANCEL_USE_REJECTED")
		return nil, err
	}
	if err := d.Promotions.UpdateIssue(ctx, issue); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.Publish(ctx, d.Publisher, c.PullEvents())
	run.Annotate(observability.F("issue_id", issue.ID), observability.F("order_id", orderID))
	return issueViewOf(issue), nil
}
