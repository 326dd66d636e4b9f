package promotion

import (
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/promotion"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/Zhima-Mochi/minishop-saga/internal/pkg/keylock"
)

const (
	promotionService        = "promotion-service"
	useCaseCouponCreate     = "coupon.create"
	useCaseCouponIssue      = "coupon.issue"
	useCaseCouponUse        = "coupon.use"
	useCaseCouponCancelUse  = "coupon.cancel_use"
	useCaseCouponCancelByID = "coupon.cancel_use_by_order"
)

var ErrRepository = errors.New("promotion: repository failure")

type IDGenerator interface {
	NewID() string
}

type Deps struct {
	Promotions domain.Repository
	Publisher  domoutbox.Publisher
	IDs        IDGenerator
	Now        func() time.Time
	Locks      *keylock.Locker
	Tel        observability.Observability
}

type UseCases struct {
	Create           *CreateCouponUseCase
	Issue            *IssueCouponUseCase
	Use              *UseCouponUseCase
	CancelUse        *CancelCouponUseUseCase
	CancelUseByOrder *CancelCouponUseByOrderUseCase
}

func NewUseCases(d Deps) *UseCases {
	if d.Locks == nil {
		d.Locks = keylock.New()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	in := application.NewInstruments(d.Tel, promotionService)
	return &UseCases{
		Create:           &CreateCouponUseCase{deps: d, in: in},
		Issue:            &IssueCouponUseCase{deps: d, in: in},
		Use:              &UseCouponUseCase{deps: d, in: in},
		CancelUse:        &CancelCouponUseUseCase{deps: d, in: in},
		CancelUseByOrder: &CancelCouponUseByOrderUseCase{deps: d, in: in},
	}
}

var (
	_ application.UseCase[CreateCouponInput, *domain.Coupon] = (*CreateCouponUseCase)(nil)
	_ application.UseCase[IssueCouponInput, *IssueView]      = (*IssueCouponUseCase)(nil)
	_ application.UseCase[UseCouponInput, *UseCouponResult]  = (*UseCouponUseCase)(nil)
	_ application.UseCase[CancelCouponUseInput, *IssueView]  = (*CancelCouponUseUseCase)(nil)
	_ application.UseCase[string, *IssueView]                = (*CancelCouponUseByOrderUseCase)(nil)
)

type IssueView struct {
	ID         string
	CouponID   string
	CustomerID string
	Used       bool
	OrderID    string
	IssuedAt   time.Time
}

func issueViewOf(i *domain.Issue) *IssueView {
	return &IssueView{
		ID:         i.ID,
		CouponID:   i.CouponID,
		CustomerID: i.CustomerID,
		Used:       i.Used,
		OrderID:    i.OrderID,
		IssuedAt:   i.IssuedAt,
	}
}

// issueKey serializes changes to one customer's issue of a coupon.
func issueKey(couponID, customerID string) string {
	return couponID + "/" + customerID
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrCouponNotFound),
		errors.Is(err, domain.ErrIssueNotFound),
		errors.Is(err, domain.ErrAlreadyIssued),
		errors.Is(err, domain.ErrConflict):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}
