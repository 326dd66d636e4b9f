package order

import (
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-saga/internal/domain/cart"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	domproduct "github.com/Zhima-Mochi/minishop-saga/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/Zhima-Mochi/minishop-saga/internal/pkg/keylock"
)

const (
	orderService         = "order-service"
	useCaseOrderCreate   = "order.create"
	useCaseOrderConfirm  = "order.confirm"
	useCaseOrderCancel   = "order.cancel"
	useCaseOrderComplete = "order.complete"
	useCaseOrderAdvance  = "order.advance"
	useCaseOrderGet      = "order.get"
)

var (
	ErrNotFound              = domain.ErrNotFound
	ErrConflict              = domain.ErrConflict
	ErrRepository            = errors.New("order: repository failure")
	ErrEmptyCart             = errors.New("order: cart is empty")
	ErrCouponUnavailable     = errors.New("order: coupons are not enabled")
	ErrNothingToPay          = errors.New("order: discount leaves nothing to pay")
	ErrDuplicateConfirmation = errors.New("order: payment already confirmed this order")
)

// Deps are the collaborators shared by every order use case.
type Deps struct {
	Orders    domain.Repository
	Products  domproduct.Repository
	Carts     domcart.Repository
	Coupons   CouponRedeemer
	Publisher domoutbox.Publisher
	IDs       IDGenerator
	Numbers   OrderNumberGenerator
	Locks     *keylock.Locker
	Tel       observability.Observability
}

type UseCases struct {
	Create   *CreateOrderUseCase
	Confirm  *ConfirmOrderUseCase
	Cancel   *CancelOrderUseCase
	Complete *CompleteOrderUseCase
	Advance  *AdvanceOrderUseCase
	Get      *GetOrderUseCase
}

func NewUseCases(d Deps) *UseCases {
	if d.Locks == nil {
		d.Locks = keylock.New()
	}
	in := application.NewInstruments(d.Tel, orderService)
	st := newStock(d.Products, d.Tel)
	return &UseCases{
		Create:   &CreateOrderUseCase{deps: d, in: in},
		Confirm:  &ConfirmOrderUseCase{deps: d, in: in, stock: st},
		Cancel:   &CancelOrderUseCase{deps: d, in: in, stock: st},
		Complete: &CompleteOrderUseCase{deps: d, in: in},
		Advance:  &AdvanceOrderUseCase{deps: d, in: in},
		Get:      &GetOrderUseCase{deps: d, in: in},
	}
}

var (
	_ application.UseCase[CreateOrderInput, *View]   = (*CreateOrderUseCase)(nil)
	_ application.UseCase[ConfirmOrderInput, *View]  = (*ConfirmOrderUseCase)(nil)
	_ application.UseCase[CancelOrderInput, *View]   = (*CancelOrderUseCase)(nil)
	_ application.UseCase[CompleteOrderInput, *View] = (*CompleteOrderUseCase)(nil)
	_ application.UseCase[AdvanceOrderInput, *View]  = (*AdvanceOrderUseCase)(nil)
	_ application.UseCase[string, *View]             = (*GetOrderUseCase)(nil)
)

// View is the read model returned by every order use case.
type View struct {
	ID              string
	OrderNumber     string
	CustomerID      string
	Status          domain.Status
	Items           []domain.LineItem
	TotalAmount     int64
	DiscountAmount  int64
	PayableAmount   int64
	CouponID        string
	PaymentID       string
	StockDeducted   bool
	CancelReason    string
	ShippingAddress string
}

func viewOf(o *domain.Order) *View {
	return &View{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Status:          o.Status,
		Items:           o.Items(),
		TotalAmount:     o.TotalAmount(),
		DiscountAmount:  o.DiscountAmount,
		PayableAmount:   o.PayableAmount(),
		CouponID:        o.CouponID,
		PaymentID:       o.PaymentID,
		StockDeducted:   o.StockDeducted,
		CancelReason:    o.CancelReason,
		ShippingAddress: o.ShippingAddress.Full(),
	}
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, domain.ErrConflict):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}
