package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/shipping"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/Zhima-Mochi/minishop-saga/internal/pkg/keylock"
)

const (
	shippingService         = "shipping-service"
	useCaseShippingCreate   = "shipping.create"
	useCaseShippingAdvance  = "shipping.advance"
	useCaseShippingGet      = "shipping.get"
	useCaseShippingWithdraw = "shipping.withdraw"
)

var ErrRepository = errors.New("shipping: repository failure")

type IDGenerator interface {
	NewID() string
}

// TrackingNumberGenerator stands in for the carrier when a pickup arrives
// without a tracking number.
type TrackingNumberGenerator interface {
	NewTrackingNumber(carrier string) string
}

type OrderFinder interface {
	FindByID(ctx context.Context, id string) (*domorder.Order, error)
}

type Deps struct {
	Shippings      domain.Repository
	Orders         OrderFinder
	Publisher      domoutbox.Publisher
	IDs            IDGenerator
	Tracking       TrackingNumberGenerator
	DefaultCarrier string
	Locks          *keylock.Locker
	Tel            observability.Observability
}

type UseCases struct {
	Create   *CreateShippingUseCase
	Advance  *AdvanceShippingUseCase
	Withdraw *WithdrawShippingUseCase
	Get      *GetShippingUseCase
}

func NewUseCases(d Deps) *UseCases {
	if d.Locks == nil {
		d.Locks = keylock.New()
	}
	in := application.NewInstruments(d.Tel, shippingService)
	return &UseCases{
		Create:   &CreateShippingUseCase{deps: d, in: in},
		Advance:  &AdvanceShippingUseCase{deps: d, in: in},
		Withdraw: &WithdrawShippingUseCase{deps: d, in: in},
		Get:      &GetShippingUseCase{deps: d, in: in},
	}
}

var (
	_ application.UseCase[CreateShippingInput, *CreateShippingResult]     = (*CreateShippingUseCase)(nil)
	_ application.UseCase[AdvanceShippingInput, *View]                    = (*AdvanceShippingUseCase)(nil)
	_ application.UseCase[WithdrawShippingInput, *WithdrawShippingResult] = (*WithdrawShippingUseCase)(nil)
	_ application.UseCase[string, *View]                                  = (*GetShippingUseCase)(nil)
)

type View struct {
	ID                  string
	OrderID             string
	Status              domain.Status
	Carrier             string
	TrackingNumber      string
	Address             string
	ReturnReason        string
	EstimatedDeliveryAt string
	DeliveredAt         string
}

func viewOf(s *domain.Shipping) *View {
	v := &View{
		ID:             s.ID,
		OrderID:        s.OrderID,
		Status:         s.Status,
		Carrier:        s.Carrier,
		TrackingNumber: s.TrackingNumber,
		Address:        s.Address.Full(),
		ReturnReason:   s.ReturnReason,
	}
	if s.EstimatedDeliveryAt != nil {
		v.EstimatedDeliveryAt = s.EstimatedDeliveryAt.Format(time.RFC3339)
	}
	if s.DeliveredAt != nil {
		v.DeliveredAt = s.DeliveredAt.Format(time.RFC3339)
	}
	return v
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrConflict):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}
