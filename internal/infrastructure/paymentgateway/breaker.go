package paymentgateway

import (
	"context"
	"errors"
	"time"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/sony/gobreaker/v2"
)

type BreakerConfig struct {
	// Timeout bounds every gateway round trip.
	Timeout time.Duration
	// Failures is the number of consecutive infrastructure failures that opens the breaker.
	Failures uint32
	// OpenTimeout is how long the breaker stays open before letting a probe through.
	OpenTimeout time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Failures == 0 {
		c.Failures = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	return c
}

// Breaker wraps a Gateway with a per-call deadline and a circuit breaker.
// Only transport failures count against the breaker; a declined card is a
// successful round trip. Everything it returns is a *GatewayError.
type Breaker struct {
	next domain.Gateway
	cfg  BreakerConfig
	cb   *gobreaker.CircuitBreaker[any]
	log  observability.Logger
}

func NewBreaker(next domain.Gateway, cfg BreakerConfig, tel observability.Observability) *Breaker {
	if tel == nil {
		tel = observability.Nop()
	}
	cfg = cfg.withDefaults()
	b := &Breaker{
		next: next,
		cfg:  cfg,
		log:  tel.Logger().With(observability.F("component", "payment_gateway_breaker")),
	}
	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "payment-gateway:" + next.Provider(),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.Failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isInfrastructure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn("circuit_breaker_state_changed",
				observability.F("breaker", name),
				observability.F("from", from.String()),
				observability.F("to", to.String()),
			)
		},
	})
	return b
}

func (b *Breaker) Provider() string { return b.next.Provider() }

// State is exposed for health reporting.
func (b *Breaker) State() string { return b.cb.State().String() }

func (b *Breaker) Initiate(ctx context.Context, req domain.InitiateRequest) (domain.InitiateResponse, error) {
	v, err := b.do(ctx, func(ctx context.Context) (any, error) { return b.next.Initiate(ctx, req) })
	if err != nil {
		return domain.InitiateResponse{}, err
	}
	return v.(domain.InitiateResponse), nil
}

func (b *Breaker) Confirm(ctx context.Context, req domain.ConfirmRequest) (domain.ConfirmResponse, error) {
	v, err := b.do(ctx, func(ctx context.Context) (any, error) { return b.next.Confirm(ctx, req) })
	if err != nil {
		return domain.ConfirmResponse{}, err
	}
	return v.(domain.ConfirmResponse), nil
}

func (b *Breaker) Cancel(ctx context.Context, paymentKey, reason string) error {
	_, err := b.do(ctx, func(ctx context.Context) (any, error) { return nil, b.next.Cancel(ctx, paymentKey, reason) })
	return err
}

func (b *Breaker) Refund(ctx context.Context, req domain.RefundRequest) error {
	_, err := b.do(ctx, func(ctx context.Context) (any, error) { return nil, b.next.Refund(ctx, req) })
	return err
}

func (b *Breaker) GetStatus(ctx context.Context, paymentKey string) (domain.GatewayStatus, error) {
	v, err := b.do(ctx, func(ctx context.Context) (any, error) { return b.next.GetStatus(ctx, paymentKey) })
	if err != nil {
		return "", err
	}
	return v.(domain.GatewayStatus), nil
}

func (b *Breaker) do(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	v, err := b.cb.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
		v, err := fn(callCtx)
		if err != nil {
			return nil, normalize(err)
		}
		return v, nil
	})
	if err == nil {
		return v, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &domain.GatewayError{Code: domain.CodeGatewayUnavailable, Message: "payment gateway circuit is open"}
	}
	return nil, domain.AsGatewayError(err)
}

func normalize(err error) *domain.GatewayError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.GatewayError{Code: domain.CodeGatewayTimeout, Message: "payment gateway did not answer in time"}
	}
	return domain.AsGatewayError(err)
}

func isInfrastructure(err error) bool {
	var ge *domain.GatewayError
	if !errors.As(err, &ge) {
		return true
	}
	return ge.Code == domain.CodeGatewayUnavailable || ge.Code == domain.CodeGatewayTimeout
}
