package paymentgateway

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	"github.com/google/uuid"
)

const (
	simulatedProvider   = "simulated"
	defaultSuccessRate  = 0.7
	CodeRejectedCard    = "REJECT_CARD_PAYMENT"
	CodeNotFoundPayment = "NOT_FOUND_PAYMENT"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeAlreadyCanceled = "ALREADY_CANCELED_PAYMENT"
	CodeNotRefundable   = "NOT_CANCELABLE_AMOUNT"
)

type session struct {
	orderRef string
	amount   int64
	refunded int64
	status   domain.GatewayStatus
}

// Simulated is an in-process provider. Confirmations succeed with the
// configured probability and are declined otherwise.
type Simulated struct {
	mu          sync.Mutex
	random      *rand.Rand
	successRate float64
	latency     time.Duration
	checkoutURL string
	sessions    map[string]*session
}

type SimulatedOption func(*Simulated)

func WithSuccessRate(rate float64) SimulatedOption {
	return func(s *Simulated) { s.successRate = clamp(rate) }
}

// WithLatency delays every call, which lets the timeout wrapper be exercised.
func WithLatency(d time.Duration) SimulatedOption {
	return func(s *Simulated) { s.latency = d }
}

func WithSeed(seed int64) SimulatedOption {
	return func(s *Simulated) { s.random = rand.New(rand.NewSource(seed)) }
}

func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		random:      rand.New(rand.NewSource(time.Now().UnixNano())),
		successRate: defaultSuccessRate,
		checkoutURL: "https://checkout.minishop.local/pay/",
		sessions:    make(map[string]*session),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Simulated) Provider() string { return simulatedProvider }

func (s *Simulated) Initiate(ctx context.Context, req domain.InitiateRequest) (domain.InitiateResponse, error) {
	if err := s.wait(ctx); err != nil {
		return domain.InitiateResponse{}, err
	}
	if req.Amount <= 0 || strings.TrimSpace(req.OrderRef) == "" {
		return domain.InitiateResponse{}, &domain.GatewayError{Code: CodeInvalidRequest, Message: "order reference and a positive amount are required"}
	}
	key := "sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	s.mu.Lock()
	s.sessions[key] = &session{orderRef: req.OrderRef, amount: req.Amount, status: domain.GatewayStatusReady}
	s.mu.Unlock()

	return domain.InitiateResponse{PaymentKey: key, CheckoutURL: s.checkoutURL + key}, nil
}

func (s *Simulated) Confirm(ctx context.Context, req domain.ConfirmRequest) (domain.ConfirmResponse, error) {
	if err := s.wait(ctx); err != nil {
		return domain.ConfirmResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[req.PaymentKey]
	if !ok {
		return domain.ConfirmResponse{}, &domain.GatewayError{Code: CodeNotFoundPayment, Message: "unknown payment key"}
	}
	if sess.orderRef != req.OrderRef || sess.amount != req.Amount {
		return domain.ConfirmResponse{}, &domain.GatewayError{Code: CodeInvalidRequest, Message: "order reference or amount differs from the checkout"}
	}
	if sess.status != domain.GatewayStatusReady && sess.status != domain.GatewayStatusInProgress {
		return domain.ConfirmResponse{}, &domain.GatewayError{Code: CodeInvalidRequest, Message: "payment is " + string(sess.status)}
	}
	if s.random.Float64() > s.successRate {
		sess.status = domain.GatewayStatusAborted
		return domain.ConfirmResponse{}, &domain.GatewayError{Code: CodeRejectedCard, Message: "the card issuer declined the payment"}
	}
	sess.status = domain.GatewayStatusDone
	return domain.ConfirmResponse{
		TransactionID:         "tx_" + uuid.NewString(),
		ProviderTransactionID: strings.ToUpper(req.PaymentKey[len("sim_"):][:16]),
	}, nil
}

func (s *Simulated) Cancel(ctx context.Context, paymentKey, reason string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[paymentKey]
	if !ok {
		return &domain.GatewayError{Code: CodeNotFoundPayment, Message: "unknown payment key"}
	}
	if sess.status == domain.GatewayStatusCanceled {
		return &domain.GatewayError{Code: CodeAlreadyCanceled, Message: "payment already canceled"}
	}
	sess.status = domain.GatewayStatusCanceled
	return nil
}

func (s *Simulated) Refund(ctx context.Context, req domain.RefundRequest) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[req.PaymentKey]
	if !ok {
		return &domain.GatewayError{Code: CodeNotFoundPayment, Message: "unknown payment key"}
	}
	if sess.status != domain.GatewayStatusDone || req.Amount <= 0 || sess.refunded+req.Amount > sess.amount {
		return &domain.GatewayError{Code: CodeNotRefundable, Message: "refund amount exceeds the refundable balance"}
	}
	sess.refunded += req.Amount
	return nil
}

func (s *Simulated) GetStatus(ctx context.Context, paymentKey string) (domain.GatewayStatus, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[paymentKey]
	if !ok {
		return "", &domain.GatewayError{Code: CodeNotFoundPayment, Message: "unknown payment key"}
	}
	return sess.status, nil
}

func (s *Simulated) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func clamp(rate float64) float64 {
	if rate < 0 {
		return 0
	}
	if rate > 1 {
		return 1
	}
	return rate
}
