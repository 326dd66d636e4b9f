package payment

import "context"

// Gateway is the boundary to the external payment provider. Every failure is
// reported as a *GatewayError; callers interpret the result before touching
// the Payment aggregate.
type Gateway interface {
	Provider() string
	Initiate(ctx context.Context, req InitiateRequest) (InitiateResponse, error)
	Confirm(ctx context.Context, req ConfirmRequest) (ConfirmResponse, error)
	Cancel(ctx context.Context, paymentKey, reason string) error
	Refund(ctx context.Context, req RefundRequest) error
	GetStatus(ctx context.Context, paymentKey string) (GatewayStatus, error)
}

type InitiateRequest struct {
	OrderRef   string
	OrderName  string
	Amount     int64
	Method     Method
	SuccessURL string
	FailURL    string
}

type InitiateResponse struct {
	PaymentKey  string
	CheckoutURL string
}

type ConfirmRequest struct {
	PaymentKey string
	OrderRef   string
	Amount     int64
}

type ConfirmResponse struct {
	TransactionID         string
	ProviderTransactionID string
}

type RefundRequest struct {
	PaymentKey string
	Amount     int64
	Reason     string
}

type GatewayStatus string

const (
	GatewayStatusReady      GatewayStatus = "READY"
	GatewayStatusInProgress GatewayStatus = "IN_PROGRESS"
	GatewayStatusDone       GatewayStatus = "DONE"
	GatewayStatusCanceled   GatewayStatus = "CANCELED"
	GatewayStatusAborted    GatewayStatus = "ABORTED"
)
