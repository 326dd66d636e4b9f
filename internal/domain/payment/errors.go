package payment

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("payment: not found")
	ErrAlreadyExists       = errors.New("payment: order already has a payment")
	ErrConflict            = errors.New("payment: conflict")
	ErrInvalidState        = errors.New("payment: invalid state")
	ErrInvalidAmount       = errors.New("payment: amount must be greater than zero")
	ErrInvalidMethod       = errors.New("payment: unsupported method")
	ErrRefundExceedsAmount = errors.New("payment: refund exceeds paid amount")
	ErrAmountMismatch      = errors.New("payment: confirmed amount does not match")
	ErrGateway             = errors.New("payment: gateway failure")
)

type StateError struct {
	PaymentID string
	Current   Status
	Operation string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("payment: cannot %s payment %s in status %s", e.Operation, e.PaymentID, e.Current)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

// GatewayError carries the provider's own code and message to the caller unchanged.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s: %s", e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error { return ErrGateway }

const (
	CodeGatewayUnavailable = "GATEWAY_UNAVAILABLE"
	CodeGatewayTimeout     = "GATEWAY_TIMEOUT"
)

// AsGatewayError normalizes any error coming out of a Gateway into a
// *GatewayError so nothing else crosses the boundary.
func AsGatewayError(err error) *GatewayError {
	if err == nil {
		return nil
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge
	}
	return &GatewayError{Code: CodeGatewayUnavailable, Message: err.Error()}
}
