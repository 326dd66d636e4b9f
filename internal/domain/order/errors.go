package order

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrConflict        = errors.New("order: conflict")
	ErrInvalidState    = errors.New("order: invalid state")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("order: unit price must be zero or greater")
	ErrInvalidDiscount = errors.New("order: discount must be zero or greater")
	ErrItemNotFound    = errors.New("order: line item not found")
	ErrPaymentRequired = errors.New("order: payment id is required")
	ErrCustomerMissing = errors.New("order: customer id is required")
)

// StateError reports an operation attempted while the order was in a status
// that does not allow it.
type StateError struct {
	OrderID   string
	Current   Status
	Operation string
	Detail    string
}

func (e *StateError) Error() string {
	msg := fmt.Sprintf("order: cannot %s order %s in status %s", e.Operation, e.OrderID, e.Current)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StateError) Unwrap() error { return ErrInvalidState }
