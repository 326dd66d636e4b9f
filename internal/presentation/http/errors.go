package httppresentation

import (
	"errors"
	"net/http"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	appOrder "github.com/Zhima-Mochi/minishop-saga/internal/application/order"
	domaddress "github.com/Zhima-Mochi/minishop-saga/internal/domain/address"
	domcart "github.com/Zhima-Mochi/minishop-saga/internal/domain/cart"
	domorder "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	domproduct "github.com/Zhima-Mochi/minishop-saga/internal/domain/product"
	dompromotion "github.com/Zhima-Mochi/minishop-saga/internal/domain/promotion"
	domshipping "github.com/Zhima-Mochi/minishop-saga/internal/domain/shipping"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability/logctx"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

// writeDomainError maps use case errors onto HTTP statuses. Gateway errors
// keep the provider's code and message.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var gerr *dompayment.GatewayError
	switch {
	case errors.As(err, &gerr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Code: gerr.Code, Message: gerr.Message})

	case errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, dompayment.ErrNotFound),
		errors.Is(err, domshipping.ErrNotFound),
		errors.Is(err, domproduct.ErrNotFound),
		errors.Is(err, dompromotion.ErrCouponNotFound),
		errors.Is(err, dompromotion.ErrIssueNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err)

	case errors.Is(err, domorder.ErrInvalidState),
		errors.Is(err, dompayment.ErrInvalidState),
		errors.Is(err, domshipping.ErrInvalidShippingTransition),
		errors.Is(err, appOrder.ErrDuplicateConfirmation):
		writeError(w, http.StatusConflict, "INVALID_STATE", err)

	case errors.Is(err, domorder.ErrConflict),
		errors.Is(err, dompayment.ErrConflict),
		errors.Is(err, dompayment.ErrAlreadyExists),
		errors.Is(err, domshipping.ErrConflict),
		errors.Is(err, domshipping.ErrAlreadyExists),
		errors.Is(err, dompromotion.ErrConflict),
		errors.Is(err, dompromotion.ErrAlreadyIssued):
		writeError(w, http.StatusConflict, "CONFLICT", err)

	case errors.Is(err, domproduct.ErrInsufficientStock):
		writeError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", err)
	case errors.Is(err, dompayment.ErrRefundExceedsAmount):
		writeError(w, http.StatusUnprocessableEntity, "REFUND_EXCEEDS_AMOUNT", err)
	case errors.Is(err, dompayment.ErrAmountMismatch):
		writeError(w, http.StatusUnprocessableEntity, "AMOUNT_MISMATCH", err)
	case errors.Is(err, dompromotion.ErrNotUsable),
		errors.Is(err, dompromotion.ErrNotIssuable),
		errors.Is(err, dompromotion.ErrIssueMismatch),
		errors.Is(err, appOrder.ErrCouponUnavailable),
		errors.Is(err, appOrder.ErrNothingToPay):
		writeError(w, http.StatusUnprocessableEntity, "COUPON_UNAVAILABLE", err)

	case errors.Is(err, application.ErrValidation),
		errors.Is(err, appOrder.ErrEmptyCart),
		errors.Is(err, domaddress.ErrIncomplete),
		errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, domorder.ErrInvalidQuantity),
		errors.Is(err, dompayment.ErrInvalidAmount),
		errors.Is(err, dompayment.ErrInvalidMethod),
		errors.Is(err, dompromotion.ErrInvalidDiscount),
		errors.Is(err, dompromotion.ErrInvalidValidity),
		errors.Is(err, domshipping.ErrTrackingNumberRequired):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err)

	default:
		logctx.FromOr(r.Context(), h.log).Error("http_internal_error", observability.F("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Message: "internal error"})
	}
}
