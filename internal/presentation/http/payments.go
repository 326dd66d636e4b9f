package httppresentation

import (
	"net/http"

	appPayment "github.com/Zhima-Mochi/minishop-saga/internal/application/payment"
	dompayment "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	"github.com/go-chi/chi/v5"
)

type initiatePaymentRequest struct {
	OrderID    string `json:"order_id"`
	Method     string `json:"method"`
	SuccessURL string `json:"success_url"`
	FailURL    string `json:"fail_url"`
}

type confirmPaymentRequest struct {
	PaymentKey string `json:"payment_key"`
	Amount     int64  `json:"amount"`
}

type refundPaymentRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type paymentResponse struct {
	PaymentID        string            `json:"payment_id"`
	OrderID          string            `json:"order_id"`
	Amount           int64             `json:"amount"`
	RefundedAmount   int64             `json:"refunded_amount"`
	RefundableAmount int64             `json:"refundable_amount"`
	Method           dompayment.Method `json:"method"`
	Status           dompayment.Status `json:"status"`
	Provider         string            `json:"provider,omitempty"`
	PaymentKey       string            `json:"payment_key,omitempty"`
	TransactionID    string            `json:"transaction_id,omitempty"`
	FailureReason    string            `json:"failure_reason,omitempty"`
	CheckoutURL      string            `json:"checkout_url,omitempty"`
}

func paymentResponseOf(v *appPayment.View) paymentResponse {
	return paymentResponse{
		PaymentID:        v.ID,
		OrderID:          v.OrderID,
		Amount:           v.Amount,
		RefundedAmount:   v.RefundedAmount,
		RefundableAmount: v.RefundableAmount,
		Method:           v.Method,
		Status:           v.Status,
		Provider:         v.Provider,
		PaymentKey:       v.PaymentKey,
		TransactionID:    v.TransactionID,
		FailureReason:    v.FailureReason,
		CheckoutURL:      v.CheckoutURL,
	}
}

func (h *Handler) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req initiatePaymentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err)
		return
	}

	v, err := h.deps.Payments.Initiate.Execute(r.Context(), appPayment.InitiatePaymentInput{
		OrderID:    req.OrderID,
		Method:     req.Method,
		SuccessURL: req.SuccessURL,
		FailURL:    req.FailURL,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentResponseOf(v))
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Payments.Get.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponseOf(v))
}

func (h *Handler) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err)
		return
	}

	v, err := h.deps.Payments.Confirm.Execute(r.Context(), appPayment.ConfirmPaymentInput{
		PaymentID:  chi.URLParam(r, "id"),
		PaymentKey: req.PaymentKey,
		Amount:     req.Amount,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponseOf(v))
}

func (h *Handler) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err)
		return
	}

	v, err := h.deps.Payments.Cancel.Execute(r.Context(), appPayment.CancelPaymentInput{
		PaymentID: chi.URLParam(r, "id"),
		Reason:    req.Reason,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponseOf(v))
}

func (h *Handler) handleRefundPayment(w http.ResponseWriter, r *http.Request) {
	var req refundPaymentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err)
		return
	}

	v, err := h.deps.Payments.Refund.Execute(r.Context(), appPayment.RefundPaymentInput{
		PaymentID: chi.URLParam(r, "id"),
		Amount:    req.Amount,
		Reason:    req.Reason,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponseOf(v))
}
