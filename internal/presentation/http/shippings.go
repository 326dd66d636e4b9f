package httppresentation

import (
	"net/http"

	appShipping "github.com/Zhima-Mochi/minishop-saga/internal/application/shipping"
	domshipping "github.com/Zhima-Mochi/minishop-saga/internal/domain/shipping"
	"github.com/go-chi/chi/v5"
)

type advanceShippingRequest struct {
	Status         string `json:"status"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	Reason         string `json:"reason"`
}

type shippingResponse struct {
	ShippingID          string             `json:"shipping_id"`
	OrderID             string             `json:"order_id"`
	Status              domshipping.Status `json:"status"`
	Carrier             string             `json:"carrier,omitempty"`
	TrackingNumber      string             `json:"tracking_number,omitempty"`
	Address             string             `json:"address"`
	ReturnReason        string             `json:"return_reason,omitempty"`
	EstimatedDeliveryAt string             `json:"estimated_delivery_at,omitempty"`
	DeliveredAt         string             `json:"delivered_at,omitempty"`
}

func shippingResponseOf(v *appShipping.View) shippingResponse {
	return shippingResponse{
		ShippingID:          v.ID,
		OrderID:             v.OrderID,
		Status:              v.Status,
		Carrier:             v.Carrier,
		TrackingNumber:      v.TrackingNumber,
		Address:             v.Address,
		ReturnReason:        v.ReturnReason,
		EstimatedDeliveryAt: v.EstimatedDeliveryAt,
		DeliveredAt:         v.DeliveredAt,
	}
}

func (h *Handler) handleGetShipping(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Shippings.Get.ByOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shippingResponseOf(v))
}

func (h *Handler) handleAdvanceShipping(w http.ResponseWriter, r *http.Request) {
	var req advanceShippingRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err)
		return
	}

	v, err := h.deps.Shippings.Advance.Execute(r.Context(), appShipping.AdvanceShippingInput{
		ShippingID:     chi.URLParam(r, "id"),
		Target:         appShipping.ParseTarget(req.Status),
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
		Reason:         req.Reason,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shippingResponseOf(v))
}
