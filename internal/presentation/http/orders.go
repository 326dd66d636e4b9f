package httppresentation

import (
	"net/http"

	appOrder "github.com/Zhima-Mochi/minishop-saga/internal/application/order"
	domaddress "github.com/Zhima-Mochi/minishop-saga/internal/domain/address"
	domorder "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	"github.com/go-chi/chi/v5"
)

type addressRequest struct {
	Recipient string `json:"recipient"`
	Phone     string `json:"phone"`
	ZipCode   string `json:"zip_code"`
	Line1     string `json:"line1"`
	Line2     string `json:"line2"`
	Memo      string `json:"memo"`
}

func (a addressRequest) toDomain() domaddress.Address {
	return domaddress.Address{
		Recipient: a.Recipient,
		Phone:     a.Phone,
		ZipCode:   a.ZipCode,
		Line1:     a.Line1,
		Line2:     a.Line2,
		Memo:      a.Memo,
	}
}

type createOrderRequest struct {
	CustomerID      string         `json:"customer_id"`
	ShippingAddress addressRequest `json:"shipping_address"`
	CouponID        string         `json:"coupon_id"`
}

type lineItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ImageURL    string `json:"image_url,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
}

type orderResponse struct {
	OrderID         string             `json:"order_id"`
	OrderNumber     string             `json:"order_number"`
	CustomerID      string             `json:"customer_id"`
	Status          domorder.Status    `json:"status"`
	Items           []lineItemResponse `json:"items"`
	TotalAmount     int64              `json:"total_amount"`
	DiscountAmount  int64              `json:"discount_amount"`
	PayableAmount   int64              `json:"payable_amount"`
	CouponID        string             `json:"coupon_id,omitempty"`
	PaymentID       string             `json:"payment_id,omitempty"`
	StockDeducted   bool               `json:"stock_deducted"`
	CancelReason    string             `json:"cancel_reason,omitempty"`
	ShippingAddress string             `json:"shipping_address"`
}

func orderResponseOf(v *appOrder.View) orderResponse {
	items := make([]lineItemResponse, 0, len(v.Items))
	for _, li := range v.Items {
		items = append(items, lineItemResponse{
			ProductID:   li.ProductID,
			ProductName: li.ProductName,
			ImageURL:    li.ImageURL,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Subtotal:    li.Subtotal(),
		})
	}
	return orderResponse{
		OrderID:         v.ID,
		OrderNumber:     v.OrderNumber,
		CustomerID:      v.CustomerID,
		Status:          v.Status,
		Items:           items,
		TotalAmount:     v.TotalAmount,
		DiscountAmount:  v.DiscountAmount,
		PayableAmount:   v.PayableAmount,
		CouponID:        v.CouponID,
		PaymentID:       v.PaymentID,
		StockDeducted:   v.StockDeducted,
		CancelReason:    v.CancelReason,
		ShippingAddress: v.ShippingAddress,
	}
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err)
		return
	}

	v, err := h.deps.Orders.Create.Execute(r.Context(), appOrder.CreateOrderInput{
		CustomerID:      req.CustomerID,
		ShippingAddress: req.ShippingAddress.toDomain(),
		CouponID:        req.CouponID,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponseOf(v))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Orders.Get.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponseOf(v))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err)
		return
	}

	v, err := h.deps.Orders.Cancel.Execute(r.Context(), appOrder.CancelOrderInput{
		OrderID: chi.URLParam(r, "id"),
		Reason:  req.Reason,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponseOf(v))
}

func (h *Handler) handleCompleteOrder(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Orders.Complete.Execute(r.Context(), appOrder.CompleteOrderInput{OrderID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponseOf(v))
}

type advanceRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleAdvanceOrder(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err)
		return
	}

	v, err := h.deps.Orders.Advance.Execute(r.Context(), appOrder.AdvanceOrderInput{
		OrderID: chi.URLParam(r, "id"),
		Target:  appOrder.ParseTarget(req.Status),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponseOf(v))
}
