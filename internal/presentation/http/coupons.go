package httppresentation

import (
	"net/http"
	"time"

	appPromotion "github.com/Zhima-Mochi/minishop-saga/internal/application/promotion"
	dompromotion "github.com/Zhima-Mochi/minishop-saga/internal/domain/promotion"
	"github.com/go-chi/chi/v5"
)

type createCouponRequest struct {
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	DiscountType      string    `json:"discount_type"`
	DiscountValue     int64     `json:"discount_value"`
	MaxDiscountAmount int64     `json:"max_discount_amount"`
	MinOrderAmount    int64     `json:"min_order_amount"`
	TotalQuantity     int       `json:"total_quantity"`
	ValidFrom         time.Time `json:"valid_from"`
	ValidUntil        time.Time `json:"valid_until"`
}

type couponResponse struct {
	CouponID          string                    `json:"coupon_id"`
	Code              string                    `json:"code"`
	Name              string                    `json:"name"`
	DiscountType      dompromotion.DiscountType `json:"discount_type"`
	DiscountValue     int64                     `json:"discount_value"`
	MaxDiscountAmount int64                     `json:"max_discount_amount"`
	MinOrderAmount    int64                     `json:"min_order_amount"`
	TotalQuantity     int                       `json:"total_quantity"`
	IssuedQuantity    int                       `json:"issued_quantity"`
	ValidFrom         time.Time                 `json:"valid_from"`
	ValidUntil        time.Time                 `json:"valid_until"`
	Active            bool                      `json:"active"`
}

type issueCouponRequest struct {
	CustomerID string `json:"customer_id"`
}

type issueResponse struct {
	IssueID    string    `json:"issue_id"`
	CouponID   string    `json:"coupon_id"`
	CustomerID string    `json:"customer_id"`
	Used       bool      `json:"used"`
	OrderID    string    `json:"order_id,omitempty"`
	IssuedAt   time.Time `json:"issued_at"`
}

func (h *Handler) handleCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err)
		return
	}

	c, err := h.deps.Promotions.Create.Execute(r.Context(), appPromotion.CreateCouponInput{
		Code:              req.Code,
		Name:              req.Name,
		DiscountType:      dompromotion.DiscountType(req.DiscountType),
		DiscountValue:     req.DiscountValue,
		MaxDiscountAmount: req.MaxDiscountAmount,
		MinOrderAmount:    req.MinOrderAmount,
		TotalQuantity:     req.TotalQuantity,
		ValidFrom:         req.ValidFrom,
		ValidUntil:        req.ValidUntil,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, couponResponse{
		CouponID:          c.ID,
		Code:              c.Code,
		Name:              c.Name,
		DiscountType:      c.DiscountType,
		DiscountValue:     c.DiscountValue,
		MaxDiscountAmount: c.MaxDiscountAmount,
		MinOrderAmount:    c.MinOrderAmount,
		TotalQuantity:     c.TotalQuantity,
		IssuedQuantity:    c.IssuedQuantity,
		ValidFrom:         c.ValidFrom,
		ValidUntil:        c.ValidUntil,
		Active:            c.Active,
	})
}

func (h *Handler) handleIssueCoupon(w http.ResponseWriter, r *http.Request) {
	var req issueCouponRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err)
		return
	}

	v, err := h.deps.Promotions.Issue.Execute(r.Context(), appPromotion.IssueCouponInput{
		CouponID:   chi.URLParam(r, "id"),
		CustomerID: req.CustomerID,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, issueResponse{
		IssueID:    v.ID,
		CouponID:   v.CouponID,
		CustomerID: v.CustomerID,
		Used:       v.Used,
		OrderID:    v.OrderID,
		IssuedAt:   v.IssuedAt,
	})
}
