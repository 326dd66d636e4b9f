package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	appOrder "github.com/Zhima-Mochi/minishop-saga/internal/application/order"
	appPayment "github.com/Zhima-Mochi/minishop-saga/internal/application/payment"
	appPromotion "github.com/Zhima-Mochi/minishop-saga/internal/application/promotion"
	appShipping "github.com/Zhima-Mochi/minishop-saga/internal/application/shipping"
	domcart "github.com/Zhima-Mochi/minishop-saga/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/go-chi/chi/v5"
)

const componentHTTPHandler = "http_server"

// HealthCheck reports whether an optional backend is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Orders     *appOrder.UseCases
	Payments   *appPayment.UseCases
	Shippings  *appShipping.UseCases
	Promotions *appPromotion.UseCases
	Carts      domcart.Repository
	Checks     map[string]HealthCheck
	Tel        observability.Observability
}

type Handler struct {
	deps Deps
	log  observability.Logger
	tel  observability.Observability
}

func NewHandler(d Deps) *Handler {
	if d.Tel == nil {
		d.Tel = observability.Nop()
	}
	return &Handler{
		deps: d,
		log:  d.Tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:  d.Tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	h.handle(r, http.MethodGet, "/health", h.handleHealth)

	h.handle(r, http.MethodGet, "/carts/{customerID}", h.handleGetCart)
	h.handle(r, http.MethodPost, "/carts/{customerID}/items", h.handleAddCartItem)

	h.handle(r, http.MethodPost, "/orders", h.handleCreateOrder)
	h.handle(r, http.MethodGet, "/orders/{id}", h.handleGetOrder)
	h.handle(r, http.MethodPost, "/orders/{id}/cancel", h.handleCancelOrder)
	h.handle(r, http.MethodPost, "/orders/{id}/complete", h.handleCompleteOrder)
	h.handle(r, http.MethodPost, "/orders/{id}/advance", h.handleAdvanceOrder)

	h.handle(r, http.MethodPost, "/payments", h.handleInitiatePayment)
	h.handle(r, http.MethodGet, "/payments/{id}", h.handleGetPayment)
	h.handle(r, http.MethodPost, "/payments/{id}/confirm", h.handleConfirmPayment)
	h.handle(r, http.MethodPost, "/payments/{id}/cancel", h.handleCancelPayment)
	h.handle(r, http.MethodPost, "/payments/{id}/refund", h.handleRefundPayment)

	h.handle(r, http.MethodPost, "/coupons", h.handleCreateCoupon)
	h.handle(r, http.MethodPost, "/coupons/{id}/issue", h.handleIssueCoupon)

	h.handle(r, http.MethodGet, "/shippings/{orderID}", h.handleGetShipping)
	h.handle(r, http.MethodPost, "/shippings/{id}/advance", h.handleAdvanceShipping)

	return r
}

// handle wires one route: Trace → Request Logger → Metrics → Access Log → Handler.
func (h *Handler) handle(r chi.Router, method, route string, fn http.HandlerFunc) {
	wrapped := h.withTrace(
		h.withRequestLogger(
			h.withHTTPMetrics(
				h.withAccessLog(fn),
			),
		),
	)
	r.Method(method, route, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		wrapped.ServeHTTP(w, req.WithContext(contextWithRoute(req.Context(), route)))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	for name, check := range h.deps.Checks {
		if err := check(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body[name] = err.Error()
			continue
		}
		body[name] = "ok"
	}
	writeJSON(w, status, body)
}

// decodeJSON rejects unknown fields. An empty body is accepted when optional is set.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
