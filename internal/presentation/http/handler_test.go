package httppresentation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-saga/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-saga/internal/config"
	dompayment "github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	domproduct "github.com/Zhima-Mochi/minishop-saga/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/paymentgateway"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-saga/internal/presentation/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	t   *testing.T
	app *bootstrap.App
	srv *httptest.Server
}

func newServer(t *testing.T, gw dompayment.Gateway, checks map[string]httppresentation.HealthCheck) *server {
	t.Helper()
	cfg, err := config.FromLookup(func(string) (string, bool) { return "", false })
	require.NoError(t, err)

	mug, err := domproduct.New("p-mug", "Mug", 5_000, 10, "mug.png")
	require.NoError(t, err)

	app := bootstrap.New(cfg, observability.Nop(), bootstrap.Adapters{
		Products: memory.NewProductRepository(mug),
		Gateway:  gw,
	})
	app.Start(context.Background())

	h := httppresentation.NewHandler(httppresentation.Deps{
		Orders:     app.Orders,
		Payments:   app.Payments,
		Shippings:  app.Shippings,
		Promotions: app.Promotions,
		Carts:      app.Carts,
		Checks:     checks,
		Tel:        observability.Nop(),
	})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = app.Stop(ctx)
	})
	return &server{t: t, app: app, srv: srv}
}

func (s *server) do(method, path string, body any) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.srv.URL+path, &buf)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (s *server) settle() {
	s.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(s.t, s.app.Bus.WaitIdle(ctx))
}

func (s *server) placeOrder() string {
	s.t.Helper()
	status, _ := s.do(http.MethodPost, "/carts/c-1/items", map[string]any{"product_id": "p-mug", "quantity": 2})
	require.Equal(s.t, http.StatusOK, status)

	status, body := s.do(http.MethodPost, "/orders", map[string]any{
		"customer_id": "c-1",
		"shipping_address": map[string]any{
			"recipient": "Kim",
			"phone":     "010-1111-2222",
			"zip_code":  "06236",
			"line1":     "Teheran-ro 1",
		},
	})
	require.Equal(s.t, http.StatusCreated, status, body)
	assert.Equal(s.t, "PENDING", body["status"])
	assert.EqualValues(s.t, 10_000, body["payable_amount"])
	return body["order_id"].(string)
}

func TestCheckoutOverHTTP(t *testing.T) {
	s := newServer(t, paymentgateway.NewSimulated(paymentgateway.WithSuccessRate(1)), nil)
	orderID := s.placeOrder()

	status, body := s.do(http.MethodPost, "/payments", map[string]any{"order_id": orderID, "method": "card"})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "PROCESSING", body["status"])
	assert.NotEmpty(t, body["checkout_url"])
	paymentID := body["payment_id"].(string)

	status, body = s.do(http.MethodPost, "/payments/"+paymentID+"/confirm", map[string]any{
		"payment_key": body["payment_key"],
		"amount":      10_000,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "COMPLETED", body["status"])
	s.settle()

	status, body = s.do(http.MethodGet, "/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "CONFIRMED", body["status"])
	assert.Equal(t, true, body["stock_deducted"])

	status, body = s.do(http.MethodGet, "/shippings/"+orderID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "PENDING", body["status"])
	shippingID := body["shipping_id"].(string)

	for _, step := range []string{"preparing", "picked_up", "in-transit"} {
		status, body = s.do(http.MethodPost, "/shippings/"+shippingID+"/advance", map[string]any{"status": step})
		require.Equal(t, http.StatusOK, status, body)
	}
	assert.Equal(t, "IN_TRANSIT", body["status"])
	assert.NotEmpty(t, body["tracking_number"])

	status, body = s.do(http.MethodPost, "/payments/"+paymentID+"/refund", map[string]any{"amount": 20_000})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "REFUND_EXCEEDS_AMOUNT", body["code"])
}

func TestErrorMapping(t *testing.T) {
	s := newServer(t, paymentgateway.NewSimulated(paymentgateway.WithSuccessRate(1)), nil)

	status, body := s.do(http.MethodGet, "/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])

	status, body = s.do(http.MethodPost, "/orders", map[string]any{"customer_id": "c-9", "shipping_address": map[string]any{"recipient": "Kim"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", body["code"])

	status, body = s.do(http.MethodPost, "/orders", map[string]any{"unknown": true})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_JSON", body["code"])

	orderID := s.placeOrder()
	status, body = s.do(http.MethodPost, "/orders/"+orderID+"/complete", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_STATE", body["code"])

	status, body = s.do(http.MethodPost, "/orders/"+orderID+"/cancel", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "CANCELLED", body["status"])

	status, body = s.do(http.MethodPost, "/payments", map[string]any{"order_id": orderID, "method": "card"})
	assert.Equal(t, http.StatusConflict, status, body)
}

func TestGatewayDeclinePassesThrough(t *testing.T) {
	s := newServer(t, paymentgateway.NewSimulated(paymentgateway.WithSuccessRate(0)), nil)
	orderID := s.placeOrder()

	status, body := s.do(http.MethodPost, "/payments", map[string]any{"order_id": orderID, "method": "card"})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = s.do(http.MethodPost, "/payments/"+body["payment_id"].(string)+"/confirm", map[string]any{
		"payment_key": body["payment_key"],
		"amount":      10_000,
	})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, paymentgateway.CodeRejectedCard, body["code"])
	assert.Equal(t, "the card issuer declined the payment", body["message"])
}

func TestHealthReportsFailingChecks(t *testing.T) {
	s := newServer(t, nil, map[string]httppresentation.HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	status, body := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "connection refused", body["redis"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newServer(t, nil, nil)
	req, err := http.NewRequest(http.MethodGet, s.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-42")

	resp, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))
}
