package httppresentation

import (
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/minishop-saga/internal/application"
	"github.com/go-chi/chi/v5"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Carts.FindByCustomerID(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleAddCartItem merges an item into the cart. Products are resolved when
// the order is placed, not here.
func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err)
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		h.writeDomainError(w, r, application.Validation("product id is required"))
		return
	}

	ctx := r.Context()
	c, err := h.deps.Carts.FindByCustomerID(ctx, chi.URLParam(r, "customerID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := c.Add(req.ProductID, req.Quantity); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.deps.Carts.Save(ctx, c); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
