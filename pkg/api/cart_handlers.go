package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/vetrina/pkg/httputil"
	"github.com/platinummonkey/vetrina/pkg/middleware"
	"github.com/platinummonkey/vetrina/pkg/observability"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

// CartHandlers handles the signed-in visitor's cart
type CartHandlers struct {
	carts   *storage.CartStore
	metrics *observability.Metrics
}

// NewCartHandlers creates a new cart handlers instance
func NewCartHandlers(carts *storage.CartStore, metrics *observability.Metrics) *CartHandlers {
	return &CartHandlers{carts: carts, metrics: metrics}
}

// RegisterRoutes registers cart routes; every route requires a user
func (h *CartHandlers) RegisterRoutes(router *mux.Router) {
	router.Handle("/cart", middleware.RequireUser(http.HandlerFunc(h.list))).Methods("GET")
	router.Handle("/cart", middleware.RequireUser(http.HandlerFunc(h.add))).Methods("POST")
	router.Handle("/cart/{id}", middleware.RequireUser(http.HandlerFunc(h.update))).Methods("PUT")
	router.Handle("/cart/{id}", middleware.RequireUser(http.HandlerFunc(h.remove))).Methods("DELETE")
}

// list handles GET /api/cart
func (h *CartHandlers) list(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	lines, err := h.carts.List(r.Context(), user.ID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, lines)
}

// add handles POST /api/cart. Adding a product already in the cart
// increments its quantity.
func (h *CartHandlers) add(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req cartAddRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequirePositive(w, req.ProductID, "product_id") {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.carts.Add(r.Context(), user.ID, req.ProductID, req.Quantity)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFoundError(w, "product not found")
		return
	}
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.CartAddsTotal.Inc()
	}
	httputil.WriteCreated(w, item)
}

// update handles PUT /api/cart/{id}
func (h *CartHandlers) update(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req cartUpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	item, err := h.carts.UpdateQuantity(r.Context(), user.ID, id, req.Quantity)
	if errors.Is(err, storage.ErrNotFound) {
		// Also taken when the line belongs to someone else; foreign
		// lines look absent
		httputil.WriteNotFoundError(w, "cart item not found")
		return
	}
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	httputil.WriteSuccess(w, item)
}

// remove handles DELETE /api/cart/{id}
func (h *CartHandlers) remove(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	err := h.carts.Remove(r.Context(), user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFoundError(w, "cart item not found")
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
