package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/vetrina/pkg/httputil"
	"github.com/platinummonkey/vetrina/pkg/middleware"
	"github.com/platinummonkey/vetrina/pkg/observability"
	"github.com/platinummonkey/vetrina/pkg/payment"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

// OrderHandlers handles checkout and order history
type OrderHandlers struct {
	orders   *storage.OrderStore
	carts    *storage.CartStore
	payments payment.Provider
	log      *logrus.Logger
	metrics  *observability.Metrics
}

// NewOrderHandlers creates a new order handlers instance
func NewOrderHandlers(orders *storage.OrderStore, carts *storage.CartStore, payments payment.Provider, log *logrus.Logger, metrics *observability.Metrics) *OrderHandlers {
	return &OrderHandlers{
		orders:   orders,
		carts:    carts,
		payments: payments,
		log:      log,
		metrics:  metrics,
	}
}

// RegisterRoutes registers order routes; every route requires a user
func (h *OrderHandlers) RegisterRoutes(router *mux.Router) {
	router.Handle("/orders", middleware.RequireUser(http.HandlerFunc(h.list))).Methods("GET")
	router.Handle("/checkout", middleware.RequireUser(http.HandlerFunc(h.checkout))).Methods("POST")
}

// list handles GET /api/orders. Users see their own orders; admins see
// everyone's.
func (h *OrderHandlers) list(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	orders, err := h.orders.List(r.Context(), user.ID, user.IsAdmin())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, orders)
}

// checkout handles POST /api/checkout: the selected cart lines become
// an order after the payment capture checks out against their total
func (h *OrderHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req checkoutRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.CartItemIDs) == 0 {
		httputil.WriteValidationError(w, "cart_item_ids is required")
		return
	}
	if !httputil.RequireNonEmpty(w, req.PaymentRef, "payment_ref") {
		return
	}

	total, err := h.selectedTotal(r, user.ID, req.CartItemIDs)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "no matching cart items")
		} else {
			httputil.WriteInternalError(w, err)
		}
		return
	}

	if _, err := h.payments.VerifyCapture(r.Context(), req.PaymentRef, total); err != nil {
		if errors.Is(err, payment.ErrCaptureNotFound) {
			httputil.WriteValidationError(w, "unknown payment reference")
			return
		}
		httputil.WriteErrorMessage(w, http.StatusPaymentRequired, err.Error())
		return
	}

	order, err := h.orders.CreateFromCart(r.Context(), user.ID, user.Email, req.CartItemIDs, req.PaymentRef)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFoundError(w, "no matching cart items")
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.OrdersCreatedTotal.Inc()
	}
	h.log.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"order_id":  order.ID,
		"reference": order.Reference,
		"total":     order.Total,
	}).Info("order created")

	httputil.WriteCreated(w, order)
}

// selectedTotal prices the requested cart lines at current catalog
// prices, the same prices CreateFromCart snapshots. Lines the user
// does not own are simply not theirs to price.
func (h *OrderHandlers) selectedTotal(r *http.Request, userID int64, ids []int64) (float64, error) {
	lines, err := h.carts.List(r.Context(), userID)
	if err != nil {
		return 0, err
	}

	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var total float64
	var matched int
	for _, line := range lines {
		if wanted[line.ID] {
			total += line.LineTotal
			matched++
		}
	}
	if matched == 0 {
		return 0, storage.ErrNotFound
	}
	return total, nil
}
