package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/vetrina/pkg/httputil"
	"github.com/platinummonkey/vetrina/pkg/middleware"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

// DashboardHandlers serves the admin dashboard aggregates
type DashboardHandlers struct {
	store *storage.Store
}

// NewDashboardHandlers creates a new dashboard handlers instance
func NewDashboardHandlers(store *storage.Store) *DashboardHandlers {
	return &DashboardHandlers{store: store}
}

// RegisterRoutes registers dashboard routes; admin only
func (h *DashboardHandlers) RegisterRoutes(router *mux.Router) {
	router.Handle("/dashboard/stats", middleware.RequireAdmin(http.HandlerFunc(h.stats))).Methods("GET")
}

// stats handles GET /api/dashboard/stats
func (h *DashboardHandlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.DashboardStats(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, stats)
}
