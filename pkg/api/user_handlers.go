package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/vetrina/pkg/httputil"
	"github.com/platinummonkey/vetrina/pkg/middleware"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

// UserHandlers handles the admin user directory
type UserHandlers struct {
	users *storage.UserStore
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(users *storage.UserStore) *UserHandlers {
	return &UserHandlers{users: users}
}

// RegisterRoutes registers user routes; admin only
func (h *UserHandlers) RegisterRoutes(router *mux.Router) {
	router.Handle("/users", middleware.RequireAdmin(http.HandlerFunc(h.list))).Methods("GET")
}

// list handles GET /api/users. Password digests never leave the store.
func (h *UserHandlers) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, users)
}
