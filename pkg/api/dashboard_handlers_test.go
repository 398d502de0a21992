package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/vetrina/pkg/storage"
)

func TestDashboardStats_AdminOnly(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/dashboard/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userCookie := app.login(t, "user", "user123")
	rec = app.do(t, http.MethodGet, "/api/dashboard/stats", nil, userCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboardStats_Values(t *testing.T) {
	app := newTestApp(t)
	adminCookie := app.login(t, "admin", "admin123")

	rec := app.do(t, http.MethodGet, "/api/dashboard/stats", nil, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats storage.DashboardStats
	decodeBody(t, rec, &stats)
	assert.EqualValues(t, 8, stats.ProductCount)
	assert.EqualValues(t, 2, stats.UserCount)
	assert.EqualValues(t, 0, stats.OrderCount)
	assert.Equal(t, 0.0, stats.Revenue)

	// Revenue follows checkout
	userCookie := app.login(t, "user", "user123")
	itemID := app.fillCart(t, userCookie, 1, 1)
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/checkout", checkoutRequest{
		CartItemIDs: []int64{itemID}, PaymentRef: "cap_stat",
	}, userCookie).Code)

	rec = app.do(t, http.MethodGet, "/api/dashboard/stats", nil, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &stats)
	assert.EqualValues(t, 1, stats.OrderCount)
	assert.Equal(t, 1299.99, stats.Revenue)
}
