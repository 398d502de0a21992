package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/vetrina/pkg/payment"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

// failingProvider simulates the processor rejecting a capture
type failingProvider struct {
	err error
}

func (p failingProvider) VerifyCapture(_ context.Context, _ string, _ float64) (*payment.Capture, error) {
	return nil, p.err
}

// fillCart adds the given product and returns the resulting cart line id
func (a *testApp) fillCart(t *testing.T, cookie *http.Cookie, productID, quantity int64) int64 {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/cart", cartAddRequest{ProductID: productID, Quantity: quantity}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	var item storage.CartItem
	decodeBody(t, rec, &item)
	return item.ID
}

func TestCheckout_HappyPath(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t, "user", "user123")

	itemID := app.fillCart(t, cookie, 1, 2)

	rec := app.do(t, http.MethodPost, "/api/checkout", checkoutRequest{
		CartItemIDs: []int64{itemID},
		PaymentRef:  "cap_123",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	var order storage.Order
	decodeBody(t, rec, &order)
	assert.NotEmpty(t, order.Reference)
	assert.Equal(t, "cap_123", order.PaymentRef)
	assert.Equal(t, 2599.98, order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1299.99, order.Items[0].UnitPrice)
	assert.EqualValues(t, 2, order.Items[0].Quantity)

	// The purchased line is gone from the cart
	rec = app.do(t, http.MethodGet, "/api/cart", nil, cookie)
	assert.Equal(t, "null\n", rec.Body.String())
}

// Checkout consumes only the selected lines
func TestCheckout_PartialSelection(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t, "user", "user123")

	buyID := app.fillCart(t, cookie, 1, 1)
	app.fillCart(t, cookie, 4, 1)

	rec := app.do(t, http.MethodPost, "/api/checkout", checkoutRequest{
		CartItemIDs: []int64{buyID},
		PaymentRef:  "cap_partial",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	var order storage.Order
	decodeBody(t, rec, &order)
	require.Len(t, order.Items, 1)
	assert.EqualValues(t, 1, order.Items[0].ProductID)

	rec = app.do(t, http.MethodGet, "/api/cart", nil, cookie)
	var lines []storage.CartLine
	decodeBody(t, rec, &lines)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 4, lines[0].ProductID)
}

// Order items keep the price paid even after the catalog is repriced
func TestCheckout_PriceSnapshot(t *testing.T) {
	app := newTestApp(t)
	userCookie := app.login(t, "user", "user123")
	adminCookie := app.login(t, "admin", "admin123")

	itemID := app.fillCart(t, userCookie, 1, 1)

	rec := app.do(t, http.MethodPost, "/api/checkout", checkoutRequest{
		CartItemIDs: []int64{itemID},
		PaymentRef:  "cap_snap",
	}, userCookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	newPrice := 1.00
	rec = app.do(t, http.MethodPut, "/api/products/1", productPatchRequest{Price: &newPrice}, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/orders", nil, userCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []*storage.Order
	decodeBody(t, rec, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, 1299.99, orders[0].Total)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, 1299.99, orders[0].Items[0].UnitPrice)
}

func TestOrderList_Scoping(t *testing.T) {
	app := newTestApp(t)
	userCookie := app.login(t, "user", "user123")
	adminCookie := app.login(t, "admin", "admin123")

	userItem := app.fillCart(t, userCookie, 1, 1)
	adminItem := app.fillCart(t, adminCookie, 2, 1)

	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/checkout", checkoutRequest{
		CartItemIDs: []int64{userItem}, PaymentRef: "cap_u",
	}, userCookie).Code)
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/checkout", checkoutRequest{
		CartItemIDs: []int64{adminItem}, PaymentRef: "cap_a",
	}, adminCookie).Code)

	rec := app.do(t, http.MethodGet, "/api/orders", nil, userCookie)
	var orders []*storage.Order
	decodeBody(t, rec, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, "cap_u", orders[0].PaymentRef)

	rec = app.do(t, http.MethodGet, "/api/orders", nil, adminCookie)
	decodeBody(t, rec, &orders)
	assert.Len(t, orders, 2)
}

func TestCheckout_UnknownCapture(t *testing.T) {
	app := newTestApp(t, func(o *ServerOptions) {
		o.Payments = failingProvider{err: payment.ErrCaptureNotFound}
	})
	cookie := app.login(t, "user", "user123")
	itemID := app.fillCart(t, cookie, 1, 1)

	rec := app.do(t, http.MethodPost, "/api/checkout", checkoutRequest{
		CartItemIDs: []int64{itemID},
		PaymentRef:  "cap_ghost",
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The cart is untouched
	rec = app.do(t, http.MethodGet, "/api/cart", nil, cookie)
	var lines []storage.CartLine
	decodeBody(t, rec, &lines)
	assert.Len(t, lines, 1)
}

func TestCheckout_PaymentRejected(t *testing.T) {
	app := newTestApp(t, func(o *ServerOptions) {
		o.Payments = failingProvider{err: errors.New("capture amount mismatch")}
	})
	cookie := app.login(t, "user", "user123")
	itemID := app.fillCart(t, cookie, 1, 1)

	rec := app.do(t, http.MethodPost, "/api/checkout", checkoutRequest{
		CartItemIDs: []int64{itemID},
		PaymentRef:  "cap_bad",
	}, cookie)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestCheckout_Validation(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t, "user", "user123")

	rec := app.do(t, http.MethodPost, "/api/checkout", checkoutRequest{PaymentRef: "cap_x"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/checkout", checkoutRequest{CartItemIDs: []int64{1}}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Selecting only ids that are not yours is indistinguishable from
	// selecting nothing
	otherCookie := app.login(t, "admin", "admin123")
	itemID := app.fillCart(t, otherCookie, 1, 1)
	rec = app.do(t, http.MethodPost, "/api/checkout", checkoutRequest{
		CartItemIDs: []int64{itemID},
		PaymentRef:  "cap_theft",
	}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout_RequiresAuth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/checkout", checkoutRequest{CartItemIDs: []int64{1}, PaymentRef: "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
