// Package api implements the HTTP surface of the shop: session
// endpoints, the product catalog, cart and checkout, and the admin
// dashboard, plus the gated HTML pages.
package api
