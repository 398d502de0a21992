package api

import (
	"encoding/base64"
	"time"

	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

// loginRequest is the credential submission body
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse returns the signed-in identity. The token itself
// travels only in the HTTP-only cookie.
type loginResponse struct {
	User      *auth.SafeUser `json:"user"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// productRequest is the admin create body
type productRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Stock    int64   `json:"stock"`
	Category string  `json:"category"`
	// Image is base64-encoded binary, optional
	Image string `json:"image,omitempty"`
}

// productPatchRequest is the admin update body; absent fields stay
// unchanged, an explicit empty image clears it
type productPatchRequest struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	Stock    *int64   `json:"stock"`
	Category *string  `json:"category"`
	Image    *string  `json:"image"`
}

// productResponse is a catalog entry with the image inlined as a data
// URL, matching what the storefront renders
type productResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     int64     `json:"stock"`
	Category  string    `json:"category"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toProductResponse(p *storage.Product) productResponse {
	resp := productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		Category:  p.Category,
		CreatedAt: p.CreatedAt,
	}
	if len(p.Image) > 0 {
		resp.Image = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(p.Image)
	}
	return resp
}

// cartAddRequest adds a product to the visitor's cart
type cartAddRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// cartUpdateRequest changes a cart line's quantity
type cartUpdateRequest struct {
	Quantity int64 `json:"quantity"`
}

// checkoutRequest turns selected cart lines into an order
type checkoutRequest struct {
	CartItemIDs []int64 `json:"cart_item_ids"`
	PaymentRef  string  `json:"payment_ref"`
}
