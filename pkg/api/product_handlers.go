package api

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/vetrina/pkg/httputil"
	"github.com/platinummonkey/vetrina/pkg/middleware"
	"github.com/platinummonkey/vetrina/pkg/observability"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

// imageCacheSize bounds the decoded-image LRU; entries are full data
// URLs, so memory is roughly size * average image
const imageCacheSize = 256

// ProductHandlers handles catalog reads and admin catalog writes
type ProductHandlers struct {
	products *storage.ProductStore
	log      *logrus.Logger
	metrics  *observability.Metrics

	// imageCache keeps encoded data URLs keyed by product ID, saving
	// the base64 re-encode on every catalog read
	imageCache *lru.Cache[int64, string]
}

// NewProductHandlers creates a new product handlers instance
func NewProductHandlers(products *storage.ProductStore, log *logrus.Logger, metrics *observability.Metrics) *ProductHandlers {
	cache, _ := lru.New[int64, string](imageCacheSize)
	return &ProductHandlers{
		products:   products,
		log:        log,
		metrics:    metrics,
		imageCache: cache,
	}
}

// RegisterRoutes registers product routes. Reads are open; writes are
// admin only.
func (h *ProductHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/products", h.list).Methods("GET")
	router.HandleFunc("/products/{id}", h.get).Methods("GET")
	router.HandleFunc("/products/{id}/image", h.image).Methods("GET")

	router.Handle("/products", middleware.RequireAdmin(http.HandlerFunc(h.create))).Methods("POST")
	router.Handle("/products/{id}", middleware.RequireAdmin(http.HandlerFunc(h.update))).Methods("PUT")
	router.Handle("/products/{id}", middleware.RequireAdmin(http.HandlerFunc(h.remove))).Methods("DELETE")
}

// list handles GET /api/products with optional sort, order, and search
func (h *ProductHandlers) list(w http.ResponseWriter, r *http.Request) {
	opts := storage.ListOptions{
		SortBy: httputil.ParseQueryString(r, "sort", ""),
		Order:  httputil.ParseQueryString(r, "order", ""),
		Search: httputil.ParseQueryString(r, "search", ""),
	}

	summaries, err := h.products.List(r.Context(), opts)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, summaries)
}

// get handles GET /api/products/{id}
func (h *ProductHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFoundError(w, "product not found")
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, toProductResponse(product))
}

// image handles GET /api/products/{id}/image, serving the stored image
// as a data URL through the LRU cache
func (h *ProductHandlers) image(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if dataURL, ok := h.imageCache.Get(id); ok {
		if h.metrics != nil {
			h.metrics.ImageCacheHitsTotal.Inc()
		}
		httputil.WriteSuccess(w, map[string]string{"image": dataURL})
		return
	}
	if h.metrics != nil {
		h.metrics.ImageCacheMissesTotal.Inc()
	}

	product, err := h.products.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFoundError(w, "product not found")
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if len(product.Image) == 0 {
		httputil.WriteNotFoundError(w, "product has no image")
		return
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(product.Image)
	h.imageCache.Add(id, dataURL)
	httputil.WriteSuccess(w, map[string]string{"image": dataURL})
}

func decodeImage(w http.ResponseWriter, encoded string) ([]byte, bool) {
	if encoded == "" {
		return nil, true
	}
	img, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		httputil.WriteValidationError(w, "image must be valid base64")
		return nil, false
	}
	return img, true
}

// create handles POST /api/products (admin)
func (h *ProductHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	img, ok := decodeImage(w, req.Image)
	if !ok {
		return
	}

	product, err := h.products.Create(r.Context(), storage.ProductInput{
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Category: req.Category,
		Image:    img,
	})
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	h.log.WithFields(logrus.Fields{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("product created")
	httputil.WriteCreated(w, toProductResponse(product))
}

// update handles PUT /api/products/{id} (admin)
func (h *ProductHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req productPatchRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	patch := storage.ProductPatch{
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Category: req.Category,
	}
	if req.Image != nil {
		img, ok := decodeImage(w, *req.Image)
		if !ok {
			return
		}
		// Empty string clears the image; nil img is exactly that
		patch.Image = &img
	}

	product, err := h.products.Update(r.Context(), id, patch)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFoundError(w, "product not found")
		return
	}
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	h.imageCache.Remove(id)
	httputil.WriteSuccess(w, toProductResponse(product))
}

// remove handles DELETE /api/products/{id} (admin)
func (h *ProductHandlers) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	err := h.products.Delete(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFoundError(w, "product not found")
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	h.imageCache.Remove(id)
	httputil.WriteNoContent(w)
}
