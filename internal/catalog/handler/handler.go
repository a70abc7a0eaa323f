package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-order-service/internal/catalog"
	"github.com/fekuna/omnipos-order-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-order-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler exposes read-only product lookups for cart composition.
// Catalog management lives in the product service.
type CatalogHandler struct {
	reader catalog.Reader
	logger logger.ZapLogger
}

func NewCatalogHandler(reader catalog.Reader, log logger.ZapLogger) *CatalogHandler {
	return &CatalogHandler{
		reader: reader,
		logger: log,
	}
}

func (h *CatalogHandler) Routes(r chi.Router) {
	r.Get("/products", h.ListProducts)
	r.Get("/products/{product_id}", h.GetProduct)
}

// GET /api/v1/products/{product_id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "product_id")

	p, err := h.reader.GetProduct(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load product", zap.String("product_id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal", "failed to load product")
		return
	}
	if p == nil {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GET /api/v1/products?q=&active=&page=&page_size=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filters := &dto.ProductFilters{
		SearchQuery: r.URL.Query().Get("q"),
		Page:        queryInt(r, "page", 1),
		PageSize:    queryInt(r, "page_size", 50),
	}
	if v := r.URL.Query().Get("active"); v != "" {
		if active, err := strconv.ParseBool(v); err == nil {
			filters.IsActive = &active
		}
	}

	products, count, err := h.reader.ListProducts(r.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal", "failed to list products")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    count,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": code, "message": message})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return fallback
	}
	return i
}
