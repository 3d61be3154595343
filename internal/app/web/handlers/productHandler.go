package handlers

import (
	"encoding/json"
	"net/http"

	"gomuzikstore_api/internal/store"
)

// ProductHandler — точечное чтение товара для админки.
type ProductHandler struct {
	products *store.ProductRepository
}

func NewProductHandler(products *store.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	externalID := r.URL.Query().Get("external_id")
	if externalID == "" {
		http.Error(w, "external_id query parameter is required", http.StatusBadRequest)
		return
	}

	product, err := h.products.GetByExternalID(r.Context(), externalID)
	if err != nil {
		http.Error(w, "Failed to fetch product", http.StatusInternalServerError)
		return
	}
	if product == nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(product); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
