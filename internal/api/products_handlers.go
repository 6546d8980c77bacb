package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/fastprodman/coinmarket/internal/auth"
	"github.com/fastprodman/coinmarket/internal/repos/products"
	"github.com/fastprodman/coinmarket/internal/services/inventory"
	"github.com/go-chi/chi/v5"
)

type productResponse struct {
	ID              uint64 `json:"id"`
	Name            string `json:"name"`
	SellerID        uint64 `json:"seller_id"`
	AmountAvailable int64  `json:"amount_available"`
	Cost            int64  `json:"cost"`
}

func toProductResponse(p products.Product) productResponse {
	return productResponse{
		ID:              p.ID,
		Name:            p.Name,
		SellerID:        p.SellerID,
		AmountAvailable: p.AmountAvailable,
		Cost:            p.Cost,
	}
}

// parseProductIDFromPath reads `{productId}` from routes like /products/{productId}.
func parseProductIDFromPath(r *http.Request) (uint64, error) {
	idStr := chi.URLParam(r, "productId")
	if idStr == "" {
		return 0, fmt.Errorf("missing productId")
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid productId: %w", err)
	}

	if id == 0 {
		return 0, fmt.Errorf("invalid productId: must be positive")
	}

	return id, nil
}

// ListProducts handles GET /products
func (h *HandlerProvider) ListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.inventory.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]productResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProductResponse(p))
	}

	writeJSON(w, r, http.StatusOK, out)
}

// GetProduct handles GET /products/{productId}
func (h *HandlerProvider) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductIDFromPath(r)
	if err != nil {
		writeDetail(w, r, http.StatusNotFound, msgNotFound)
		return
	}

	p, err := h.inventory.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toProductResponse(p))
}

type createProductRequest struct {
	Name            *string `json:"name"`
	Cost            *int64  `json:"cost"`
	AmountAvailable *int64  `json:"amount_available"`
}

// CreateProduct handles POST /products
func (h *HandlerProvider) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := requireFields(map[string]bool{
		"name":             req.Name != nil,
		"cost":             req.Cost != nil,
		"amount_available": req.AmountAvailable != nil,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	a, _ := accountFrom(r.Context())

	p, err := h.inventory.Create(r.Context(), inventory.CreateInput{
		SellerID:        a.ID,
		Name:            *req.Name,
		Cost:            *req.Cost,
		AmountAvailable: *req.AmountAvailable,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/products/%d", p.ID))
	writeJSON(w, r, http.StatusCreated, toProductResponse(p))
}

// ownedProduct loads the path product and checks the caller listed it.
// On failure it has already written the response.
func (h *HandlerProvider) ownedProduct(w http.ResponseWriter, r *http.Request) (products.Product, bool) {
	id, err := parseProductIDFromPath(r)
	if err != nil {
		writeDetail(w, r, http.StatusNotFound, msgNotFound)
		return products.Product{}, false
	}

	p, err := h.inventory.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return products.Product{}, false
	}

	a, _ := accountFrom(r.Context())
	if !auth.IsResourceOwner(a, p) {
		writeDetail(w, r, http.StatusForbidden, msgForbidden)
		return products.Product{}, false
	}

	return p, true
}

// UpdateProduct handles PUT /products/{productId}
func (h *HandlerProvider) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedProduct(w, r)
	if !ok {
		return
	}

	var req createProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.inventory.Update(r.Context(), p.ID, inventory.UpdateInput{
		Name:            req.Name,
		Cost:            req.Cost,
		AmountAvailable: req.AmountAvailable,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toProductResponse(updated))
}

// DeleteProduct handles DELETE /products/{productId}
func (h *HandlerProvider) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedProduct(w, r)
	if !ok {
		return
	}

	err := h.inventory.Delete(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
