package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jayyveer/yarnbykrosh/internal/catalog"
)

// CatalogStore is both the public browse surface and the admin CRUD surface.
type CatalogStore interface {
	ListProducts(ctx context.Context) ([]*catalog.Product, error)
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	CreateProduct(ctx context.Context, p *catalog.Product) error
	UpdateProduct(ctx context.Context, p *catalog.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	CreateVariant(ctx context.Context, v *catalog.Variant) error
	UpdateVariantStock(ctx context.Context, variantID int64, stock int) error
	DeleteVariant(ctx context.Context, variantID int64) error
	ListCategories(ctx context.Context) ([]*catalog.Category, error)
	CreateCategory(ctx context.Context, c *catalog.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

type CatalogHandler struct {
	store CatalogStore
}

func NewCatalogHandler(store CatalogStore) *CatalogHandler {
	return &CatalogHandler{store: store}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "product_id")
	if !ok {
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if product.Name == "" || product.Price <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "name and a positive price are required")
		return
	}

	if err := h.store.CreateProduct(r.Context(), &product); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "product_id")
	if !ok {
		return
	}

	var product catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	product.ID = id

	if err := h.store.UpdateProduct(r.Context(), &product); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "product_id")
	if !ok {
		return
	}

	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *CatalogHandler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "product_id")
	if !ok {
		return
	}

	var variant catalog.Variant
	if err := json.NewDecoder(r.Body).Decode(&variant); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	variant.ProductID = productID
	if variant.Stock < 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "stock cannot be negative")
		return
	}

	if err := h.store.CreateVariant(r.Context(), &variant); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, variant)
}

type updateStockDTO struct {
	Stock int `json:"stock"`
}

func (h *CatalogHandler) UpdateVariantStock(w http.ResponseWriter, r *http.Request) {
	variantID, ok := idParam(w, r, "variant_id")
	if !ok {
		return
	}

	var req updateStockDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Stock < 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "stock cannot be negative")
		return
	}

	if err := h.store.UpdateVariantStock(r.Context(), variantID, req.Stock); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"stock": req.Stock})
}

func (h *CatalogHandler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	variantID, ok := idParam(w, r, "variant_id")
	if !ok {
		return
	}

	if err := h.store.DeleteVariant(r.Context(), variantID); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var category catalog.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if category.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	if err := h.store.CreateCategory(r.Context(), &category); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "category_id")
	if !ok {
		return
	}

	if err := h.store.DeleteCategory(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
