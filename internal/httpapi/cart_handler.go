package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jayyveer/yarnbykrosh/internal/cart"
)

type CartService interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	Add(ctx context.Context, userID string, productID, variantID int64, quantity int) error
	Increase(ctx context.Context, userID string, productID, variantID int64) error
	Decrease(ctx context.Context, userID string, productID, variantID int64) error
	Remove(ctx context.Context, userID string, productID, variantID int64) error
	Clear(ctx context.Context, userID string) error
}

type CartHandler struct {
	svc CartService
}

func NewCartHandler(svc CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

type addLineDTO struct {
	ProductID int64 `json:"product_id"`
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	userCart, err := h.svc.Get(r.Context(), user.ID.String())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, userCart)
}

func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	var req addLineDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 || req.VariantID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "product_id and variant_id must be positive")
		return
	}

	if err := h.svc.Add(r.Context(), user.ID.String(), req.ProductID, req.VariantID, req.Quantity); err != nil {
		handleDomainError(w, err)
		return
	}
	cartMutations.WithLabelValues("add").Inc()

	h.respondWithCart(w, r, user.ID.String(), http.StatusCreated)
}

func (h *CartHandler) Increase(w http.ResponseWriter, r *http.Request) {
	h.lineMutation(w, r, "increase", h.svc.Increase)
}

func (h *CartHandler) Decrease(w http.ResponseWriter, r *http.Request) {
	h.lineMutation(w, r, "decrease", h.svc.Decrease)
}

func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	h.lineMutation(w, r, "remove", h.svc.Remove)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	if err := h.svc.Clear(r.Context(), user.ID.String()); err != nil {
		handleDomainError(w, err)
		return
	}
	cartMutations.WithLabelValues("clear").Inc()

	h.respondWithCart(w, r, user.ID.String(), http.StatusOK)
}

func (h *CartHandler) lineMutation(w http.ResponseWriter, r *http.Request, op string,
	fn func(ctx context.Context, userID string, productID, variantID int64) error) {
	user, _ := userFrom(r.Context())

	productID, variantID, ok := lineParams(w, r)
	if !ok {
		return
	}

	if err := fn(r.Context(), user.ID.String(), productID, variantID); err != nil {
		handleDomainError(w, err)
		return
	}
	cartMutations.WithLabelValues(op).Inc()

	h.respondWithCart(w, r, user.ID.String(), http.StatusOK)
}

// respondWithCart returns the full cart after every mutation so the
// storefront never needs a follow-up fetch.
func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, userID string, status int) {
	userCart, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, status, userCart)
}

func lineParams(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, 0, false
	}
	variantID, err := strconv.ParseInt(chi.URLParam(r, "variant_id"), 10, 64)
	if err != nil || variantID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_variant_id", "variant_id must be a positive integer")
		return 0, 0, false
	}
	return productID, variantID, true
}
